package service

import (
	"errors"
	"fmt"

	"storefront/model"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var validate = validator.New()

// storeErr maps a repository failure onto the public error taxonomy.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound):
		return model.NotFound(notFound)
	}
	var typed *model.Error
	if errors.As(err, &typed) {
		return typed
	}
	return model.Internal("Server error", err)
}

// RequireAdmin is the authorization decision for admin-only operations.
func RequireAdmin(p model.Principal) error {
	if !p.IsAdmin {
		return model.Forbidden("Action Forbidden")
	}
	return nil
}

func requireUser(p model.Principal) error {
	if p.UserID == "" {
		return model.Unauthorized("No Token Provided")
	}
	return nil
}

// fieldErrors flattens validator failures into one message per field.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var result *multierror.Error
	for _, fe := range verrs {
		result = multierror.Append(result, fmt.Errorf("%s is %s", fe.Field(), fe.Tag()))
	}
	return result.ErrorOrNil()
}

// details lists the individual messages of a multierror.
func details(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}
