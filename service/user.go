package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	mobileNoLength    = 11
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

type UserService struct {
	users    UserRepository
	products ProductRepository
	tokens   TokenIssuer
	cost     int
	now      func() time.Time
}

func NewUserService(users UserRepository, products ProductRepository, tokens TokenIssuer) *UserService {
	return &UserService{users: users, products: products, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, model.Validation("Invalid name format")
	}
	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, model.Validation("Invalid email format")
	}
	if len(req.Password) < minPasswordLength {
		return nil, model.Validation("Password must be at least 8 characters long")
	}
	if len(req.MobileNo) != mobileNoLength {
		return nil, model.Validation("Mobile number is invalid")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, model.Conflict("Email already exists")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, storeErr(err, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, model.Internal("failed to secure password", err)
	}
	now := s.now().UTC()
	u := &model.User{
		ID:            uuid.NewString(),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         email,
		Password:      string(hash),
		MobileNo:      req.MobileNo,
		LikedProducts: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, model.Conflict("Email already exists")
		}
		return nil, storeErr(err, "")
	}
	logrus.WithField("userId", u.ID).Info("user registered")
	return u, nil
}

// Login checks credentials and returns a signed access token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return "", model.Validation("Invalid email format")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", storeErr(err, "No email found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return "", model.Unauthorized("Incorrect email or password")
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", model.Internal("error in generating jwt token", err)
	}
	return token, nil
}

func (s *UserService) Details(ctx context.Context, actor model.Principal) (*model.UserDetails, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	liked, err := s.likedProducts(ctx, u)
	if err != nil {
		return nil, err
	}
	return &model.UserDetails{User: *u, LikedProducts: liked}, nil
}

func (s *UserService) List(ctx context.Context, actor model.Principal) ([]model.User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, model.Internal("Server error retrieving users.", err)
	}
	return users, nil
}

// SetAsAdmin promotes a user. Promotion is one-way; it reports whether anything changed.
func (s *UserService) SetAsAdmin(ctx context.Context, actor model.Principal, userID string) (bool, error) {
	if err := RequireAdmin(actor); err != nil {
		return false, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, storeErr(err, "User not found")
	}
	if u.IsAdmin {
		return false, nil
	}
	if err := s.users.SetAdmin(ctx, userID); err != nil {
		return false, storeErr(err, "User not found")
	}
	logrus.WithField("userId", userID).Info("user promoted to admin")
	return true, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, actor model.Principal, newPassword string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if newPassword == "" {
		return model.Validation("New password is required.")
	}
	if len(newPassword) < minPasswordLength {
		return model.Validation("Password must be at least 8 characters long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return model.Internal("Internal server error.", err)
	}
	if err := s.users.UpdatePassword(ctx, actor.UserID, string(hash)); err != nil {
		return storeErr(err, "User not found.")
	}
	return nil
}

// Like adds productID to the caller's liked set. Liking twice is a conflict.
func (s *UserService) Like(ctx context.Context, actor model.Principal, productID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return storeErr(err, "Product not found")
	}
	added, err := s.users.AddLike(ctx, actor.UserID, productID)
	if err != nil {
		return storeErr(err, "User not found")
	}
	if !added {
		return model.Conflict("Product already liked")
	}
	return nil
}

// Unlike removes productID from the caller's liked set.
func (s *UserService) Unlike(ctx context.Context, actor model.Principal, productID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	removed, err := s.users.RemoveLike(ctx, actor.UserID, productID)
	if err != nil {
		return storeErr(err, "User not found")
	}
	if !removed {
		return model.InvalidState("Product not in likes")
	}
	return nil
}

func (s *UserService) Likes(ctx context.Context, actor model.Principal) ([]model.Product, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return s.likedProducts(ctx, u)
}

// likedProducts resolves the liked ids in like order, skipping deleted products.
func (s *UserService) likedProducts(ctx context.Context, u *model.User) ([]model.Product, error) {
	found, err := s.products.FindByIDs(ctx, u.LikedProducts)
	if err != nil {
		return nil, storeErr(err, "")
	}
	out := make([]model.Product, 0, len(u.LikedProducts))
	for _, id := range u.LikedProducts {
		if p, ok := found[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
