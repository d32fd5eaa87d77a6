package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/model"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Claims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.StandardClaims
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService. A zero ttl issues tokens without expiry.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenService) Issue(u *model.User) (string, error) {
	claims := Claims{
		ID:      u.ID,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: t.now().Unix(),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = t.now().Add(t.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		logrus.Errorf("Issue: failed to sign token err = %v", err)
		return "", err
	}
	return signed, nil
}

func (t *TokenService) Verify(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return model.Principal{}, model.Unauthorized("Invalid token")
	}
	return model.Principal{UserID: claims.ID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

const bearerPrefix = "Bearer "

type authFailure struct {
	Auth    string `json:"auth"`
	Message string `json:"message"`
}

// Authenticate requires a valid bearer token and stores the principal on the context.
func Authenticate(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authFailure{Auth: "Failed", Message: "No Token Provided"})
			return
		}
		raw, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authFailure{Auth: "Failed", Message: "Invalid token"})
			return
		}
		principal, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authFailure{Auth: "Failed", Message: "Invalid token"})
			return
		}
		c.Set(string(UserContext), principal)
		c.Next()
	}
}
