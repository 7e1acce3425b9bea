package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"assistix/internal/chat"
	"assistix/internal/service"
	"assistix/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextAccountID = "accountID"
	ContextAccess    = "access"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a chat account. The subject is the numeric account id.
type Claims struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the account. A zero ttl never expires.
func IssueToken(secret []byte, account chat.Sender, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  account.Username,
		FirstName: account.FirstName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(account.ID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccountToken validates tokenString and returns the account it names.
func ParseAccountToken(secret []byte, tokenString string) (chat.Sender, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return chat.Sender{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return chat.Sender{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return chat.Sender{ID: id, Username: claims.Username, FirstName: claims.FirstName}, nil
}

// tokenFromRequest tries the access_token cookie first, then the Authorization header.
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// AccessResolver reports the admin capability of an account.
type AccessResolver interface {
	Access(ctx context.Context, accountID int64) (service.Access, error)
}

// RequireAdmin validates the token and lets only allow-listed accounts through.
func RequireAdmin(secret []byte, admins AccessResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		account, err := ParseAccountToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		access, err := admins.Access(c.Request.Context(), account.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if access == service.AccessNone {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: not an admin"))
			return
		}

		c.Set(ContextAccountID, account.ID)
		c.Set(ContextAccess, access)
		c.Next()
	}
}

// AccountID returns the authenticated account set by RequireAdmin.
func AccountID(c *gin.Context) int64 {
	return c.GetInt64(ContextAccountID)
}
