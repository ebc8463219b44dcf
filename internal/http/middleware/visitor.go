package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

type contextKey string

const visitorKey contextKey = "visitorID"

// VisitorCookie carries the signed visitor id.
const VisitorCookie = "chispart_visitor"

const visitorIssuer = "chispart-landing"

// VisitorTokens signs and verifies visitor ids as HS256 JWTs.
type VisitorTokens struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewVisitorTokens builds a signer. An empty secret is replaced by a random
// one, so cookies only survive until the process restarts.
func NewVisitorTokens(secret string, ttl time.Duration, secure bool) (*VisitorTokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("middleware: generate visitor secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &VisitorTokens{secret: key, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Issue returns a signed token for id.
func (v *VisitorTokens) Issue(id string) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    visitorIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("middleware: sign visitor token: %w", err)
	}
	return signed, nil
}

// Verify returns the visitor id carried by token.
func (v *VisitorTokens) Verify(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithIssuer(visitorIssuer), jwt.WithTimeFunc(v.now))
	if err != nil {
		return "", fmt.Errorf("middleware: verify visitor token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("middleware: visitor token has no subject")
	}
	return claims.Subject, nil
}

// Visitor makes sure every request has a visitor id. A missing, expired or
// tampered cookie gets a fresh id and a new cookie.
func Visitor(tokens *VisitorTokens, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(VisitorCookie); err == nil {
				if verified, err := tokens.Verify(c.Value); err == nil {
					id = verified
				} else {
					logger.Debug("visitor cookie rejected", "error", err)
				}
			}
			if id == "" {
				id = uuid.NewString()
				signed, err := tokens.Issue(id)
				if err != nil {
					logger.Error("visitor cookie not issued", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    signed,
					Path:     "/",
					MaxAge:   int(tokens.ttl.Seconds()),
					HttpOnly: true,
					Secure:   tokens.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithVisitor(r.Context(), id)))
		})
	}
}

// WithVisitor stores a visitor id in ctx.
func WithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey, id)
}

// VisitorFromContext returns the visitor id set by Visitor.
func VisitorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorKey).(string)
	return id, ok && id != ""
}
