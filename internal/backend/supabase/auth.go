package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ekisa-team/toolguide/internal/backend"
)

// claims are the fields toolguide reads from a Supabase access token.
type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate resolves an access token into a user. With a JWT secret the
// token is verified locally, otherwise the auth server is asked.
func (b *Backend) Authenticate(ctx context.Context, token string) (*backend.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", backend.ErrUnauthorized)
	}

	if len(b.jwtSecret) > 0 {
		return b.verifyLocal(token)
	}

	return b.verifyRemote(ctx, token)
}

func (b *Backend) verifyLocal(token string) (*backend.User, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return b.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrUnauthorized, err)
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", backend.ErrUnauthorized)
	}

	return &backend.User{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (b *Backend) verifyRemote(ctx context.Context, token string) (*backend.User, error) {
	headers := map[string]string{
		"apikey":        b.anonKey,
		"Authorization": "Bearer " + token,
	}

	var u authUser
	err := b.client.DoJSON(ctx, http.MethodGet, b.url+"/auth/v1/user", headers, nil, &u, "supabase.get_user")
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", backend.ErrUnauthorized, err)
		}
		return nil, err
	}

	if u.ID == "" {
		return nil, fmt.Errorf("%w: auth server returned no user", backend.ErrUnauthorized)
	}

	return &backend.User{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}
