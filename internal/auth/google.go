package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/erazemk/najdeno/internal/model"
)

// GoogleVerifier verifies Google ID tokens against a specific client ID.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier returns a verifier for tokens issued to clientID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify implements TokenVerifier.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", model.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	verified, _ := p.Claims["email_verified"].(bool)
	first, _ := p.Claims["given_name"].(string)
	last, _ := p.Claims["family_name"].(string)
	return &Identity{
		Subject:       p.Subject,
		Email:         email,
		EmailVerified: verified,
		FirstName:     first,
		LastName:      last,
	}, nil
}
