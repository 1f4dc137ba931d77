package auth

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/validate"
)

// Credentials is what a client presents to log in. Which fields matter
// depends on the provider.
type Credentials struct {
	Login    string
	Password string
	IDToken  string
}

// Provider turns credentials into a known user. Failures wrap
// model.ErrUnauthorized.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (*model.User, error)
}

// PasswordProvider authenticates by student ID or email plus password.
type PasswordProvider struct {
	DB *sql.DB
}

// Authenticate implements Provider.
func (p *PasswordProvider) Authenticate(ctx context.Context, creds Credentials) (*model.User, error) {
	// Student IDs and emails are stored lower-cased.
	login := strings.ToLower(strings.TrimSpace(creds.Login))
	if login == "" || creds.Password == "" {
		return nil, fmt.Errorf("missing credentials: %w", model.ErrUnauthorized)
	}

	user, err := store.GetUserByLogin(ctx, p.DB, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(user.PasswordHash, creds.Password) {
		slog.Warn("login failed", "login", creds.Login)
		return nil, fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
	}
	return user, nil
}

// Identity is the verified profile an identity provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

// TokenVerifier checks an identity provider's ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ExternalProvider authenticates with a third-party ID token and keeps a
// local user in sync with it.
type ExternalProvider struct {
	DB       *sql.DB
	Verifier TokenVerifier

	// StaffDomain marks accounts as staff when their email is on it.
	StaffDomain string
	// StudentDomain is where student addresses of the form <sid>@domain live.
	StudentDomain string

	Now func() time.Time
}

// Authenticate implements Provider. Users are matched by provider subject
// first, then by email; unknown identities get a new account.
func (p *ExternalProvider) Authenticate(ctx context.Context, creds Credentials) (*model.User, error) {
	if creds.IDToken == "" {
		return nil, fmt.Errorf("missing id token: %w", model.ErrUnauthorized)
	}

	id, err := p.Verifier.Verify(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}
	if id.Subject == "" || id.Email == "" || !id.EmailVerified {
		return nil, fmt.Errorf("unverified identity: %w", model.ErrUnauthorized)
	}
	email := strings.ToLower(id.Email)

	var user *model.User
	err = db.WithTx(ctx, p.DB, func(tx db.DBTX) error {
		now := p.now()

		user, err = store.GetUserByExternalID(ctx, tx, id.Subject)
		if err != nil || user != nil {
			return err
		}

		user, err = store.GetUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if user != nil {
			user.ExternalID = &id.Subject
			return store.LinkExternalID(ctx, tx, user.ID, id.Subject, now)
		}

		user = &model.User{
			ID:         uuid.NewString(),
			Email:      &email,
			FirstName:  id.FirstName,
			LastName:   id.LastName,
			ExternalID: &id.Subject,
			Role:       p.roleFor(email),
		}
		if user.Role == model.RoleStudent {
			if sid, ok := p.studentIDFor(email); ok {
				user.StudentID = &sid
			}
		}
		if err := store.CreateUser(ctx, tx, user, now); err != nil {
			return err
		}
		slog.Info("user created from identity provider", "user", user.ID, "role", user.Role)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (p *ExternalProvider) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *ExternalProvider) roleFor(email string) string {
	if p.StaffDomain != "" && emailDomain(email) == strings.ToLower(p.StaffDomain) {
		return model.RoleStaff
	}
	return model.RoleStudent
}

func (p *ExternalProvider) studentIDFor(email string) (string, bool) {
	if p.StudentDomain == "" || emailDomain(email) != strings.ToLower(p.StudentDomain) {
		return "", false
	}
	local := email[:strings.LastIndex(email, "@")]
	if !validate.StudentID(local) {
		return "", false
	}
	return local, true
}

func emailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}
