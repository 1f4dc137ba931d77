package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	args := m.Called(ctx, token)
	if id, _ := args.Get(0).(*Identity); id != nil {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestPasswordProvider(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        strPtr("s123456@student.roundrockisd.org"),
		StudentID:    strPtr("s123456"),
		PasswordHash: hash,
		Role:         model.RoleStudent,
	}
	require.NoError(t, store.CreateUser(ctx, database, u, fixedNow))

	p := &PasswordProvider{DB: database}

	got, err := p.Authenticate(ctx, Credentials{Login: "s123456", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = p.Authenticate(ctx, Credentials{Login: "s123456@student.roundrockisd.org", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	for _, login := range []string{"S123456", " S123456@Student.RoundRockISD.org "} {
		got, err = p.Authenticate(ctx, Credentials{Login: login, Password: "secret1"})
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, got.ID)
	}

	_, err = p.Authenticate(ctx, Credentials{Login: "   ", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = p.Authenticate(ctx, Credentials{Login: "s123456", Password: "wrong"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = p.Authenticate(ctx, Credentials{Login: "s999999", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = p.Authenticate(ctx, Credentials{})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func newExternal(t *testing.T, v TokenVerifier) *ExternalProvider {
	return &ExternalProvider{
		DB:            db.NewTestDB(t),
		Verifier:      v,
		StaffDomain:   "roundrockisd.org",
		StudentDomain: "student.roundrockisd.org",
		Now:           func() time.Time { return fixedNow },
	}
}

func TestExternalProviderCreatesStudent(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&Identity{
		Subject: "sub-1", Email: "S654321@student.roundrockisd.org", EmailVerified: true,
		FirstName: "Eva", LastName: "Kos",
	}, nil)
	p := newExternal(t, v)
	ctx := context.Background()

	u, err := p.Authenticate(ctx, Credentials{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, u.Role)
	require.NotNil(t, u.StudentID)
	assert.Equal(t, "s654321", *u.StudentID)
	assert.Equal(t, "s654321@student.roundrockisd.org", *u.Email)

	again, err := p.Authenticate(ctx, Credentials{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID, "same subject maps to the same user")
	v.AssertExpectations(t)
}

func TestExternalProviderStaffDomain(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&Identity{
		Subject: "sub-2", Email: "teacher@roundrockisd.org", EmailVerified: true,
	}, nil)
	p := newExternal(t, v)

	u, err := p.Authenticate(context.Background(), Credentials{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.Nil(t, u.StudentID)
}

func TestExternalProviderLinksByEmail(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&Identity{
		Subject: "sub-3", Email: "s111111@student.roundrockisd.org", EmailVerified: true,
	}, nil)
	p := newExternal(t, v)
	ctx := context.Background()

	existing := &model.User{
		ID:        uuid.NewString(),
		Email:     strPtr("s111111@student.roundrockisd.org"),
		StudentID: strPtr("s111111"),
		Role:      model.RoleStudent,
	}
	require.NoError(t, store.CreateUser(ctx, p.DB, existing, fixedNow))

	u, err := p.Authenticate(ctx, Credentials{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)

	linked, err := store.GetUserByExternalID(ctx, p.DB, "sub-3")
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, existing.ID, linked.ID)
}

func TestExternalProviderRejects(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "bad").Return(nil, errors.Join(errors.New("bad token"), model.ErrUnauthorized))
	v.On("Verify", mock.Anything, "unverified").Return(&Identity{
		Subject: "sub-4", Email: "x@example.com", EmailVerified: false,
	}, nil)
	p := newExternal(t, v)
	ctx := context.Background()

	_, err := p.Authenticate(ctx, Credentials{IDToken: "bad"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = p.Authenticate(ctx, Credentials{IDToken: "unverified"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = p.Authenticate(ctx, Credentials{})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
