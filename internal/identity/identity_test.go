package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-portal-service/internal/domain"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://id.example.test"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testIssuer, time.Hour)
	verifier := NewTokenVerifier(testSecret, testIssuer)

	token, err := issuer.Issue(domain.Identity{UserID: "u1", Email: "u1@example.test", DisplayName: "Ada"})
	require.NoError(t, err)

	id, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "u1", Email: "u1@example.test", DisplayName: "Ada"}, id)
}

func TestVerifyRejects(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, testIssuer)

	foreign, err := NewTokenIssuer("other-secret", testIssuer, time.Hour).Issue(domain.Identity{UserID: "u1"})
	require.NoError(t, err)
	wrongIssuer, err := NewTokenIssuer(testSecret, "https://evil.test", time.Hour).Issue(domain.Identity{UserID: "u1"})
	require.NoError(t, err)

	expiredIssuer := NewTokenIssuer(testSecret, testIssuer, time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredIssuer.Issue(domain.Identity{UserID: "u1"})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			assert.True(t, errors.Is(err, domain.ErrAuth), "got %v", err)
		})
	}

	_, err = NewTokenIssuer(testSecret, testIssuer, time.Hour).Issue(domain.Identity{})
	assert.Error(t, err)
}

func TestProviderNotifiesListeners(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testIssuer, time.Hour)
	provider := NewProvider(NewTokenVerifier(testSecret, testIssuer))
	ctx := context.Background()

	var seen []*domain.Identity
	cancel := provider.OnIdentityChange(func(id *domain.Identity) {
		seen = append(seen, id)
	})

	require.Len(t, seen, 1, "listener fires at registration")
	assert.Nil(t, seen[0])

	token, err := issuer.Issue(domain.Identity{UserID: "u1"})
	require.NoError(t, err)
	_, err = provider.SignIn(ctx, token)
	require.NoError(t, err)

	_, err = provider.SignIn(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, "u1", provider.Current().UserID, "failed sign-in keeps identity")

	require.NoError(t, provider.SignOut(ctx))
	cancel()
	_, _ = provider.SignIn(ctx, token)

	require.Len(t, seen, 3)
	assert.Equal(t, "u1", seen[1].UserID)
	assert.Nil(t, seen[2])
}
