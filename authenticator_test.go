package identity_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	signingKey      string
	signingMethod   string
	contextKey      string
	tokenExpiration int
	tokenLookup     string
	authScheme      string
	issuer          string
	audience        []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		signingMethod:   "HS256",
		contextKey:      "user",
		tokenExpiration: 12,
		tokenLookup:     "header:Authorization",
		authScheme:      "Bearer",
		issuer:          "test-issuer",
	}
}

func (c *testConfig) GetSigningKey() string    { return c.signingKey }
func (c *testConfig) GetSigningMethod() string { return c.signingMethod }
func (c *testConfig) GetContextKey() string    { return c.contextKey }
func (c *testConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c *testConfig) GetTokenLookup() string   { return c.tokenLookup }
func (c *testConfig) GetAuthScheme() string    { return c.authScheme }
func (c *testConfig) GetIssuer() string        { return c.issuer }
func (c *testConfig) GetAudience() []string    { return c.audience }

func TestAutherLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a signed token on success", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "secret-password").
			Return(testIdentity("user-123", "pepe", "Pepe Rep"), nil)

		auther := identity.NewAuthenticator(provider, newTestConfig())

		token, err := auther.Login(ctx, "pepe", "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		session, err := auther.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", session.GetUserID())
		assert.Equal(t, "pepe", session.GetUsername())
		assert.Equal(t, "Pepe Rep", session.GetName())

		provider.AssertExpectations(t)
	})

	t.Run("propagates verification errors", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "wrong").
			Return(nil, identity.ErrMismatchedHashAndPassword)

		auther := identity.NewAuthenticator(provider, newTestConfig())

		_, err := auther.Login(ctx, "pepe", "wrong")
		assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
	})

	t.Run("propagates unknown username errors", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "nobody", "secret").
			Return(nil, identity.ErrIdentityNotFound)

		auther := identity.NewAuthenticator(provider, newTestConfig())

		_, err := auther.Login(ctx, "nobody", "secret")
		assert.ErrorIs(t, err, identity.ErrIdentityNotFound)
	})

	t.Run("nil identity without error is rejected", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "secret").
			Return(nil, nil)

		auther := identity.NewAuthenticator(provider, newTestConfig())

		_, err := auther.Login(ctx, "pepe", "secret")
		assert.ErrorIs(t, err, identity.ErrIdentityNotFound)
	})

	t.Run("emits activity events", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "pepe", "secret-password").
			Return(testIdentity("user-123", "pepe", "Pepe Rep"), nil)
		provider.On("VerifyIdentity", ctx, "pepe", "wrong").
			Return(nil, identity.ErrMismatchedHashAndPassword)

		var events []identity.ActivityEvent
		sink := identity.ActivitySinkFunc(func(ctx context.Context, event identity.ActivityEvent) error {
			events = append(events, event)
			return nil
		})

		auther := identity.NewAuthenticator(provider, newTestConfig()).
			WithActivitySink(sink)

		_, err := auther.Login(ctx, "pepe", "secret-password")
		require.NoError(t, err)

		_, err = auther.Login(ctx, "pepe", "wrong")
		require.Error(t, err)

		require.Len(t, events, 2)
		assert.Equal(t, identity.ActivityEventLoginSuccess, events[0].EventType)
		assert.Equal(t, "user-123", events[0].UserID)
		assert.False(t, events[0].OccurredAt.IsZero())
		assert.Equal(t, identity.ActivityEventLoginFailure, events[1].EventType)
	})
}

func TestAutherSessionFromToken(t *testing.T) {
	provider := &MockIdentityProvider{}
	auther := identity.NewAuthenticator(provider, newTestConfig())

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := auther.SessionFromToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("uses a custom token validator when set", func(t *testing.T) {
		auther.WithTokenValidator(identity.TokenValidatorFunc(func(raw string) (identity.AuthClaims, error) {
			return nil, errors.New("rejected upstream", errors.CategoryAuth)
		}))

		_, err := auther.SessionFromToken("whatever")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected upstream")
	})
}

func TestAutherIdentityFromSession(t *testing.T) {
	ctx := context.Background()

	provider := &MockIdentityProvider{}
	provider.On("FindIdentityByUsername", ctx, "pepe").
		Return(testIdentity("user-123", "pepe", "Pepe Rep"), nil)

	auther := identity.NewAuthenticator(provider, newTestConfig())

	session := &identity.SessionObject{UserID: "user-123", Username: "pepe"}

	id, err := auther.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.ID())

	provider.AssertExpectations(t)
}

func TestAutherTokenService(t *testing.T) {
	provider := &MockIdentityProvider{}
	auther := identity.NewAuthenticator(provider, newTestConfig())

	svc := auther.TokenService()
	require.NotNil(t, svc)

	token, err := svc.Generate(testIdentity("user-123", "pepe", "Pepe Rep"))
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
}

var _ identity.Config = (*testConfig)(nil)
var _ identity.IdentityProvider = (*MockIdentityProvider)(nil)
