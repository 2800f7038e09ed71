package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the slice of the credential store the provider needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// UserProvider resolves identities against the credential store.
type UserProvider struct {
	store  UserStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare against the stored hash, and
// return the identity. Unknown usernames and bad secrets come back as two
// distinct error kinds; both are terminal for the login flow.
func (u UserProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	aid := authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		name:     user.Name,
	}

	return aid, nil
}

func (u UserProvider) FindIdentityByUsername(ctx context.Context, username string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	aid := authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		name:     user.Name,
	}

	return aid, nil
}

type authIdentity struct {
	id       string
	username string
	name     string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Name() string {
	return a.name
}

var _ Identity = authIdentity{}
