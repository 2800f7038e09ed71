package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(4, 200)),
		validation.Field(&e.Username, validation.Required, validation.Length(4, 100)),
		validation.Field(&e.Password, validation.Required, validation.Length(7, 100)),
	)
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	sink   ActivitySink
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, logger: defLogger{}}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink registers a sink that receives a record for every
// successful registration.
func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.sink = sink
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithTextCode(TextCodeValidationError)
	}

	// Hashing takes on the order of a second at our work factor; do it
	// before the transaction opens so no other writer waits behind it.
	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Name:         event.Name,
		Username:     event.Username,
		PasswordHash: hash,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Username); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByUsernameTx(ctx, tx, event.Username)
		if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}

		if existing != nil {
			return ErrUsernameTaken
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			// The pre-check above races with concurrent inserts; the unique
			// index on username is the authority.
			if IsUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.recordRegistration(ctx, user)

	return user, nil
}

func (h *RegisterUserHandler) recordRegistration(ctx context.Context, user *User) {
	if h.sink == nil {
		return
	}

	err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserRegistered,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"username": user.Username,
		},
	})
	if err != nil {
		h.logger.Warn("activity sink record error", "error", err)
	}
}
