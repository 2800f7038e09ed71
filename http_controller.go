package identity

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	user, ok := cookie.(*jwt.Token)
	if user == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := user.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromClaims(claims)
}

// RegisterAuthRoutes mounts the signup, login and verify endpoints. The
// verify route runs behind the token guard; the other two are public.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.AuthErrorHandler,
	)

	app.
		Post(controller.Routes.Signup, controller.SignupCreate).
		SetName("sign-up.post")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.
		Get(controller.Routes.Verify, controller.VerifyShow, protected).
		SetName("verify.get")
}

type AuthControllerRoutes struct {
	Signup string
	Login  string
	Verify string
}

type AuthController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Routes           *AuthControllerRoutes
	Auther           HTTPAuthenticator
	Config           Config
	ActivitySink     ActivitySink
	ErrorHandler     router.ErrorHandler
	AuthErrorHandler func(router.Context, error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup: "/signup",
			Login:  "/login",
			Verify: "/verify",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = defaultErrHandler
	}

	if c.AuthErrorHandler == nil {
		c.AuthErrorHandler = func(ctx router.Context, err error) error {
			var richErr *goerrors.Error

			if IsTokenExpiredError(err) {
				richErr = ErrTokenExpired
			} else if IsMalformedError(err) {
				richErr = ErrTokenMalformed
			} else if !goerrors.As(err, &richErr) {
				richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
					WithCode(goerrors.CodeUnauthorized)
			}

			return c.ErrorHandler(ctx, richErr)
		}
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Username
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":    true,
		"auth_token": token,
	})
}

// RegistrationCreatePayload is the signup payload
type RegistrationCreatePayload struct {
	Name     string `form:"name" json:"name"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 200)),
		validation.Field(&r.Username, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(7, 100)),
	)
}

func (a *AuthController) SignupCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := RegisterUserMessage{
		Name:     payload.Name,
		Username: payload.Username,
		Password: payload.Password,
	}

	registerUser := NewRegisterUserHandler(a.Repo).
		WithActivitySink(a.ActivitySink).
		WithLogger(a.Logger)
	user, err := registerUser.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("register user execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":       user.ID.String(),
			"name":     user.Name,
			"username": user.Username,
		},
	})
}

// VerifyShow runs behind the guard and echoes the verified session back. It
// never touches the store; the token alone is the source of truth.
func (a *AuthController) VerifyShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		a.Logger.Error("verify session decode", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"session": session,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map suitable for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()

	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	return c.JSON(code, errorResponse(richErr))
}
