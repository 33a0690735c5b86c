package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	jwtContextKey  = "userToken"
	contextUserKey = "user"
)

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// Subject holds the user ID and Id the server side session.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func GetUserClaims(conf *core.Config, usr user.User, sessionID string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sessionID,
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Roles:        usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken validates a raw token outside of the JWT middleware.
func parseToken(conf *core.Config, raw string) (*Claims, error) {
	jwtConf := newJWTConfig(conf)
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwtConf.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return jwtConf.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

func bearerToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > len(middleware.DefaultJWTConfig.AuthScheme)+1 &&
		strings.EqualFold(auth[:len(middleware.DefaultJWTConfig.AuthScheme)], middleware.DefaultJWTConfig.AuthScheme) {
		return auth[len(middleware.DefaultJWTConfig.AuthScheme)+1:]
	}
	return ""
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the user loaded by authMiddleware.
func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// sessionUser resolves the active user behind valid claims.
func sessionUser(ctx echo.Context, svc *user.Service, claims Claims) (user.User, error) {
	reqCtx := ctx.Request().Context()
	if _, err := svc.GetActiveSession(reqCtx, claims.Id); err != nil {
		if errors.Cause(err) == user.ErrSessionInvalid {
			return user.User{}, errSessionInvalid
		}
		return user.User{}, errors.Wrap(err, "getting session")
	}
	usr, err := svc.GetByID(reqCtx, claims.UserID())
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errSessionInvalid
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	return usr, nil
}

// authMiddleware validates the JWT, then makes sure its session is still open & its user active.
func authMiddleware(jwtMw echo.MiddlewareFunc, svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMw(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, err := sessionUser(ctx, svc, claims)
			if err != nil {
				return err
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		})
	}
}

func authenticate(ctx echo.Context, uname, pwd string, svc *user.Service) (user.User, error) {
	reqCtx := ctx.Request().Context()
	usr, err := svc.GetByUsernameOrEmail(reqCtx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(reqCtx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

type authApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, opts *Options) {
	api := authApi{
		conf:     opts.Conf,
		svc:      opts.UserSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/auth")

	// TODO: rate limit `/login`
	ag.POST("/login", api.login)
	ag.GET("/status", api.status)
	ag.POST("/logout", api.logout, auth)
	ag.POST("/token-refresh", api.refreshToken, auth)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		return err
	}
	session, err := api.svc.StartSession(ctx.Request().Context(), usr, api.conf.Server.JWTRefreshExpirationDelta)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr, session.ID))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, SessionToken: token, User: usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RevokeSession(ctx.Request().Context(), claims.Id); err != nil {
		return errors.Wrap(err, "revoking session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// status never fails on a missing or stale token; it reports the caller as anonymous instead.
func (api *authApi) status(ctx echo.Context) error {
	anonymous := StatusResponse{IsAuthenticated: false}

	raw := bearerToken(ctx)
	if raw == "" {
		return ctx.JSON(http.StatusOK, anonymous)
	}
	claims, err := parseToken(api.conf, raw)
	if err != nil {
		return ctx.JSON(http.StatusOK, anonymous)
	}
	usr, err := sessionUser(ctx, api.svc, *claims)
	if err != nil {
		if _, ok := errors.Cause(err).(*echo.HTTPError); ok {
			return ctx.JSON(http.StatusOK, anonymous)
		}
		return err
	}
	return ctx.JSON(http.StatusOK, StatusResponse{IsAuthenticated: true, User: &usr})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr, claims.Id, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, SessionToken: token, User: usr})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Success      bool      `json:"success"`
		SessionToken string    `json:"session_token"`
		User         user.User `json:"user"`
	}

	StatusResponse struct {
		IsAuthenticated bool       `json:"is_authenticated"`
		User            *user.User `json:"user"`
	}

	SuccessResponse struct {
		Success bool `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
