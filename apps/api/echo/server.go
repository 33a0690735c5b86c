package echoapi

import (
	"context"
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/export"
	"github.com/foe05/HGMH-App/core/forms"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/ocr"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
)

const (
	apiPrefix   = "/wp-json/hgam/v1"
	formsPrefix = "/wp-json/hg/v1"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		// SignalShutdown is called when a handler hits an unrecoverable error.
		SignalShutdown func()

		UserSvc         *user.Service
		StammdatenSvc   *stammdaten.Service
		ErfassungSvc    *erfassung.Service
		GastmeldungSvc  *gastmeldung.Service
		NotificationSvc *notification.Service
		OCRSvc          *ocr.Service
		ExportSvc       *export.Service
		FormsSvc        *forms.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Conf == nil {
		opts.Conf = core.Conf
	}
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.UploadMaxBytes > 0 {
		// leave some room for the multipart envelope
		s.app.Use(middleware.BodyLimit(strconv.FormatInt(conf.Server.UploadMaxBytes+1<<20, 10)))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	auth := authMiddleware(middleware.JWTWithConfig(newJWTConfig(conf)), s.opts.UserSvc)
	privileged := roleMiddleware(user.RoleAdministrator, user.RoleObmann)
	admin := roleMiddleware(user.RoleAdministrator)

	v1 := s.app.Group(apiPrefix)
	registerAuthAPI(v1, auth, s.opts)
	registerStammdatenAPI(v1, auth, s.opts.StammdatenSvc)
	registerErfassungAPI(v1, auth, s.opts.ErfassungSvc)
	registerGastmeldungAPI(v1, auth, privileged, s.opts.GastmeldungSvc)
	registerOCRAPI(v1, s.opts.OCRSvc)
	registerNotificationAPI(v1, auth, admin, s.opts.NotificationSvc)
	registerExportAPI(v1, auth, s.opts.ExportSvc)
	registerUserAPI(v1, auth, admin, s.opts.UserSvc, s.opts.Validate)

	hg := s.app.Group(formsPrefix)
	registerFormsAPI(hg, auth, s.opts.FormsSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Willkommen bei der HGAM API!")
}
