package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/forms"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "Nicht angemeldet")
	errSessionInvalid       = echo.NewHTTPError(http.StatusUnauthorized, user.ErrSessionInvalid.Error())
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Ungültiger Benutzername oder Passwort")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "Konto deaktiviert")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "Anmeldung abgelaufen")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, core.ErrPermissionDenied.Error())
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "Nicht gefunden")

	// domain errors answered with 404
	notFoundErrors = map[error]bool{
		user.ErrNotFound:         true,
		erfassung.ErrNotFound:    true,
		gastmeldung.ErrNotFound:  true,
		notification.ErrNotFound: true,
		forms.ErrNotFound:        true,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.PermissionError:
			code = http.StatusForbidden
			message = origErr.Error()
		default:
			if notFoundErrors[cause] {
				code = http.StatusNotFound
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if usr, uErr := getContextUser(ctx); uErr == nil {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
