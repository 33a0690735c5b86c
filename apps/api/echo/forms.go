package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/forms"
)

type formsApi struct {
	svc *forms.Service
}

func registerFormsAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *forms.Service) {
	api := formsApi{svc: svc}

	fg := g.Group("/forms", auth)
	fg.GET("", api.list)
	fg.POST("/:id/submit", api.submit)
}

func (api *formsApi) list(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.List())
}

func (api *formsApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading payload")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), payload)
	if err != nil {
		return errors.Wrap(err, "submitting form")
	}
	return ctx.JSON(http.StatusOK, res)
}
