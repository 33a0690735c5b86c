package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/stammdaten"
)

type stammdatenApi struct {
	svc *stammdaten.Service
}

func registerStammdatenAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *stammdaten.Service) {
	api := stammdatenApi{svc: svc}

	ag := g.Group("", auth)
	ag.GET("/wildarten", api.wildarten)
	ag.GET("/kategorien", api.kategorien)
	ag.GET("/jagdgebiete", api.jagdgebiete)
	ag.GET("/wus/validate", api.validateWUS)
}

func (api *stammdatenApi) wildarten(ctx echo.Context) error {
	wildarten, err := api.svc.ListWildarten(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing Wildarten")
	}
	return ctx.JSON(http.StatusOK, wildarten)
}

func (api *stammdatenApi) kategorien(ctx echo.Context) error {
	kategorien, err := api.svc.ListKategorien(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing Kategorien")
	}
	return ctx.JSON(http.StatusOK, kategorien)
}

func (api *stammdatenApi) jagdgebiete(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	jagdgebiete, err := api.svc.ListJagdgebiete(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing Jagdgebiete")
	}
	return ctx.JSON(http.StatusOK, jagdgebiete)
}

func (api *stammdatenApi) validateWUS(ctx echo.Context) error {
	res, err := api.svc.ValidateWUSNummer(ctx.Request().Context(), ctx.QueryParam("wus_nummer"), queryInt(ctx, "exclude_id"))
	if err != nil {
		return errors.Wrap(err, "validating WUS-Nummer")
	}
	return ctx.JSON(http.StatusOK, res)
}
