package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/gastmeldung"
)

type gastmeldungApi struct {
	svc *gastmeldung.Service
}

func registerGastmeldungAPI(g *echo.Group, auth, privileged echo.MiddlewareFunc, svc *gastmeldung.Service) {
	api := gastmeldungApi{svc: svc}

	// un-authed: guests report without an account
	// TODO: rate limit `/gastmeldung`
	g.POST("/gastmeldung", api.submit)

	gg := g.Group("/gastmeldungen", auth, privileged)
	gg.GET("", api.query)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id/status", api.setStatus)
}

func (api *gastmeldungApi) submit(ctx echo.Context) error {
	var data gastmeldung.NewGastmeldung
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGastmeldung")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting Gastmeldung")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *gastmeldungApi) query(ctx echo.Context) error {
	filter := new(gastmeldung.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []gastmeldung.Gastmeldung{})
	}

	meldungen, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying Gastmeldungen")
	}
	return ctx.JSON(http.StatusOK, meldungen)
}

func (api *gastmeldungApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	g, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting Gastmeldung")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gastmeldungApi) setStatus(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data gastmeldung.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}

	g, err := api.svc.SetStatus(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "setting Gastmeldung status")
	}
	return ctx.JSON(http.StatusOK, g)
}
