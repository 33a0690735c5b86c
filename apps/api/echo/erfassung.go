package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/erfassung"
)

type erfassungApi struct {
	svc *erfassung.Service
}

func registerErfassungAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *erfassung.Service) {
	api := erfassungApi{svc: svc}

	eg := g.Group("/erfassungen", auth)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
	eg.DELETE("/:id", api.destroy)
}

func (api *erfassungApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(erfassung.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []erfassung.Erfassung{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	erfassungen, err := api.svc.Query(ctx.Request().Context(), usr, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying Erfassungen")
	}
	return ctx.JSON(http.StatusOK, erfassungen)
}

func (api *erfassungApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data erfassung.NewErfassung
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewErfassung")
	}

	e, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating Erfassung")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *erfassungApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	e, err := api.svc.Get(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "getting Erfassung")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *erfassungApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data erfassung.UpdateErfassung
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateErfassung")
	}

	e, err := api.svc.Update(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "updating Erfassung")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *erfassungApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), usr, id); err != nil {
		return errors.Wrap(err, "deleting Erfassung")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}
