package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, svc *notification.Service) {
	api := notificationApi{svc: svc}

	ng := g.Group("/notifications", auth)
	ng.POST("/register", api.register)
	ng.GET("/history", api.history)
	ng.PUT("/:id/read", api.markAsRead)
	ng.POST("/send", api.send, admin)
}

func (api *notificationApi) register(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data notification.RegisterToken
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterToken")
	}
	if err = api.svc.RegisterToken(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "registering token")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *notificationApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notifications, err := api.svc.History(ctx.Request().Context(), usr, queryInt(ctx, "limit"))
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifications)
}

func (api *notificationApi) markAsRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.MarkAsRead(ctx.Request().Context(), usr, id); err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *notificationApi) send(ctx echo.Context) error {
	var data notification.SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}

	results, err := api.svc.Dispatch(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return ctx.JSON(http.StatusOK, SendResponse{Success: true, Results: results})
}

type SendResponse struct {
	Success bool                      `json:"success"`
	Results []notification.SendResult `json:"results"`
}
