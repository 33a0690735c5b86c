package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core/export"
)

type exportApi struct {
	svc *export.Service
}

func registerExportAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *export.Service) {
	api := exportApi{svc: svc}

	xg := g.Group("/export", auth)
	xg.GET("/csv", api.export(export.FormatCSV))
	xg.GET("/pdf", api.export(export.FormatPDF))
}

// export answers with the file as attachment, or with a confirmation when it was mailed (`send_email`).
func (api *exportApi) export(format string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		var req export.Request
		if err = ctx.Bind(&req); err != nil {
			return errors.Wrap(err, "binding to export.Request")
		}
		req.Format = format

		if req.SendEmail {
			res, err := api.svc.Send(ctx.Request().Context(), usr, req)
			if err != nil {
				return errors.Wrap(err, "sending export")
			}
			return ctx.JSON(http.StatusOK, res)
		}

		f, err := api.svc.Export(ctx.Request().Context(), usr, req)
		if err != nil {
			return errors.Wrap(err, "exporting")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name))
		return ctx.Blob(http.StatusOK, f.ContentType, f.Content)
	}
}
