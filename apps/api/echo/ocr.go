package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/ocr"
)

type ocrApi struct {
	svc *ocr.Service
}

func registerOCRAPI(g *echo.Group, svc *ocr.Service) {
	api := ocrApi{svc: svc}

	// un-authed: the guest form scans too
	og := g.Group("/ocr")
	og.POST("/analyze", api.analyze)
	og.POST("/parse", api.parse)
}

func (api *ocrApi) analyze(ctx echo.Context) error {
	fh, err := ctx.FormFile("image")
	if err != nil {
		return core.NewFieldValidationError("image", ocr.ErrNoImage.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading upload")
	}

	res, err := api.svc.Analyze(ctx.Request().Context(), image, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return errors.Wrap(err, "analyzing image")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *ocrApi) parse(ctx echo.Context) error {
	var data ParseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParseRequest")
	}

	res, err := api.svc.Parse(ctx.Request().Context(), data.Text)
	if err != nil {
		return errors.Wrap(err, "parsing text")
	}
	return ctx.JSON(http.StatusOK, res)
}

type ParseRequest struct {
	Text string `json:"text"`
}
