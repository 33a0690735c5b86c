package ocr

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
)

var (
	// errors
	ErrNoImage       = errors.New("Kein Bild hochgeladen")
	ErrNotAnImage    = errors.New("Datei ist kein Bild")
	ErrImageTooLarge = errors.New("Bild ist zu groß")

	wildartCodes = map[string]string{
		"rotwild":     "RW",
		"damwild":     "DW",
		"rehwild":     "RH",
		"schwarzwild": "SW",
	}
	unknownWildartCode = "UN"

	kategorien = map[string]map[string]string{
		"weiblich": {
			"0": "Wildkalb",
			"1": "Schmaltier",
			"2": "Alttier",
		},
		"männlich": {
			"0": "Hirschkalb",
			"1": "Schmalspießer",
			"2": "Junger Hirsch",
			"3": "Mittelalter Hirsch",
			"4": "Alter Hirsch",
		},
	}
)

type (
	// WildartLookup resolves a Wildart by its name.
	WildartLookup interface {
		FindWildartByName(ctx context.Context, name string) (stammdaten.Wildart, error)
	}

	Service struct {
		engine   Engine
		lookup   WildartLookup
		maxBytes int64
	}
)

func NewService(engine Engine, lookup WildartLookup, maxBytes int64) *Service {
	return &Service{
		engine:   engine,
		lookup:   lookup,
		maxBytes: maxBytes,
	}
}

// Analyze recognises the image with the configured engine and completes the result.
func (svc *Service) Analyze(ctx context.Context, image []byte, contentType string) (Result, error) {
	switch {
	case len(image) == 0:
		return Result{}, core.NewFieldValidationError("image", ErrNoImage.Error())
	case svc.maxBytes > 0 && int64(len(image)) > svc.maxBytes:
		return Result{}, core.NewFieldValidationError("image", ErrImageTooLarge.Error())
	}
	detected := http.DetectContentType(image)
	if !strings.HasPrefix(detected, "image/") {
		return Result{}, core.NewFieldValidationError("image", ErrNotAnImage.Error())
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = detected
	}

	res, err := svc.engine.Analyze(ctx, image, contentType)
	if err != nil {
		return Result{}, errors.Wrap(err, "analyzing image")
	}
	return svc.Process(ctx, res)
}

// Parse extracts the fields from already recognised text.
func (svc *Service) Parse(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, core.NewFieldValidationError("text", "Kein Text übermittelt")
	}
	return svc.Process(ctx, ParseText(text))
}

// Process completes the Wildart code & Kategorie of a result.
func (svc *Service) Process(ctx context.Context, res Result) (Result, error) {
	res.WildartCode = unknownWildartCode
	if res.Wildart != "" {
		if svc.lookup != nil {
			w, err := svc.lookup.FindWildartByName(ctx, res.Wildart)
			switch errors.Cause(err) {
			case nil:
				res.WildartCode = w.Code
			case stammdaten.ErrWildartNotFound:
				res.WildartCode = WildartCode(res.Wildart)
			default:
				return Result{}, errors.Wrap(err, "finding Wildart")
			}
		} else {
			res.WildartCode = WildartCode(res.Wildart)
		}
	}
	res.Kategorie = KategorieFor(res.Geschlecht, res.Altersklasse)
	return res, nil
}

// WildartCode returns the default code of a Wildart name; UN when unknown.
func WildartCode(name string) string {
	if code, ok := wildartCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return unknownWildartCode
}

// KategorieFor maps Geschlecht & Altersklasse onto a Kategorie name; Unbekannt when there is none.
func KategorieFor(geschlecht, altersklasse string) string {
	if byAge, ok := kategorien[strings.ToLower(strings.TrimSpace(geschlecht))]; ok {
		if k, ok := byAge[strings.TrimSpace(altersklasse)]; ok {
			return k
		}
	}
	return stammdaten.Unbekannt
}
