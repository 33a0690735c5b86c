// Package forms serves generic form definitions and dispatches their submissions
// to the Erfassung & Gastmeldung services.
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/user"
)

// Form IDs
const (
	FormErfassung   = "erfassung"
	FormGastmeldung = "gastmeldung"
)

var (
	// errors
	ErrNotFound    = errors.New("Formular nicht gefunden")
	ErrInvalidData = errors.New("Ungültige Daten")
)

type (
	Field struct {
		Key      string `json:"key"`
		Label    string `json:"label"`
		Type     string `json:"type"`
		Required bool   `json:"required"`
	}

	Form struct {
		ID     string  `json:"id"`
		Title  string  `json:"title"`
		Fields []Field `json:"fields"`
	}

	SubmitResponse struct {
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
		FormID    string    `json:"form_id"`
		ID        int       `json:"id"`
	}

	Service struct {
		erfassungen *erfassung.Service
		gast        *gastmeldung.Service
	}
)

var definitions = []Form{
	{
		ID:    FormErfassung,
		Title: "Erfassung",
		Fields: []Field{
			{Key: "wus_nummer", Label: "WUS-Nummer", Type: "text", Required: true},
			{Key: "wildart_id", Label: "Wildart", Type: "select", Required: true},
			{Key: "kategorie_id", Label: "Kategorie", Type: "select", Required: true},
			{Key: "jagdgebiet_id", Label: "Jagdgebiet", Type: "select", Required: true},
			{Key: "erfassungsdatum", Label: "Erfassungsdatum", Type: "date"},
			{Key: "bemerkungen", Label: "Bemerkungen", Type: "textarea"},
			{Key: "interne_notiz", Label: "Interne Notiz", Type: "textarea"},
		},
	},
	{
		ID:    FormGastmeldung,
		Title: "Gastmeldung",
		Fields: []Field{
			{Key: "melder_name", Label: "Name", Type: "text", Required: true},
			{Key: "melder_email", Label: "E-Mail", Type: "email", Required: true},
			{Key: "melder_telefon", Label: "Telefon", Type: "tel"},
			{Key: "wus_nummer", Label: "WUS-Nummer", Type: "text", Required: true},
			{Key: "wildart", Label: "Wildart", Type: "text", Required: true},
			{Key: "fundort", Label: "Fundort", Type: "text", Required: true},
			{Key: "datum", Label: "Datum", Type: "date", Required: true},
			{Key: "bemerkungen", Label: "Bemerkungen", Type: "textarea"},
		},
	},
}

func NewService(erfSvc *erfassung.Service, gastSvc *gastmeldung.Service) *Service {
	return &Service{erfassungen: erfSvc, gast: gastSvc}
}

// List returns the forms the client can render.
func (svc *Service) List() []Form {
	forms := make([]Form, len(definitions))
	copy(forms, definitions)
	return forms
}

// Submit decodes `payload` for the form `formID` and creates the matching record.
func (svc *Service) Submit(ctx context.Context, usr user.User, formID string, payload []byte) (SubmitResponse, error) {
	var (
		id  int
		err error
	)
	switch formID {
	case FormErfassung:
		var ne erfassung.NewErfassung
		if err = decode(payload, &ne); err != nil {
			return SubmitResponse{}, err
		}
		var e erfassung.Erfassung
		if e, err = svc.erfassungen.Create(ctx, usr, ne); err != nil {
			return SubmitResponse{}, err
		}
		id = e.ID
	case FormGastmeldung:
		var ng gastmeldung.NewGastmeldung
		if err = decode(payload, &ng); err != nil {
			return SubmitResponse{}, err
		}
		var res gastmeldung.SubmitResponse
		if res, err = svc.gast.Submit(ctx, ng); err != nil {
			return SubmitResponse{}, err
		}
		id = res.GastmeldungID
	default:
		return SubmitResponse{}, ErrNotFound
	}

	return SubmitResponse{
		Status:    "ok",
		CreatedAt: time.Now().UTC(),
		FormID:    formID,
		ID:        id,
	}, nil
}

func decode(payload []byte, v interface{}) error {
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return core.NewValidationError(ErrInvalidData)
	}
	return nil
}
