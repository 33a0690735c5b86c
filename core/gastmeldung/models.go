package gastmeldung

import (
	"fmt"
	"time"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/ocr"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusBestaetigt = "bestaetigt"
	StatusAbgelehnt  = "abgelehnt"
)

var AllStatuses = []string{StatusPending, StatusBestaetigt, StatusAbgelehnt}

// Gastmeldung is a harvest reported by a guest without an account.
type Gastmeldung struct {
	ID            int         `json:"id"`
	MelderName    string      `json:"melder_name"`
	MelderEmail   string      `json:"melder_email"`
	MelderTelefon string      `json:"melder_telefon"`
	WUSNummer     string      `json:"wus_nummer"`
	Wildart       string      `json:"wildart"`
	Fundort       string      `json:"fundort"`
	Datum         core.Date   `json:"datum"`
	Bemerkungen   string      `json:"bemerkungen"`
	OCRData       *ocr.Result `json:"ocr_data"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

// NewGastmeldung is submitted by guests.
type NewGastmeldung struct {
	MelderName    string      `json:"melder_name" validate:"required,max=100"`
	MelderEmail   string      `json:"melder_email" validate:"required,email,max=254"`
	MelderTelefon string      `json:"melder_telefon" validate:"max=50"`
	WUSNummer     string      `json:"wus_nummer" validate:"required,wusnummer"`
	Wildart       string      `json:"wildart" validate:"required,max=100"`
	Fundort       string      `json:"fundort" validate:"required,max=500"`
	Datum         string      `json:"datum" validate:"required,datum"`
	Bemerkungen   string      `json:"bemerkungen" validate:"max=2000"`
	OCRData       *ocr.Result `json:"ocr_data"`
}

func (ng *NewGastmeldung) Clean() {
	ng.MelderName = core.CleanString(ng.MelderName)
	ng.MelderEmail = core.CleanString(ng.MelderEmail, true /* lower */)
	ng.MelderTelefon = core.CleanString(ng.MelderTelefon)
	ng.WUSNummer = core.CleanString(ng.WUSNummer)
	ng.Wildart = core.CleanString(ng.Wildart)
	ng.Fundort = core.CleanString(ng.Fundort)
	ng.Datum = core.CleanString(ng.Datum)
	ng.Bemerkungen = core.CleanString(ng.Bemerkungen)
}

// SubmitResponse confirms a submission.
type SubmitResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	GastmeldungID int    `json:"gastmeldung_id"`
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,oneof=pending bestaetigt abgelehnt"`
}

type QueryFilter struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

// mailData is rendered by the gastmeldung email templates.
type mailData struct {
	ID            int
	MelderName    string
	MelderEmail   string
	Telefon       string
	WUSNummer     string
	Wildart       string
	Fundort       string
	Datum         string
	Bemerkungen   string
	HasOCR        bool
	OCRConfidence string
	OCRRawText    string
}

func newMailData(g Gastmeldung) mailData {
	d := mailData{
		ID:          g.ID,
		MelderName:  g.MelderName,
		MelderEmail: g.MelderEmail,
		Telefon:     g.MelderTelefon,
		WUSNummer:   g.WUSNummer,
		Wildart:     g.Wildart,
		Fundort:     g.Fundort,
		Datum:       g.Datum.German(),
		Bemerkungen: g.Bemerkungen,
	}
	if d.Telefon == "" {
		d.Telefon = "Nicht angegeben"
	}
	if d.Bemerkungen == "" {
		d.Bemerkungen = "Keine"
	}
	if g.OCRData != nil {
		d.HasOCR = true
		d.OCRConfidence = fmt.Sprintf("%.0f", g.OCRData.Confidence*100)
		d.OCRRawText = g.OCRData.RawText
	}
	return d
}
