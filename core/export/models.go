package export

import (
	"fmt"
	"strconv"

	"github.com/foe05/HGMH-App/core"
)

// Formats
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Request holds the export options of the client's export screen.
type Request struct {
	From                 string `query:"from" validate:"omitempty,datum"`
	To                   string `query:"to" validate:"omitempty,datum"`
	OnlyOwnData          bool   `query:"only_own"`
	IncludeInternalNotes string `query:"include_internal_notes" validate:"omitempty,oneof=true false 1 0"` // default true
	SendEmail            bool   `query:"send_email"`
	Format               string `query:"format" validate:"required,oneof=csv pdf"`
}

func (r *Request) Clean() {
	r.From = core.CleanString(r.From)
	r.To = core.CleanString(r.To)
	r.Format = core.CleanString(r.Format, true /* lower */)
	r.IncludeInternalNotes = core.CleanString(r.IncludeInternalNotes, true)
}

func (r Request) includeNotes() bool {
	v, err := strconv.ParseBool(r.IncludeInternalNotes)
	return err != nil || v
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Content     []byte
	Count       int
}

// Result is returned instead of the file when it was mailed.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// period is the parsed date range; zero dates are open ends.
type period struct {
	from, to core.Date
}

func (p period) fileSuffix() string {
	from, to := "anfang", "heute"
	if !p.from.IsZero() {
		from = p.from.String()
	}
	if !p.to.IsZero() {
		to = p.to.String()
	}
	return from + "_" + to
}

func (p period) String() string {
	switch {
	case p.from.IsZero() && p.to.IsZero():
		return "alle"
	case p.from.IsZero():
		return "bis " + p.to.German()
	case p.to.IsZero():
		return "ab " + p.from.German()
	default:
		return fmt.Sprintf("%s - %s", p.from.German(), p.to.German())
	}
}

type mailData struct {
	Name   string
	Range  string
	Format string
	Count  int
}
