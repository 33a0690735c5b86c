package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	// errors
	ErrNotAllowed = core.NewPermissionError("Export nur für Obmänner")
	ErrNoEmail    = errors.New("Keine E-Mail-Adresse hinterlegt")

	MsgSent = "Export wurde per E-Mail versendet"

	header = []string{"ID", "WUS-Nummer", "Wildart", "Kategorie", "Jagdgebiet", "Erfasser", "Erfassungsdatum", "Bemerkungen"}
)

// Querier lists the Erfassungen visible to a user.
type Querier interface {
	Query(ctx context.Context, usr user.User, filter erfassung.QueryFilter, ordering ...core.DBOrdering) ([]erfassung.Erfassung, error)
}

type Service struct {
	erfassungen Querier
	mailSvc     core.EmailService
	validate    *validator.Validate
}

func NewService(erfassungen Querier, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		erfassungen: erfassungen,
		mailSvc:     mailSvc,
		validate:    validate,
	}
}

func (svc *Service) parse(usr user.User, req *Request) (period, error) {
	if !usr.IsPrivileged() {
		return period{}, ErrNotAllowed
	}
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return period{}, err
	}

	var p period
	if req.From != "" {
		p.from, _ = core.ParseDate(req.From) // validated above
	}
	if req.To != "" {
		p.to, _ = core.ParseDate(req.To)
	}
	if !p.from.IsZero() && !p.to.IsZero() && p.from.After(p.to.Time) {
		return period{}, core.NewFieldValidationError("from", "Startdatum muss vor dem Enddatum liegen")
	}
	return p, nil
}

// Export renders the Erfassungen within the user's scope as CSV or PDF.
func (svc *Service) Export(ctx context.Context, usr user.User, req Request) (File, error) {
	p, err := svc.parse(usr, &req)
	if err != nil {
		return File{}, err
	}

	filter := erfassung.QueryFilter{From: p.from, To: p.to}
	if req.OnlyOwnData {
		filter.ErfasserID = usr.ID
	}
	records, err := svc.erfassungen.Query(ctx, usr, filter,
		core.DBOrdering{Field: "erfassungsdatum", Ascending: true},
		core.DBOrdering{Field: "id", Ascending: true},
	)
	if err != nil {
		return File{}, errors.Wrap(err, "querying Erfassungen")
	}

	f := File{
		Name:  fmt.Sprintf("erfassungen_%s.%s", p.fileSuffix(), req.Format),
		Count: len(records),
	}
	switch req.Format {
	case FormatPDF:
		f.ContentType = "application/pdf"
		f.Content, err = renderPDF(records, p, req.includeNotes())
	default:
		f.ContentType = "text/csv; charset=utf-8"
		f.Content, err = renderCSV(records, req.includeNotes())
	}
	if err != nil {
		return File{}, errors.Wrapf(err, "rendering %s", req.Format)
	}
	return f, nil
}

// Send exports like Export and mails the file to the requesting user.
func (svc *Service) Send(ctx context.Context, usr user.User, req Request) (Result, error) {
	f, err := svc.Export(ctx, usr, req)
	if err != nil {
		return Result{}, err
	}
	if usr.Email == "" {
		return Result{}, core.NewValidationError(ErrNoEmail)
	}
	p, _ := svc.parse(usr, &req) // succeeded in Export

	msg := &core.EmailMessage{
		To:           []mail.Address{usr.MailAddress()},
		Subject:      "Export der Erfassungen (" + p.String() + ")",
		TemplateName: "export",
		TemplateData: mailData{
			Name:   usr.Name(),
			Range:  p.String(),
			Format: strings.ToUpper(req.Format),
			Count:  f.Count,
		},
	}
	if err = msg.Attach(bytes.NewReader(f.Content), f.Name, f.ContentType); err != nil {
		return Result{}, errors.Wrap(err, "attaching export")
	}
	svc.mailSvc.SendMessages(msg)

	return Result{Success: true, Message: MsgSent, Count: f.Count}, nil
}

func renderCSV(records []erfassung.Erfassung, notes bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	hdr := header
	if notes {
		hdr = append(hdr[:len(hdr):len(hdr)], "Interne Notiz")
	}
	if err := w.Write(hdr); err != nil {
		return nil, err
	}
	for _, e := range records {
		if err := w.Write(row(e, notes)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func row(e erfassung.Erfassung, notes bool) []string {
	r := []string{
		strconv.Itoa(e.ID),
		e.WUSNummer,
		e.Wildart.Name,
		e.Kategorie.Name,
		e.Jagdgebiet.Name,
		e.Erfasser,
		e.Erfassungsdatum.German(),
		e.Bemerkungen,
	}
	if notes {
		r = append(r, e.InterneNotiz)
	}
	return r
}

// renderPDF renders an A4 landscape table.
func renderPDF(records []erfassung.Erfassung, p period, notes bool) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for the core fonts
	pdf.SetTitle("Erfassungen", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Seite %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	widths := []float64{12, 24, 30, 34, 34, 36, 26, 81}
	hdr := header
	if notes {
		widths = []float64{12, 24, 28, 30, 30, 32, 26, 47, 48}
		hdr = append(hdr[:len(hdr):len(hdr)], "Interne Notiz")
	}

	printHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for i, h := range hdr {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("Erfassungen ("+p.String()+")"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Erstellt am %s, %d Datensätze",
		core.NewDate(time.Now()).German(), len(records))), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	printHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, e := range records {
		if pdf.GetY()+6 > pageHeight-bottom-10 {
			pdf.AddPage()
			printHeader()
		}
		for i, v := range row(e, notes) {
			pdf.CellFormat(widths[i], 6, tr(truncate(pdf, v, widths[i]-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate shortens `s` to fit into `width` mm.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	s = strings.Join(strings.Fields(s), " ")
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
