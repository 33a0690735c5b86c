package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/ocr"
)

var gastmeldungColumns = []string{
	"id", "melder_name", "melder_email", "melder_telefon", "wus_nummer", "wildart", "fundort", "datum",
	"bemerkungen", "ocr_data", "status", "created_at", "updated_at",
}

type gastmeldungRow struct {
	ID            int         `db:"id"`
	MelderName    string      `db:"melder_name"`
	MelderEmail   string      `db:"melder_email"`
	MelderTelefon string      `db:"melder_telefon"`
	WUSNummer     string      `db:"wus_nummer"`
	Wildart       string      `db:"wildart"`
	Fundort       string      `db:"fundort"`
	Datum         core.Date   `db:"datum"`
	Bemerkungen   string      `db:"bemerkungen"`
	OCRData       null.String `db:"ocr_data"`
	Status        string      `db:"status"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r gastmeldungRow) gastmeldung() (gastmeldung.Gastmeldung, error) {
	g := gastmeldung.Gastmeldung{
		ID:            r.ID,
		MelderName:    r.MelderName,
		MelderEmail:   r.MelderEmail,
		MelderTelefon: r.MelderTelefon,
		WUSNummer:     r.WUSNummer,
		Wildart:       r.Wildart,
		Fundort:       r.Fundort,
		Datum:         r.Datum,
		Bemerkungen:   r.Bemerkungen,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.OCRData.Valid && r.OCRData.String != "" {
		g.OCRData = new(ocr.Result)
		if err := json.Unmarshal([]byte(r.OCRData.String), g.OCRData); err != nil {
			return gastmeldung.Gastmeldung{}, errors.Wrapf(err, "decoding OCR data of Gastmeldung %d", r.ID)
		}
	}
	return g, nil
}

type gastmeldungRepository struct {
	db core.DB
}

var _ gastmeldung.Repository = (*gastmeldungRepository)(nil) // interface compliance check

func NewGastmeldungRepository(db core.DB) gastmeldung.Repository {
	return &gastmeldungRepository{db: db}
}

func (repo gastmeldungRepository) CreateGastmeldung(ctx context.Context, g gastmeldung.Gastmeldung) (gastmeldung.Gastmeldung, error) {
	var ocrData null.String
	if g.OCRData != nil {
		b, err := json.Marshal(g.OCRData)
		if err != nil {
			return gastmeldung.Gastmeldung{}, errors.Wrap(err, "encoding OCR data")
		}
		ocrData = null.StringFrom(string(b))
	}

	query, args, err := builder(repo.db).
		Insert("gastmeldungen").
		Columns(gastmeldungColumns[1:]...).
		Values(g.MelderName, g.MelderEmail, g.MelderTelefon, g.WUSNummer, g.Wildart, g.Fundort, g.Datum,
			g.Bemerkungen, ocrData, g.Status, g.CreatedAt.UTC(), g.UpdatedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return gastmeldung.Gastmeldung{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.QueryRowxContext(ctx, query, args...).Scan(&g.ID); err != nil {
		return gastmeldung.Gastmeldung{}, errors.Wrap(err, "inserting Gastmeldung")
	}
	return g, nil
}

func (repo gastmeldungRepository) GetGastmeldung(ctx context.Context, id int) (gastmeldung.Gastmeldung, error) {
	query, args, err := builder(repo.db).Select(gastmeldungColumns...).From("gastmeldungen").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return gastmeldung.Gastmeldung{}, errors.Wrap(err, "building query")
	}
	var row gastmeldungRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return gastmeldung.Gastmeldung{}, trapNoRowsErr(err, gastmeldung.ErrNotFound, "getting Gastmeldung")
	}
	return row.gastmeldung()
}

func (repo gastmeldungRepository) QueryGastmeldungen(ctx context.Context, status string, limit int) ([]gastmeldung.Gastmeldung, error) {
	q := builder(repo.db).Select(gastmeldungColumns...).From("gastmeldungen")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	query, args, err := q.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []gastmeldungRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying Gastmeldungen")
	}
	meldungen := make([]gastmeldung.Gastmeldung, 0, len(rows))
	for _, r := range rows {
		g, err := r.gastmeldung()
		if err != nil {
			return nil, err
		}
		meldungen = append(meldungen, g)
	}
	return meldungen, nil
}

func (repo gastmeldungRepository) UpdateStatus(ctx context.Context, id int, status string, at time.Time) error {
	query, args, err := builder(repo.db).
		Update("gastmeldungen").
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "updating Gastmeldung status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gastmeldung.ErrNotFound
	}
	return nil
}
