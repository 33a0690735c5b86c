package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/stammdaten"
)

var erfassungOrdering = map[string]string{
	"id":              "e.id",
	"wus_nummer":      "e.wus_nummer",
	"erfassungsdatum": "e.erfassungsdatum",
	"created_at":      "e.created_at",
}

type erfassungRow struct {
	ID               int         `db:"id"`
	WUSNummer        string      `db:"wus_nummer"`
	WildartID        null.Int    `db:"wildart_id"`
	WildartName      null.String `db:"wildart_name"`
	WildartCode      null.String `db:"wildart_code"`
	KategorieID      null.Int    `db:"kategorie_id"`
	KategorieName    null.String `db:"kategorie_name"`
	KategorieCode    null.String `db:"kategorie_code"`
	JagdgebietID     null.Int    `db:"jagdgebiet_id"`
	JagdgebietName   null.String `db:"jagdgebiet_name"`
	JagdgebietCode   null.String `db:"jagdgebiet_code"`
	ErfasserID       null.Int    `db:"erfasser_id"`
	ErfasserName     null.String `db:"erfasser_name"`
	ErfasserUsername null.String `db:"erfasser_username"`
	Erfassungsdatum  core.Date   `db:"erfassungsdatum"`
	Bemerkungen      string      `db:"bemerkungen"`
	InterneNotiz     string      `db:"interne_notiz"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r erfassungRow) erfassung() erfassung.Erfassung {
	erfasser := r.ErfasserName.String
	if erfasser == "" {
		erfasser = r.ErfasserUsername.String
	}
	return erfassung.Erfassung{
		ID:              r.ID,
		WUSNummer:       r.WUSNummer,
		Wildart:         stammdaten.NewRef(r.WildartID.Int, r.WildartName.String, r.WildartCode.String),
		Kategorie:       stammdaten.NewRef(r.KategorieID.Int, r.KategorieName.String, r.KategorieCode.String),
		Jagdgebiet:      stammdaten.NewRef(r.JagdgebietID.Int, r.JagdgebietName.String, r.JagdgebietCode.String),
		ErfasserID:      r.ErfasserID.Int,
		Erfasser:        erfasser,
		Erfassungsdatum: r.Erfassungsdatum,
		Bemerkungen:     r.Bemerkungen,
		InterneNotiz:    r.InterneNotiz,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type erfassungRepository struct {
	db core.DB
}

var _ erfassung.Repository = (*erfassungRepository)(nil) // interface compliance check

func NewErfassungRepository(db core.DB) erfassung.Repository {
	return &erfassungRepository{db: db}
}

func (repo erfassungRepository) selectQuery() sq.SelectBuilder {
	return builder(repo.db).
		Select(
			"e.id", "e.wus_nummer",
			"e.wildart_id", "w.name AS wildart_name", "w.code AS wildart_code",
			"e.kategorie_id", "k.name AS kategorie_name", "k.code AS kategorie_code",
			"e.jagdgebiet_id", "j.name AS jagdgebiet_name", "j.code AS jagdgebiet_code",
			"e.erfasser_id", "u.display_name AS erfasser_name", "u.username AS erfasser_username",
			"e.erfassungsdatum", "e.bemerkungen", "e.interne_notiz", "e.created_at", "e.updated_at",
		).
		From("erfassungen e").
		LeftJoin("wildarten w ON w.id = e.wildart_id").
		LeftJoin("kategorien k ON k.id = e.kategorie_id").
		LeftJoin("jagdgebiete j ON j.id = e.jagdgebiet_id").
		LeftJoin("users u ON u.id = e.erfasser_id")
}

func scopeCond(scope erfassung.Scope) sq.Sqlizer {
	switch {
	case scope.All:
		return nil
	case len(scope.Jagdgebiete) > 0:
		return sq.Eq{"e.jagdgebiet_id": scope.Jagdgebiete}
	default:
		return sq.Eq{"e.erfasser_id": scope.ErfasserID}
	}
}

func (repo erfassungRepository) QueryErfassungen(ctx context.Context, scope erfassung.Scope, filter erfassung.QueryFilter, ordering ...core.DBOrdering) ([]erfassung.Erfassung, error) {
	q := repo.selectQuery()

	if cond := scopeCond(scope); cond != nil {
		q = q.Where(cond)
	}
	if filter.Search != "" {
		q = q.Where(ilike(filter.Search, "e.wus_nummer", "w.name", "k.name", "j.name", "e.bemerkungen"))
	}
	if filter.WildartID > 0 {
		q = q.Where(sq.Eq{"e.wildart_id": filter.WildartID})
	}
	if filter.JagdgebietID > 0 {
		q = q.Where(sq.Eq{"e.jagdgebiet_id": filter.JagdgebietID})
	}
	if filter.ErfasserID > 0 {
		q = q.Where(sq.Eq{"e.erfasser_id": filter.ErfasserID})
	}
	if !filter.From.IsZero() {
		q = q.Where(sq.GtOrEq{"e.erfassungsdatum": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(sq.LtOrEq{"e.erfassungsdatum": filter.To})
	}
	q = q.OrderBy(orderBy(ordering, erfassungOrdering, "e.erfassungsdatum DESC", "e.created_at DESC", "e.id DESC")...)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []erfassungRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying Erfassungen")
	}
	erfassungen := make([]erfassung.Erfassung, 0, len(rows))
	for _, r := range rows {
		erfassungen = append(erfassungen, r.erfassung())
	}
	return erfassungen, nil
}

func (repo erfassungRepository) GetErfassung(ctx context.Context, id int) (erfassung.Erfassung, error) {
	query, args, err := repo.selectQuery().Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return erfassung.Erfassung{}, errors.Wrap(err, "building query")
	}
	var row erfassungRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return erfassung.Erfassung{}, trapNoRowsErr(err, erfassung.ErrNotFound, "getting Erfassung")
	}
	return row.erfassung(), nil
}

func nullID(id int) null.Int {
	return null.NewInt(id, id > 0)
}

func (repo erfassungRepository) CreateErfassung(ctx context.Context, rec erfassung.Record) (int, error) {
	query, args, err := builder(repo.db).
		Insert("erfassungen").
		Columns("wus_nummer", "wildart_id", "kategorie_id", "jagdgebiet_id", "erfasser_id",
			"erfassungsdatum", "bemerkungen", "interne_notiz", "created_at", "updated_at").
		Values(rec.WUSNummer, nullID(rec.WildartID), nullID(rec.KategorieID), nullID(rec.JagdgebietID), nullID(rec.ErfasserID),
			rec.Erfassungsdatum, rec.Bemerkungen, rec.InterneNotiz, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int
	if err = repo.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, erfassung.ErrDuplicateWUS
		}
		return 0, errors.Wrap(err, "inserting Erfassung")
	}
	return id, nil
}

func (repo erfassungRepository) UpdateErfassung(ctx context.Context, rec erfassung.Record) error {
	query, args, err := builder(repo.db).
		Update("erfassungen").
		SetMap(map[string]interface{}{
			"wus_nummer":      rec.WUSNummer,
			"wildart_id":      nullID(rec.WildartID),
			"kategorie_id":    nullID(rec.KategorieID),
			"jagdgebiet_id":   nullID(rec.JagdgebietID),
			"erfassungsdatum": rec.Erfassungsdatum,
			"bemerkungen":     rec.Bemerkungen,
			"interne_notiz":   rec.InterneNotiz,
			"updated_at":      rec.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return erfassung.ErrDuplicateWUS
		}
		return errors.Wrap(err, "updating Erfassung")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return erfassung.ErrNotFound
	}
	return nil
}

func (repo erfassungRepository) DeleteErfassung(ctx context.Context, id int) error {
	query, args, err := builder(repo.db).Delete("erfassungen").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting Erfassung")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return erfassung.ErrNotFound
	}
	return nil
}
