package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
)

type wildartRow struct {
	ID           int    `db:"id"`
	Name         string `db:"name"`
	Code         string `db:"code"`
	Meldegruppen string `db:"meldegruppen"`
	Active       bool   `db:"active"`
}

func (r wildartRow) wildart() stammdaten.Wildart {
	return stammdaten.Wildart{
		ID:           r.ID,
		Name:         r.Name,
		Code:         r.Code,
		Meldegruppen: stammdaten.SplitMeldegruppen(r.Meldegruppen),
		Active:       r.Active,
	}
}

type stammdatenRepository struct {
	db core.DB
}

var _ stammdaten.Repository = (*stammdatenRepository)(nil) // interface compliance check

func NewStammdatenRepository(db core.DB) stammdaten.Repository {
	return &stammdatenRepository{db: db}
}

func (repo stammdatenRepository) queryWildarten(ctx context.Context, where sq.Sqlizer) ([]stammdaten.Wildart, error) {
	query, args, err := builder(repo.db).
		Select("id", "name", "code", "meldegruppen", "active").
		From("wildarten").
		Where(where).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []wildartRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying Wildarten")
	}
	wildarten := make([]stammdaten.Wildart, 0, len(rows))
	for _, r := range rows {
		wildarten = append(wildarten, r.wildart())
	}
	return wildarten, nil
}

func (repo stammdatenRepository) QueryActiveWildarten(ctx context.Context) ([]stammdaten.Wildart, error) {
	return repo.queryWildarten(ctx, sq.Eq{"active": true})
}

func (repo stammdatenRepository) getWildart(ctx context.Context, where sq.Sqlizer) (stammdaten.Wildart, error) {
	wildarten, err := repo.queryWildarten(ctx, where)
	if err != nil {
		return stammdaten.Wildart{}, err
	}
	if len(wildarten) == 0 {
		return stammdaten.Wildart{}, stammdaten.ErrWildartNotFound
	}
	return wildarten[0], nil
}

func (repo stammdatenRepository) GetWildartByID(ctx context.Context, id int) (stammdaten.Wildart, error) {
	return repo.getWildart(ctx, sq.Eq{"id": id})
}

func (repo stammdatenRepository) GetWildartByName(ctx context.Context, name string) (stammdaten.Wildart, error) {
	return repo.getWildart(ctx, sq.Expr("LOWER(name) = LOWER(?)", name))
}

func (repo stammdatenRepository) queryKategorien(ctx context.Context, where sq.Sqlizer) ([]stammdaten.Kategorie, error) {
	q := builder(repo.db).Select("id", "name", "code", "description").From("kategorien").OrderBy("id")
	if where != nil {
		q = q.Where(where)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	kategorien := make([]stammdaten.Kategorie, 0)
	if err = repo.db.SelectContext(ctx, &kategorien, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying Kategorien")
	}
	return kategorien, nil
}

func (repo stammdatenRepository) QueryKategorien(ctx context.Context) ([]stammdaten.Kategorie, error) {
	return repo.queryKategorien(ctx, nil)
}

func (repo stammdatenRepository) GetKategorieByID(ctx context.Context, id int) (stammdaten.Kategorie, error) {
	kategorien, err := repo.queryKategorien(ctx, sq.Eq{"id": id})
	if err != nil {
		return stammdaten.Kategorie{}, err
	}
	if len(kategorien) == 0 {
		return stammdaten.Kategorie{}, stammdaten.ErrKategorieNotFound
	}
	return kategorien[0], nil
}

func (repo stammdatenRepository) queryJagdgebiete(ctx context.Context, where sq.Sqlizer) ([]stammdaten.Jagdgebiet, error) {
	query, args, err := builder(repo.db).
		Select("id", "name", "code", "active").
		From("jagdgebiete").
		Where(where).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	jagdgebiete := make([]stammdaten.Jagdgebiet, 0)
	if err = repo.db.SelectContext(ctx, &jagdgebiete, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying Jagdgebiete")
	}
	return jagdgebiete, nil
}

func (repo stammdatenRepository) QueryJagdgebiete(ctx context.Context, ids ...int) ([]stammdaten.Jagdgebiet, error) {
	where := sq.And{sq.Eq{"active": true}}
	if len(ids) > 0 {
		where = append(where, sq.Eq{"id": ids})
	}
	return repo.queryJagdgebiete(ctx, where)
}

func (repo stammdatenRepository) GetJagdgebietByID(ctx context.Context, id int) (stammdaten.Jagdgebiet, error) {
	jagdgebiete, err := repo.queryJagdgebiete(ctx, sq.Eq{"id": id})
	if err != nil {
		return stammdaten.Jagdgebiet{}, err
	}
	if len(jagdgebiete) == 0 {
		return stammdaten.Jagdgebiet{}, stammdaten.ErrJagdgebietNotFound
	}
	return jagdgebiete[0], nil
}

func (repo stammdatenRepository) WUSNummerExists(ctx context.Context, wus string, excludeID int) (bool, error) {
	q := builder(repo.db).Select("COUNT(*)").From("erfassungen").Where(sq.Eq{"wus_nummer": wus})
	if excludeID > 0 {
		q = q.Where(sq.NotEq{"id": excludeID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return false, errors.Wrap(err, "checking WUS-Nummer")
	}
	return cnt > 0, nil
}

// upsert inserts or updates (by code) a row and returns its id.
func (repo stammdatenRepository) upsert(ctx context.Context, table string, columns []string, values []interface{}) (int, error) {
	set := make([]string, 0, len(columns))
	for _, col := range columns {
		if col != "code" {
			set = append(set, col+" = excluded."+col)
		}
	}
	query, args, err := builder(repo.db).
		Insert(table).
		Columns(columns...).
		Values(values...).
		Suffix("ON CONFLICT (code) DO UPDATE SET " + strings.Join(set, ", ") + " RETURNING id").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int
	if err = repo.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "upserting into %s", table)
	}
	return id, nil
}

func (repo stammdatenRepository) UpsertWildart(ctx context.Context, w stammdaten.Wildart) (stammdaten.Wildart, error) {
	id, err := repo.upsert(ctx, "wildarten",
		[]string{"name", "code", "meldegruppen", "active"},
		[]interface{}{w.Name, w.Code, stammdaten.JoinMeldegruppen(w.Meldegruppen), w.Active})
	if err != nil {
		return stammdaten.Wildart{}, err
	}
	w.ID = id
	return w, nil
}

func (repo stammdatenRepository) UpsertKategorie(ctx context.Context, k stammdaten.Kategorie) (stammdaten.Kategorie, error) {
	id, err := repo.upsert(ctx, "kategorien",
		[]string{"name", "code", "description"},
		[]interface{}{k.Name, k.Code, k.Description})
	if err != nil {
		return stammdaten.Kategorie{}, err
	}
	k.ID = id
	return k, nil
}

func (repo stammdatenRepository) UpsertJagdgebiet(ctx context.Context, j stammdaten.Jagdgebiet) (stammdaten.Jagdgebiet, error) {
	id, err := repo.upsert(ctx, "jagdgebiete",
		[]string{"name", "code", "active"},
		[]interface{}{j.Name, j.Code, j.Active})
	if err != nil {
		return stammdaten.Jagdgebiet{}, err
	}
	j.ID = id
	return j, nil
}
