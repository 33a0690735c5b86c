package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/user"
)

var userColumns = []string{
	"id", "username", "email", "display_name", "roles", "hegegemeinschaft_id", "is_active",
	"password_hash", "fcm_token", "device_id", "created_at", "updated_at", "last_login",
}

var userOrdering = map[string]string{
	"id":           "id",
	"username":     "username",
	"display_name": "display_name",
	"created_at":   "created_at",
	"last_login":   "last_login",
}

type userRow struct {
	ID                 int         `db:"id"`
	Username           string      `db:"username"`
	Email              null.String `db:"email"`
	DisplayName        string      `db:"display_name"`
	Roles              string      `db:"roles"`
	HegegemeinschaftID int         `db:"hegegemeinschaft_id"`
	IsActive           bool        `db:"is_active"`
	PasswordHash       []byte      `db:"password_hash"`
	FCMToken           null.String `db:"fcm_token"`
	DeviceID           null.String `db:"device_id"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	LastLogin          null.Time   `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:                 r.ID,
		Username:           r.Username,
		Email:              r.Email.String,
		DisplayName:        r.DisplayName,
		Roles:              user.SplitRoles(r.Roles),
		Jagdgebiete:        []int{},
		HegegemeinschaftID: r.HegegemeinschaftID,
		IsActive:           r.IsActive,
		PasswordHash:       r.PasswordHash,
		FCMToken:           r.FCMToken.String,
		DeviceID:           r.DeviceID.String,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		LastLogin:          utcPtr(r.LastLogin),
	}
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...int) error {
	check := func(col, val string, errExists error) error {
		if val == "" {
			return nil
		}
		q := builder(repo.db).Select("COUNT(*)").From("users").Where(sq.Expr("LOWER("+col+") = LOWER(?)", val))
		if len(excludedIDs) > 0 {
			q = q.Where(sq.NotEq{"id": excludedIDs})
		}
		query, args, err := q.ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		var cnt int
		if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if cnt > 0 {
			return errExists
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo userRepository) setJagdgebiete(ctx context.Context, exec core.DBExecutor, userID int, ids []int) error {
	query, args, err := builder(exec).Delete("user_jagdgebiete").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = exec.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "clearing Jagdgebiete")
	}
	if len(ids) == 0 {
		return nil
	}

	ins := builder(exec).Insert("user_jagdgebiete").Columns("user_id", "jagdgebiet_id")
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			ins = ins.Values(userID, id)
			seen[id] = true
		}
	}
	if query, args, err = ins.ToSql(); err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = exec.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "assigning Jagdgebiete")
}

// loadJagdgebiete fills in the assigned Jagdgebiete of `users`.
func (repo userRepository) loadJagdgebiete(ctx context.Context, users []user.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int, 0, len(users))
	idx := make(map[int]int, len(users))
	for i, u := range users {
		ids = append(ids, u.ID)
		idx[u.ID] = i
	}

	query, args, err := builder(repo.db).
		Select("user_id", "jagdgebiet_id").
		From("user_jagdgebiete").
		Where(sq.Eq{"user_id": ids}).
		OrderBy("jagdgebiet_id").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var rows []struct {
		UserID       int `db:"user_id"`
		JagdgebietID int `db:"jagdgebiet_id"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return errors.Wrap(err, "querying Jagdgebiete")
	}
	for _, r := range rows {
		i := idx[r.UserID]
		users[i].Jagdgebiete = append(users[i].Jagdgebiete, r.JagdgebietID)
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	var id int
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		query, args, err := builder(tx).
			Insert("users").
			Columns("username", "email", "display_name", "roles", "hegegemeinschaft_id", "is_active",
				"password_hash", "created_at", "updated_at").
			Values(usr.Username, null.NewString(usr.Email, usr.Email != ""), usr.DisplayName, user.JoinRoles(usr.Roles),
				usr.HegegemeinschaftID, usr.IsActive, usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC()).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if err = tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			if isUniqueViolation(err) {
				return user.ErrUsernameExists
			}
			return errors.Wrap(err, "inserting user")
		}
		return repo.setJagdgebiete(ctx, tx, id, usr.Jagdgebiete)
	})
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, id)
}

func (repo userRepository) get(ctx context.Context, where sq.Sqlizer) (user.User, error) {
	query, args, err := builder(repo.db).Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	users := []user.User{row.user()}
	if err = repo.loadJagdgebiete(ctx, users); err != nil {
		return user.User{}, err
	}
	return users[0], nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.get(ctx, sq.Eq{"id": id})
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, sq.Or{
		sq.Expr("LOWER(username) = LOWER(?)", username),
		sq.Expr("LOWER(email) = LOWER(?)", username),
	})
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := builder(repo.db).Select(userColumns...).From("users")

	if filter.Search != "" {
		q = q.Where(ilike(filter.Search, "username", "display_name", "email"))
	}
	if len(filter.Roles) > 0 {
		roles := make(sq.Or, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, sq.Expr("(',' || roles || ',') LIKE ? ESCAPE '\\'", "%,"+likeEscaper.Replace(role)+",%"))
		}
		q = q.Where(roles)
	}
	if filter.JagdgebietID > 0 {
		q = q.Where(sq.Expr("id IN (SELECT user_id FROM user_jagdgebiete WHERE jagdgebiet_id = ?)", filter.JagdgebietID))
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	q = q.OrderBy(orderBy(ordering, userOrdering, "username ASC")...)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	if err = repo.loadJagdgebiete(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		query, args, err := builder(tx).
			Update("users").
			SetMap(map[string]interface{}{
				"username":            usr.Username,
				"email":               null.NewString(usr.Email, usr.Email != ""),
				"display_name":        usr.DisplayName,
				"roles":               user.JoinRoles(usr.Roles),
				"hegegemeinschaft_id": usr.HegegemeinschaftID,
				"is_active":           usr.IsActive,
				"password_hash":       usr.PasswordHash,
				"updated_at":          time.Now().UTC(),
			}).
			Where(sq.Eq{"id": usr.ID}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrUsernameExists
			}
			return errors.Wrap(err, "updating user")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return user.ErrNotFound
		}
		return repo.setJagdgebiete(ctx, tx, usr.ID, usr.Jagdgebiete)
	})
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) update(ctx context.Context, id int, values map[string]interface{}, msg string) error {
	query, args, err := builder(repo.db).Update("users").SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, id int, at time.Time) error {
	return repo.update(ctx, id, map[string]interface{}{"last_login": at.UTC()}, "setting last login")
}

func (repo userRepository) SetDevice(ctx context.Context, id int, fcmToken, deviceID string) error {
	return repo.update(ctx, id, map[string]interface{}{
		"fcm_token":  null.NewString(fcmToken, fcmToken != ""),
		"device_id":  null.NewString(deviceID, deviceID != ""),
		"updated_at": time.Now().UTC(),
	}, "setting device")
}

// Sessions

type sessionRow struct {
	ID        string    `db:"id"`
	UserID    int       `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
	RevokedAt null.Time `db:"revoked_at"`
}

func (repo userRepository) CreateSession(ctx context.Context, s user.Session) error {
	query, args, err := builder(repo.db).
		Insert("sessions").
		Columns("id", "user_id", "created_at", "expires_at").
		Values(s.ID, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "inserting session")
}

func (repo userRepository) GetSession(ctx context.Context, id string) (user.Session, error) {
	query, args, err := builder(repo.db).
		Select("id", "user_id", "created_at", "expires_at", "revoked_at").
		From("sessions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return user.Session{}, errors.Wrap(err, "building query")
	}
	var row sessionRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.Session{}, trapNoRowsErr(err, user.ErrSessionNotFound, "getting session")
	}
	return user.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
		RevokedAt: utcPtr(row.RevokedAt),
	}, nil
}

func (repo userRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	query, args, err := builder(repo.db).
		Update("sessions").
		Set("revoked_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "revoking session")
}
