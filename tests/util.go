// Package testutil holds the helpers shared by the repository, service & HTTP tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
	logsvc "github.com/foe05/HGMH-App/services/logger"
	"github.com/foe05/HGMH-App/storage/database"
	sqlxrepos "github.com/foe05/HGMH-App/storage/database/sqlx"
)

// IDs of the seeded Stammdaten (inserted in seed file order).
const (
	WildartRotwild = 1
	WildartDamwild = 2

	KategorieWildkalb   = 1
	KategorieHirschkalb = 4

	JagdgebietNord = 1
	JagdgebietSued = 2
	JagdgebietOst  = 3
	JagdgebietWest = 4
)

// PrepareDB opens a private in-memory database, migrated & seeded with the default Stammdaten.
// The database is closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	database.SetQuietMigrations()
	if err = database.Migrate(ctx, db); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	stammSvc := stammdaten.NewService(sqlxrepos.NewStammdatenRepository(db))
	if err = database.Seed(ctx, stammSvc, ""); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

// NewValidator returns a validator with all custom validators & German translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that reports nowhere.
func NewLogger() core.Logger {
	l := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), core.Conf)
	l.Enable(false)
	return l
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	jagdgebiete []int,
	isActive bool,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	if len(roles) == 0 {
		roles = []string{user.RoleJaeger}
	}
	usr := user.User{
		Username:    uname,
		Email:       email,
		DisplayName: name,
		Roles:       roles,
		Jagdgebiete: jagdgebiete,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// SetFCMToken registers a push token for `usr` and returns the updated user.
func SetFCMToken(t *testing.T, repo user.Repository, usr user.User, token string) user.User {
	t.Helper()
	if err := repo.SetDevice(context.Background(), usr.ID, token, "device-"+usr.Username); err != nil {
		t.Fatalf("SetFCMToken(): %v", err)
	}
	usr.FCMToken = token
	usr.DeviceID = "device-" + usr.Username
	return usr
}

func CreateErfassung(
	t *testing.T,
	repo erfassung.Repository,
	wus string,
	wildartID, kategorieID, jagdgebietID, erfasserID int,
	datum core.Date,
	bemerkungen ...string,
) erfassung.Erfassung {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	rec := erfassung.Record{
		WUSNummer:       wus,
		WildartID:       wildartID,
		KategorieID:     kategorieID,
		JagdgebietID:    jagdgebietID,
		ErfasserID:      erfasserID,
		Erfassungsdatum: datum,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(bemerkungen) > 0 {
		rec.Bemerkungen = bemerkungen[0]
	}
	if len(bemerkungen) > 1 {
		rec.InterneNotiz = bemerkungen[1]
	}
	id, err := repo.CreateErfassung(ctx, rec)
	if err != nil {
		t.Fatalf("CreateErfassung(): %v", err)
	}
	e, err := repo.GetErfassung(ctx, id)
	if err != nil {
		t.Fatalf("CreateErfassung(): %v", err)
	}
	return e
}

// Date parses `s` or fails the test.
func Date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(): %v", err)
	}
	return d
}
