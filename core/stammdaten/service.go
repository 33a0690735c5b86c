package stammdaten

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/foe05/HGMH-App/assets"
	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	ErrWildartNotFound    = errors.New("Wildart nicht gefunden")
	ErrKategorieNotFound  = errors.New("Kategorie nicht gefunden")
	ErrJagdgebietNotFound = errors.New("Jagdgebiet nicht gefunden")

	MsgWUSTaken = "WUS-Nummer bereits vergeben"
)

type (
	Repository interface {
		QueryActiveWildarten(ctx context.Context) ([]Wildart, error)
		GetWildartByID(ctx context.Context, id int) (Wildart, error)
		// GetWildartByName does a case-insensitive match on the name.
		GetWildartByName(ctx context.Context, name string) (Wildart, error)
		QueryKategorien(ctx context.Context) ([]Kategorie, error)
		GetKategorieByID(ctx context.Context, id int) (Kategorie, error)
		// QueryJagdgebiete returns active Jagdgebiete, restricted to `ids` when not empty.
		QueryJagdgebiete(ctx context.Context, ids ...int) ([]Jagdgebiet, error)
		GetJagdgebietByID(ctx context.Context, id int) (Jagdgebiet, error)
		// WUSNummerExists checks Erfassungen for `wus`, ignoring the Erfassung `excludeID` (if > 0).
		WUSNummerExists(ctx context.Context, wus string, excludeID int) (bool, error)

		UpsertWildart(ctx context.Context, w Wildart) (Wildart, error)
		UpsertKategorie(ctx context.Context, k Kategorie) (Kategorie, error)
		UpsertJagdgebiet(ctx context.Context, j Jagdgebiet) (Jagdgebiet, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) ListWildarten(ctx context.Context) ([]Wildart, error) {
	return svc.repo.QueryActiveWildarten(ctx)
}

func (svc *Service) ListKategorien(ctx context.Context) ([]Kategorie, error) {
	return svc.repo.QueryKategorien(ctx)
}

// ListJagdgebiete returns the Jagdgebiete assigned to `usr`, or all active ones if none are assigned.
func (svc *Service) ListJagdgebiete(ctx context.Context, usr user.User) ([]Jagdgebiet, error) {
	return svc.repo.QueryJagdgebiete(ctx, usr.Jagdgebiete...)
}

func (svc *Service) GetWildart(ctx context.Context, id int) (Wildart, error) {
	return svc.repo.GetWildartByID(ctx, id)
}

func (svc *Service) GetKategorie(ctx context.Context, id int) (Kategorie, error) {
	return svc.repo.GetKategorieByID(ctx, id)
}

func (svc *Service) GetJagdgebiet(ctx context.Context, id int) (Jagdgebiet, error) {
	return svc.repo.GetJagdgebietByID(ctx, id)
}

func (svc *Service) FindWildartByName(ctx context.Context, name string) (Wildart, error) {
	return svc.repo.GetWildartByName(ctx, core.CleanString(name))
}

// ValidateWUSNummer checks the format of `wus` and that no other Erfassung (than `excludeID`) uses it.
func (svc *Service) ValidateWUSNummer(ctx context.Context, wus string, excludeID int) (WUSValidation, error) {
	wus = core.CleanString(wus)
	if !core.IsValidWUSNummer(wus) {
		return WUSValidation{Message: core.WUSNummerText}, nil
	}
	exists, err := svc.repo.WUSNummerExists(ctx, wus, excludeID)
	if err != nil {
		return WUSValidation{}, errors.Wrap(err, "checking WUS-Nummer")
	}
	if exists {
		return WUSValidation{Message: MsgWUSTaken}, nil
	}
	return WUSValidation{Valid: true}, nil
}

// CheckWUSNummer is ValidateWUSNummer returning a core.ValidationError on the `wus_nummer` field.
func (svc *Service) CheckWUSNummer(ctx context.Context, wus string, excludeID int) error {
	res, err := svc.ValidateWUSNummer(ctx, wus, excludeID)
	if err != nil {
		return err
	}
	if !res.Valid {
		return core.NewFieldValidationError("wus_nummer", res.Message)
	}
	return nil
}

// ParseSeed reads Stammdaten from YAML.
func ParseSeed(r io.Reader) (SeedData, error) {
	var data SeedData
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return SeedData{}, errors.Wrap(err, "decoding seed data")
	}
	return data, nil
}

// ParseSeedFile reads Stammdaten from the YAML file at `path`.
func ParseSeedFile(path string) (SeedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedData{}, errors.Wrap(err, "opening seed file")
	}
	defer f.Close()
	return ParseSeed(f)
}

// DefaultSeed returns the embedded default Stammdaten.
func DefaultSeed() (SeedData, error) {
	f, err := assets.FS.Open(assets.StammdatenFile)
	if err != nil {
		return SeedData{}, errors.Wrap(err, "opening seed file")
	}
	defer f.Close()
	return ParseSeed(f)
}

// Seed upserts the given Stammdaten by code. Seeded Wildarten & Jagdgebiete are active.
func (svc *Service) Seed(ctx context.Context, data SeedData) error {
	for _, w := range data.Wildarten {
		w.Active = true
		if _, err := svc.repo.UpsertWildart(ctx, w); err != nil {
			return errors.Wrapf(err, "upserting Wildart %s", w.Code)
		}
	}
	for _, k := range data.Kategorien {
		if _, err := svc.repo.UpsertKategorie(ctx, k); err != nil {
			return errors.Wrapf(err, "upserting Kategorie %s", k.Code)
		}
	}
	for _, j := range data.Jagdgebiete {
		j.Active = true
		if _, err := svc.repo.UpsertJagdgebiet(ctx, j); err != nil {
			return errors.Wrapf(err, "upserting Jagdgebiet %s", j.Code)
		}
	}
	return nil
}
