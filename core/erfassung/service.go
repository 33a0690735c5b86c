package erfassung

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("Erfassung nicht gefunden")
	ErrDuplicateWUS = errors.New(stammdaten.MsgWUSTaken)

	msgJagdgebietNotAssigned = "Jagdgebiet ist Ihnen nicht zugewiesen"
)

type (
	Repository interface {
		// QueryErfassungen lists the Erfassungen within `scope` matching `filter`.
		// Without ordering, the newest Erfassungen (by erfassungsdatum, then created_at) come first.
		QueryErfassungen(ctx context.Context, scope Scope, filter QueryFilter, ordering ...core.DBOrdering) ([]Erfassung, error)
		GetErfassung(ctx context.Context, id int) (Erfassung, error)
		// CreateErfassung returns ErrDuplicateWUS if the WUS-Nummer is taken.
		CreateErfassung(ctx context.Context, rec Record) (int, error)
		UpdateErfassung(ctx context.Context, rec Record) error
		DeleteErfassung(ctx context.Context, id int) error
	}

	Service struct {
		repo       Repository
		stammdaten *stammdaten.Service
		validate   *validator.Validate
	}
)

func NewService(repo Repository, stammSvc *stammdaten.Service, validate *validator.Validate) *Service {
	return &Service{
		repo:       repo,
		stammdaten: stammSvc,
		validate:   validate,
	}
}

func (svc *Service) Query(ctx context.Context, usr user.User, filter QueryFilter, ordering ...core.DBOrdering) ([]Erfassung, error) {
	filter.Clean()
	return svc.repo.QueryErfassungen(ctx, ScopeFor(usr), filter, ordering...)
}

// Get returns the Erfassung `id`; Erfassungen outside of the user's scope are not found.
func (svc *Service) Get(ctx context.Context, usr user.User, id int) (Erfassung, error) {
	e, err := svc.repo.GetErfassung(ctx, id)
	if err != nil {
		return Erfassung{}, err
	}
	if !ScopeFor(usr).Allows(e.ErfasserID, e.Jagdgebiet.ID) {
		return Erfassung{}, ErrNotFound
	}
	return e, nil
}

func (svc *Service) Create(ctx context.Context, usr user.User, ne NewErfassung) (Erfassung, error) {
	ne.Clean()
	if err := svc.validate.Struct(&ne); err != nil {
		return Erfassung{}, err
	}
	if err := svc.stammdaten.CheckWUSNummer(ctx, ne.WUSNummer, 0); err != nil {
		return Erfassung{}, err
	}
	if err := svc.checkRefs(ctx, usr, ne.WildartID, ne.KategorieID, ne.JagdgebietID); err != nil {
		return Erfassung{}, err
	}

	datum := core.Today()
	if ne.Erfassungsdatum != "" {
		datum, _ = core.ParseDate(ne.Erfassungsdatum) // validated above
	}

	now := time.Now().UTC()
	id, err := svc.repo.CreateErfassung(ctx, Record{
		WUSNummer:       ne.WUSNummer,
		WildartID:       ne.WildartID,
		KategorieID:     ne.KategorieID,
		JagdgebietID:    ne.JagdgebietID,
		ErfasserID:      usr.ID,
		Erfassungsdatum: datum,
		Bemerkungen:     ne.Bemerkungen,
		InterneNotiz:    ne.InterneNotiz,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		if errors.Cause(err) == ErrDuplicateWUS {
			return Erfassung{}, core.NewFieldValidationError("wus_nummer", stammdaten.MsgWUSTaken)
		}
		return Erfassung{}, errors.Wrap(err, "creating Erfassung")
	}
	return svc.repo.GetErfassung(ctx, id)
}

func (svc *Service) Update(ctx context.Context, usr user.User, id int, ue UpdateErfassung) (Erfassung, error) {
	e, err := svc.Get(ctx, usr, id)
	if err != nil {
		return Erfassung{}, err
	}

	ue.Clean()
	if err = svc.validate.Struct(&ue); err != nil {
		return Erfassung{}, err
	}

	rec := e.record()
	if ue.WUSNummer != nil && *ue.WUSNummer != e.WUSNummer {
		if err = svc.stammdaten.CheckWUSNummer(ctx, *ue.WUSNummer, e.ID); err != nil {
			return Erfassung{}, err
		}
		rec.WUSNummer = *ue.WUSNummer
	}
	if ue.WildartID != nil {
		rec.WildartID = *ue.WildartID
	}
	if ue.KategorieID != nil {
		rec.KategorieID = *ue.KategorieID
	}
	if ue.JagdgebietID != nil {
		rec.JagdgebietID = *ue.JagdgebietID
	}
	if ue.WildartID != nil || ue.KategorieID != nil || ue.JagdgebietID != nil {
		if err = svc.checkRefs(ctx, usr, rec.WildartID, rec.KategorieID, rec.JagdgebietID); err != nil {
			return Erfassung{}, err
		}
	}
	if ue.Erfassungsdatum != nil {
		rec.Erfassungsdatum, _ = core.ParseDate(*ue.Erfassungsdatum)
	}
	if ue.Bemerkungen != nil {
		rec.Bemerkungen = *ue.Bemerkungen
	}
	if ue.InterneNotiz != nil {
		rec.InterneNotiz = *ue.InterneNotiz
	}
	rec.UpdatedAt = time.Now().UTC()

	if err = svc.repo.UpdateErfassung(ctx, rec); err != nil {
		if errors.Cause(err) == ErrDuplicateWUS {
			return Erfassung{}, core.NewFieldValidationError("wus_nummer", stammdaten.MsgWUSTaken)
		}
		return Erfassung{}, errors.Wrap(err, "updating Erfassung")
	}
	return svc.repo.GetErfassung(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, usr user.User, id int) error {
	if _, err := svc.Get(ctx, usr, id); err != nil {
		return err
	}
	return svc.repo.DeleteErfassung(ctx, id)
}

// checkRefs makes sure the referenced Stammdaten exist and that users with assigned Jagdgebiete
// only record within them.
func (svc *Service) checkRefs(ctx context.Context, usr user.User, wildartID, kategorieID, jagdgebietID int) error {
	var flds []core.FieldError

	if w, err := svc.stammdaten.GetWildart(ctx, wildartID); err != nil {
		if errors.Cause(err) != stammdaten.ErrWildartNotFound {
			return errors.Wrap(err, "getting Wildart")
		}
		flds = append(flds, core.FieldError{Field: "wildart_id", Error: stammdaten.ErrWildartNotFound.Error()})
	} else if !w.Active {
		flds = append(flds, core.FieldError{Field: "wildart_id", Error: stammdaten.ErrWildartNotFound.Error()})
	}

	if _, err := svc.stammdaten.GetKategorie(ctx, kategorieID); err != nil {
		if errors.Cause(err) != stammdaten.ErrKategorieNotFound {
			return errors.Wrap(err, "getting Kategorie")
		}
		flds = append(flds, core.FieldError{Field: "kategorie_id", Error: stammdaten.ErrKategorieNotFound.Error()})
	}

	if _, err := svc.stammdaten.GetJagdgebiet(ctx, jagdgebietID); err != nil {
		if errors.Cause(err) != stammdaten.ErrJagdgebietNotFound {
			return errors.Wrap(err, "getting Jagdgebiet")
		}
		flds = append(flds, core.FieldError{Field: "jagdgebiet_id", Error: stammdaten.ErrJagdgebietNotFound.Error()})
	} else if len(usr.Jagdgebiete) > 0 && !usr.IsAdmin() && !usr.HasJagdgebiet(jagdgebietID) {
		flds = append(flds, core.FieldError{Field: "jagdgebiet_id", Error: msgJagdgebietNotAssigned})
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (e Erfassung) record() Record {
	return Record{
		ID:              e.ID,
		WUSNummer:       e.WUSNummer,
		WildartID:       e.Wildart.ID,
		KategorieID:     e.Kategorie.ID,
		JagdgebietID:    e.Jagdgebiet.ID,
		ErfasserID:      e.ErfasserID,
		Erfassungsdatum: e.Erfassungsdatum,
		Bemerkungen:     e.Bemerkungen,
		InterneNotiz:    e.InterneNotiz,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
