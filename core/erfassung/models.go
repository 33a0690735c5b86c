package erfassung

import (
	"time"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
)

// Erfassung is a recorded harvest event.
type Erfassung struct {
	ID              int            `json:"id"`
	WUSNummer       string         `json:"wus_nummer"`
	Wildart         stammdaten.Ref `json:"wildart"`
	Kategorie       stammdaten.Ref `json:"kategorie"`
	Jagdgebiet      stammdaten.Ref `json:"jagdgebiet"`
	ErfasserID      int            `json:"erfasser_id"`
	Erfasser        string         `json:"erfasser"`
	Erfassungsdatum core.Date      `json:"erfassungsdatum"`
	Bemerkungen     string         `json:"bemerkungen"`
	InterneNotiz    string         `json:"interne_notiz"`
	CreatedAt       time.Time      `json:"created_at"` // UTC
	UpdatedAt       time.Time      `json:"updated_at"` // UTC
}

// NewErfassung contains information needed to record a new Erfassung.
type NewErfassung struct {
	WUSNummer       string `json:"wus_nummer" validate:"required"`
	WildartID       int    `json:"wildart_id" validate:"required"`
	KategorieID     int    `json:"kategorie_id" validate:"required"`
	JagdgebietID    int    `json:"jagdgebiet_id" validate:"required"`
	Erfassungsdatum string `json:"erfassungsdatum" validate:"omitempty,datum"`
	Bemerkungen     string `json:"bemerkungen" validate:"max=2000"`
	InterneNotiz    string `json:"interne_notiz" validate:"max=2000"`
}

func (ne *NewErfassung) Clean() {
	ne.WUSNummer = core.CleanString(ne.WUSNummer)
	ne.Erfassungsdatum = core.CleanString(ne.Erfassungsdatum)
	ne.Bemerkungen = core.CleanString(ne.Bemerkungen)
	ne.InterneNotiz = core.CleanString(ne.InterneNotiz)
}

// UpdateErfassung defines what may be changed on an existing Erfassung; nil fields are left untouched.
type UpdateErfassung struct {
	WUSNummer       *string `json:"wus_nummer"`
	WildartID       *int    `json:"wildart_id" validate:"omitempty,min=1"`
	KategorieID     *int    `json:"kategorie_id" validate:"omitempty,min=1"`
	JagdgebietID    *int    `json:"jagdgebiet_id" validate:"omitempty,min=1"`
	Erfassungsdatum *string `json:"erfassungsdatum" validate:"omitempty,datum"`
	Bemerkungen     *string `json:"bemerkungen" validate:"omitempty,max=2000"`
	InterneNotiz    *string `json:"interne_notiz" validate:"omitempty,max=2000"`
}

func (ue *UpdateErfassung) Clean() {
	clean := func(s *string) *string {
		if s == nil {
			return nil
		}
		c := core.CleanString(*s)
		return &c
	}
	ue.WUSNummer = clean(ue.WUSNummer)
	ue.Erfassungsdatum = clean(ue.Erfassungsdatum)
	ue.Bemerkungen = clean(ue.Bemerkungen)
	ue.InterneNotiz = clean(ue.InterneNotiz)
}

// Record is the storage representation of an Erfassung.
type Record struct {
	ID              int
	WUSNummer       string
	WildartID       int
	KategorieID     int
	JagdgebietID    int
	ErfasserID      int
	Erfassungsdatum core.Date
	Bemerkungen     string
	InterneNotiz    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QueryFilter narrows down a listing; zero values are ignored.
// Search does a case-insensitive match on the WUS-Nummer, Wildart, Kategorie & Jagdgebiet names and Bemerkungen.
type QueryFilter struct {
	Search       string    `query:"search"`
	WildartID    int       `query:"wildart_id"`
	JagdgebietID int       `query:"jagdgebiet_id"`
	ErfasserID   int       `query:"erfasser_id"`
	From         core.Date `query:"from"`
	To           core.Date `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Scope restricts which Erfassungen a user may see & modify.
type Scope struct {
	All         bool
	ErfasserID  int
	Jagdgebiete []int
}

// ScopeFor returns the visibility scope of `usr`:
// administrators see everything; Obmänner see their assigned Jagdgebiete (everything when none are assigned);
// everybody else only sees their own records.
func ScopeFor(usr user.User) Scope {
	switch {
	case usr.IsAdmin():
		return Scope{All: true}
	case usr.IsObmann():
		if len(usr.Jagdgebiete) == 0 {
			return Scope{All: true}
		}
		return Scope{Jagdgebiete: usr.Jagdgebiete}
	default:
		return Scope{ErfasserID: usr.ID}
	}
}

// Allows reports whether an Erfassung of `erfasserID` in `jagdgebietID` is within the scope.
func (s Scope) Allows(erfasserID, jagdgebietID int) bool {
	switch {
	case s.All:
		return true
	case len(s.Jagdgebiete) > 0:
		return core.IntsContain(s.Jagdgebiete, jagdgebietID)
	default:
		return s.ErfasserID != 0 && s.ErfasserID == erfasserID
	}
}
