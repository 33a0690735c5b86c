package stammdaten

import "strings"

// Unbekannt is used for references that cannot be resolved.
const Unbekannt = "Unbekannt"

type (
	Wildart struct {
		ID           int      `json:"id" yaml:"-"`
		Name         string   `json:"name" yaml:"name"`
		Code         string   `json:"code" yaml:"code"`
		Meldegruppen []string `json:"meldegruppen" yaml:"meldegruppen"`
		Active       bool     `json:"active" yaml:"-"`
	}

	Kategorie struct {
		ID          int    `json:"id" yaml:"-"`
		Name        string `json:"name" yaml:"name"`
		Code        string `json:"code" yaml:"code"`
		Description string `json:"description" yaml:"description"`
	}

	Jagdgebiet struct {
		ID     int    `json:"id" yaml:"-"`
		Name   string `json:"name" yaml:"name"`
		Code   string `json:"code" yaml:"code"`
		Active bool   `json:"active" yaml:"-"`
	}

	// Ref is a resolved reference to a master data record, as embedded in Erfassungen.
	Ref struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	}

	// SeedData is the content of the Stammdaten seed file.
	SeedData struct {
		Wildarten   []Wildart    `yaml:"wildarten"`
		Kategorien  []Kategorie  `yaml:"kategorien"`
		Jagdgebiete []Jagdgebiet `yaml:"jagdgebiete"`
	}

	// WUSValidation is the outcome of a WUS-Nummer check.
	WUSValidation struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message,omitempty"`
	}
)

// NewRef resolves a possibly missing reference; unresolved names become Unbekannt.
func NewRef(id int, name, code string) Ref {
	if name == "" {
		name = Unbekannt
	}
	return Ref{ID: id, Name: name, Code: code}
}

// JoinMeldegruppen & SplitMeldegruppen convert Meldegruppen to & from their CSV DB representation.
func JoinMeldegruppen(groups []string) string {
	return strings.Join(groups, ",")
}

func SplitMeldegruppen(s string) []string {
	groups := make([]string, 0, 2)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}
