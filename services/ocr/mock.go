package ocrsvc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/ocr"
)

var (
	mockWildarten   = []string{"Rotwild", "Damwild"}
	mockJagdgebiete = []string{"Jagdgebiet Nord", "Jagdgebiet Süd", "Jagdgebiet Ost", "Jagdgebiet West"}
	mockErleger     = []string{"Max Mustermann", "Anna Schmidt", "Peter Müller", "Lisa Weber"}
	mockGeschlecht  = []string{"männlich", "weiblich"}

	mockConfidence = 0.85
)

// mockEngine makes up a plausible Wildursprungsschein; it never looks at the image.
type mockEngine struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

var _ ocr.Engine = (*mockEngine)(nil)

func NewMockEngine(seed int64) ocr.Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &mockEngine{rnd: rand.New(rand.NewSource(seed))}
}

func (e *mockEngine) pick(choices []string) string {
	return choices[e.rnd.Intn(len(choices))]
}

func (e *mockEngine) Analyze(_ context.Context, _ []byte, _ string) (ocr.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	geschlecht := e.pick(mockGeschlecht)
	altersklasse := fmt.Sprint(e.rnd.Intn(5))
	if geschlecht == "weiblich" {
		altersklasse = fmt.Sprint(e.rnd.Intn(3))
	}
	res := ocr.Result{
		WUSNummer:    fmt.Sprintf("%07d", 1000000+e.rnd.Intn(9000000)),
		Wildart:      e.pick(mockWildarten),
		Datum:        core.Today().German(),
		Jagdgebiet:   e.pick(mockJagdgebiete),
		Erleger:      e.pick(mockErleger),
		Geschlecht:   geschlecht,
		Altersklasse: altersklasse,
		Confidence:   mockConfidence,
	}
	res.RawText = fmt.Sprintf("Wildursprungsschein\nWildmarkennummer: %s\nWildart: %s\nErlegungsdatum: %s\nErleger: %s",
		res.WUSNummer, res.Wildart, res.Datum, res.Erleger)
	return res, nil
}
