package ocr

import "context"

// Result is the text recognised on a Wildursprungsschein plus the fields extracted from it.
type Result struct {
	WUSNummer    string  `json:"wus_nummer"`
	Wildart      string  `json:"wildart"`
	WildartCode  string  `json:"wildart_code"`
	Kategorie    string  `json:"kategorie"`
	Datum        string  `json:"datum"`
	Jagdgebiet   string  `json:"jagdgebiet"`
	Erleger      string  `json:"erleger"`
	Geschlecht   string  `json:"geschlecht"`
	Altersklasse string  `json:"altersklasse"`
	Confidence   float64 `json:"confidence"`
	RawText      string  `json:"raw_text"`
}

// Engine recognises a scanned Wildursprungsschein.
type Engine interface {
	Analyze(ctx context.Context, image []byte, contentType string) (Result, error)
}
