package core

import (
	"strings"
	"testing"
)

func TestEmailMessage_Render(t *testing.T) {
	type gastmeldungData struct {
		ID                                          int
		MelderName, MelderEmail, Telefon, WUSNummer string
		Wildart, Fundort, Datum, Bemerkungen        string
		HasOCR                                      bool
		OCRConfidence, OCRRawText                   string
	}
	type exportData struct {
		Name, Range, Format string
		Count               int
	}

	tests := []struct {
		name               string
		msg                EmailMessage
		wantText, wantHTML []string
	}{
		{
			name: "gastmeldung",
			msg: EmailMessage{
				TemplateName: "gastmeldung",
				TemplateData: gastmeldungData{
					ID: 7, MelderName: "Gerd Gast", MelderEmail: "gast@example.com", Telefon: "Nicht angegeben",
					WUSNummer: "1234567", Wildart: "Rotwild", Fundort: "Waldweg", Datum: "12.03.2024", Bemerkungen: "Keine",
					HasOCR: true, OCRConfidence: "86", OCRRawText: "WUS 1234567",
				},
			},
			wantText: []string{"ID: 7", "Melder: Gerd Gast", "WUS-Nummer: 1234567", "Fundort: Waldweg", "Vertrauen: 86%", "Roh-Text: WUS 1234567", Conf.AppName},
			wantHTML: []string{"<td>Gerd Gast</td>", "<pre>WUS 1234567</pre>", "/gastmeldungen/7"},
		},
		{
			name: "export",
			msg: EmailMessage{
				TemplateName: "export",
				TemplateData: exportData{Name: "Otto Obmann", Range: "alle", Format: "CSV", Count: 3},
			},
			wantText: []string{"Hallo Otto Obmann,", "Erfassungen (alle) als CSV-Datei", "Anzahl Datensätze: 3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			if err := msg.Render(); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !msg.HasContent() {
				t.Fatal("Render() left the message without content")
			}
			for _, want := range tt.wantText {
				if !strings.Contains(msg.TextContent, want) {
					t.Errorf("TextContent = %q, want it to contain %q", msg.TextContent, want)
				}
			}
			for _, want := range tt.wantHTML {
				if !strings.Contains(msg.HTMLContent, want) {
					t.Errorf("HTMLContent = %q, want it to contain %q", msg.HTMLContent, want)
				}
			}
		})
	}
}
