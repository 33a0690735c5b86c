package ocrsvc

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/ocr"
)

const transcribePrompt = `Transkribiere den Text dieses Wildursprungsscheins zeilenweise.
Gib jedes Feld auf einer eigenen Zeile als "Feldname: Wert" aus, z.B.
Wildmarkennummer: 1234567
Wildart: Rotwild
Erlegungsdatum: 01.10.2024
Jagdgebiet: ...
Erleger: ...
Geschlecht: männlich|weiblich
Altersklasse: 0-4
Antworte nur mit dem Text, ohne Erklärungen.`

// geminiEngine transcribes the image with Gemini and extracts the fields with ocr.ParseText.
type geminiEngine struct {
	client *genai.Client
	model  string
}

var _ ocr.Engine = (*geminiEngine)(nil)

func NewGeminiEngine(ctx context.Context, conf *core.Config) (ocr.Engine, error) {
	if conf.OCR.GeminiAPIKey == "" {
		return nil, errors.New("ocr.geminiApiKey is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.OCR.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating GenAI client")
	}
	return &geminiEngine{client: client, model: conf.OCR.GeminiModel}, nil
}

func (e *geminiEngine) Analyze(ctx context.Context, image []byte, contentType string) (ocr.Result, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(transcribePrompt),
			genai.NewPartFromBytes(image, contentType),
		},
	}}
	var temperature float32
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return ocr.Result{}, errors.Wrap(err, "generating content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ocr.Result{}, errors.New("no text recognised")
	}
	return ocr.ParseText(text), nil
}
