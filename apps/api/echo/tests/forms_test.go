package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/forms"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	emailsvc "github.com/foe05/HGMH-App/services/email"
	testutil "github.com/foe05/HGMH-App/tests"
)

const formsPath = "/wp-json/hg/v1/forms"

func Test_formsApi(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Jäger", "jaeger", "", "", nil, nil, true)
	token := getToken(t, jaeger)

	tests := []httpTest{
		{name: "Auth required", path: formsPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Auth required (submit)", method: http.MethodPost, path: formsPath + "/erfassung/submit",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{name: "list", path: formsPath, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, forms.NewService(nil, nil).List())},
		{
			name: "unknown form", method: http.MethodPost, path: formsPath + "/jagdschein/submit", token: token,
			body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: forms.ErrNotFound.Error()}),
		},
		{
			name: "invalid json", method: http.MethodPost, path: formsPath + "/erfassung/submit", token: token,
			body: []byte(`{"wus_nummer": `), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Ungültige Daten"}),
		},
		{
			name: "invalid erfassung", method: http.MethodPost, path: formsPath + "/erfassung/submit", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"wus_nummer":    "Feld 'wus_nummer' ist erforderlich",
				"wildart_id":    "Feld 'wildart_id' ist erforderlich",
				"kategorie_id":  "Feld 'kategorie_id' ist erforderlich",
				"jagdgebiet_id": "Feld 'jagdgebiet_id' ist erforderlich",
			}),
		},
	}
	runHTTPTests(t, app, tests)

	submit := func(t *testing.T, formID string, payload interface{}) forms.SubmitResponse {
		req, rec := newAuthRequest(http.MethodPost, formsPath+"/"+formID+"/submit", token, marchallObj(t, payload))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp forms.SubmitResponse
		unmarshall(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, formID, resp.FormID)
		assert.WithinDuration(t, time.Now(), resp.CreatedAt, time.Minute)
		require.NotZero(t, resp.ID)
		return resp
	}

	t.Run("submit erfassung", func(t *testing.T) {
		resp := submit(t, forms.FormErfassung, erfassung.NewErfassung{
			WUSNummer:       "2345678",
			WildartID:       testutil.WildartDamwild,
			KategorieID:     testutil.KategorieWildkalb,
			JagdgebietID:    testutil.JagdgebietWest,
			Erfassungsdatum: "2024-10-01",
			Bemerkungen:     "per Formular",
		})

		e, err := erfRepo.GetErfassung(ctx(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "2345678", e.WUSNummer)
		assert.Equal(t, jaeger.ID, e.ErfasserID)
		assert.Equal(t, "2024-10-01", e.Erfassungsdatum.String())
		assert.Equal(t, "per Formular", e.Bemerkungen)
	})

	t.Run("submit gastmeldung", func(t *testing.T) {
		emailsvc.ResetSentMessages()

		resp := submit(t, forms.FormGastmeldung, newGastmeldung("3456789"))

		g, err := gastRepo.GetGastmeldung(ctx(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "3456789", g.WUSNummer)
		assert.Equal(t, gastmeldung.StatusPending, g.Status)
	})
}
