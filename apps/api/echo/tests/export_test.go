package tests

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core/export"
	"github.com/foe05/HGMH-App/core/user"
	emailsvc "github.com/foe05/HGMH-App/services/email"
	testutil "github.com/foe05/HGMH-App/tests"
)

func Test_exportApi(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "jaeger@hgam.de", "", nil, nil, true)
	obmann := testutil.CreateUser(t, usrRepo, "Otto Obmann", "obmann", "obmann@hgam.de", "", []string{user.RoleObmann}, nil, true)
	ohneMail := testutil.CreateUser(t, usrRepo, "Ohne Mail", "ohnemail", "", "", []string{user.RoleObmann}, nil, true)
	token := getToken(t, obmann)

	e1 := testutil.CreateErfassung(t, erfRepo, "1000001", testutil.WildartRotwild, testutil.KategorieHirschkalb,
		testutil.JagdgebietNord, jaeger.ID, testutil.Date(t, "2024-03-01"), "Hinter der Fichte", "nur intern")
	e2 := testutil.CreateErfassung(t, erfRepo, "1000002", testutil.WildartDamwild, testutil.KategorieWildkalb,
		testutil.JagdgebietSued, obmann.ID, testutil.Date(t, "2024-04-15"))
	e3 := testutil.CreateErfassung(t, erfRepo, "1000003", testutil.WildartRotwild, testutil.KategorieWildkalb,
		testutil.JagdgebietOst, jaeger.ID, testutil.Date(t, "2024-05-20"))

	csvPath := apiPath + "/export/csv"

	tests := []httpTest{
		{name: "Auth required", path: csvPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Obmann required", path: csvPath, token: getToken(t, jaeger), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Export nur für Obmänner"}),
		},
		{
			name: "invalid date", path: csvPath + "?from=gestern", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"from": "ungültiges Datum (erwartet: JJJJ-MM-TT oder TT.MM.JJJJ)"}),
		},
		{
			name: "from after to", path: csvPath + "?from=2024-05-01&to=2024-04-01", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"from": "Startdatum muss vor dem Enddatum liegen"}),
		},
		{
			name: "send without email", path: csvPath + "?send_email=true", token: getToken(t, ohneMail), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: export.ErrNoEmail.Error()}),
		},
	}
	runHTTPTests(t, app, tests)

	get := func(t *testing.T, path string) *bytes.Buffer {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return rec.Body
	}
	lines := func(b *bytes.Buffer) []string {
		return strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	}

	t.Run("csv", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, csvPath, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="erfassungen_anfang_heute.csv"`, rec.Header().Get("Content-Disposition"))

		assert.Equal(t, []string{
			"ID;WUS-Nummer;Wildart;Kategorie;Jagdgebiet;Erfasser;Erfassungsdatum;Bemerkungen;Interne Notiz",
			strconv.Itoa(e1.ID) + ";1000001;Rotwild;Hirschkalb;Jagdgebiet Nord;Max Mustermann;01.03.2024;Hinter der Fichte;nur intern",
			strconv.Itoa(e2.ID) + ";1000002;Damwild;Wildkalb;Jagdgebiet Süd;Otto Obmann;15.04.2024;;",
			strconv.Itoa(e3.ID) + ";1000003;Rotwild;Wildkalb;Jagdgebiet Ost;Max Mustermann;20.05.2024;;",
		}, lines(rec.Body))
	})

	t.Run("csv without internal notes", func(t *testing.T) {
		got := lines(get(t, csvPath+"?include_internal_notes=false&to=2024-03-31"))
		assert.Equal(t, []string{
			"ID;WUS-Nummer;Wildart;Kategorie;Jagdgebiet;Erfasser;Erfassungsdatum;Bemerkungen",
			strconv.Itoa(e1.ID) + ";1000001;Rotwild;Hirschkalb;Jagdgebiet Nord;Max Mustermann;01.03.2024;Hinter der Fichte",
		}, got)
	})

	t.Run("csv date range", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, csvPath+"?from=01.04.2024&to=2024-05-20", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="erfassungen_2024-04-01_2024-05-20.csv"`, rec.Header().Get("Content-Disposition"))

		got := lines(rec.Body)
		require.Len(t, got, 3)
		assert.True(t, strings.HasPrefix(got[1], strconv.Itoa(e2.ID)+";1000002;"))
		assert.True(t, strings.HasPrefix(got[2], strconv.Itoa(e3.ID)+";1000003;"))
	})

	t.Run("csv only own", func(t *testing.T) {
		got := lines(get(t, csvPath+"?only_own=true"))
		require.Len(t, got, 2)
		assert.True(t, strings.HasPrefix(got[1], strconv.Itoa(e2.ID)+";"))
	})

	t.Run("pdf", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, apiPath+"/export/pdf?from=2024-01-01", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="erfassungen_2024-01-01_heute.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("send email", func(t *testing.T) {
		emailsvc.ResetSentMessages()

		req, rec := newAuthRequest(http.MethodGet, csvPath+"?send_email=1&include_internal_notes=0", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res export.Result
		unmarshall(t, rec, &res)
		assert.Equal(t, export.Result{Success: true, Message: export.MsgSent, Count: 3}, res)

		msgs := emailsvc.SentMessages()
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].To, 1)
		assert.Equal(t, "obmann@hgam.de", msgs[0].To[0].Address)
		assert.Equal(t, "Export der Erfassungen (alle)", msgs[0].Subject)

		require.Len(t, msgs[0].Attachments, 1)
		at := msgs[0].Attachments[0]
		assert.Equal(t, "erfassungen_anfang_heute.csv", at.Filename)
		assert.Equal(t, "text/csv; charset=utf-8", at.ContentType)

		content, err := base64.StdEncoding.DecodeString(at.Content.String())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "ID;WUS-Nummer;"))
		assert.NotContains(t, string(content), "nur intern")
	})
}
