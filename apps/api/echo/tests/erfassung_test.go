package tests

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
	testutil "github.com/foe05/HGMH-App/tests"
)

func erfassungIDs(list []erfassung.Erfassung) []int {
	ids := make([]int, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_erfassungApi_query(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "", "", nil, nil, true)
	jaeger2 := testutil.CreateUser(t, usrRepo, "Anna Schmidt", "jaeger2", "", "", nil, nil, true)
	obmannNord := testutil.CreateUser(t, usrRepo, "Obmann Nord", "obmann", "", "", []string{user.RoleObmann},
		[]int{testutil.JagdgebietNord}, true)
	obmann := testutil.CreateUser(t, usrRepo, "Obmann", "obmann2", "", "", []string{user.RoleObmann}, nil, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "", "", []string{user.RoleAdministrator},
		[]int{testutil.JagdgebietSued}, true)

	e1 := testutil.CreateErfassung(t, erfRepo, "1000001", testutil.WildartRotwild, testutil.KategorieWildkalb,
		testutil.JagdgebietNord, jaeger.ID, testutil.Date(t, "2024-01-10"), "Schöner Hirsch")
	e2 := testutil.CreateErfassung(t, erfRepo, "1000002", testutil.WildartDamwild, testutil.KategorieHirschkalb,
		testutil.JagdgebietSued, jaeger.ID, testutil.Date(t, "2024-02-10"), "ÖHRBERG Kanzel")
	e3 := testutil.CreateErfassung(t, erfRepo, "1000003", testutil.WildartRotwild, testutil.KategorieHirschkalb,
		testutil.JagdgebietNord, jaeger2.ID, testutil.Date(t, "2024-03-10"))
	e4 := testutil.CreateErfassung(t, erfRepo, "2000004", testutil.WildartDamwild, testutil.KategorieWildkalb,
		testutil.JagdgebietWest, jaeger2.ID, testutil.Date(t, "2024-04-10"))

	path := func(params ...string) string {
		v := make(url.Values)
		for i := 0; i+1 < len(params); i += 2 {
			v.Add(params[i], params[i+1])
		}
		return apiPath + "/erfassungen?" + v.Encode()
	}
	itoa := strconv.Itoa

	tests := []struct {
		name string
		usr  user.User
		path string
		want []int
	}{
		{name: "jaeger sees own", usr: jaeger, path: path(), want: []int{e2.ID, e1.ID}},
		{name: "other jaeger sees own", usr: jaeger2, path: path(), want: []int{e4.ID, e3.ID}},
		{name: "obmann sees assigned Jagdgebiete", usr: obmannNord, path: path(), want: []int{e3.ID, e1.ID}},
		{name: "obmann without Jagdgebiete sees all", usr: obmann, path: path(), want: []int{e4.ID, e3.ID, e2.ID, e1.ID}},
		{name: "admin sees all", usr: admin, path: path(), want: []int{e4.ID, e3.ID, e2.ID, e1.ID}},
		// filtering
		{name: "wildart_id", usr: admin, path: path("wildart_id", itoa(testutil.WildartDamwild)), want: []int{e4.ID, e2.ID}},
		{name: "jagdgebiet_id", usr: admin, path: path("jagdgebiet_id", itoa(testutil.JagdgebietNord)), want: []int{e3.ID, e1.ID}},
		{name: "erfasser_id", usr: admin, path: path("erfasser_id", itoa(jaeger2.ID)), want: []int{e4.ID, e3.ID}},
		{name: "from", usr: admin, path: path("from", "2024-03-10"), want: []int{e4.ID, e3.ID}},
		{name: "from - to (german)", usr: admin, path: path("from", "01.02.2024", "to", "10.03.2024"), want: []int{e3.ID, e2.ID}},
		{name: "search WUS", usr: admin, path: path("search", "200"), want: []int{e4.ID}},
		{name: "search Bemerkungen", usr: admin, path: path("search", "schöner"), want: []int{e1.ID}},
		{name: "search folds umlauts", usr: admin, path: path("search", "öhrberg"), want: []int{e2.ID}},
		{name: "search Wildart", usr: admin, path: path("search", "ROTWILD"), want: []int{e3.ID, e1.ID}},
		{name: "search (unknown)", usr: admin, path: path("search", "lol"), want: []int{}},
		{name: "filter within scope", usr: jaeger, path: path("erfasser_id", itoa(jaeger2.ID)), want: []int{}},
		{name: "invalid filter", usr: admin, path: path("from", "lol"), want: []int{}},
		// ordering
		{name: "order by erfassungsdatum", usr: admin, path: path("ordering", "erfassungsdatum"), want: []int{e1.ID, e2.ID, e3.ID, e4.ID}},
		{name: "order by -wus_nummer", usr: admin, path: path("ordering", "-wus_nummer"), want: []int{e4.ID, e3.ID, e2.ID, e1.ID}},
	}

	t.Run("Auth required", func(t *testing.T) {
		runHTTPTests(t, app, []httpTest{
			{path: apiPath + "/erfassungen", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		})
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, getToken(t, tt.usr))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got []erfassung.Erfassung
			unmarshall(t, rec, &got)
			assert.Equal(t, tt.want, erfassungIDs(got))
		})
	}

	t.Run("resolved references", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("search", "1000001"), getToken(t, admin))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []erfassung.Erfassung
		unmarshall(t, rec, &got)
		require.Len(t, got, 1)
		assert.Equal(t, stammdaten.Ref{ID: testutil.WildartRotwild, Name: "Rotwild", Code: "RW"}, got[0].Wildart)
		assert.Equal(t, stammdaten.Ref{ID: testutil.KategorieWildkalb, Name: "Wildkalb", Code: "W0"}, got[0].Kategorie)
		assert.Equal(t, stammdaten.Ref{ID: testutil.JagdgebietNord, Name: "Jagdgebiet Nord", Code: "JG_N"}, got[0].Jagdgebiet)
		assert.Equal(t, "Max Mustermann", got[0].Erfasser)
		assert.Equal(t, "2024-01-10", got[0].Erfassungsdatum.String())
	})
}

func Test_erfassungApi_create(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "", "", nil, nil, true)
	zugewiesen := testutil.CreateUser(t, usrRepo, "Zugewiesen", "zugewiesen", "", "", nil, []int{testutil.JagdgebietNord}, true)
	token := getToken(t, jaeger)
	_ = testutil.CreateErfassung(t, erfRepo, "1234567", testutil.WildartRotwild, testutil.KategorieWildkalb,
		testutil.JagdgebietNord, jaeger.ID, core.Today())

	body := func(wus string, wildartID, kategorieID, jagdgebietID int, datum string) []byte {
		return marchallObj(t, erfassung.NewErfassung{
			WUSNummer:       wus,
			WildartID:       wildartID,
			KategorieID:     kategorieID,
			JagdgebietID:    jagdgebietID,
			Erfassungsdatum: datum,
			Bemerkungen:     "  Sauber erlegt ",
			InterneNotiz:    "nur intern",
		})
	}
	w, k, j := testutil.WildartRotwild, testutil.KategorieHirschkalb, testutil.JagdgebietSued

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: apiPath + "/erfassungen", body: body("7654321", w, k, j, ""),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", method: http.MethodPost, path: apiPath + "/erfassungen", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"wus_nummer":    "Feld 'wus_nummer' ist erforderlich",
				"wildart_id":    "Feld 'wildart_id' ist erforderlich",
				"kategorie_id":  "Feld 'kategorie_id' ist erforderlich",
				"jagdgebiet_id": "Feld 'jagdgebiet_id' ist erforderlich",
			}),
		},
		{
			name: "invalid WUS-Nummer", method: http.MethodPost, path: apiPath + "/erfassungen", token: token,
			body: body("12345", w, k, j, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"wus_nummer": core.WUSNummerText}),
		},
		{
			name: "taken WUS-Nummer", method: http.MethodPost, path: apiPath + "/erfassungen", token: token,
			body: body("1234567", w, k, j, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"wus_nummer": stammdaten.MsgWUSTaken}),
		},
		{
			name: "invalid date", method: http.MethodPost, path: apiPath + "/erfassungen", token: token,
			body: body("7654321", w, k, j, "31.02.2024"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"erfassungsdatum": "ungültiges Datum (erwartet: JJJJ-MM-TT oder TT.MM.JJJJ)"}),
		},
		{
			name: "unknown references", method: http.MethodPost, path: apiPath + "/erfassungen", token: token,
			body: body("7654321", 99, 99, 99, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"wildart_id":    stammdaten.ErrWildartNotFound.Error(),
				"kategorie_id":  stammdaten.ErrKategorieNotFound.Error(),
				"jagdgebiet_id": stammdaten.ErrJagdgebietNotFound.Error(),
			}),
		},
		{
			name: "Jagdgebiet not assigned", method: http.MethodPost, path: apiPath + "/erfassungen", token: getToken(t, zugewiesen),
			body: body("7654321", w, k, testutil.JagdgebietSued, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"jagdgebiet_id": "Jagdgebiet ist Ihnen nicht zugewiesen"}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, apiPath+"/erfassungen", token, body(" 7654321 ", w, k, j, "05.03.2024"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got erfassung.Erfassung
		unmarshall(t, rec, &got)
		assert.NotZero(t, got.ID)
		assert.Equal(t, "7654321", got.WUSNummer)
		assert.Equal(t, "Hirschkalb", got.Kategorie.Name)
		assert.Equal(t, "Jagdgebiet Süd", got.Jagdgebiet.Name)
		assert.Equal(t, jaeger.ID, got.ErfasserID)
		assert.Equal(t, "2024-03-05", got.Erfassungsdatum.String())
		assert.Equal(t, "Sauber erlegt", got.Bemerkungen)
		assert.Equal(t, "nur intern", got.InterneNotiz)
	})

	t.Run("create (default date)", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, apiPath+"/erfassungen", getToken(t, zugewiesen),
			body("7654322", w, k, testutil.JagdgebietNord, ""))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got erfassung.Erfassung
		unmarshall(t, rec, &got)
		assert.Equal(t, core.Today().String(), got.Erfassungsdatum.String())
		assert.Equal(t, zugewiesen.ID, got.ErfasserID)
	})
}

func Test_erfassungApi_detail(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "", "", nil, nil, true)
	jaeger2 := testutil.CreateUser(t, usrRepo, "Anna Schmidt", "jaeger2", "", "", nil, nil, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "", "", []string{user.RoleAdministrator}, nil, true)
	token := getToken(t, jaeger)

	e1 := testutil.CreateErfassung(t, erfRepo, "1000001", testutil.WildartRotwild, testutil.KategorieWildkalb,
		testutil.JagdgebietNord, jaeger.ID, testutil.Date(t, "2024-01-10"), "alt", "notiz")
	e2 := testutil.CreateErfassung(t, erfRepo, "1000002", testutil.WildartDamwild, testutil.KategorieHirschkalb,
		testutil.JagdgebietSued, jaeger2.ID, testutil.Date(t, "2024-02-10"))

	detail := func(id int) string { return apiPath + "/erfassungen/" + strconv.Itoa(id) }
	notFound := marchallObj(t, httpErr{Error: erfassung.ErrNotFound.Error()})

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: detail(e1.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own", path: detail(e1.ID), token: token, wantCode: http.StatusOK, wantData: marchallObj(t, e1)},
		{name: "foreign", path: detail(e2.ID), token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "unknown", path: detail(999), token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "malformed ID", path: apiPath + "/erfassungen/lol", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin", path: detail(e2.ID), token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, e2)},
		{
			name: "update foreign", method: http.MethodPut, path: detail(e2.ID), token: token,
			body: []byte(`{"bemerkungen": "meins"}`), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "update taken WUS-Nummer", method: http.MethodPut, path: detail(e1.ID), token: getToken(t, admin),
			body: []byte(`{"wus_nummer": "1000002"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"wus_nummer": stammdaten.MsgWUSTaken}),
		},
		{
			name: "update unknown Kategorie", method: http.MethodPut, path: detail(e1.ID), token: token,
			body: []byte(`{"kategorie_id": 99}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"kategorie_id": stammdaten.ErrKategorieNotFound.Error()}),
		},
		{name: "delete foreign", method: http.MethodDelete, path: detail(e2.ID), token: token, wantCode: http.StatusNotFound, wantData: notFound},
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, detail(e1.ID), token,
			[]byte(`{"wus_nummer": "1000001", "bemerkungen": "neu", "erfassungsdatum": "2024-01-11", "wildart_id": 2}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got erfassung.Erfassung
		unmarshall(t, rec, &got)
		assert.Equal(t, e1.ID, got.ID)
		assert.Equal(t, "1000001", got.WUSNummer)
		assert.Equal(t, "neu", got.Bemerkungen)
		assert.Equal(t, "notiz", got.InterneNotiz) // untouched
		assert.Equal(t, "Damwild", got.Wildart.Name)
		assert.Equal(t, e1.Kategorie, got.Kategorie)
		assert.Equal(t, "2024-01-11", got.Erfassungsdatum.String())
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detail(e1.ID), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]bool{"success": true})}, rec)

		req, rec = newAuthRequest(http.MethodGet, detail(e1.ID), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}
