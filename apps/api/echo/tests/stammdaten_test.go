package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
	testutil "github.com/foe05/HGMH-App/tests"
)

func Test_stammdatenApi_lists(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Jäger", "jaeger", "", "", nil, nil, true)
	zugewiesen := testutil.CreateUser(t, usrRepo, "Zugewiesen", "zugewiesen", "", "", nil,
		[]int{testutil.JagdgebietOst, testutil.JagdgebietNord}, true)
	obmann := testutil.CreateUser(t, usrRepo, "Obmann", "obmann", "", "", []string{user.RoleObmann},
		[]int{testutil.JagdgebietWest}, true)

	get := func(t *testing.T, path string, usr user.User, v interface{}) {
		req, rec := newAuthRequest(http.MethodGet, apiPath+path, getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshall(t, rec, v)
	}

	t.Run("Auth required", func(t *testing.T) {
		runHTTPTests(t, app, []httpTest{
			{name: "wildarten", path: apiPath + "/wildarten", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: "kategorien", path: apiPath + "/kategorien", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: "jagdgebiete", path: apiPath + "/jagdgebiete", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		})
	})

	t.Run("wildarten", func(t *testing.T) {
		var wildarten []stammdaten.Wildart
		get(t, "/wildarten", jaeger, &wildarten)

		require.Len(t, wildarten, 2)
		assert.Equal(t, "Damwild", wildarten[0].Name)
		assert.Equal(t, "DW", wildarten[0].Code)
		assert.Equal(t, "Rotwild", wildarten[1].Name)
		assert.Equal(t, []string{"Gruppe_A", "Gruppe_B"}, wildarten[1].Meldegruppen)
	})

	t.Run("kategorien", func(t *testing.T) {
		var kategorien []stammdaten.Kategorie
		get(t, "/kategorien", jaeger, &kategorien)

		codes := make([]string, 0, len(kategorien))
		for _, k := range kategorien {
			codes = append(codes, k.Code)
		}
		assert.Equal(t, []string{"W0", "W1", "W2", "M0", "M1", "M2", "M3", "M4"}, codes)
		assert.Equal(t, "Wildkalb", kategorien[0].Name)
		assert.Equal(t, testutil.KategorieHirschkalb, kategorien[3].ID)
	})

	names := func(jagdgebiete []stammdaten.Jagdgebiet) []string {
		res := make([]string, 0, len(jagdgebiete))
		for _, j := range jagdgebiete {
			res = append(res, j.Name)
		}
		return res
	}

	t.Run("jagdgebiete (none assigned)", func(t *testing.T) {
		var jagdgebiete []stammdaten.Jagdgebiet
		get(t, "/jagdgebiete", jaeger, &jagdgebiete)
		assert.Equal(t, []string{"Jagdgebiet Nord", "Jagdgebiet Ost", "Jagdgebiet Süd", "Jagdgebiet West"}, names(jagdgebiete))
	})

	t.Run("jagdgebiete (assigned)", func(t *testing.T) {
		var jagdgebiete []stammdaten.Jagdgebiet
		get(t, "/jagdgebiete", zugewiesen, &jagdgebiete)
		assert.Equal(t, []string{"Jagdgebiet Nord", "Jagdgebiet Ost"}, names(jagdgebiete))

		get(t, "/jagdgebiete", obmann, &jagdgebiete)
		assert.Equal(t, []string{"Jagdgebiet West"}, names(jagdgebiete))
	})
}

func Test_stammdatenApi_validateWUS(t *testing.T) {
	app := setup(t)

	jaeger := testutil.CreateUser(t, usrRepo, "Jäger", "jaeger", "", "", nil, nil, true)
	token := getToken(t, jaeger)
	e := testutil.CreateErfassung(t, erfRepo, "1234567", testutil.WildartRotwild, testutil.KategorieWildkalb,
		testutil.JagdgebietNord, jaeger.ID, core.Today())

	path := func(wus string, excludeID int) string {
		p := apiPath + "/wus/validate?wus_nummer=" + wus
		if excludeID > 0 {
			p += "&exclude_id=" + strconv.Itoa(excludeID)
		}
		return p
	}
	invalid := marchallObj(t, stammdaten.WUSValidation{Message: core.WUSNummerText})
	valid := marchallObj(t, stammdaten.WUSValidation{Valid: true})

	tests := []httpTest{
		{name: "Auth required", path: path("7654321", 0), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "empty", path: path("", 0), token: token, wantCode: http.StatusOK, wantData: invalid},
		{name: "too short", path: path("123456", 0), token: token, wantCode: http.StatusOK, wantData: invalid},
		{name: "too long", path: path("12345678", 0), token: token, wantCode: http.StatusOK, wantData: invalid},
		{name: "not numeric", path: path("12a4567", 0), token: token, wantCode: http.StatusOK, wantData: invalid},
		{name: "free", path: path("7654321", 0), token: token, wantCode: http.StatusOK, wantData: valid},
		{
			name: "taken", path: path("1234567", 0), token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, stammdaten.WUSValidation{Message: stammdaten.MsgWUSTaken}),
		},
		{name: "taken by excluded", path: path("1234567", e.ID), token: token, wantCode: http.StatusOK, wantData: valid},
	}
	runHTTPTests(t, app, tests)
}
