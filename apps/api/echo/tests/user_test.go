package tests

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core/user"
	testutil "github.com/foe05/HGMH-App/tests"
)

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, isActive *bool, jagdgebietID int, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if jagdgebietID > 0 {
			v.Add("jagdgebiet_id", strconv.Itoa(jagdgebietID))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return apiPath + "/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@hgam.de", "", []string{user.RoleAdministrator}, nil, true)
	obmann := testutil.CreateUser(t, usrRepo, "Otto Obmann", "obmann", "obmann@hgam.de", "", []string{user.RoleObmann},
		[]int{testutil.JagdgebietNord}, true)
	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "max@hgam.de", "", nil, []int{testutil.JagdgebietSued}, true)
	anna := testutil.CreateUser(t, usrRepo, "Anna Schmidt", "anna", "anna@hgam.de", "", nil, nil, true)
	naughty := testutil.CreateUser(t, usrRepo, "Gesperrt", "gesperrt", "gesperrt@hgam.de", "", nil, nil, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: apiPath + "/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: apiPath + "/users", token: getToken(t, obmann), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: apiPath + "/users", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, admin, anna, naughty, jaeger, obmann),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil, 0), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{name: "search=MUSTER", path: path("MUSTER", "", nil, 0), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, jaeger)},
		{name: "search=hgam", path: path("hgam", "", nil, 0), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, anna, naughty, jaeger, obmann)},
		{name: "role (unknown)", path: path("", "", nil, 0, "lol"), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{name: "role=obmann", path: path("", "", nil, 0, user.RoleObmann), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, obmann)},
		{name: "role wildcards are literal (_)", path: path("", "", nil, 0, "pr2__obmann"), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{name: "role wildcards are literal (%)", path: path("", "", nil, 0, "pr25%"), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{
			name: "role=jaeger,administrator", path: path("", "", nil, 0, user.RoleJaeger, user.RoleAdministrator),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, anna, naughty, jaeger),
		},
		{name: "is_active=false", path: path("", "", bPtr(false), 0), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, naughty)},
		{name: "jagdgebiet_id", path: path("", "", nil, testutil.JagdgebietSued), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, jaeger)},
		{
			name: "all combo", path: path("a", "", bPtr(true), 0, user.RoleJaeger),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, anna, jaeger),
		},
		// ordering
		{
			name: "order by -username", path: path("", "-username", nil, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, obmann, jaeger, naughty, anna, admin),
		},
		{
			name: "order by display_name", path: path("", "display_name", nil, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, admin, anna, naughty, jaeger, obmann),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_roles(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "", "", []string{user.RoleAdministrator}, nil, true)
	jaeger := testutil.CreateUser(t, usrRepo, "Jäger", "jaeger", "", "", nil, nil, true)

	tests := []httpTest{
		{name: "Admin required", path: apiPath + "/users/roles", token: getToken(t, jaeger), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "roles", path: apiPath + "/users/roles", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@hgam.de", "", []string{user.RoleAdministrator}, nil, true)
	obmann := testutil.CreateUser(t, usrRepo, "Obmann", "obmann", "obmann@hgam.de", "", []string{user.RoleObmann}, nil, true)
	adminToken := getToken(t, admin)
	path := apiPath + "/users"

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: path, token: getToken(t, obmann), body: []byte(`{}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", method: http.MethodPost, path: path, token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username":         "Feld 'username' ist erforderlich",
				"password":         "Passwort muss mindestens 8 Zeichen enthalten",
				"password_confirm": "Feld 'password_confirm' ist erforderlich",
			}),
		},
		{
			name: "invalid fields", method: http.MethodPost, path: path, token: adminToken,
			body: marchallObj(t, user.NewUser{
				Username:        "a b",
				Email:           "lol",
				Password:        pwd,
				PasswordConfirm: "lol",
				Roles:           []string{"king"},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username":         "nur Buchstaben, Ziffern sowie . _ - @ sind erlaubt",
				"email":            "Ungültige E-Mail-Adresse",
				"password_confirm": "Eingaben stimmen nicht überein",
				"roles":            "ungültige Rollen",
			}),
		},
		{
			name: "weak password", method: http.MethodPost, path: path, token: adminToken,
			body:     marchallObj(t, user.NewUser{Username: "neu", Password: "hochsitz24", PasswordConfirm: "hochsitz24"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password": "Passwort muss mindestens einen Groß- und einen Kleinbuchstaben, eine Ziffer und ein Sonderzeichen enthalten",
			}),
		},
		{
			name: "username taken", method: http.MethodPost, path: path, token: adminToken,
			body:     marchallObj(t, user.NewUser{Username: "OBMANN", Password: pwd, PasswordConfirm: pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "email taken", method: http.MethodPost, path: path, token: adminToken,
			body:     marchallObj(t, user.NewUser{Username: "neu", Email: "Obmann@HGAM.de", Password: pwd, PasswordConfirm: pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Username:        " Neuer_Jaeger ",
			Email:           "Neu@HGAM.de",
			DisplayName:     " Neuer Jäger ",
			Password:        pwd,
			PasswordConfirm: pwd,
			Jagdgebiete:     []int{testutil.JagdgebietOst},
		})
		req, rec := newAuthRequest(http.MethodPost, path, adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got user.User
		unmarshall(t, rec, &got)
		assert.NotZero(t, got.ID)
		assert.Equal(t, "neuer_jaeger", got.Username)
		assert.Equal(t, "neu@hgam.de", got.Email)
		assert.Equal(t, "Neuer Jäger", got.DisplayName)
		assert.Equal(t, []string{user.RoleJaeger}, got.Roles)
		assert.Equal(t, []int{testutil.JagdgebietOst}, got.Jagdgebiete)
		assert.True(t, got.IsActive)
		assert.Nil(t, got.LastLogin)

		// the new user can log in
		req, rec = newRequest(http.MethodPost, apiPath+"/auth/login", []byte(`{"username": "neu@hgam.de", "password": "`+pwd+`"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@hgam.de", "", []string{user.RoleAdministrator}, nil, true)
	jaeger := testutil.CreateUser(t, usrRepo, "Max Mustermann", "jaeger", "max@hgam.de", pwd, nil, nil, true)
	anna := testutil.CreateUser(t, usrRepo, "Anna Schmidt", "anna", "anna@hgam.de", "", nil, nil, true)

	adminToken := getToken(t, admin)
	token := getToken(t, jaeger)
	detail := func(id int) string { return apiPath + "/users/" + strconv.Itoa(id) }

	tests := []httpTest{
		{name: "Auth required", path: detail(jaeger.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "self", path: detail(jaeger.ID), token: token, wantCode: http.StatusOK, wantData: marchallObj(t, jaeger)},
		{name: "other", path: detail(anna.ID), token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "other (admin)", path: detail(anna.ID), token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, anna)},
		{name: "unknown (admin)", path: detail(999), token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "malformed", path: apiPath + "/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "update other", method: http.MethodPut, path: detail(anna.ID), token: token,
			body: []byte(`{"display_name": "Anna"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "activate self", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"is_active": true}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "promote self", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: marchallObj(t, map[string][]string{"roles": {user.RoleAdministrator}}), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "assign Jagdgebiete to self", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"jagdgebiete": [1, 2, 3, 4]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "email taken", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"email": " ANNA@hgam.de"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "password without confirmation", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"password": "Neu$es-Passwort1"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password_confirm": "Feld 'password_confirm' ist erforderlich"}),
		},
		{
			name: "password too short", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"password": "Ab1$", "password_confirm": "Ab1$"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "Passwort muss mindestens 8 Zeichen enthalten"}),
		},
		{
			name: "password like username", method: http.MethodPut, path: detail(jaeger.ID), token: token,
			body: []byte(`{"password": "Jaeger-1", "password_confirm": "Jaeger-1"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "Passwort ist den Benutzerdaten zu ähnlich"}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("update self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, detail(jaeger.ID), token,
			[]byte(`{"display_name": " Maximilian ", "email": "MAXI@hgam.de", "password": "Neu$es-Passwort1", "password_confirm": "Neu$es-Passwort1"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got user.User
		unmarshall(t, rec, &got)
		assert.Equal(t, "Maximilian", got.DisplayName)
		assert.Equal(t, "maxi@hgam.de", got.Email)
		assert.Equal(t, jaeger.Roles, got.Roles)

		usr, err := usrRepo.GetUserByID(ctx(), jaeger.ID)
		require.NoError(t, err)
		assert.NoError(t, usr.CheckPassword("Neu$es-Passwort1"))
	})

	t.Run("update by admin", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"roles":       []string{user.RoleObmann},
			"jagdgebiete": []int{testutil.JagdgebietWest, testutil.JagdgebietNord},
			"is_active":   false,
		})
		req, rec := newAuthRequest(http.MethodPut, detail(anna.ID), adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got user.User
		unmarshall(t, rec, &got)
		assert.Equal(t, []string{user.RoleObmann}, got.Roles)
		assert.Equal(t, []int{testutil.JagdgebietNord, testutil.JagdgebietWest}, got.Jagdgebiete)
		assert.False(t, got.IsActive)
	})
}
