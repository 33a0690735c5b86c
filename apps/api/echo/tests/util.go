package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/foe05/HGMH-App/apps/api/echo"
	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/erfassung"
	"github.com/foe05/HGMH-App/core/export"
	"github.com/foe05/HGMH-App/core/forms"
	"github.com/foe05/HGMH-App/core/gastmeldung"
	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/ocr"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
	emailsvc "github.com/foe05/HGMH-App/services/email"
	ocrsvc "github.com/foe05/HGMH-App/services/ocr"
	pushsvc "github.com/foe05/HGMH-App/services/push"
	sqlxrepos "github.com/foe05/HGMH-App/storage/database/sqlx"
	testutil "github.com/foe05/HGMH-App/tests"
)

const apiPath = "/wp-json/hgam/v1"

var (
	conf     *core.Config
	usrRepo  user.Repository
	erfRepo  erfassung.Repository
	gastRepo gastmeldung.Repository
	usrSvc   *user.Service
	notifSvc *notification.Service
	pushMock *pushsvc.Mock

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "Keine Berechtigung"}
	errNotFound     = httpErr{Error: "Nicht gefunden"}
)

func setup(t *testing.T) Server {
	// config: no debug output, no recovery
	c := *core.Conf
	c.Debug = false
	c.TestMode = true
	conf = &c

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)
	erfRepo = sqlxrepos.NewErfassungRepository(db)
	gastRepo = sqlxrepos.NewGastmeldungRepository(db)
	stammRepo := sqlxrepos.NewStammdatenRepository(db)
	notifRepo := sqlxrepos.NewNotificationRepository(db)

	// set up services
	validate, translator := testutil.NewValidator()
	logger := testutil.NewLogger()
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	pushMock = pushsvc.NewMock()

	usrSvc = user.NewService(usrRepo)
	stammSvc := stammdaten.NewService(stammRepo)
	erfSvc := erfassung.NewService(erfRepo, stammSvc, validate)
	notifSvc = notification.NewService(notifRepo, usrSvc, pushMock, validate, logger)
	gastSvc := gastmeldung.NewService(gastRepo, usrSvc, notifSvc, mailSvc, validate, logger)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs:  true,
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			UserSvc:         usrSvc,
			StammdatenSvc:   stammSvc,
			ErfassungSvc:    erfSvc,
			GastmeldungSvc:  gastSvc,
			NotificationSvc: notifSvc,
			OCRSvc:          ocr.NewService(ocrsvc.NewMockEngine(42), stammSvc, conf.Server.UploadMaxBytes),
			ExportSvc:       export.NewService(erfSvc, mailSvc, validate),
			FormsSvc:        forms.NewService(erfSvc, gastSvc),
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// getToken opens a session for usr, as a login would.
func getToken(t *testing.T, usr user.User) string {
	session, err := usrSvc.StartSession(ctx(), usr, conf.Server.JWTRefreshExpirationDelta)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	token, err := GenerateToken(conf, GetUserClaims(conf, usr, session.ID))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshall(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func ctx() context.Context {
	return context.Background()
}
