package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/studai/backend/apps/api/echo"
	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
	emailsvc "github.com/studai/backend/services/email"
	"github.com/studai/backend/storage/sessionstore"
	"github.com/studai/backend/storage/uploadstore"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	Server
	gate    *session.Gate
	store   session.Store
	uploads session.UploadRegistry
}

func setup(t *testing.T, seeded ...session.Store) *testApp {
	t.Helper()

	store := sessionstore.NewInmemStore()
	if len(seeded) > 0 {
		store = seeded[0]
	}
	uploads := uploadstore.NewInmemRegistry()
	mailSvc := emailsvc.NewConsoleServiceMock()
	auth := session.NewStubAuthenticator(mailSvc, session.ThemeLight, 0)
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))

	gate := session.NewGate(store, uploads, logger, time.Minute)
	gate.Start(context.Background())
	t.Cleanup(gate.Close)

	app := NewServer(
		&Options{
			DisableReqLogs: true,
			Gate:           gate,
			Auth:           auth,
			Uploads:        uploads,
			Logger:         logger,
		},
	)
	return &testApp{Server: app, gate: gate, store: store, uploads: uploads}
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

func getToken(t *testing.T, sess *session.Session) string {
	claims := GetSessionClaims(sess)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
