package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/config"
	"github.com/notekeeper/notekeeper/internal/server/guard"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repotest"
	"github.com/notekeeper/notekeeper/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testPassword = "kodylovesyou"

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testEnv struct {
	router   http.Handler
	rm       *repotest.Manager
	mock     sqlmock.Sqlmock
	sessions *services.SessionManager
	cookies  *SessionCookies
	hasher   *auth.PasswordHasher
	pinger   *fakePinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	hasher, err := auth.NewPasswordHasher(auth.MinCost, 2)
	require.NoError(t, err)

	log := logging.Nop()
	rm := repotest.NewManager()
	sessions := services.NewSessionManager(db, rm, cfg, nil)
	verify := auth.NewVerifyTokens([]byte(cfg.VerifySecret), cfg.VerifyTTL, nil)
	authz := services.NewAuthorizer(db, rm)
	cookies := NewSessionCookies(cfg.SessionSecrets, cfg.SessionTTL, false)
	pinger := &fakePinger{}

	h := NewHandler(Deps{
		DB:       pinger,
		Auth:     services.NewAuthService(db, rm, hasher, verify, sessions, log),
		Sessions: sessions,
		Authz:    authz,
		Notes:    services.NewNotesService(db, rm, authz),
		Users:    services.NewUsersService(db, rm, nil),
		Cookies:  cookies,
		CSRF:     guard.NewCSRF(cfg.CSRFSecret, false),
		Honeypot: guard.NewHoneypot(guard.HoneypotConfig{Seed: cfg.HoneypotSecret}),
		Log:      log,
	})

	return &testEnv{
		router:   NewRouter(h),
		rm:       rm,
		mock:     mock,
		sessions: sessions,
		cookies:  cookies,
		hasher:   hasher,
		pinger:   pinger,
	}
}

// addUser stores a user with testPassword and the given catalog roles.
func (e *testEnv) addUser(t *testing.T, username string, roles ...string) *models.User {
	t.Helper()
	digest, err := e.hasher.Hash(context.Background(), testPassword)
	require.NoError(t, err)
	u := e.rm.UsersRepo.Add(username, username+"@example.com", digest)
	e.rm.UsersRepo.RoleNames[u.ID] = roles
	return u
}

// loginAs issues a session for u and returns a jar holding its cookie.
func (e *testEnv) loginAs(t *testing.T, u *models.User) cookieJar {
	t.Helper()
	s, err := e.sessions.Issue(context.Background(), u.ID)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, e.cookies.Set(rec, s, false))
	jar := cookieJar{}
	jar.update(rec)
	return jar
}

func (e *testEnv) do(t *testing.T, req *http.Request, jar cookieJar) *httptest.ResponseRecorder {
	t.Helper()
	jar.apply(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	jar.update(rec)
	return rec
}

func (e *testEnv) get(t *testing.T, path string, jar cookieJar) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), jar)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, jar cookieJar) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, newFormRequest(http.MethodPost, path, form), jar)
}

// challengeForm fetches the challenge at path and returns a form already
// carrying the CSRF token and honeypot inputs.
func (e *testEnv) challengeForm(t *testing.T, path string, jar cookieJar) url.Values {
	t.Helper()
	rec := e.get(t, path, jar)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var c challenge
	decodeData(t, rec, &c)
	form := url.Values{}
	form.Set(common.CSRFFormField, c.CSRF)
	form.Set(c.Honeypot.NameFieldName, "")
	form.Set(c.Honeypot.ValidFromFieldName, c.Honeypot.EncryptedValidFrom)
	return form
}

// csrfForm returns a form carrying a token from GET /csrf.
func (e *testEnv) csrfForm(t *testing.T, jar cookieJar) url.Values {
	t.Helper()
	rec := e.get(t, "/csrf", jar)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]string
	decodeData(t, rec, &data)
	return url.Values{common.CSRFFormField: {data["csrf"]}}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, "success", env.Status, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.Equal(t, "error", body.Status)
	return body
}

// cookieJar keeps the latest value of each cookie; expired ones are dropped.
type cookieJar map[string]*http.Cookie

func (j cookieJar) update(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j, c.Name)
			continue
		}
		j[c.Name] = c
	}
}

func (j cookieJar) apply(req *http.Request) {
	for _, c := range j {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// cleared reports whether rec expired the named cookie.
func cleared(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
