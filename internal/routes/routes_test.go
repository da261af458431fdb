package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langgol/internal/demo"
	"langgol/internal/handlers"
	"langgol/internal/middleware"
	"langgol/internal/models"
	"langgol/internal/services"
)

var testSecret = []byte("test-secret")

// ===== stub services =====

type stubAccounts struct {
	signupErr  error
	verifyErr  error
	loginUser  *models.User
	loginErr   error
	question   string
	requestErr error
	resetErr   error
	updated    *models.User
	updateErr  error
	users      []*models.User
}

func (s *stubAccounts) Signup(models.SignupRequest) error { return s.signupErr }

func (s *stubAccounts) Verify(string, string) error { return s.verifyErr }
func (s *stubAccounts) Login(string, string) (*models.User, error) {
	return s.loginUser, s.loginErr
}
func (s *stubAccounts) RequestPasswordReset(string) (string, error) {
	return s.question, s.requestErr
}
func (s *stubAccounts) CompletePasswordReset(string, string, string) error { return s.resetErr }
func (s *stubAccounts) UpdateProfile(string, models.ProfileUpdate) (*models.User, error) {
	return s.updated, s.updateErr
}
func (s *stubAccounts) ListUsers() ([]*models.User, error) { return s.users, nil }
func (s *stubAccounts) IssueRefresh(string) (string, time.Time, error) {
	return "refresh-token", time.Now().Add(time.Hour), nil
}
func (s *stubAccounts) Refresh(string) (*models.User, error) {
	return s.loginUser, s.loginErr
}
func (s *stubAccounts) Logout(string) error { return nil }

func (s *stubAccounts) EnsureAdmin(string, string, string) error { return nil }

type stubHistory struct {
	saved     map[string]*models.History
	exportErr error
}

func newStubHistory() *stubHistory {
	return &stubHistory{saved: map[string]*models.History{}}
}

func (s *stubHistory) Save(email string, h *models.History) error {
	s.saved[strings.ToLower(email)] = h
	return nil
}

func (s *stubHistory) Load(email string) (*models.History, bool, error) {
	h, ok := s.saved[strings.ToLower(email)]
	if !ok {
		return models.EmptyHistory(), false, nil
	}
	return h, true, nil
}

func (s *stubHistory) ExportPDF(string) (string, error) {
	return "", s.exportErr
}

// ===== harness =====

func newTestRouter(accounts services.AccountService, history services.HistoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return SetupRoutes(
		r,
		testSecret,
		handlers.NewAuthHandler(accounts, testSecret),
		handlers.NewUserHandler(accounts),
		handlers.NewHistoryHandler(history),
		handlers.NewDemoHandler(demo.Limits{Requests: 5, TalkTime: 120}, 30),
	)
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, email string, isAdmin bool) string {
	t.Helper()
	tok, err := middleware.NewAccessToken(testSecret, email, isAdmin)
	require.NoError(t, err)
	return tok
}

func validSignupBody() map[string]any {
	return map[string]any{
		"email":            "farmer@example.com",
		"password":         "s3cret99",
		"name":             "Rahim Uddin",
		"phone":            "01711111111",
		"address":          "Bogura",
		"securityQuestion": "Favourite crop?",
		"securityAnswer":   "Wheat",
	}
}

// ===== tests =====

func TestSignupEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/signup", "", validSignupBody())
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})
	t.Run("conflict", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{signupErr: services.ErrEmailTaken}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/signup", "", validSignupBody())
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "User already exists")
	})
	t.Run("mail dispatch failure", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{signupErr: services.ErrMailDispatch}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/signup", "", validSignupBody())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to send verification email")
	})
	t.Run("invalid body", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/signup", "", map[string]any{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVerifyEndpoint(t *testing.T) {
	body := map[string]any{"email": "farmer@example.com", "code": "ABC123"}

	r := newTestRouter(&stubAccounts{}, newStubHistory())
	w := doJSON(r, http.MethodPost, "/verify", "", body)
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(&stubAccounts{verifyErr: services.ErrUserNotFound}, newStubHistory())
	w = doJSON(r, http.MethodPost, "/verify", "", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newTestRouter(&stubAccounts{verifyErr: services.ErrCodeInvalid}, newStubHistory())
	w = doJSON(r, http.MethodPost, "/verify", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	creds := map[string]any{"email": "farmer@example.com", "pass": "s3cret99"}

	t.Run("success returns user and tokens", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{loginUser: &models.User{
			Email: "farmer@example.com", Name: "Rahim Uddin", PasswordHash: "bcrypt-stuff", IsVerified: true,
		}}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/login", "", creds)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool            `json:"success"`
			User    json.RawMessage `json:"user"`
			Tokens  struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		// the hash must never appear in any serialized form
		assert.NotContains(t, string(resp.User), "bcrypt-stuff")
		assert.NotContains(t, strings.ToLower(string(resp.User)), "password")

		// a real sign-in erases any demo cookie
		cleared := false
		for _, ck := range w.Result().Cookies() {
			if ck.Name == demo.CookieName {
				cleared = ck.MaxAge < 0
			}
		}
		assert.True(t, cleared, "login must drop the demo cookie")
	})
	t.Run("bad credentials", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{loginErr: services.ErrBadCredentials}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"reason":"credentials"`)
	})
	t.Run("unverified", func(t *testing.T) {
		r := newTestRouter(&stubAccounts{loginErr: services.ErrUnverified}, newStubHistory())
		w := doJSON(r, http.MethodPost, "/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"reason":"unverified"`)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	r := newTestRouter(&stubAccounts{question: "Favourite crop?"}, newStubHistory())
	w := doJSON(r, http.MethodPost, "/request-password-reset", "", map[string]any{"email": "farmer@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Favourite crop?")

	r = newTestRouter(&stubAccounts{requestErr: services.ErrUserNotFound}, newStubHistory())
	w = doJSON(r, http.MethodPost, "/request-password-reset", "", map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	complete := map[string]any{"email": "farmer@example.com", "answer": "wheat", "newPass": "newpass77"}
	r = newTestRouter(&stubAccounts{}, newStubHistory())
	w = doJSON(r, http.MethodPost, "/complete-password-reset", "", complete)
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(&stubAccounts{resetErr: services.ErrWrongAnswer}, newStubHistory())
	w = doJSON(r, http.MethodPost, "/complete-password-reset", "", complete)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect answer")
}

func TestListUsersEndpoint(t *testing.T) {
	accounts := &stubAccounts{users: []*models.User{
		{Email: "a@example.com", Name: "A", PasswordHash: "hash-a"},
		{Email: "b@example.com", Name: "B", PasswordHash: "hash-b"},
	}}
	r := newTestRouter(accounts, newStubHistory())

	// anonymous and non-admin callers are rejected
	w := doJSON(r, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodGet, "/users", tokenFor(t, "a@example.com", false), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, "/users", tokenFor(t, "admin@langgol.app", true), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
		assert.NotContains(t, u, "passwordHash")
		assert.Equal(t, false, u["isAdmin"])
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	upd := map[string]any{"name": "Rahim", "phone": "017", "address": "Bogura"}

	accounts := &stubAccounts{updated: &models.User{Email: "farmer@example.com", Name: "Rahim"}}
	r := newTestRouter(accounts, newStubHistory())

	// only the account itself (or an admin) may update
	w := doJSON(r, http.MethodPut, "/users/farmer@example.com", tokenFor(t, "other@example.com", false), upd)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPut, "/users/farmer@example.com", tokenFor(t, "farmer@example.com", false), upd)
	assert.Equal(t, http.StatusOK, w.Code)

	// not-found and no-op updates share the same response
	r = newTestRouter(&stubAccounts{updateErr: services.ErrUserNotFound}, newStubHistory())
	w = doJSON(r, http.MethodPut, "/users/farmer@example.com", tokenFor(t, "farmer@example.com", false), upd)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "User not found or data is the same")
}

func TestHistoryEndpoints(t *testing.T) {
	history := newStubHistory()
	r := newTestRouter(&stubAccounts{}, history)
	token := tokenFor(t, "farmer@example.com", false)

	saveBody := map[string]any{
		"email": "farmer@example.com",
		"history": map[string]any{
			"chat":  []map[string]any{{"sender": "user", "text": "hello", "timestamp": 1}},
			"live":  []any{},
			"image": []any{},
		},
	}

	// unauthenticated save is rejected
	w := doJSON(r, http.MethodPost, "/history", "", saveBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// saving someone else's history is rejected
	w = doJSON(r, http.MethodPost, "/history", tokenFor(t, "other@example.com", false), saveBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/history", token, saveBody)
	require.Equal(t, http.StatusOK, w.Code)

	// round trip
	w = doJSON(r, http.MethodGet, "/history/farmer@example.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.History
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Chat, 1)
	assert.Equal(t, "hello", got.Chat[0].Text)

	// cross-account load is rejected, admin passes
	w = doJSON(r, http.MethodGet, "/history/farmer@example.com", tokenFor(t, "other@example.com", false), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodGet, "/history/farmer@example.com", tokenFor(t, "admin@langgol.app", true), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a never-saved account loads as JSON null
	w = doJSON(r, http.MethodGet, "/history/fresh@example.com", tokenFor(t, "fresh@example.com", false), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestDemoEndpoints_CookieFlow(t *testing.T) {
	r := newTestRouter(&stubAccounts{}, newStubHistory())

	// start issues a zeroed cookie-backed record
	w := doJSON(r, http.MethodPost, "/demo/start", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	usageReq := func(cookies []*http.Cookie, requests, talkTime int) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]int{"requests": requests, "talkTime": talkTime})
		req := httptest.NewRequest(http.MethodPost, "/demo/usage", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// four requests stay within quota
	current := cookies
	for i := 0; i < 4; i++ {
		rec := usageReq(current, 1, 0)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		if cs := rec.Result().Cookies(); len(cs) > 0 {
			current = cs
		}
	}

	// the fifth request exhausts the quota
	rec := usageReq(current, 1, 0)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expired":true`)

	// the exhausted cookie survives, so restarting the demo is refused
	exhausted := rec.Result().Cookies()
	require.NotEmpty(t, exhausted)
	startReq := httptest.NewRequest(http.MethodPost, "/demo/start", nil)
	for _, c := range exhausted {
		startReq.AddCookie(c)
	}
	startRec := httptest.NewRecorder()
	r.ServeHTTP(startRec, startReq)
	assert.Equal(t, http.StatusForbidden, startRec.Code)
	assert.Contains(t, startRec.Body.String(), `"expired":true`)

	// usage without a session is rejected
	rec = usageReq(nil, 1, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDemoUsage_TalkTimeLimit(t *testing.T) {
	r := newTestRouter(&stubAccounts{}, newStubHistory())

	w := doJSON(r, http.MethodPost, "/demo/start", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	// 119 seconds is fine, 120 expires
	body, _ := json.Marshal(map[string]int{"requests": 0, "talkTime": 119})
	req := httptest.NewRequest(http.MethodPost, "/demo/usage", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	next := rec.Result().Cookies()

	body, _ = json.Marshal(map[string]int{"requests": 0, "talkTime": 1})
	req = httptest.NewRequest(http.MethodPost, "/demo/usage", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range next {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	r := newTestRouter(&stubAccounts{}, newStubHistory())

	w := doJSON(r, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/logout", tokenFor(t, "farmer@example.com", false), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&stubAccounts{}, newStubHistory())
	w := doJSON(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
