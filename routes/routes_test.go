package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/clinicalai/apiv1/assistant"
	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/mailer"
	"github.com/clinicalai/apiv1/session"
	"github.com/clinicalai/apiv1/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var mailedTokenPattern = regexp.MustCompile(`[0-9a-f]{64}`)

type testServer struct {
	t      *testing.T
	router *mux.Router
	store  *dbhelper.Store
	logs   *observer.ObservedLogs
}

func newTestServer(t *testing.T, rateLimit float64) *testServer {
	t.Helper()
	store, err := dbhelper.OpenDB(filepath.Join(t.TempDir(), "app_data.db"), dbhelper.WithMaxLoginAttempts(3))
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	t.Cleanup(func() { _ = store.Close() })

	sessions, err := session.NewStore(time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	router := NewRouter(Deps{
		Store:               store,
		Sessions:            sessions,
		Assistant:           assistant.New(assistant.Options{}, store, logger),
		Mailer:              mailer.LogMailer{Logger: logger},
		Logger:              logger,
		JWTSecret:           []byte("test-secret-test-secret-test-secret"),
		AccessTokenDuration: time.Hour,
		AuthRateLimit:       rateLimit,
		PublicBaseURL:       "http://localhost:5005",
	})
	return &testServer{t: t, router: router, store: store, logs: logs}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) signup(email string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TokenResponse](ts.t, rec).AccessToken
}

// mailedToken returns the token in the most recent email sent to the address.
func (ts *testServer) mailedToken(to string) string {
	ts.t.Helper()
	entries := ts.logs.FilterMessage("outgoing email").All()
	for i := len(entries) - 1; i >= 0; i-- {
		fields := entries[i].ContextMap()
		if fields["to"] == to {
			token := mailedTokenPattern.FindString(fields["body"].(string))
			require.NotEmpty(ts.t, token)
			return token
		}
	}
	ts.t.Fatalf("no email sent to %s", to)
	return ""
}

func TestHealthcheckAndSubjects(t *testing.T) {
	ts := newTestServer(t, 100)

	rec := ts.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token := ts.signup("a@example.com")
	rec = ts.do(http.MethodGet, "/api/subjects", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string][]string](t, rec)
	assert.Len(t, got["subjects"], 8)
	assert.Contains(t, got["moods"], "Anxious")
}

func TestSignupVerifySignin(t *testing.T) {
	ts := newTestServer(t, 100)

	token := ts.signup("Student@Example.com")

	rec := ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "student@example.com", "password": "other-password"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = ts.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, rec)
	assert.Equal(t, "student@example.com", me.Email)
	assert.False(t, me.Verified)

	verifyToken := ts.mailedToken("student@example.com")
	rec = ts.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": verifyToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": verifyToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.GENERIC_VERIFY_ERROR)

	rec = ts.do(http.MethodGet, "/api/me", token, nil)
	assert.True(t, decode[MeResponse](t, rec).Verified)

	rec = ts.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "student@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "student@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, me.ID, decode[TokenResponse](t, rec).UserID)
}

func TestSignupStoreFailure(t *testing.T) {
	ts := newTestServer(t, 100)
	require.NoError(t, ts.store.Close())

	rec := ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@example.com", "password": "password123"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.GENERIC_SIGNUP_ERROR)
	assert.Equal(t, 1, ts.logs.FilterMessage("signup failed").Len())
}

func TestResendVerification(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")
	first := ts.mailedToken("a@example.com")

	rec := ts.do(http.MethodPost, "/api/auth/resend_verification", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := ts.mailedToken("a@example.com")
	assert.NotEqual(t, first, second)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": first}).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": second}).Code)
}

func TestSigninLockout(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.signup("a@example.com")

	wrong := map[string]string{"email": "a@example.com", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/auth/signin", "", wrong).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/auth/signin", "", wrong).Code)
	rec := ts.do(http.MethodPost, "/api/auth/signin", "", wrong)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please try again in")

	right := map[string]string{"email": "a@example.com", "password": "password123"}
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodPost, "/api/auth/signin", "", right).Code)
}

func TestPasswordReset(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.signup("a@example.com")

	rec := ts.do(http.MethodPost, "/api/auth/request_password_reset", "", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	unknown := rec.Body.String()

	rec = ts.do(http.MethodPost, "/api/auth/request_password_reset", "", map[string]string{"email": "a@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, unknown, rec.Body.String())

	resetToken := ts.mailedToken("a@example.com")
	reset := map[string]string{"token": resetToken, "password": "brand-new-password"}
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/auth/reset_password", "", reset).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/auth/reset_password", "", reset).Code)

	old := map[string]string{"email": "a@example.com", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/auth/signin", "", old).Code)
	fresh := map[string]string{"email": "a@example.com", "password": "brand-new-password"}
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/auth/signin", "", fresh).Code)
}

func TestAuthRequiredAndSignout(t *testing.T) {
	ts := newTestServer(t, 100)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/quizzes", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/quizzes", "garbage", nil).Code)

	token := ts.signup("a@example.com")
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/quizzes", token, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/auth/signout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/quizzes", token, nil).Code)
}

func TestAuthRateLimit(t *testing.T) {
	ts := newTestServer(t, 1)
	body := map[string]string{"email": "a@example.com", "password": "whatever"}

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/auth/signin", "", body).Code)
	rec := ts.do(http.MethodPost, "/api/auth/signin", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.GENERIC_RATE_LIMIT_ERROR)
}

func TestQuizScoring(t *testing.T) {
	ts := newTestServer(t, 100)
	alice := ts.signup("alice@example.com")
	bob := ts.signup("bob@example.com")

	quiz := map[string]any{
		"title": "Pharmacology",
		"questions": []map[string]any{
			{"question": "Antidote for paracetamol?", "options": []string{"N-acetylcysteine", "Naloxone"}, "answer": 0},
			{"question": "Antidote for opioids?", "options": []string{"Flumazenil", "Naloxone"}, "answer": 1},
			{"question": "Antidote for heparin?", "options": []string{"Protamine", "Vitamin K"}, "answer": 0},
		},
	}
	rec := ts.do(http.MethodPost, "/api/quizzes", alice, quiz)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	id := created["id"].(string)
	assert.Len(t, created["questions"], 3)

	rec = ts.do(http.MethodPost, "/api/quizzes/"+id+"/score", alice, map[string]any{"answers": []int{0, 1, 1}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ScoreResponse{Score: 2, Total: 3}, decode[ScoreResponse](t, rec))

	rec = ts.do(http.MethodPost, "/api/quizzes/"+id+"/score", alice, map[string]any{"answers": []int{0, 1, 5}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, "/api/quizzes/"+id+"/score", alice, map[string]any{"answers": []int{0}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/quizzes/"+id+"/score", bob, map[string]any{"answers": []int{0, 1, 0}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/quizzes/"+id, bob, nil).Code)

	bad := map[string]any{
		"title":     "Broken",
		"questions": []map[string]any{{"question": "q", "options": []string{"a", "b"}, "answer": 2}},
	}
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/quizzes", alice, bad).Code)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/quizzes/"+id, alice, nil).Code)
	rec = ts.do(http.MethodGet, "/api/quizzes", alice, nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestFlashcardsOwnership(t *testing.T) {
	ts := newTestServer(t, 100)
	alice := ts.signup("alice@example.com")
	bob := ts.signup("bob@example.com")

	rec := ts.do(http.MethodPost, "/api/flashcards", alice, map[string]string{"front": "Virchow triad", "back": "Stasis, injury, hypercoagulability"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"].(string)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/flashcards/"+id, bob, nil).Code)
	rec = ts.do(http.MethodGet, "/api/flashcards", alice, nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
	rec = ts.do(http.MethodGet, "/api/flashcards", bob, nil)
	assert.JSONEq(t, "[]", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/flashcards", alice, map[string]string{"front": "only front"}).Code)
}

func TestCheckInsAndStats(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")

	for _, date := range []string{"2024-01-01", "2024-01-05", "2024-01-03"} {
		rec := ts.do(http.MethodPost, "/api/checkins", token, map[string]any{"date": date, "mood": "Happy", "focus": 6, "hours": 2})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := ts.do(http.MethodGet, "/api/checkins", token, nil)
	checkins := decode[[]map[string]any](t, rec)
	require.Len(t, checkins, 3)
	assert.Equal(t, "2024-01-01", checkins[0]["date"])
	assert.Equal(t, "2024-01-03", checkins[1]["date"])
	assert.Equal(t, "2024-01-05", checkins[2]["date"])

	rec = ts.do(http.MethodGet, "/api/checkins/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), stats["count"])
	assert.Equal(t, float64(6), stats["total_hours"])

	for _, bad := range []map[string]any{
		{"mood": "Ecstatic", "focus": 5, "hours": 1},
		{"mood": "Happy", "focus": 11, "hours": 1},
		{"mood": "Happy", "focus": 5, "hours": 25},
		{"date": "01/05/2024", "mood": "Happy", "focus": 5, "hours": 1},
	} {
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/checkins", token, bad).Code, bad)
	}

	rec = ts.do(http.MethodPost, "/api/checkins", token, map[string]any{"mood": "Tired", "focus": 3, "hours": 0.5})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["date"])
}

func TestRemindersAndMnemonics(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")

	for _, r := range []map[string]string{
		{"title": "Future exam", "remind_at": "2999-06-01 09:30"},
		{"title": "Old lecture", "remind_at": "2000-01-01T08:00:00Z"},
	} {
		require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/reminders", token, r).Code)
	}
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/reminders", token, map[string]string{"title": "x", "remind_at": "tomorrow"}).Code)

	all := decode[[]map[string]any](t, ts.do(http.MethodGet, "/api/reminders", token, nil))
	require.Len(t, all, 2)
	assert.Equal(t, "Old lecture", all[0]["title"])

	upcoming := decode[[]map[string]any](t, ts.do(http.MethodGet, "/api/reminders?upcoming=true", token, nil))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Future exam", upcoming[0]["title"])

	rec := ts.do(http.MethodPost, "/api/mnemonics", token, map[string]string{"course": "Pharmacology", "topic": "Cholinergic", "name": "SLUDGE", "content": "Salivation, lacrimation..."})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(http.MethodPost, "/api/mnemonics", token, map[string]string{"course": "Astrology", "topic": "t", "name": "n", "content": "c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, decode[[]map[string]any](t, ts.do(http.MethodGet, "/api/mnemonics?course=Pharmacology", token, nil)), 1)
	assert.JSONEq(t, "[]", ts.do(http.MethodGet, "/api/mnemonics?course=Pediatrics", token, nil).Body.String())
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/mnemonics?course=Astrology", token, nil).Code)
}

func TestQuotes(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")

	rec := ts.do(http.MethodPost, "/api/quotes", token, map[string]string{"quote": "Listen to your patient, he is telling you the diagnosis.", "author": "William Osler"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"].(string)

	quotes := decode[[]map[string]any](t, ts.do(http.MethodGet, "/api/quotes", token, nil))
	require.Len(t, quotes, 1)
	assert.Equal(t, "William Osler", quotes[0]["author"])

	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/quotes/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/quotes/"+id, token, nil).Code)
}

func TestVaultEncryption(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")

	secret := map[string]any{"subject": "Pathology", "title": "Private", "content": "granuloma notes", "encrypt": true}
	rec := ts.do(http.MethodPost, "/api/vault/notes", token, secret)
	assert.Equal(t, http.StatusLocked, rec.Code)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/vault/unlock", token, map[string]string{"password": "vault-pass"}).Code)
	rec = ts.do(http.MethodPost, "/api/vault/notes", token, secret)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[NoteView](t, rec)
	assert.True(t, created.Encrypted)
	assert.Equal(t, "granuloma notes", created.Content)

	plain := map[string]any{"subject": "Pathology", "title": "Public", "content": "granuloma basics"}
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/vault/notes", token, plain).Code)

	notes := decode[[]NoteView](t, ts.do(http.MethodGet, "/api/vault/notes", token, nil))
	require.Len(t, notes, 2)
	assert.Equal(t, "granuloma notes", notes[0].Content)
	assert.False(t, notes[0].Locked)

	var stored string
	require.NoError(t, ts.store.DB.Raw("SELECT content FROM vault_notes WHERE id = ?", created.ID).Scan(&stored).Error)
	assert.NotContains(t, stored, "granuloma")

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/vault/lock", token, nil).Code)
	notes = decode[[]NoteView](t, ts.do(http.MethodGet, "/api/vault/notes?subject=Pathology", token, nil))
	require.Len(t, notes, 2)
	assert.True(t, notes[0].Locked)
	assert.Empty(t, notes[0].Content)
	assert.Equal(t, "granuloma basics", notes[1].Content)

	rec = ts.do(http.MethodPost, "/api/vault/unlock", token, map[string]string{"password": "vault-typo"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.VAULT_PASSWORD_ERROR)
	assert.Equal(t, http.StatusLocked, ts.do(http.MethodPost, "/api/vault/notes", token, secret).Code)
	notes = decode[[]NoteView](t, ts.do(http.MethodGet, "/api/vault/notes", token, nil))
	assert.True(t, notes[0].Locked)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/vault/unlock", token, map[string]string{"password": "vault-pass"}).Code)
	require.NoError(t, ts.store.DB.Exec("UPDATE vault_notes SET content = ? WHERE id = ?", "bm90LWEtdmFsaWQtY2lwaGVydGV4dA==", created.ID).Error)
	notes = decode[[]NoteView](t, ts.do(http.MethodGet, "/api/vault/notes", token, nil))
	assert.Equal(t, utils.VAULT_DECRYPT_ERROR, notes[0].Error)
	assert.Empty(t, notes[0].Content)

	found := decode[[]NoteView](t, ts.do(http.MethodGet, "/api/vault/search?q=GRANULOMA", token, nil))
	require.Len(t, found, 1)
	assert.Equal(t, "Public", found[0].Title)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/vault/notes", token, map[string]any{"subject": "Cooking", "title": "t", "content": "c"}).Code)
}

func TestAssistantAsk(t *testing.T) {
	ts := newTestServer(t, 100)
	token := ts.signup("a@example.com")

	rec := ts.do(http.MethodPost, "/api/assistant/ask", token, map[string]string{"prompt": "hello there"})
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[assistant.Answer](t, rec)
	assert.Equal(t, "This is a placeholder answer to: 'hello there'", answer.Text)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/vault/notes", token,
		map[string]any{"subject": "Microbiology", "title": "Gram stain", "content": "Crystal violet retained by thick peptidoglycan"}).Code)
	rec = ts.do(http.MethodPost, "/api/assistant/ask", token, map[string]string{"prompt": "peptidoglycan"})
	answer = decode[assistant.Answer](t, rec)
	assert.Equal(t, "notes", answer.Source)
	assert.Contains(t, answer.Text, "Gram stain (Microbiology)")

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/assistant/ask", token, map[string]string{}).Code)
}

func TestParseRemindAt(t *testing.T) {
	got, err := ParseRemindAt("2024-03-10 14:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC), got)

	got, err = ParseRemindAt("2024-03-10T14:05:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 12, 5, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "10/03/2024", "2024-03-10"} {
		_, err := ParseRemindAt(bad)
		assert.Error(t, err, bad)
	}
}
