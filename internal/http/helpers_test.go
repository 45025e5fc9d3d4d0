package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/email"
	"axs-learn/internal/identity"
	"axs-learn/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	usersByAuth  map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		usersByAuth:  make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if user.Identities == nil {
		user.Identities = make(map[string]string)
	}
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[strings.ToLower(user.Email)] = user.ID
	}
	for provider, subject := range user.Identities {
		m.usersByAuth[provider+"|"+subject] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, emailAddr string) (domain.User, error) {
	id, ok := m.usersByEmail[strings.ToLower(emailAddr)]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) GetByIdentity(_ context.Context, provider, subject string) (domain.User, error) {
	id, ok := m.usersByAuth[provider+"|"+subject]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) GetByResetToken(_ context.Context, token string) (domain.User, error) {
	for _, user := range m.usersByID {
		if user.ResetToken != "" && user.ResetToken == token {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) LinkIdentity(_ context.Context, userID, provider, subject string) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	if user.Identities == nil {
		user.Identities = make(map[string]string)
	}
	user.Identities[provider] = subject
	m.usersByID[userID] = user
	m.usersByAuth[provider+"|"+subject] = userID
	return nil
}

func (m *mockUserRepo) UpdateName(_ context.Context, id, name string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Name = name
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) SetProfilePictureIfAbsent(_ context.Context, id, url string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = url
		m.usersByID[id] = user
	}
	return nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsVerified = true
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateOTP(_ context.Context, id, otpHash string, expiresAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.OtpCodeHash = otpHash
	user.OtpExpiresAt = &expiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) ClearOTP(_ context.Context, id string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ResetToken = token
	user.ResetExpiresAt = &expiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.ResetToken = ""
	user.ResetExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

type mockSettingsRepo struct {
	mu   sync.Mutex
	docs map[string]domain.UserSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{docs: make(map[string]domain.UserSettings)}
}

func (m *mockSettingsRepo) EnsureDefaults(_ context.Context, settings domain.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[settings.UserID]; !ok {
		m.docs[settings.UserID] = settings
	}
	return nil
}

func (m *mockSettingsRepo) Get(_ context.Context, userID string) (domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return domain.UserSettings{}, pgx.ErrNoRows
	}
	return doc, nil
}

func (m *mockSettingsRepo) MergeSection(_ context.Context, userID, section string, fragment []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	var err error
	switch section {
	case "tts":
		err = json.Unmarshal(fragment, &doc.TTS)
	case "font":
		err = json.Unmarshal(fragment, &doc.Font)
	case "theme":
		err = json.Unmarshal(fragment, &doc.Theme)
	case "language":
		err = json.Unmarshal(fragment, &doc.Language)
	default:
		return pgx.ErrNoRows
	}
	if err != nil {
		return err
	}
	m.docs[userID] = doc
	return nil
}

func (m *mockSettingsRepo) IncrementUsage(_ context.Context, userID, counter string) (domain.UsageStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return domain.UsageStats{}, pgx.ErrNoRows
	}
	switch counter {
	case "ttsUsage":
		doc.Usage.TTSUsage++
	case "sttUsage":
		doc.Usage.STTUsage++
	case "ocrUsage":
		doc.Usage.OCRUsage++
	case "quizzesTaken":
		doc.Usage.QuizzesTaken++
	case "notesCreated":
		doc.Usage.NotesCreated++
	}
	m.docs[userID] = doc
	return doc.Usage, nil
}

type mockNoteRepo struct {
	notes map[string]domain.Note
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[string]domain.Note)}
}

func (m *mockNoteRepo) Create(_ context.Context, note domain.Note) error {
	m.notes[note.ID] = note
	return nil
}

func (m *mockNoteRepo) ListByUser(_ context.Context, userID string) ([]domain.Note, error) {
	out := []domain.Note{}
	for _, note := range m.notes {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockNoteRepo) Update(_ context.Context, note domain.Note) (domain.Note, error) {
	stored, ok := m.notes[note.ID]
	if !ok || stored.UserID != note.UserID {
		return domain.Note{}, pgx.ErrNoRows
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.Type = note.Type
	stored.AudioURL = note.AudioURL
	stored.Tags = note.Tags
	stored.UpdatedAt = time.Now().UTC()
	m.notes[note.ID] = stored
	return stored, nil
}

func (m *mockNoteRepo) Delete(_ context.Context, userID, noteID string) error {
	stored, ok := m.notes[noteID]
	if !ok || stored.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.notes, noteID)
	return nil
}

type mockQuizRepo struct {
	results []domain.QuizResult
}

func (m *mockQuizRepo) Create(_ context.Context, result domain.QuizResult) error {
	m.results = append([]domain.QuizResult{result}, m.results...)
	return nil
}

func (m *mockQuizRepo) ListByUser(_ context.Context, userID string) ([]domain.QuizResult, error) {
	out := []domain.QuizResult{}
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type testEnv struct {
	router   *gin.Engine
	users    *mockUserRepo
	settings *mockSettingsRepo
	notes    *mockNoteRepo
	quiz     *mockQuizRepo
	sender   *recordingSender
	tokens   *service.TokenService
}

type recordingSender struct {
	lastOTPTo   string
	lastCode    string
	lastResetTo string
	lastURL     string
}

func (s *recordingSender) SendVerificationOTP(_ context.Context, toEmail, code string, _ time.Time) error {
	s.lastOTPTo = toEmail
	s.lastCode = code
	return nil
}

func (s *recordingSender) SendWelcome(_ context.Context, _, _ string) error { return nil }

func (s *recordingSender) SendPasswordReset(_ context.Context, toEmail, resetURL string, _ time.Time) error {
	s.lastResetTo = toEmail
	s.lastURL = resetURL
	return nil
}

var _ email.Sender = (*recordingSender)(nil)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		users:    newMockUserRepo(),
		settings: newMockSettingsRepo(),
		notes:    newMockNoteRepo(),
		quiz:     &mockQuizRepo{},
		sender:   &recordingSender{},
	}

	env.tokens = service.NewTokenService("test-secret", time.Hour)
	creds := service.NewCredentialService(10 * time.Minute)
	userSvc := service.NewUserService(logger, env.users, creds, env.sender, service.NewOTPRateLimiter(time.Minute, 10), "https://app.example.com/reset-password")
	identitySvc := service.NewIdentityService(logger, env.users, env.sender)
	settingsSvc := service.NewSettingsService(logger, env.settings)

	authH := NewAuthHandler(logger, userSvc, identitySvc, env.tokens, identity.NewGoogleOAuth("", "", ""), identity.NewDisabledVerifier(), "https://app.example.com")
	settingsH := NewSettingsHandler(logger, settingsSvc)
	notesH := NewNotesHandler(logger, env.notes)
	quizH := NewQuizHandler(logger, env.quiz)

	env.router = NewRouter(logger, env.tokens, authH, settingsH, notesH, quizH)
	return env
}

// authHeader registra un usuario verificado y devuelve su header Authorization.
func (env *testEnv) authHeader(t *testing.T, userID string) map[string]string {
	t.Helper()
	if _, err := env.users.GetByID(context.Background(), userID); err != nil {
		user := domain.User{ID: userID, Name: "Test User", Email: userID + "@example.com", IsVerified: true}
		if err := env.users.Create(context.Background(), user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	token, err := env.tokens.Issue(domain.User{ID: userID})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
