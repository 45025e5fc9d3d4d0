package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"axs-learn/internal/domain"
)

type mockUserRepo struct {
	usersByID      map[string]domain.User
	usersByEmail   map[string]string
	usersByAuth    map[string]string
	createdCount   int
	failNextCreate error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		usersByAuth:  make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.failNextCreate != nil {
		err := m.failNextCreate
		m.failNextCreate = nil
		return err
	}
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
	m.createdCount++
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[strings.ToLower(email)]
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

type mockEmailSender struct {
	mu            sync.Mutex
	lastOTPTo     string
	lastCode      string
	lastExpires   time.Time
	lastWelcomeTo string
	lastResetTo   string
	lastResetURL  string
	err           error
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lastOTPTo = toEmail
	m.lastCode = code
	m.lastExpires = expiresAt
	return nil
}

func (m *mockEmailSender) SendWelcome(_ context.Context, toEmail string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lastWelcomeTo = toEmail
	return nil
}

func (m *mockEmailSender) SendPasswordReset(_ context.Context, toEmail string, resetURL string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lastResetTo = toEmail
	m.lastResetURL = resetURL
	return nil
}

// mockSettingsRepo imita el merge JSONB y los incrementos atomicos del motor.
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
	// Unmarshal sobre la seccion existente: solo los campos presentes en el
	// fragmento se pisan, igual que el operador || de jsonb.
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
