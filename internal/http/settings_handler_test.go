package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"axs-learn/internal/domain"
)

func TestSettingsGetReturnsDefaults(t *testing.T) {
	env := newTestEnv(t)
	headers := env.authHeader(t, "user-1")

	w := performRequest(env.router, http.MethodGet, "/api/settings", "", headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var settings domain.UserSettings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", settings.UserID)
	}
	if settings.TTS.Rate != 1 || settings.TTS.Language != "en-US" {
		t.Fatalf("unexpected tts defaults %+v", settings.TTS)
	}
	if settings.Font.Size != "text-base" || settings.Theme.Theme != "Default" {
		t.Fatal("unexpected section defaults")
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	headers := env.authHeader(t, "user-1")

	w := performRequest(env.router, http.MethodPut, "/api/settings",
		`{"ttsSettings":{"rate":2.5},"themeSettings":{"darkMode":true}}`, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var settings domain.UserSettings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.TTS.Rate != 2.5 {
		t.Fatalf("expected rate 2.5, got %v", settings.TTS.Rate)
	}
	if !settings.Theme.DarkMode {
		t.Fatal("expected dark mode enabled")
	}
	// Campos no incluidos en el patch permanecen en default.
	if settings.TTS.Pitch != 1 || settings.Font.Size != "text-base" {
		t.Fatal("expected untouched fields to keep defaults")
	}
}

func TestSettingsUpdateClampsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	headers := env.authHeader(t, "user-1")

	w := performRequest(env.router, http.MethodPut, "/api/settings",
		`{"ttsSettings":{"rate":50,"pitch":-3,"volume":2}}`, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var settings domain.UserSettings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.TTS.Rate != domain.TTSRateMax || settings.TTS.Pitch != domain.TTSPitchMin || settings.TTS.Volume != domain.TTSVolumeMax {
		t.Fatalf("expected clamped values, got %+v", settings.TTS)
	}
}

func TestSettingsUsageIncrement(t *testing.T) {
	env := newTestEnv(t)
	headers := env.authHeader(t, "user-1")

	w := performRequest(env.router, http.MethodPost, "/api/settings/usage/tts", "", headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	stats, _ := body["stats"].(map[string]any)
	if stats["ttsUsage"] != float64(1) {
		t.Fatalf("expected ttsUsage 1, got %v", stats["ttsUsage"])
	}

	w = performRequest(env.router, http.MethodPost, "/api/settings/usage/tts", "", headers)
	stats, _ = decodeBody(t, w)["stats"].(map[string]any)
	if stats["ttsUsage"] != float64(2) {
		t.Fatalf("expected ttsUsage 2, got %v", stats["ttsUsage"])
	}
}

func TestSettingsUsageUnknownFeature(t *testing.T) {
	env := newTestEnv(t)
	headers := env.authHeader(t, "user-1")

	w := performRequest(env.router, http.MethodPost, "/api/settings/usage/telepathy", "", headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats, _ := decodeBody(t, w)["stats"].(map[string]any)
	if stats["ttsUsage"] != float64(0) {
		t.Fatalf("expected untouched stats, got %v", stats)
	}
}

func TestSettingsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/settings"},
		{http.MethodPut, "/api/settings"},
		{http.MethodPost, "/api/settings/usage/tts"},
	} {
		w := performRequest(env.router, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}
