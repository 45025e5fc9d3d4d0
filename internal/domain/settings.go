package domain

import "time"

// Rangos documentados para los campos numericos de TTS.
const (
	TTSRateMin   = 0.1
	TTSRateMax   = 10
	TTSPitchMin  = 0
	TTSPitchMax  = 2
	TTSVolumeMin = 0
	TTSVolumeMax = 1
)

// TTSSettings agrupa preferencias del lector texto-a-voz.
type TTSSettings struct {
	Voice    string  `json:"voice"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Volume   float64 `json:"volume"`
	Language string  `json:"language"`
}

// FontSettings agrupa preferencias tipograficas.
type FontSettings struct {
	Size   string `json:"size"`
	Family string `json:"family"`
}

// ThemeSettings agrupa preferencias de tema visual.
type ThemeSettings struct {
	Theme    string `json:"theme"`
	DarkMode bool   `json:"darkMode"`
}

// LanguageSettings agrupa la preferencia de idioma de la interfaz.
type LanguageSettings struct {
	PreferredLanguage string `json:"preferredLanguage"`
}

// UsageStats acumula contadores de uso por herramienta.
type UsageStats struct {
	TTSUsage     int `json:"ttsUsage"`
	STTUsage     int `json:"sttUsage"`
	OCRUsage     int `json:"ocrUsage"`
	QuizzesTaken int `json:"quizzesTaken"`
	NotesCreated int `json:"notesCreated"`
}

// UserSettings es el documento de preferencias, uno por usuario.
type UserSettings struct {
	UserID    string           `json:"userId"`
	TTS       TTSSettings      `json:"ttsSettings"`
	Font      FontSettings     `json:"fontSettings"`
	Theme     ThemeSettings    `json:"themeSettings"`
	Language  LanguageSettings `json:"languageSettings"`
	Usage     UsageStats       `json:"usageStats"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DefaultSettings construye el documento con todos los valores por defecto.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID: userID,
		TTS: TTSSettings{
			Voice:    "",
			Rate:     1,
			Pitch:    1,
			Volume:   1,
			Language: "en-US",
		},
		Font: FontSettings{
			Size:   "text-base",
			Family: "font-sans",
		},
		Theme: ThemeSettings{
			Theme:    "Default",
			DarkMode: false,
		},
		Language: LanguageSettings{
			PreferredLanguage: "en",
		},
	}
}

// TTSSettingsPatch actualiza solo los campos presentes de la seccion TTS.
type TTSSettingsPatch struct {
	Voice    *string  `json:"voice,omitempty"`
	Rate     *float64 `json:"rate,omitempty"`
	Pitch    *float64 `json:"pitch,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Language *string  `json:"language,omitempty"`
}

// FontSettingsPatch actualiza solo los campos presentes de la seccion de fuente.
type FontSettingsPatch struct {
	Size   *string `json:"size,omitempty"`
	Family *string `json:"family,omitempty"`
}

// ThemeSettingsPatch actualiza solo los campos presentes de la seccion de tema.
type ThemeSettingsPatch struct {
	Theme    *string `json:"theme,omitempty"`
	DarkMode *bool   `json:"darkMode,omitempty"`
}

// LanguageSettingsPatch actualiza la preferencia de idioma.
type LanguageSettingsPatch struct {
	PreferredLanguage *string `json:"preferredLanguage,omitempty"`
}

// SettingsPatch agrupa actualizaciones parciales por seccion. Las secciones
// ausentes quedan intactas.
type SettingsPatch struct {
	TTS      *TTSSettingsPatch      `json:"ttsSettings,omitempty"`
	Font     *FontSettingsPatch     `json:"fontSettings,omitempty"`
	Theme    *ThemeSettingsPatch    `json:"themeSettings,omitempty"`
	Language *LanguageSettingsPatch `json:"languageSettings,omitempty"`
}

// IsEmpty indica si el patch no trae ninguna seccion.
func (p SettingsPatch) IsEmpty() bool {
	return p.TTS == nil && p.Font == nil && p.Theme == nil && p.Language == nil
}

// Clamp ajusta los campos numericos fuera de rango a sus limites documentados.
// Los valores fuera de rango no se rechazan.
func (p *TTSSettingsPatch) Clamp() {
	clampFloat(p.Rate, TTSRateMin, TTSRateMax)
	clampFloat(p.Pitch, TTSPitchMin, TTSPitchMax)
	clampFloat(p.Volume, TTSVolumeMin, TTSVolumeMax)
}

func clampFloat(v *float64, min, max float64) {
	if v == nil {
		return
	}
	if *v < min {
		*v = min
	}
	if *v > max {
		*v = max
	}
}

// UsageFeatures mapea el nombre de feature publico al contador interno.
var UsageFeatures = map[string]string{
	"tts":   "ttsUsage",
	"stt":   "sttUsage",
	"ocr":   "ocrUsage",
	"quiz":  "quizzesTaken",
	"notes": "notesCreated",
}
