package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axs-learn/internal/domain"
)

// SettingsRepository define el contrato de persistencia para preferencias.
// Las mutaciones de secciones y contadores son UPDATEs atomicos en el
// servidor; nunca read-then-write en la aplicacion.
type SettingsRepository interface {
	EnsureDefaults(ctx context.Context, settings domain.UserSettings) error
	Get(ctx context.Context, userID string) (domain.UserSettings, error)
	MergeSection(ctx context.Context, userID, section string, fragment []byte) error
	IncrementUsage(ctx context.Context, userID, counter string) (domain.UsageStats, error)
}

// Columnas JSONB validas por seccion.
var sectionColumns = map[string]string{
	"tts":      "tts_settings",
	"font":     "font_settings",
	"theme":    "theme_settings",
	"language": "language_settings",
}

// PgSettingsRepository implementa SettingsRepository usando pgxpool.
type PgSettingsRepository struct {
	pool *pgxpool.Pool
}

func NewPgSettingsRepository(pool *pgxpool.Pool) *PgSettingsRepository {
	return &PgSettingsRepository{pool: pool}
}

func (r *PgSettingsRepository) EnsureDefaults(ctx context.Context, settings domain.UserSettings) error {
	tts, err := json.Marshal(settings.TTS)
	if err != nil {
		return err
	}
	font, err := json.Marshal(settings.Font)
	if err != nil {
		return err
	}
	theme, err := json.Marshal(settings.Theme)
	if err != nil {
		return err
	}
	language, err := json.Marshal(settings.Language)
	if err != nil {
		return err
	}

	// DO NOTHING deja intacto un documento creado por una peticion concurrente.
	const query = `
		INSERT INTO user_settings (user_id, tts_settings, font_settings, theme_settings, language_settings)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query, settings.UserID, tts, font, theme, language)
	return err
}

func (r *PgSettingsRepository) Get(ctx context.Context, userID string) (domain.UserSettings, error) {
	const query = `
		SELECT user_id, tts_settings, font_settings, theme_settings, language_settings, usage_stats,
		       created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`
	var (
		s                                 domain.UserSettings
		tts, font, theme, language, usage []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &tts, &font, &theme, &language, &usage, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if err := json.Unmarshal(tts, &s.TTS); err != nil {
		return domain.UserSettings{}, err
	}
	if err := json.Unmarshal(font, &s.Font); err != nil {
		return domain.UserSettings{}, err
	}
	if err := json.Unmarshal(theme, &s.Theme); err != nil {
		return domain.UserSettings{}, err
	}
	if err := json.Unmarshal(language, &s.Language); err != nil {
		return domain.UserSettings{}, err
	}
	if err := json.Unmarshal(usage, &s.Usage); err != nil {
		return domain.UserSettings{}, err
	}
	return s, nil
}

func (r *PgSettingsRepository) MergeSection(ctx context.Context, userID, section string, fragment []byte) error {
	column, ok := sectionColumns[section]
	if !ok {
		return fmt.Errorf("unknown settings section %q", section)
	}

	// El operador || hace el merge superficial dentro del motor, en un solo
	// statement, asi dos secciones distintas nunca se pisan entre si.
	query := fmt.Sprintf(`
		UPDATE user_settings
		SET %s = %s || $2::jsonb, updated_at = now()
		WHERE user_id = $1
	`, column, column)
	tag, err := r.pool.Exec(ctx, query, userID, fragment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgSettingsRepository) IncrementUsage(ctx context.Context, userID, counter string) (domain.UsageStats, error) {
	const query = `
		UPDATE user_settings
		SET usage_stats = jsonb_set(
			usage_stats,
			ARRAY[$2],
			(COALESCE(usage_stats->>$2, '0')::int + 1)::text::jsonb
		),
		updated_at = now()
		WHERE user_id = $1
		RETURNING usage_stats
	`
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, userID, counter).Scan(&raw); err != nil {
		return domain.UsageStats{}, err
	}
	var stats domain.UsageStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.UsageStats{}, err
	}
	return stats, nil
}
