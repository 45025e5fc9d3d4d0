package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/repository"
)

// SettingsService es el motor de merge del documento de preferencias y de los
// contadores de uso. Cada seccion se actualiza de forma independiente.
type SettingsService struct {
	logger *zap.Logger
	repo   repository.SettingsRepository
}

var ErrMissingUserID = errors.New("user id required")

func NewSettingsService(logger *zap.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{
		logger: logger,
		repo:   repo,
	}
}

// GetOrCreate devuelve el documento del usuario, creandolo con todos los
// defaults la primera vez. La creacion es idempotente ante carreras: el
// upsert no pisa un documento existente y el resultado se relee siempre.
func (s *SettingsService) GetOrCreate(ctx context.Context, userID string) (domain.UserSettings, error) {
	if userID == "" {
		return domain.UserSettings{}, ErrMissingUserID
	}
	if err := s.repo.EnsureDefaults(ctx, domain.DefaultSettings(userID)); err != nil {
		return domain.UserSettings{}, err
	}
	return s.repo.Get(ctx, userID)
}

// ApplyPartialUpdate mergea seccion por seccion solo los campos presentes en
// el patch; secciones y campos ausentes quedan intactos. Los numericos fuera
// de rango se ajustan al limite en vez de rechazarse.
func (s *SettingsService) ApplyPartialUpdate(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.UserSettings, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return domain.UserSettings{}, err
	}

	if patch.TTS != nil {
		patch.TTS.Clamp()
		if err := s.mergeSection(ctx, userID, "tts", patch.TTS); err != nil {
			return domain.UserSettings{}, err
		}
	}
	if patch.Font != nil {
		if err := s.mergeSection(ctx, userID, "font", patch.Font); err != nil {
			return domain.UserSettings{}, err
		}
	}
	if patch.Theme != nil {
		if err := s.mergeSection(ctx, userID, "theme", patch.Theme); err != nil {
			return domain.UserSettings{}, err
		}
	}
	if patch.Language != nil {
		if err := s.mergeSection(ctx, userID, "language", patch.Language); err != nil {
			return domain.UserSettings{}, err
		}
	}

	return s.repo.Get(ctx, userID)
}

// IncrementUsage suma 1 al contador de la feature. Una feature desconocida es
// un no-op que devuelve las estadisticas vigentes sin tocar nada.
func (s *SettingsService) IncrementUsage(ctx context.Context, userID, feature string) (domain.UsageStats, error) {
	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.UsageStats{}, err
	}

	counter, ok := domain.UsageFeatures[feature]
	if !ok {
		if s.logger != nil {
			s.logger.Debug("unknown usage feature ignored", zap.String("feature", feature))
		}
		return settings.Usage, nil
	}
	return s.repo.IncrementUsage(ctx, userID, counter)
}

func (s *SettingsService) mergeSection(ctx context.Context, userID, section string, patch any) error {
	fragment, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	// Un patch sin campos no genera UPDATE.
	if string(fragment) == "{}" {
		return nil
	}
	return s.repo.MergeSection(ctx, userID, section, fragment)
}
