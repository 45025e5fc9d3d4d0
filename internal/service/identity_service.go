package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/email"
	"axs-learn/internal/identity"
	"axs-learn/internal/repository"
)

// IdentityService resuelve un claims bundle externo a un usuario local:
// primero por (proveedor, subject), despues por email con vinculacion, y si
// no existe, creando la cuenta.
type IdentityService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
}

var (
	ErrClaimsInvalid = errors.New("claims invalid")
	ErrIdentityBound = errors.New("identity bound to another subject")
)

func NewIdentityService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender) *IdentityService {
	return &IdentityService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
	}
}

func (s *IdentityService) Resolve(ctx context.Context, claims identity.Claims) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("identity service not configured")
	}

	provider := strings.ToLower(strings.TrimSpace(claims.Provider))
	subject := strings.TrimSpace(claims.Subject)
	emailAddr := normalizeEmail(claims.Email)
	if provider == "" || subject == "" || emailAddr == "" {
		return domain.User{}, ErrClaimsInvalid
	}

	// Paso 1: identidad ya vinculada.
	user, err := s.users.GetByIdentity(ctx, provider, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	// Paso 2: cuenta existente con el mismo email.
	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return s.link(ctx, existing, provider, subject, claims.Picture)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	// Paso 3: cuenta nueva.
	return s.create(ctx, claims, provider, subject, emailAddr)
}

func (s *IdentityService) link(ctx context.Context, user domain.User, provider, subject, picture string) (domain.User, error) {
	if bound, ok := user.Identities[provider]; ok && bound != subject {
		return domain.User{}, ErrIdentityBound
	}

	if err := s.users.LinkIdentity(ctx, user.ID, provider, subject); err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.User{}, ErrIdentityBound
		}
		return domain.User{}, err
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	if picture != "" && user.ProfilePicture == "" {
		if err := s.users.SetProfilePictureIfAbsent(ctx, user.ID, picture); err != nil {
			return domain.User{}, err
		}
		user.ProfilePicture = picture
	}

	if user.Identities == nil {
		user.Identities = make(map[string]string)
	}
	user.Identities[provider] = subject
	user.IsVerified = true
	return user, nil
}

func (s *IdentityService) create(ctx context.Context, claims identity.Claims, provider, subject, emailAddr string) (domain.User, error) {
	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = emailAddr[:strings.Index(emailAddr, "@")]
	}

	user := domain.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          emailAddr,
		AuthProvider:   provider,
		Identities:     map[string]string{provider: subject},
		ProfilePicture: claims.Picture,
		IsVerified:     true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			// Carrera con otro request que creo la misma cuenta.
			return s.users.GetByIdentity(ctx, provider, subject)
		}
		return domain.User{}, err
	}

	// El correo de bienvenida es best-effort y nunca falla la resolucion.
	if s.emailSender != nil {
		if err := s.emailSender.SendWelcome(ctx, user.Email, user.Name); err != nil && s.logger != nil {
			s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("email", user.Email))
		}
	}
	return user, nil
}
