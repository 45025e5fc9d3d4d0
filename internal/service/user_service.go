package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/email"
	"axs-learn/internal/repository"
)

// UserService coordina reglas de negocio para cuentas locales: registro con
// verificacion OTP, login, perfil y reseteo de password.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	creds       *CredentialService
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
	resetURL    string
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidName        = errors.New("invalid name")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPNotRequested    = errors.New("otp not requested")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("otp invalid")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrResetTokenInvalid  = errors.New("reset token invalid")
	ErrRateLimited        = errors.New("rate limited")
	ErrEmailSendFailure   = errors.New("email send failed")
)

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	creds *CredentialService,
	emailSender email.Sender,
	otpLimiter OTPRateLimiter,
	resetURL string,
) *UserService {
	if creds == nil {
		creds = NewCredentialService(defaultOTPTTL)
	}
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(defaultOTPTTL, 3)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		creds:       creds,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
		resetURL:    resetURL,
	}
}

// Signup crea una cuenta local sin verificar y envia el OTP por correo.
func (s *UserService) Signup(ctx context.Context, name, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	name = strings.TrimSpace(name)
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidName(name) {
		return domain.User{}, ErrInvalidName
	}
	if !isValidPassword(password) {
		return domain.User{}, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	passwordHash, err := s.creds.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		AuthProvider: domain.ProviderLocal,
		CreatedAt:    time.Now().UTC(),
	}
	code, err := s.creds.GenerateOTP(&user)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	if err := s.sendOTP(ctx, user, code); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// VerifyEmail consume el OTP, marca la cuenta verificada y manda la
// bienvenida best-effort.
func (s *UserService) VerifyEmail(ctx context.Context, emailAddr, code string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if user.OtpCodeHash == "" || user.OtpExpiresAt == nil {
		return domain.User{}, ErrOTPNotRequested
	}
	if !time.Now().UTC().Before(*user.OtpExpiresAt) {
		return domain.User{}, ErrOTPExpired
	}
	if !s.creds.VerifyOTP(user, strings.TrimSpace(code)) {
		return domain.User{}, ErrOTPInvalid
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	user.IsVerified = true
	s.creds.ClearOTP(&user)

	if s.emailSender != nil {
		if err := s.emailSender.SendWelcome(ctx, user.Email, user.Name); err != nil && s.logger != nil {
			s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("email", user.Email))
		}
	}
	return user, nil
}

// ResendOTP reemite el codigo de verificacion, con rate limiting por email.
func (s *UserService) ResendOTP(ctx context.Context, emailAddr string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	if user.IsVerified {
		return domain.User{}, ErrAlreadyVerified
	}

	code, err := s.creds.GenerateOTP(&user)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.UpdateOTP(ctx, user.ID, user.OtpCodeHash, *user.OtpExpiresAt); err != nil {
		return domain.User{}, err
	}

	if err := s.sendOTP(ctx, user, code); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login autentica email y password. La falla es generica a proposito: no
// distingue cuenta inexistente, sin password o password incorrecto.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile actualiza el nombre visible del usuario.
func (s *UserService) UpdateProfile(ctx context.Context, id, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if !isValidName(name) {
		return domain.User{}, ErrInvalidName
	}
	if err := s.users.UpdateName(ctx, id, name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return s.GetByID(ctx, id)
}

// ForgotPassword emite un token de reseteo. Un email desconocido no es un
// error observable, para no revelar cuentas existentes.
func (s *UserService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, err := s.creds.GenerateResetToken(&user)
	if err != nil {
		return err
	}
	if err := s.users.UpdateResetToken(ctx, user.ID, user.ResetToken, *user.ResetExpiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	resetURL := s.resetURL + "?token=" + token
	if err := s.emailSender.SendPasswordReset(ctx, user.Email, resetURL, *user.ResetExpiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send password reset failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// ResetPassword consume el token de reseteo y fija el nuevo password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	if !isValidPassword(newPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !s.creds.VerifyResetToken(user, token) {
		return ErrResetTokenInvalid
	}

	passwordHash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *UserService) sendOTP(ctx context.Context, user domain.User, code string) error {
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerificationOTP(ctx, user.Email, code, *user.OtpExpiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidName(name string) bool {
	return len(name) >= 2 && len(name) <= 50
}

// isValidPassword exige minimo 6 caracteres con minuscula, mayuscula y digito.
func isValidPassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
