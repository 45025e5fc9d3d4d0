package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"axs-learn/internal/domain"
)

const (
	defaultOTPTTL   = 10 * time.Minute
	defaultResetTTL = time.Hour
)

// CredentialService concentra hashing de passwords, codigos OTP y tokens de
// reseteo. El hashing es explicito: quien persista un password cambiado debe
// pasar por aca primero.
type CredentialService struct {
	otpTTL   time.Duration
	resetTTL time.Duration
}

func NewCredentialService(otpTTL time.Duration) *CredentialService {
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	return &CredentialService{
		otpTTL:   otpTTL,
		resetTTL: defaultResetTTL,
	}
}

func (s *CredentialService) HashPassword(plain string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// VerifyPassword devuelve false ante hash ausente o password incorrecto;
// nunca falla de otra forma.
func (s *CredentialService) VerifyPassword(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateOTP emite un codigo de 6 digitos en [100000, 999999], guarda su
// digest y expiracion en el usuario y devuelve el codigo en claro. Pisa
// cualquier codigo anterior: a lo sumo un OTP vigente por usuario.
func (s *CredentialService) GenerateOTP(user *domain.User) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	code := strconv.FormatInt(n.Int64()+100000, 10)

	digest, err := hashOTP(code)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().UTC().Add(s.otpTTL)
	user.OtpCodeHash = digest
	user.OtpExpiresAt = &expiresAt
	return code, nil
}

// VerifyOTP falla si no hay codigo emitido, si ya expiro o si el candidato no
// coincide. No limpia el codigo; eso es responsabilidad del caller.
func (s *CredentialService) VerifyOTP(user domain.User, candidate string) bool {
	if user.OtpCodeHash == "" || user.OtpExpiresAt == nil {
		return false
	}
	if !time.Now().UTC().Before(*user.OtpExpiresAt) {
		return false
	}
	if !isValidOTPCode(candidate) {
		return false
	}
	return verifyOTPDigest(candidate, user.OtpCodeHash)
}

func (s *CredentialService) ClearOTP(user *domain.User) {
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
}

// GenerateResetToken emite un token opaco de reseteo de password con
// expiracion fija, guardandolo en el usuario.
func (s *CredentialService) GenerateResetToken(user *domain.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	expiresAt := time.Now().UTC().Add(s.resetTTL)
	user.ResetToken = token
	user.ResetExpiresAt = &expiresAt
	return token, nil
}

func (s *CredentialService) VerifyResetToken(user domain.User, token string) bool {
	if user.ResetToken == "" || user.ResetExpiresAt == nil || token == "" {
		return false
	}
	if !time.Now().UTC().Before(*user.ResetExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.ResetToken), []byte(token)) == 1
}

func hashOTP(code string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	return saltStr + ":" + base64.StdEncoding.EncodeToString(hashBytes[:]), nil
}

func verifyOTPDigest(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
