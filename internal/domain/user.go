package domain

import "time"

// Proveedores de identidad soportados.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

// User representa una cuenta local o federada.
type User struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	PasswordHash   string            `json:"-"`
	AuthProvider   string            `json:"auth_provider,omitempty"`
	Identities     map[string]string `json:"-"`
	ProfilePicture string            `json:"profile_picture,omitempty"`
	IsVerified     bool              `json:"is_verified"`
	OtpCodeHash    string            `json:"-"`
	OtpExpiresAt   *time.Time        `json:"-"`
	ResetToken     string            `json:"-"`
	ResetExpiresAt *time.Time        `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// HasIdentity indica si el usuario tiene vinculado exactamente ese subject
// para el proveedor dado.
func (u User) HasIdentity(provider, subject string) bool {
	bound, ok := u.Identities[provider]
	return ok && bound == subject
}
