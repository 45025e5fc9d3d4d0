// Package identity integra los verificadores externos de identidad. La
// verificacion criptografica es del proveedor; aca solo se consumen sus
// afirmaciones ya validadas.
package identity

import (
	"context"
	"errors"
)

// Claims es el conjunto de atributos afirmados por un verificador externo
// despues de chequear la autenticidad de un token.
type Claims struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

var (
	ErrTokenExpired  = errors.New("identity token expired")
	ErrTokenInvalid  = errors.New("identity token invalid")
	ErrNotConfigured = errors.New("identity provider not configured")
)

// TokenVerifier valida un token de identidad emitido por un proveedor externo.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (Claims, error)
}

type disabledVerifier struct{}

// NewDisabledVerifier devuelve un verificador que siempre responde
// "no configurado".
func NewDisabledVerifier() TokenVerifier {
	return disabledVerifier{}
}

func (disabledVerifier) VerifyIDToken(_ context.Context, _ string) (Claims, error) {
	return Claims{}, ErrNotConfigured
}
