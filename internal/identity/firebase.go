package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"axs-learn/internal/domain"
)

const firebaseTokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

// FirebaseVerifier valida ID tokens de Firebase contra el endpoint tokeninfo
// de Google y chequea que la audiencia sea el proyecto configurado.
type FirebaseVerifier struct {
	projectID  string
	httpClient *http.Client

	// Overridable en tests.
	tokeninfoURL string
}

func NewFirebaseVerifier(projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID:    projectID,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokeninfoURL: firebaseTokeninfoURL,
	}
}

func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (Claims, error) {
	if v == nil || v.projectID == "" {
		return Claims{}, ErrNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		return Claims{}, ErrTokenInvalid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.tokeninfoURL+"?id_token="+idToken, nil)
	if err != nil {
		return Claims{}, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Claims{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Claims{}, err
	}
	if resp.StatusCode != http.StatusOK {
		if strings.Contains(strings.ToLower(string(body)), "expired") {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	var info struct {
		Aud     string `json:"aud"`
		Sub     string `json:"sub"`
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Exp     string `json:"exp"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if info.Aud != v.projectID {
		return Claims{}, ErrTokenInvalid
	}

	subject := info.Sub
	if subject == "" {
		subject = info.UserID
	}
	if subject == "" {
		return Claims{}, ErrTokenInvalid
	}

	return Claims{
		Provider: domain.ProviderFirebase,
		Subject:  subject,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}
