package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"axs-learn/internal/domain"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleOAuth implementa el flujo authorization-code de Google y traduce el
// resultado a un Claims bundle.
type GoogleOAuth struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client

	// Overridables en tests.
	authURL     string
	tokenURL    string
	userinfoURL string
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		userinfoURL:  googleUserinfoURL,
	}
}

// Configured indica si hay credenciales de cliente presentes.
func (g *GoogleOAuth) Configured() bool {
	return g != nil && g.clientID != "" && g.clientSecret != ""
}

// AuthCodeURL arma la URL de consentimiento para redirigir al navegador.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", g.clientID)
	q.Set("redirect_uri", g.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return g.authURL + "?" + q.Encode()
}

// Exchange canjea el codigo por un access token y consulta el perfil.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (Claims, error) {
	if !g.Configured() {
		return Claims{}, ErrNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return Claims{}, ErrTokenInvalid
	}

	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("redirect_uri", g.redirectURL)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Claims{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Claims{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Claims{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Claims{}, fmt.Errorf("%w: token endpoint status %d", ErrTokenInvalid, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return Claims{}, ErrTokenInvalid
	}

	return g.fetchUserinfo(ctx, tokenResp.AccessToken)
}

func (g *GoogleOAuth) fetchUserinfo(ctx context.Context, accessToken string) (Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return Claims{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Claims{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Claims{}, fmt.Errorf("%w: userinfo status %d", ErrTokenInvalid, resp.StatusCode)
	}

	var info struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if info.Sub == "" {
		return Claims{}, ErrTokenInvalid
	}

	return Claims{
		Provider: domain.ProviderGoogle,
		Subject:  info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}
