package mercadolivre

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultTokenURL = "https://api.mercadolibre.com/oauth/token"

// TokenProvider fornece um access token válido antes de cada chamada à API
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceConfig contém as credenciais OAuth do aplicativo
type TokenSourceConfig struct {
	AppID        string
	ClientSecret string
	AccessToken  string
	RefreshToken string

	// EnvPath, se definido, recebe os tokens renovados de volta no .env
	// (o refresh token do Mercado Livre rotaciona a cada renovação)
	EnvPath string

	// TokenURL sobrescreve o endpoint OAuth (testes)
	TokenURL string
}

// TokenSource renova o access token via refresh_token e o mantém em memória
// de forma thread-safe. A renovação acontece 2 minutos antes da expiração.
type TokenSource struct {
	mu sync.Mutex

	appID        string
	clientSecret string
	accessToken  string
	refreshToken string
	expiresAt    time.Time

	envPath  string
	tokenURL string
	client   *http.Client
	now      func() time.Time
}

// NewTokenSource cria um TokenSource a partir das credenciais configuradas
func NewTokenSource(cfg TokenSourceConfig) *TokenSource {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &TokenSource{
		appID:        cfg.AppID,
		clientSecret: cfg.ClientSecret,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
		envPath:      cfg.EnvPath,
		tokenURL:     tokenURL,
		client:       &http.Client{Timeout: httpTimeout},
		now:          time.Now,
	}
}

// Token retorna um access token válido, renovando quando necessário.
// No primeiro uso sempre renova, para ter uma expiração conhecida.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.expiresAt.IsZero() && ts.now().Before(ts.expiresAt) {
		return ts.accessToken, nil
	}

	if err := ts.refresh(ctx); err != nil {
		return "", err
	}
	return ts.accessToken, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// refresh renova o access token. Chamado com ts.mu já adquirido.
func (ts *TokenSource) refresh(ctx context.Context) error {
	if ts.appID == "" || ts.clientSecret == "" || ts.refreshToken == "" {
		return fmt.Errorf("credenciais OAuth incompletas: verifique ML_APP_ID, ML_CLIENT_SECRET e ML_REFRESH_TOKEN")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {ts.appID},
		"client_secret": {ts.clientSecret},
		"refresh_token": {ts.refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao renovar token: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("erro ao renovar token: status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("resposta de token inválida: %w", err)
	}

	if payload.AccessToken != "" {
		ts.accessToken = payload.AccessToken
	}
	// O refresh token pode rotacionar
	if payload.RefreshToken != "" {
		ts.refreshToken = payload.RefreshToken
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 21600
	}
	// Renova 2 minutos antes de expirar, com piso de 60s
	margin := expiresIn - 120
	if margin < 60 {
		margin = 60
	}
	ts.expiresAt = ts.now().Add(time.Duration(margin) * time.Second)

	if ts.envPath != "" {
		if err := ts.persistTokens(); err != nil {
			log.Printf("Aviso: não consegui atualizar o .env com os novos tokens: %v", err)
		}
	}

	return nil
}

// persistTokens grava os tokens atuais de volta no .env, preservando as
// demais chaves do arquivo
func (ts *TokenSource) persistTokens() error {
	env, err := godotenv.Read(ts.envPath)
	if err != nil {
		env = map[string]string{}
	}
	env["ML_ACCESS_TOKEN"] = ts.accessToken
	env["ML_REFRESH_TOKEN"] = ts.refreshToken
	return godotenv.Write(env, ts.envPath)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
