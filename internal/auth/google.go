// Package auth mediates the three-legged authorization-code flow with the
// identity/storage provider and tracks session authentication state through
// the token cookie pair.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/internal/config"
	"github.com/evensia-dev/evensia/pkg/schema"
)

// Scopes requested from the provider: file-scoped storage access plus basic
// profile and email.
var Scopes = []string{
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Service performs the provider-facing calls of the authorization flow.
type Service struct {
	clientID     string
	clientSecret string
	redirectURL  string
	authURL      string
	tokenURL     string
	userinfoURL  string
	driveAPIBase string
	stateKey     []byte
	http         *http.Client
}

// NewService validates the OAuth client configuration and builds a service.
// A missing client ID or redirect URL is a deployment fault, not a runtime
// condition, so it fails here rather than per request.
func NewService(cfg *config.Config, httpClient *http.Client) (*Service, error) {
	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("auth: google client id is not configured")
	}
	if cfg.OAuthRedirectURL == "" {
		return nil, fmt.Errorf("auth: oauth redirect url is not configured")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURL:  cfg.OAuthRedirectURL,
		authURL:      cfg.AuthEndpoint,
		tokenURL:     cfg.TokenEndpoint,
		userinfoURL:  cfg.UserinfoEndpoint,
		driveAPIBase: cfg.DriveAPIBase,
		stateKey:     []byte(cfg.CookieSecret),
		http:         httpClient,
	}, nil
}

// AuthorizeURL builds the redirect target for the consent screen. Offline
// access and forced consent make the provider return a refresh token on
// every exchange.
func (s *Service) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("redirect_uri", s.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	if state != "" {
		q.Set("state", state)
	}
	return s.authURL + "?" + q.Encode()
}

// Exchange trades a single-use authorization code for a token pair. Failure
// is terminal for the flow instance; codes cannot be retried.
func (s *Service) Exchange(ctx context.Context, code string) (*schema.TokenSet, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", common.ErrBadInput)
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("redirect_uri", s.redirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuthExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuthExchange, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: token endpoint returned HTTP %d", common.ErrAuthExchange, resp.StatusCode)
	}

	tokens := &schema.TokenSet{}
	if err := json.Unmarshal(body, tokens); err != nil {
		return nil, fmt.Errorf("%w: invalid token response", common.ErrAuthExchange)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response carried no access token", common.ErrAuthExchange)
	}
	return tokens, nil
}

// FetchUser retrieves the authenticated profile for an access token.
func (s *Service) FetchUser(ctx context.Context, accessToken string) (*schema.GuestUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, common.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("userinfo endpoint returned HTTP %d", resp.StatusCode)
	}

	user := &schema.GuestUser{}
	if err := json.NewDecoder(resp.Body).Decode(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Probe checks whether an access token is still honored by the provider by
// listing a single file. getStatus never does this; validation is explicit,
// at the caller's request.
func (s *Service) Probe(ctx context.Context, accessToken string) (int, error) {
	if accessToken == "" {
		return 0, fmt.Errorf("%w: missing access token", common.ErrBadInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.driveAPIBase+"/files?pageSize=1&fields=files(id,name)", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return 0, common.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	var out struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return len(out.Files), nil
}
