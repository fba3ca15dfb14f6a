package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.GoogleClientID = "client-id"
	cfg.GoogleClientSecret = "client-secret"
	cfg.OAuthRedirectURL = "http://localhost:3000/auth/google/callback"
	return cfg
}

// tokenProvider simulates the token endpoint: each code is single-use.
func tokenProvider(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	used := map[string]bool{}
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		code := r.PostFormValue("code")
		if code == "" || used[code] {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		used[code] = true
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-" + code,
			"refresh_token": "rt-" + code,
			"expires_in":    3600,
			"token_type":    "Bearer",
		})
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestAuthorizeURL(t *testing.T) {
	svc, err := NewService(testConfig(t), nil)
	require.NoError(t, err)

	raw := svc.AuthorizeURL("signed-state")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "signed-state", q.Get("state"))

	scopes := strings.Split(q.Get("scope"), " ")
	assert.Len(t, scopes, 3)
	assert.Contains(t, scopes, "https://www.googleapis.com/auth/drive.file")
}

func TestNewServiceRequiresClientConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.GoogleClientID = ""
	_, err := NewService(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.OAuthRedirectURL = ""
	_, err = NewService(cfg, nil)
	assert.Error(t, err)
}

func TestExchange(t *testing.T) {
	ts, _ := tokenProvider(t)
	cfg := testConfig(t)
	cfg.TokenEndpoint = ts.URL

	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	tokens, err := svc.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "at-code-1", tokens.AccessToken)
	assert.Equal(t, "rt-code-1", tokens.RefreshToken)
	assert.EqualValues(t, 3600, tokens.ExpiresIn)
}

func TestExchangeCodeIsSingleUse(t *testing.T) {
	ts, _ := tokenProvider(t)
	cfg := testConfig(t)
	cfg.TokenEndpoint = ts.URL

	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	first, err := svc.Exchange(context.Background(), "code-2")
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "code-2")
	assert.ErrorIs(t, err, common.ErrAuthExchange)

	// The first exchange's tokens are unaffected by the failed replay.
	assert.Equal(t, "at-code-2", first.AccessToken)
}

func TestExchangeEmptyCode(t *testing.T) {
	ts, calls := tokenProvider(t)
	cfg := testConfig(t)
	cfg.TokenEndpoint = ts.URL

	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrBadInput)
	assert.Zero(t, *calls, "no network call for an empty code")
}

func TestExchangeMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.TokenEndpoint = ts.URL
	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, common.ErrAuthExchange)
}

func TestExchangeMissingAccessToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"expires_in": 3600})
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.TokenEndpoint = ts.URL
	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, common.ErrAuthExchange)
}

func TestFetchUser(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"id": "42", "email": "guest@example.com", "name": "Guest", "picture": "https://example.com/p.png",
		})
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.UserinfoEndpoint = ts.URL
	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	user, err := svc.FetchUser(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", user.Email)
	assert.Equal(t, "Guest", user.Name)
}

func TestProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"files": []map[string]string{{"id": "1", "name": "a"}}})
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.DriveAPIBase = ts.URL
	svc, err := NewService(cfg, ts.Client())
	require.NoError(t, err)

	n, err := svc.Probe(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Probe(context.Background(), "revoked")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}
