// Package config handles configuration for the Evensia daemon, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import "time"

// Config holds runtime settings for the daemon.
//
// Fields:
//   - ListenAddr: bind address for the HTTP API.
//   - AppURL: public base URL of the site, used for non-popup redirects.
//   - GoogleClientID / GoogleClientSecret / OAuthRedirectURL: OAuth client settings.
//   - AuthEndpoint / TokenEndpoint / UserinfoEndpoint: provider endpoints,
//     overridable for tests.
//   - DriveAPIBase / DriveUploadBase: storage provider endpoints.
//   - ScriptURL: external record store endpoint; empty selects the embedded store.
//   - DataDir: persistence directory for the embedded store.
//   - CookieSecret: key material for sealing the refresh-token cookie.
//   - AccessTokenTTL / RefreshTokenTTL: cookie lifetimes.
//   - ReleaseMode: gin release mode plus Secure cookies.
//   - DisableTLS: serve plain HTTP instead of a self-signed certificate.
//   - LogLevel: zerolog level name.
type Config struct {
	ListenAddr         string
	AppURL             string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	AuthEndpoint       string
	TokenEndpoint      string
	UserinfoEndpoint   string
	DriveAPIBase       string
	DriveUploadBase    string
	ScriptURL          string
	DataDir            string
	CookieSecret       string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ReleaseMode        bool
	DisableTLS         bool
	LogLevel           string
}

// LoadDefaults populates Config with development defaults.
// NOTE: CookieSecret must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":7801"
	c.AppURL = "http://localhost:3000"
	c.AuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	c.TokenEndpoint = "https://oauth2.googleapis.com/token"
	c.UserinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
	c.DriveAPIBase = "https://www.googleapis.com/drive/v3"
	c.DriveUploadBase = "https://www.googleapis.com/upload/drive/v3"
	c.DataDir = "./data"
	c.CookieSecret = "evensia-dev-secret"
	c.AccessTokenTTL = time.Hour
	c.RefreshTokenTTL = 30 * 24 * time.Hour
	c.DisableTLS = true
	c.LogLevel = "info"
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file, environment variables, and finally command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
