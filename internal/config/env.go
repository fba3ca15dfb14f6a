package config

import (
	"os"
	"time"
)

// parseEnv overlays EVENSIA_* environment variables onto cfg. Unset variables
// leave the current value untouched.
func parseEnv(cfg *Config) {
	lookup := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	lookup(&cfg.ListenAddr, "EVENSIA_LISTEN_ADDR")
	lookup(&cfg.AppURL, "EVENSIA_APP_URL")
	lookup(&cfg.GoogleClientID, "EVENSIA_GOOGLE_CLIENT_ID")
	lookup(&cfg.GoogleClientSecret, "EVENSIA_GOOGLE_CLIENT_SECRET")
	lookup(&cfg.OAuthRedirectURL, "EVENSIA_OAUTH_REDIRECT_URL")
	lookup(&cfg.AuthEndpoint, "EVENSIA_AUTH_ENDPOINT")
	lookup(&cfg.TokenEndpoint, "EVENSIA_TOKEN_ENDPOINT")
	lookup(&cfg.UserinfoEndpoint, "EVENSIA_USERINFO_ENDPOINT")
	lookup(&cfg.DriveAPIBase, "EVENSIA_DRIVE_API_BASE")
	lookup(&cfg.DriveUploadBase, "EVENSIA_DRIVE_UPLOAD_BASE")
	lookup(&cfg.ScriptURL, "EVENSIA_SCRIPT_URL")
	lookup(&cfg.DataDir, "EVENSIA_DATA_DIR")
	lookup(&cfg.CookieSecret, "EVENSIA_COOKIE_SECRET")
	lookup(&cfg.LogLevel, "EVENSIA_LOG_LEVEL")

	if v, ok := os.LookupEnv("EVENSIA_ACCESS_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AccessTokenTTL = d
		}
	}
	if v, ok := os.LookupEnv("EVENSIA_REFRESH_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshTokenTTL = d
		}
	}
	if v, ok := os.LookupEnv("EVENSIA_RELEASE_MODE"); ok {
		cfg.ReleaseMode = v == "true"
	}
	if v, ok := os.LookupEnv("EVENSIA_DISABLE_TLS"); ok {
		cfg.DisableTLS = v == "true"
	}
}
