package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Duration fields are accepted as strings like "1h".
type jsonConfig struct {
	ListenAddr         *string `json:"listen_addr"`
	AppURL             *string `json:"app_url"`
	GoogleClientID     *string `json:"google_client_id"`
	GoogleClientSecret *string `json:"google_client_secret"`
	OAuthRedirectURL   *string `json:"oauth_redirect_url"`
	AuthEndpoint       *string `json:"auth_endpoint"`
	TokenEndpoint      *string `json:"token_endpoint"`
	UserinfoEndpoint   *string `json:"userinfo_endpoint"`
	DriveAPIBase       *string `json:"drive_api_base"`
	DriveUploadBase    *string `json:"drive_upload_base"`
	ScriptURL          *string `json:"script_url"`
	DataDir            *string `json:"data_dir"`
	CookieSecret       *string `json:"cookie_secret"`
	AccessTokenTTL     *string `json:"access_token_ttl"`
	RefreshTokenTTL    *string `json:"refresh_token_ttl"`
	ReleaseMode        *bool   `json:"release_mode"`
	DisableTLS         *bool   `json:"disable_tls"`
	LogLevel           *string `json:"log_level"`
}

// configFilePath scans args for -c/-config without consuming the rest of the
// flag set, so the JSON overlay can run before flag parsing.
func configFilePath(args []string) string {
	for i, arg := range args {
		switch arg {
		case "-c", "-config", "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// parseJSON overlays values from an optional JSON file onto cfg. Absent keys
// leave the current value untouched.
func parseJSON(cfg *Config, args []string) error {
	path := configFilePath(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	jc := &jsonConfig{}
	if err := json.Unmarshal(raw, jc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&cfg.ListenAddr, jc.ListenAddr)
	setString(&cfg.AppURL, jc.AppURL)
	setString(&cfg.GoogleClientID, jc.GoogleClientID)
	setString(&cfg.GoogleClientSecret, jc.GoogleClientSecret)
	setString(&cfg.OAuthRedirectURL, jc.OAuthRedirectURL)
	setString(&cfg.AuthEndpoint, jc.AuthEndpoint)
	setString(&cfg.TokenEndpoint, jc.TokenEndpoint)
	setString(&cfg.UserinfoEndpoint, jc.UserinfoEndpoint)
	setString(&cfg.DriveAPIBase, jc.DriveAPIBase)
	setString(&cfg.DriveUploadBase, jc.DriveUploadBase)
	setString(&cfg.ScriptURL, jc.ScriptURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.CookieSecret, jc.CookieSecret)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.AccessTokenTTL != nil {
		d, err := time.ParseDuration(*jc.AccessTokenTTL)
		if err != nil {
			return fmt.Errorf("access_token_ttl: %w", err)
		}
		cfg.AccessTokenTTL = d
	}
	if jc.RefreshTokenTTL != nil {
		d, err := time.ParseDuration(*jc.RefreshTokenTTL)
		if err != nil {
			return fmt.Errorf("refresh_token_ttl: %w", err)
		}
		cfg.RefreshTokenTTL = d
	}
	if jc.ReleaseMode != nil {
		cfg.ReleaseMode = *jc.ReleaseMode
	}
	if jc.DisableTLS != nil {
		cfg.DisableTLS = *jc.DisableTLS
	}
	return nil
}
