package config

import (
	"flag"
	"io"
)

// parseFlags populates Config fields from command-line flags. Flags have the
// final say over defaults, JSON file, and environment variables.
//
// Supported flags:
//
//	-c/-config string   path to a JSON config file (handled by parseJSON)
//	-a string           HTTP bind address
//	-app-url string     public base URL of the site
//	-script-url string  external record store endpoint (empty = embedded store)
//	-data-dir string    persistence directory for the embedded store
//	-secret string      cookie sealing secret
//	-log-level string   zerolog level
//	-release            enable release mode (secure cookies)
//	-no-tls             serve plain HTTP
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("evensiad", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFile string
	fs.StringVar(&configFile, "c", "", "path to JSON config file")
	fs.StringVar(&configFile, "config", "", "path to JSON config file")

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address and port to run server")
	fs.StringVar(&cfg.AppURL, "app-url", cfg.AppURL, "public base URL of the site")
	fs.StringVar(&cfg.ScriptURL, "script-url", cfg.ScriptURL, "external record store endpoint")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "embedded store data directory")
	fs.StringVar(&cfg.CookieSecret, "secret", cfg.CookieSecret, "cookie sealing secret")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.ReleaseMode, "release", cfg.ReleaseMode, "enable release mode")
	fs.BoolVar(&cfg.DisableTLS, "no-tls", cfg.DisableTLS, "serve plain HTTP")

	return fs.Parse(args)
}
