// Package runtime wires the CLI-configured parameters through to a running
// Store Pool and HTTP server, and owns the process lifecycle: startup,
// the background janitor, and graceful shutdown.
package runtime

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Params stores the configuration for a stamd instance, populated by
// cmd/run.go from CLI flags and environment variables bound through viper.
type Params struct {
	// Addr is the listening address, e.g. ":8080" or "127.0.0.1:8080".
	Addr string

	// BaseDir is the directory under which annotation stores live.
	BaseDir string

	// BaseURL is the externally visible base URL used to build canonical
	// IRIs in JSON-LD responses.
	BaseURL string

	// Extension is the filename suffix identifying a store file.
	Extension string

	// ReadOnly disables every mutating pool operation.
	ReadOnly bool

	// UnloadTime is how long a store may sit idle before the janitor
	// evicts it.
	UnloadTime time.Duration

	// ExtraContexts are additional JSON-LD @context entries appended to
	// the Web-Annotation config template.
	ExtraContexts []string

	// Namespaces maps short prefixes to URIs, supplied as repeated
	// "name:uri" CLI arguments.
	Namespaces map[string]string

	// NoExtraTarget is copied into every store's WebAnnoConfig. Nothing
	// reads it there, so it does not change any response.
	NoExtraTarget bool

	// Debug enables verbose (debug-level) logging and Gin's debug mode.
	Debug bool

	// GracefulShutdownPeriod bounds how long shutdown waits for in-flight
	// requests to drain after a shutdown signal, in seconds.
	GracefulShutdownPeriod int

	// Logging configures the logrus formatter and level.
	Logging LoggingConfig
}

// LoggingConfig sets the logrus level and output format, configured from
// --log-level/--log-format.
type LoggingConfig struct {
	Level  string
	Format string
}

// NewParams returns a Params populated with stamd's default CLI flag
// values. BaseURL is left empty; DeriveBaseURL fills it in from Addr
// once flag parsing has settled on a final --bind value.
func NewParams() Params {
	return Params{
		Addr:                   "127.0.0.1:8080",
		Extension:              "store.stam.json",
		UnloadTime:             600 * time.Second,
		Namespaces:             map[string]string{},
		GracefulShutdownPeriod: 10,
		Logging:                LoggingConfig{Level: "info", Format: "text"},
	}
}

// DeriveBaseURL builds the default externally visible base URL from a
// --bind listen address, used when --baseurl is left unset. A bind
// address with no host (e.g. ":8080", meaning "all interfaces") has no
// single externally reachable name, so it falls back to localhost.
func DeriveBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		return fmt.Sprintf("http://[%s]:%s", host, port)
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}

// setupLogging returns a new logrus logger configured from LoggingConfig;
// the package-global logrus logger is left untouched.
func setupLogging(cfg LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
