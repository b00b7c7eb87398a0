/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valpere/polyglot/internal/config"
	"github.com/valpere/polyglot/internal/logging"
)

var version = "0.3.0"

var (
	configFile string

	v        = config.New()
	cfg      *config.Config
	logger   = zerolog.Nop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "polyglot",
	Short: "Local translation listener",
	Long: `Polyglot runs a loopback HTTP listener that echoes request bodies and
translates text through one or more translation services.

  POST /echo        returns the body verbatim
  POST /translate   {"text": "...", "source_lang": "en", "target_lang": "uk"}

Configuration is read from flags, POLYGLOT_* environment variables and
polyglot.yaml (current directory or $HOME/.config/polyglot).

Use "polyglot serve --help" to start the listener.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(v, configFile)
		if err != nil {
			return err
		}
		logger, closeLog = logging.New(logging.Options{
			Level: cfg.LogLevel,
			File:  cfg.LogFile,
			JSON:  cfg.LogJSON,
		})
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("config loaded")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagKeys maps flag names to config keys. Only the flags of the running
// command are bound, so serve and translate can share names.
var flagKeys = map[string]string{
	"log-level":             "log_level",
	"log-file":              "log_file",
	"log-json":              "log_json",
	"db":                    "db",
	"port":                  "http_server_port",
	"shutdown-timeout":      "shutdown_timeout",
	"max-body-bytes":        "max_body_bytes",
	"metrics":               "metrics_enabled",
	"services":              "services",
	"credentials":           "credentials",
	"project":               "project_id",
	"ollama-url":            "ollama_url",
	"ollama-models":         "ollama_models",
	"openrouter-key":        "openrouter_key",
	"openrouter-models":     "openrouter_models",
	"systran-key":           "systran_key",
	"mymemory-email":        "mymemory_email",
	"no-cache":              "no_cache",
	"max-retries":           "max_attempts",
	"request-timeout":       "request_timeout",
	"validate":              "validate_output",
	"max-chunk-chars":       "max_chunk_chars",
	"detect-min-confidence": "detect_min_confidence",
	"context-words":         "context_words",
	"max-parallel":          "max_parallel",
	"arbiter":               "arbiter",
	"arbiter-model":         "arbiter_model",
	"arbiter-url":           "arbiter_url",
	"refine":                "refine",
	"refiner-model":         "refiner_model",
	"refiner-url":           "refiner_url",
}

// bindFlags ties flags to config keys so a set flag wins over env and file.
func bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default polyglot.yaml in . or $HOME/.config/polyglot)")
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-file", "", "Write JSON logs to a rotating file instead of stderr")
	pf.Bool("log-json", false, "Log JSON even on a terminal")
	pf.String("db", "./data/polyglot.db", "Database path for translation memory")
}
