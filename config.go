package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/wordwolf/words"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
	providerNone   = "none"
)

type Config struct {
	apiKey          string
	bind            string
	cacheDB         string
	generateTimeout time.Duration
	model           string
	port            int
	prefix          string
	profile         bool
	provider        string
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool
	wordsURL        string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}

	return c.validateWords()
}

// validateWords checks the flags shared with the generate subcommand.
func (c *Config) validateWords() error {
	c.provider = strings.ToLower(strings.TrimSpace(c.provider))
	switch c.provider {
	case providerGemini, providerOpenAI, providerNone:
	default:
		return fmt.Errorf("invalid provider (must be one of gemini, openai, none): %q", c.provider)
	}

	if c.generateTimeout <= 0 {
		return fmt.Errorf("invalid generate timeout (must be positive): %s", c.generateTimeout)
	}
	return nil
}

// resolvedAPIKey falls back to the provider's conventional environment variable.
func (c *Config) resolvedAPIKey() string {
	if c.apiKey != "" {
		return c.apiKey
	}

	switch c.provider {
	case providerGemini:
		return os.Getenv("GEMINI_API_KEY")
	case providerOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}

	return ""
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("WORDWOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func normalizeFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:           "wordwolf",
		Short:         "Word Wolf, the pass-the-phone party game, with AI generated word pairs.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()

	pfs.SetNormalizeFunc(normalizeFlags)

	pfs.StringVar(&cfg.apiKey, "api-key", "", "api key for the word generator (env: WORDWOLF_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY)")
	pfs.StringVar(&cfg.cacheDB, "cache-db", "", "path to a sqlite database for generated word batches (env: WORDWOLF_CACHE_DB)")
	pfs.DurationVar(&cfg.generateTimeout, "generate-timeout", words.DefaultTimeout, "time allowed for one word generation (env: WORDWOLF_GENERATE_TIMEOUT)")
	pfs.StringVar(&cfg.model, "model", "", "model name for the word generator (env: WORDWOLF_MODEL)")
	pfs.StringVar(&cfg.provider, "provider", providerGemini, "word generator to use: gemini, openai or none (env: WORDWOLF_PROVIDER)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WORDWOLF_VERBOSE)")

	fs := cmd.Flags()

	fs.SetNormalizeFunc(normalizeFlags)

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDWOLF_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDWOLF_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WORDWOLF_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WORDWOLF_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: WORDWOLF_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WORDWOLF_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WORDWOLF_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WORDWOLF_VERSION)")
	fs.StringVar(&cfg.wordsURL, "words-url", "", "fetch word pairs from another wordwolf server instead of generating them (env: WORDWOLF_WORDS_URL)")

	bindEnv(v, pfs)
	bindEnv(v, fs)

	cmd.AddCommand(newGenerateCmd(cfg, v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordwolf v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
