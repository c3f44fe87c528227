package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seednode/wordwolf/games/wordwolf"
	"github.com/Seednode/wordwolf/words"
)

type generateOptions struct {
	server string
	theme  string
}

// newGenerateCmd prints one word pair for a theme, either from a running
// server or from an in-process word service.
func newGenerateCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one word pair for a theme as JSON.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateWords(); err != nil {
				return err
			}
			return runGenerate(cmd, cfg, opts)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(normalizeFlags)

	fs.StringVar(&opts.server, "server", "", "base URL of a wordwolf server to ask instead (env: WORDWOLF_SERVER)")
	fs.StringVarP(&opts.theme, "theme", "t", "", "theme to generate a word pair for (env: WORDWOLF_THEME)")

	_ = cmd.MarkFlagRequired("theme")

	bindEnv(v, fs)

	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *Config, opts *generateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.generateTimeout)
	defer cancel()

	var source wordwolf.WordSource

	if opts.server != "" {
		source = words.NewClient(opts.server, &http.Client{Timeout: cfg.generateTimeout})
	} else {
		svc, release, err := newWordService(cfg)
		if err != nil {
			return err
		}
		defer release()

		source = svc
	}

	pair, err := source.Supply(ctx, opts.theme)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)

	return enc.Encode(pair)
}
