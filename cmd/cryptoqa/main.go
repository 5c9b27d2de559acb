package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/andyle182810/cryptoqa/cmcapi"
	"github.com/andyle182810/cryptoqa/config"
	"github.com/andyle182810/cryptoqa/httpclient"
	"github.com/andyle182810/cryptoqa/logutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ErrChecksFailed = errors.New("one or more checks failed")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, ErrChecksFailed) {
			log.Error().Err(err).Msg("Command exited with an error")
		}

		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		configPath: "",
		envFiles:   nil,
	}

	root := &cobra.Command{
		Use:           "cryptoqa",
		Short:         "Synthetic checks against a cryptocurrency market-data API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, ".env files to load before reading the environment")

	root.AddCommand(newCheckCmd(opts), newMonitorCmd(opts))

	return root
}

// load reads the configuration and installs the global logger.
func (o *rootOptions) load() (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logutil.Setup(cfg.LogLevel, cfg.LogFormat)

	log.Debug().
		Str("base_url", cfg.API.BaseURL).
		Str("api_key", cfg.API.MaskedKey()).
		Int("retry_count", cfg.API.RetryCount).
		Dur("retry_delay", cfg.API.RetryDelay).
		Float64("retry_backoff", cfg.API.RetryBackoff).
		Msg("Configuration loaded")

	if cfg.API.APIKey == "" {
		log.Warn().Msg("No API key configured, requests will be unauthenticated")
	}

	return cfg, nil
}

func newAPIClient(cfg *config.Config) *cmcapi.Client {
	return cmcapi.New(httpclient.New(cfg.API.BaseURL, cfg.API.ClientOptions()...))
}
