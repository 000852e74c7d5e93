package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"namesilo-dns01/challenge"
	"namesilo-dns01/hook"
	"namesilo-dns01/namesilo"
	"namesilo-dns01/propagation"
	"namesilo-dns01/utils"
)

var command = &cobra.Command{
	Use:   "namesilo-dns01",
	Short: "certbot manual hook for DNS-01 challenges on NameSilo domains",
	Long: `Without a sub-command, runs as a certbot --manual-auth-hook, or as a
--manual-cleanup-hook when CERTBOT_AUTH_OUTPUT is set.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		conf, err := utils.InitConfig()
		if err != nil {
			utils.Logger.Fatal().Err(err).Msg("Invalid configuration")
		}
		utils.InitLogger(conf.LogFile, conf.LogLevel)
	},
	Run: func(cmd *cobra.Command, args []string) {
		conf := utils.GetConfig()
		if conf.AuthOutput != "" {
			cleanupCommand.PreRun(cmd, args)
			cleanupCommand.Run(cmd, args)
			return
		}
		authCommand.PreRun(cmd, args)
		authCommand.Run(cmd, args)
	},
}

var authCommand = &cobra.Command{
	Use:   "auth",
	Short: "Publish the challenge record and wait for the authoritative servers to serve it",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := validateAuth(utils.GetConfig()); err != nil {
			utils.Logger.Fatal().Err(err).Msg("Invalid configuration")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		conf := utils.GetConfig()
		utils.Logger.Info().
			Str("domain", conf.Domain).
			Str("all_domains", conf.AllDomains).
			Str("remaining_challenges", conf.RemainingChallenges).
			Str("validation", conf.Validation).
			Msg("Starting DNS-01 authentication")

		h, _ := newHook(conf)
		if _, err := h.Auth(cmd.Context(), conf.Domain, conf.Validation); err != nil {
			utils.Logger.Fatal().Err(err).Str("domain", conf.Domain).Msg("Failed to publish challenge record")
		}
	},
}

var cleanupCommand = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete the challenge records published by auth",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := validateCleanup(utils.GetConfig()); err != nil {
			utils.Logger.Fatal().Err(err).Msg("Invalid configuration")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		conf := utils.GetConfig()
		if conf.AuthOutput != "" {
			utils.Logger.Info().Str("auth_output", conf.AuthOutput).Msg("Output of the auth hook")
		}

		h, _ := newHook(conf)
		if err := h.Cleanup(cmd.Context(), conf.Domain); err != nil {
			utils.Logger.Fatal().Err(err).Str("domain", conf.Domain).Msg("Failed to clean up challenge records")
		}
	},
}

func newHook(conf *utils.Config) (*hook.Hook, *propagation.Watcher) {
	client, err := namesilo.NewClient(conf.Key, namesilo.WithBaseURL(conf.APIURL))
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("Failed to create NameSilo client")
	}

	watcher := propagation.New(conf.NameServers)
	watcher.Timeout = conf.PropagationTimeout
	watcher.Interval = conf.PollInterval
	watcher.OnProgress = hook.LogProgress

	return &hook.Hook{
		Registrar: client,
		Waiter:    watcher,
		CacheDir:  conf.CacheDir,
		TTL:       conf.TTL,
	}, watcher
}

func bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.String("key", "", "NameSilo API key (required)")
	flags.String("api-url", namesilo.DefaultBaseURL, "NameSilo API base URL")
	flags.Int("ttl", challenge.DefaultTTL, "TTL of the challenge record in seconds")
	flags.String("cache-dir", os.TempDir(), "Directory holding the record ids between auth and cleanup")
	flags.StringSlice("nameservers", propagation.DefaultNameServers, "Authoritative name servers to poll")
	flags.Duration("propagation-timeout", propagation.DefaultTimeout, "How long to wait for the record to be served")
	flags.Duration("poll-interval", propagation.DefaultInterval, "Delay between two propagation checks")
	flags.String("log-file", "", "Also write logs to this file, rotated")
	flags.String("log-level", "info", "Log level")

	for _, name := range []string{"key", "api-url", "ttl", "cache-dir", "nameservers", "propagation-timeout", "poll-interval", "log-file", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			utils.Logger.Fatal().Err(err).Str("flag", name).Msg("Failed to bind flag")
		}
	}

	for _, name := range []string{"domain", "validation", "remaining-challenges", "all-domains", "auth-output"} {
		key := "certbot-" + name
		if err := viper.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, "-", "_"))); err != nil {
			utils.Logger.Fatal().Err(err).Str("key", key).Msg("Failed to bind environment variable")
		}
	}
}

func Execute() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("NAMESILO")
	viper.AutomaticEnv()

	bindFlags(command)
	bindObtainFlags(obtainCommand)

	command.AddCommand(authCommand, cleanupCommand, obtainCommand)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.ExecuteContext(ctx); err != nil {
		utils.Logger.Fatal().Err(err).Msg("Failed to run namesilo-dns01")
	}
}
