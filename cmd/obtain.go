package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"namesilo-dns01/certs"
	"namesilo-dns01/utils"
)

var obtainCommand = &cobra.Command{
	Use:   "obtain",
	Short: "Obtain or renew a certificate with lego, solving DNS-01 through NameSilo",
	PreRun: func(cmd *cobra.Command, args []string) {
		conf := utils.GetConfig()
		if err := validateObtain(conf); err != nil {
			utils.Logger.Fatal().Err(err).Msg("Invalid configuration")
		}
		if err := certs.ConfigurePaths(conf); err != nil {
			utils.Logger.Fatal().Err(err).Msg("Invalid configuration")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		conf := utils.GetConfig()

		account, err := certs.LoadAccount(conf)
		if err != nil {
			utils.Logger.Fatal().Err(err).Msg("Failed to load ACME account")
		}

		h, watcher := newHook(conf)
		provider := certs.NewProvider(cmd.Context(), h, watcher)
		certsClient, err := certs.NewCertsClient(conf, account, provider)
		if err != nil {
			utils.Logger.Fatal().Err(err).Msg("Failed to initialize lego client")
		}

		if err := certsClient.RequestCertificate(conf.Domains); err != nil {
			utils.Logger.Fatal().Err(err).Strs("domains", conf.Domains).Msg("Failed to obtain certificate")
		}
	},
}

func bindObtainFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "ACME account email address (required)")

	cmd.Flags().StringSlice("domains", nil, "Domains to put on the certificate (required)")

	cmd.Flags().Bool("staging", false, "Enable to use the Let's Encrypt staging environment to obtain certificates")

	cmd.Flags().String("lego-dir", ".lego", "Directory for ACME accounts and certificates")

	for _, name := range []string{"email", "domains", "staging", "lego-dir"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			utils.Logger.Fatal().Err(err).Str("flag", name).Msg("Failed to bind flag")
		}
	}
}
