package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/canal-org/canal/internal/api"
	"github.com/canal-org/canal/internal/core"
)

var (
	cfgFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the canal server",

		Run: func(cmd *cobra.Command, args []string) {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			config, err := core.NewConfig(cfgFile)
			if err != nil {
				logger.Fatal().Err(err).Msg("load config")
			}

			app, err := api.New(config, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("start app")
			}
			defer app.Close()

			logger.Fatal().Err(app.Listen()).Msg("server stopped")
		},
	}
)

func init() {
	serveCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "/etc/config/canal.yml", "config file (default is /etc/config/canal.yml)")
}
