package cmd

import "github.com/spf13/cobra"

var (
	rootCmd = &cobra.Command{
		Use:   "canal",
		Short: "Stream redis pub/sub channels as server-sent events",
		Long:  `Canal relays messages published on redis pub/sub channels to HTTP clients as server-sent event streams.`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
