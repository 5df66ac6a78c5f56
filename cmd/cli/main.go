package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
)

var (
	verbose    bool
	configFile string
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "echoes",
	Short: "Echoes of Art command-line client",
	Long: `echoes talks to the Echoes of Art API: sign in, browse and publish
writings, like and save posts, and search. Admin commands operate on the
database directly and read the server's environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.InitConfig(configFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if outputFlag != "" {
			viper.Set("output.format", outputFlag)
		}
		cli.InitLogger(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests to the CLI log file")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/echoes/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Output format: text or json")

	rootCmd.AddCommand(authCmd, writingCmd, postCmd, searchCmd, adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		var apiErr *cli.APIError
		if errors.As(err, &apiErr) && apiErr.Suggestion() != "" {
			fmt.Fprintln(os.Stderr, color.YellowString("Hint: %s", apiErr.Suggestion()))
		}
		os.Exit(1)
	}
}

// client builds an API client from config and stored credentials.
func client() (*cli.Client, error) {
	return cli.NewClientFromConfig()
}
