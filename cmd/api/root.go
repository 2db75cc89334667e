package main

import (
	"fmt"

	"go-plant-inspector/internal/config"
	"go-plant-inspector/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "plant-inspector",
	Short: "Plant image analysis service with PDF reports",
	Long: `plant-inspector sends photographed plants to a vision-language model and
returns a plain-text analysis. The same analysis can be rendered as a PDF
report, served over HTTP or written locally.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.SetLevel(loaded.LogLevel)
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (defaults to CONFIG_PATH)")
}
