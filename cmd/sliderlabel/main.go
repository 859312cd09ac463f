package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sliderlabel/pkg/version"
)

const (
	defaultConfigPath = "configs/sliderlabel.yaml"
	configEnv         = "SLIDERLABEL_CONFIG"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. --config wins over SLIDERLABEL_CONFIG,
// which may also come from a .env file in the working directory.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "sliderlabel",
		Short: "Place sliding point labels by force-directed simulated annealing",
		Long: `sliderlabel assigns every input point a horizontal label that may slide
along a band anchored at the point. Overlapping labels repel each other;
labels that cannot be freed are dropped.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			if !cmd.Flags().Changed("config") {
				if p := os.Getenv(configEnv); p != "" {
					configPath = p
				}
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML config file")

	cfgPath := func() string { return configPath }
	root.AddCommand(
		newPlaceCmd(cfgPath),
		newServeCmd(cfgPath),
		newRunsCmd(cfgPath),
		newInitConfigCmd(cfgPath),
	)
	return root
}
