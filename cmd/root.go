// Package cmd implements the introsim command line interface. It wires the
// call centre model, the experiment configuration, and the simulation
// services together.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// envPrefix is the prefix of the environment variables that provide flag
// defaults.
const envPrefix = "INTROSIM"

var logLevel string // Log verbosity level

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:          "introsim",
	Short:        "Discrete-event simulation of an urgent care call centre",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := applyEnvDefaults(cmd); err != nil {
			return err
		}

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)

		return nil
	},
}

// applyEnvDefaults fills the flags the command line left untouched from the
// environment, loading a .env file first when one is present. The variable
// for a flag is the flag name upper-cased, with dashes as underscores, under
// the INTROSIM prefix, so --mean-iat reads INTROSIM_MEAN_IAT. A flag given
// on the command line keeps its value.
func applyEnvDefaults(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	var bindErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || bindErr != nil {
			return
		}

		name := envPrefix + "_" +
			strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}

		if err := cmd.Flags().Set(f.Name, value); err != nil {
			bindErr = fmt.Errorf("applying %s: %w", name, err)
		}
	})

	return bindErr
}

// Execute runs the CLI root command. On failure it exits through atexit, so
// the registered recorder flushes still run.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
}
