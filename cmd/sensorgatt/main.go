package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sensorgatt",
	Short: "Glucose and barometer GATT decoding tool",
	Long: `Decoder and record access tool for Bluetooth glucose meters and the
sensor-hub barometer:

- Decode Glucose Measurement, Measurement Context and RACP values
- Decode barometer sensor type, filter, scan interval, pressure and threshold
- Build Record Access Control Point commands
- Run a simulated meter and replay a record transfer against it`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// main() prints errors itself
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("sensorgatt {{.Version}} (commit %s, built %s)\n", commit, date))

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(racpCmd)
	rootCmd.AddCommand(simulateCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
