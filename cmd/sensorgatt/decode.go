package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/sensorgatt/internal/bledb"
	"github.com/srg/sensorgatt/internal/device"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <characteristic> <hex>",
	Short: "Decode a characteristic value",
	Long: `Decodes one characteristic value captured from a meter.

The characteristic is a UUID or one of the aliases: measurement, context, racp,
baro-type, baro-interval, baro-filter, baro-threshold, baro-pressure.
Well-known descriptor UUIDs (2902, 2901, ...) are decoded as descriptors.

Examples:
  # Glucose measurement with time offset and concentration
  sensorgatt decode measurement "1B 01 00 E8 07 03 0F 08 1E 00 FB FF 41 C0 12 00 00"

  # Control point response indication
  sensorgatt decode 2a52 06000101

  # Barometer pressure as JSON
  sensorgatt decode baro-pressure CD8B0100 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

var (
	decodeJSON    bool
	decodeLenient bool
)

func init() {
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "Output as JSON")
	decodeCmd.Flags().BoolVar(&decodeLenient, "lenient", false, "Ignore reserved flag bits in glucose measurements")
}

// decodedValue is the JSON shape of a decoded characteristic value
type decodedValue struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Value any    `json:"value"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	uuid, role, err := profile.Resolve(args[0])
	if err != nil && !device.IsKnownDescriptor(uuid) {
		return err
	}
	data, err := parseHex(args[1])
	if err != nil {
		return err
	}

	opts := cfg.ParseOptions()
	if decodeLenient {
		opts.IgnoreReservedFlags = true
	}

	logger.WithFields(logrus.Fields{"uuid": uuid, "bytes": len(data)}).Debug("Decoding value")
	value, err := profile.ParseCharacteristicValue(uuid, data, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", uuid, err)
	}

	name := bledb.LookupCharacteristic(uuid)
	if role == "" {
		name = bledb.LookupDescriptor(uuid)
	}

	p := newPrinter(cmd.OutOrStdout())
	if decodeJSON {
		return p.JSON(decodedValue{UUID: uuid, Name: name, Role: string(role), Value: value})
	}

	header := uuid
	if name != "" {
		header = fmt.Sprintf("%s (%s)", name, uuid)
	}
	fmt.Fprintln(p.out, p.faint.Sprint(header))
	p.Fields(describe(value))
	return nil
}
