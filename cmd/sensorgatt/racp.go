package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/pkg/racp"
)

// racpCmd represents the racp command
var racpCmd = &cobra.Command{
	Use:   "racp <opcode> <operator> [operand...]",
	Short: "Build or decode a Record Access Control Point value",
	Long: `Builds the bytes of a Record Access Control Point command, or decodes a
command or indication with --decode.

Opcodes: report, delete, abort, count, latest (or the numeric value).
Operators: null, all, lte, range, gte, first, last (or the numeric value).

Examples:
  # Report records 10 to 20
  sensorgatt racp report range 10 20

  # Number of stored records
  sensorgatt racp count all

  # Decode a response indication
  sensorgatt racp --decode "06 00 01 06"`,
	Args: cobra.ArbitraryArgs,
	RunE: runRACP,
}

var (
	racpDecode string
	racpJSON   bool
)

func init() {
	racpCmd.Flags().StringVar(&racpDecode, "decode", "", "Decode a command or indication given as hex")
	racpCmd.Flags().BoolVar(&racpJSON, "json", false, "Output as JSON")
}

func runRACP(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout())

	if racpDecode != "" {
		if len(args) > 0 {
			return fmt.Errorf("--decode takes no positional arguments")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		profile, err := cfg.Profile()
		if err != nil {
			return err
		}
		data, err := parseHex(racpDecode)
		if err != nil {
			return err
		}
		value, err := profile.ParseCharacteristicValue(profile.UUID(device.RoleRACP), data, cfg.ParseOptions())
		if err != nil {
			return err
		}
		if racpJSON {
			return p.JSON(value)
		}
		p.Fields(describe(value))
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("requires an opcode and an operator, or --decode")
	}
	command, err := parseCommand(args[0], args[1], args[2:])
	if err != nil {
		return err
	}
	data, err := racp.Encode(command)
	if err != nil {
		return err
	}

	if racpJSON {
		return p.JSON(struct {
			Command racp.Command `json:"command"`
			Hex     string       `json:"hex"`
		}{command, formatHex(data)})
	}
	fmt.Fprintln(p.out, formatHex(data))
	return nil
}

// parseCommand builds a validated command from CLI names or numbers
func parseCommand(opStr, operatorStr string, operandStrs []string) (racp.Command, error) {
	op, err := racp.ParseOpCode(opStr)
	if err != nil {
		n, numErr := strconv.ParseUint(opStr, 0, 8)
		if numErr != nil {
			return racp.Command{}, err
		}
		op = racp.OpCode(n)
	}

	operator, err := racp.ParseOperator(operatorStr)
	if err != nil {
		n, numErr := strconv.ParseUint(operatorStr, 0, 8)
		if numErr != nil {
			return racp.Command{}, err
		}
		operator = racp.Operator(n)
	}

	operand := make([]uint16, 0, len(operandStrs))
	for _, s := range operandStrs {
		n, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return racp.Command{}, fmt.Errorf("invalid operand %q: %w", s, err)
		}
		operand = append(operand, uint16(n))
	}

	return racp.NewCommand(op, operator, operand...)
}
