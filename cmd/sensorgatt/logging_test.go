package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggerTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().String("config", "", "")
	return cmd
}

func TestConfigureLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		args     []string
		expected string
		wantErr  bool
	}{
		{name: "silent by default", expected: "panic"},
		{name: "verbose", args: []string{"--verbose"}, expected: "debug"},
		{name: "log level wins over verbose", args: []string{"--verbose", "--log-level", "warn"}, expected: "warning"},
		{name: "invalid level", args: []string{"--log-level", "trace"}, wantErr: true},
		{name: "config level applies without flags", config: "log_level: debug\n", expected: "debug"},
		{name: "config file without level stays silent", config: "trace_depth: 8\n", expected: "panic"},
		{name: "verbose wins over config", config: "log_level: error\n", args: []string{"--verbose"}, expected: "debug"},
		{name: "log level wins over config", config: "log_level: debug\n", args: []string{"--log-level", "error"}, expected: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.config != "" {
				path := filepath.Join(t.TempDir(), "sensorgatt.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o600))
				args = append([]string{"--config", path}, args...)
			}

			cmd := newLoggerTestCommand()
			assert.NoError(t, cmd.ParseFlags(args))

			cfg, err := loadConfig(cmd)
			assert.NoError(t, err)

			logger, err := configureLogger(cmd, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, logger.GetLevel().String())
		})
	}
}

// ----------------------------
// Configuration
// ----------------------------

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorgatt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace_depth: 8\nbarometer:\n  pressure_divisor: 1000\n  pressure_unit: kPa\n"), 0o600))

	cmd := newLoggerTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.TraceDepth)
	assert.Equal(t, "kPa", cfg.Scale().Unit)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cmd := newLoggerTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}))

	_, err := loadConfig(cmd)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestDecode_UsesConfiguredScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorgatt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("barometer:\n  pressure_divisor: 1000\n  pressure_unit: kPa\n"), 0o600))

	decodeJSON = true
	t.Cleanup(func() {
		decodeJSON = false
		_ = rootCmd.PersistentFlags().Set("config", "")
	})

	out, err := executeCommand(rootCmd, "decode", "baro-pressure", "CD8B0100", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"unit": "kPa"`)
	assert.Contains(t, out, `"value": 101.325`)
}
