// Package testutils holds assertion helpers shared by package tests.
package testutils

import (
	"encoding/hex"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewTestLogger returns a logger that discards output unless verbose is set
func NewTestLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetOutput(io.Discard)
	}
	return logger
}

// MustHex decodes a hex string that may contain spaces, colons or dashes
func MustHex(s string) []byte {
	cleaned := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		panic(err)
	}
	return data
}
