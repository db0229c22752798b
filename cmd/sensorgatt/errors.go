package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/pkg/codec"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
)

// Command-level errors
var (
	// ErrInvalidHex indicates a value argument that is not a hex byte string
	ErrInvalidHex = errors.New("invalid hex data")
)

// FormatUserError renders err as a single line for the terminal
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var decodeErr *codec.DecodeError
	var respErr *racp.ResponseCodeError
	var dupErr *glucose.DuplicateError
	var notFound *device.NotFoundError

	switch {
	case errors.As(err, &decodeErr):
		return "cannot decode value: " + decodeErr.Error()
	case errors.As(err, &respErr):
		return fmt.Sprintf("meter rejected %s: %s", respErr.Request, respErr.Code)
	case errors.Is(err, racp.ErrTimeout):
		return "meter did not answer the control point request in time"
	case errors.Is(err, racp.ErrBusy):
		return "a control point request is already in progress"
	case errors.As(err, &dupErr):
		return fmt.Sprintf("duplicate %s for sequence number %d", dupErr.What, dupErr.SequenceNumber)
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.Is(err, device.ErrUnknownCharacteristic):
		return err.Error() + " (use one of: " + strings.Join(roleNames(), ", ") + ")"
	case errors.Is(err, device.ErrNotConnected):
		return "meter is not connected"
	}
	return err.Error()
}

func roleNames() []string {
	names := make([]string, 0, len(device.Roles))
	for _, r := range device.Roles {
		names = append(names, string(r))
	}
	return names
}
