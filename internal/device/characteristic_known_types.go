package device

import (
	"fmt"

	"github.com/srg/sensorgatt/pkg/barometer"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
)

// CharacteristicParser is a function that parses a characteristic value
type CharacteristicParser func([]byte) (interface{}, error)

// ParseOptions tune value parsing
type ParseOptions struct {
	IgnoreReservedFlags bool
	Scale               barometer.Scale
}

// DefaultParseOptions rejects reserved flags and reports pressure in hPa
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Scale: barometer.DefaultScale()}
}

// Parsers returns the parser for every role under opts
func Parsers(opts ParseOptions) map[Role]CharacteristicParser {
	var measurementOpts []glucose.DecodeOption
	if opts.IgnoreReservedFlags {
		measurementOpts = append(measurementOpts, glucose.IgnoreReservedFlags())
	}

	return map[Role]CharacteristicParser{
		RoleGlucoseMeasurement: func(v []byte) (interface{}, error) { return glucose.DecodeMeasurement(v, measurementOpts...) },
		RoleGlucoseContext:     func(v []byte) (interface{}, error) { return glucose.DecodeContext(v) },
		RoleRACP:               parseRACP,
		RoleBaroSensorType:     func(v []byte) (interface{}, error) { return barometer.DecodeSensorType(v) },
		RoleBaroScanInterval:   func(v []byte) (interface{}, error) { return barometer.DecodeScanInterval(v) },
		RoleBaroFilter:         func(v []byte) (interface{}, error) { return barometer.DecodeFilterConfig(v) },
		RoleBaroThreshold:      func(v []byte) (interface{}, error) { return barometer.DecodeThreshold(v, opts.Scale) },
		RoleBaroPressure:       func(v []byte) (interface{}, error) { return barometer.DecodePressure(v, opts.Scale) },
	}
}

// parseRACP accepts either direction: indications from the server, or commands written by a client
func parseRACP(value []byte) (interface{}, error) {
	if len(value) > 0 {
		switch racp.OpCode(value[0]) {
		case racp.ResponseCodeOp, racp.NumberOfStoredRecordsResponse:
			return racp.DecodeIndication(value)
		}
	}
	return racp.DecodeCommand(value)
}

// BarometerKind maps a barometer role to its Reading field
func BarometerKind(role Role) (barometer.Kind, bool) {
	switch role {
	case RoleBaroSensorType:
		return barometer.KindSensorType, true
	case RoleBaroScanInterval:
		return barometer.KindScanInterval, true
	case RoleBaroFilter:
		return barometer.KindFilter, true
	case RoleBaroThreshold:
		return barometer.KindThreshold, true
	case RoleBaroPressure:
		return barometer.KindPressure, true
	}
	return "", false
}

// IsParsableCharacteristic returns true if the characteristic UUID supports value parsing
func (p *Profile) IsParsableCharacteristic(uuid string) bool {
	_, ok := p.Role(uuid)
	return ok
}

// ParseCharacteristicValue parses a characteristic value based on its UUID.
// Well-known descriptor UUIDs are parsed as descriptors. Unknown UUIDs fail with
// ErrUnknownCharacteristic.
func (p *Profile) ParseCharacteristicValue(uuid string, value []byte, opts ParseOptions) (interface{}, error) {
	role, ok := p.Role(uuid)
	if !ok {
		if IsKnownDescriptor(uuid) {
			return ParseDescriptorValue(uuid, value)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, NormalizeUUID(uuid))
	}
	return Parsers(opts)[role](value)
}
