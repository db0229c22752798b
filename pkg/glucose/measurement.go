package glucose

import (
	"time"

	"github.com/srg/sensorgatt/pkg/codec"
)

// Glucose Measurement flags (org.bluetooth.characteristic.glucose_measurement)
const (
	FlagTimeOffset     uint8 = 1 << 0
	FlagConcentration  uint8 = 1 << 1 // concentration and type/sample location present
	FlagUnitMolPerL    uint8 = 1 << 2
	FlagSensorStatus   uint8 = 1 << 3
	FlagContextFollows uint8 = 1 << 4

	measurementReservedFlags uint8 = 0xE0
)

// Concentration is a glucose concentration with its unit
type Concentration struct {
	Value codec.SFloat      `json:"value"`
	Unit  ConcentrationUnit `json:"unit"`
}

// TypeLocation is the type/sample-location nibble pair.
// On the wire Type is the high nibble and Location the low nibble.
type TypeLocation struct {
	Type     SampleType     `json:"type"`
	Location SampleLocation `json:"location"`
}

func parseTypeLocation(b uint8) TypeLocation {
	return TypeLocation{Type: SampleType(b >> 4), Location: SampleLocation(b & 0x0F)}
}

func (tl TypeLocation) pack() uint8 {
	return uint8(tl.Type)<<4 | uint8(tl.Location)&0x0F
}

// Record is a decoded Glucose Measurement. Optional fields are nil when their flag is clear.
type Record struct {
	SequenceNumber uint16         `json:"sequence_number"`
	BaseTime       codec.DateTime `json:"base_time"`
	TimeOffset     *int16         `json:"time_offset,omitempty"` // minutes
	Concentration  *Concentration `json:"concentration,omitempty"`
	TypeLocation   *TypeLocation  `json:"type_location,omitempty"`
	SensorStatus   *SensorStatus  `json:"sensor_status,omitempty"`
	ContextFollows bool           `json:"context_follows"`
}

// Timestamp is the base time shifted by the time offset, in UTC
func (r *Record) Timestamp() time.Time {
	ts := r.BaseTime.Time(time.UTC)
	if r.TimeOffset != nil {
		ts = ts.Add(time.Duration(*r.TimeOffset) * time.Minute)
	}
	return ts
}

// Flags returns the flags byte implied by the record's populated fields
func (r *Record) Flags() uint8 {
	var flags uint8
	if r.TimeOffset != nil {
		flags |= FlagTimeOffset
	}
	if r.Concentration != nil {
		flags |= FlagConcentration
		if r.Concentration.Unit == MolPerLiter {
			flags |= FlagUnitMolPerL
		}
	}
	if r.SensorStatus != nil {
		flags |= FlagSensorStatus
	}
	if r.ContextFollows {
		flags |= FlagContextFollows
	}
	return flags
}

// DecodeOption adjusts decoder policy
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	ignoreReserved bool
}

// IgnoreReservedFlags accepts measurements with reserved flag bits set instead of failing
func IgnoreReservedFlags() DecodeOption {
	return func(o *decodeOptions) { o.ignoreReserved = true }
}

// DecodeMeasurement decodes one Glucose Measurement notification.
//
// Layout: flags(1) seq(2) base_time(7) [time_offset(2)] [concentration(2) type_location(1)] [sensor_status(2)].
// The buffer must be exactly as long as the flags imply.
func DecodeMeasurement(data []byte, opts ...DecodeOption) (*Record, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := codec.NewReader(data)
	flags, err := r.Uint8("flags")
	if err != nil {
		return nil, err
	}
	if flags&measurementReservedFlags != 0 && !o.ignoreReserved {
		return nil, &codec.DecodeError{Kind: codec.ReservedFlagsSet, Field: "flags", Value: uint64(flags)}
	}

	rec := &Record{ContextFollows: flags&FlagContextFollows != 0}
	if rec.SequenceNumber, err = r.Uint16("sequence_number"); err != nil {
		return nil, err
	}
	if rec.BaseTime, err = r.DateTime("base_time"); err != nil {
		return nil, err
	}

	if flags&FlagTimeOffset != 0 {
		offset, err := r.Int16("time_offset")
		if err != nil {
			return nil, err
		}
		rec.TimeOffset = &offset
	}

	if flags&FlagConcentration != 0 {
		value, err := r.SFloat("concentration")
		if err != nil {
			return nil, err
		}
		unit := KgPerLiter
		if flags&FlagUnitMolPerL != 0 {
			unit = MolPerLiter
		}
		rec.Concentration = &Concentration{Value: value, Unit: unit}

		tl, err := r.Uint8("type_location")
		if err != nil {
			return nil, err
		}
		typeLocation := parseTypeLocation(tl)
		rec.TypeLocation = &typeLocation
	}

	if flags&FlagSensorStatus != 0 {
		status, err := r.Uint16("sensor_status")
		if err != nil {
			return nil, err
		}
		s := SensorStatus(status)
		rec.SensorStatus = &s
	}

	if err := r.Done(); err != nil {
		return nil, err
	}
	return rec, nil
}

// EncodeMeasurement is the inverse of DecodeMeasurement.
// A concentration without a type/location is encoded with a zero type/location byte.
func EncodeMeasurement(rec *Record) []byte {
	flags := rec.Flags()
	w := codec.NewWriter(17).
		Uint8(flags).
		Uint16(rec.SequenceNumber).
		DateTime(rec.BaseTime)

	if rec.TimeOffset != nil {
		w.Int16(*rec.TimeOffset)
	}
	if rec.Concentration != nil {
		w.SFloat(rec.Concentration.Value)
		var tl TypeLocation
		if rec.TypeLocation != nil {
			tl = *rec.TypeLocation
		}
		w.Uint8(tl.pack())
	}
	if rec.SensorStatus != nil {
		w.Uint16(uint16(*rec.SensorStatus))
	}
	return w.Bytes()
}
