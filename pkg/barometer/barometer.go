package barometer

import (
	"fmt"
	"strings"
	"time"

	"github.com/srg/sensorgatt/pkg/codec"
)

// Kind names one barometer characteristic
type Kind string

const (
	KindSensorType   Kind = "sensor_type"
	KindScanInterval Kind = "scan_interval"
	KindFilter       Kind = "filter_config"
	KindPressure     Kind = "pressure"
	KindThreshold    Kind = "threshold"
)

// Scale converts raw pressure counts to a physical value: value = raw / Divisor
type Scale struct {
	Divisor float64
	Unit    string
}

// DefaultScale reports hectopascals from hundredths
func DefaultScale() Scale {
	return Scale{Divisor: 100, Unit: "hPa"}
}

func (s Scale) apply(raw float64) float64 {
	if s.Divisor == 0 {
		return raw
	}
	return raw / s.Divisor
}

// ----------------------------
// Sensor type
// ----------------------------

type SensorType uint8

const (
	SensorAbsolute     SensorType = 0x00
	SensorGauge        SensorType = 0x01
	SensorDifferential SensorType = 0x02
)

var sensorTypeNames = map[SensorType]string{
	SensorAbsolute:     "Absolute",
	SensorGauge:        "Gauge",
	SensorDifferential: "Differential",
}

func (t SensorType) String() string {
	if name, ok := sensorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(t))
}

func (t SensorType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// DecodeSensorType parses the one-byte sensor type characteristic
func DecodeSensorType(data []byte) (SensorType, error) {
	if err := codec.Exact("sensor_type", data, 1); err != nil {
		return 0, err
	}
	t := SensorType(data[0])
	if _, ok := sensorTypeNames[t]; !ok {
		return 0, codec.InvalidEnum("sensor_type", 0, uint64(data[0]))
	}
	return t, nil
}

// ----------------------------
// Filter configuration
// ----------------------------

type FilterType uint8

const (
	FilterNone          FilterType = 0x00
	FilterLowPass       FilterType = 0x01
	FilterMovingAverage FilterType = 0x02
	FilterMedian        FilterType = 0x03
)

var filterNames = map[FilterType]string{
	FilterNone:          "None",
	FilterLowPass:       "Low pass",
	FilterMovingAverage: "Moving average",
	FilterMedian:        "Median",
}

func (f FilterType) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(f))
}

func (f FilterType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// DecodeFilterConfig parses the one-byte filter configuration characteristic
func DecodeFilterConfig(data []byte) (FilterType, error) {
	if err := codec.Exact("filter_config", data, 1); err != nil {
		return 0, err
	}
	f := FilterType(data[0])
	if _, ok := filterNames[f]; !ok {
		return 0, codec.InvalidEnum("filter_config", 0, uint64(data[0]))
	}
	return f, nil
}

// EncodeFilterConfig returns the value to write to the filter configuration characteristic
func EncodeFilterConfig(f FilterType) ([]byte, error) {
	if _, ok := filterNames[f]; !ok {
		return nil, codec.InvalidEnum("filter_config", 0, uint64(f))
	}
	return []byte{uint8(f)}, nil
}

// ----------------------------
// Scan interval
// ----------------------------

// ScanInterval is the sensor sampling period in tenths of a second
type ScanInterval uint16

func (s ScanInterval) Duration() time.Duration {
	return time.Duration(s) * 100 * time.Millisecond
}

func (s ScanInterval) String() string { return s.Duration().String() }

// DecodeScanInterval parses the u16-LE scan interval characteristic
func DecodeScanInterval(data []byte) (ScanInterval, error) {
	if err := codec.Exact("scan_interval", data, 2); err != nil {
		return 0, err
	}
	v, _ := codec.NewReader(data).Uint16("scan_interval")
	return ScanInterval(v), nil
}

// EncodeScanInterval converts d to tenths of a second. d must be a whole number of
// tenths between 0.1 s and 6553.5 s.
func EncodeScanInterval(d time.Duration) ([]byte, error) {
	tenths := d / (100 * time.Millisecond)
	if d%(100*time.Millisecond) != 0 || tenths < 1 || tenths > 0xFFFF {
		return nil, &codec.DecodeError{Kind: codec.InvalidOperand, Field: "scan_interval",
			Msg: fmt.Sprintf("scan interval %s is not a whole number of tenths in 0.1s..6553.5s", d)}
	}
	return codec.NewWriter(2).Uint16(uint16(tenths)).Bytes(), nil
}

// ----------------------------
// Pressure and threshold
// ----------------------------

// Pressure is one scaled pressure sample
type Pressure struct {
	Raw   int32   `json:"raw"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (p Pressure) String() string {
	return fmt.Sprintf("%.2f %s", p.Value, p.Unit)
}

// DecodePressure parses the i32-LE pressure characteristic and scales it
func DecodePressure(data []byte, scale Scale) (Pressure, error) {
	if err := codec.Exact("pressure", data, 4); err != nil {
		return Pressure{}, err
	}
	raw, _ := codec.NewReader(data).Int32("pressure")
	return Pressure{Raw: raw, Value: scale.apply(float64(raw)), Unit: scale.Unit}, nil
}

// Threshold is the pressure alert threshold, in the same scale as Pressure
type Threshold struct {
	Raw   uint16  `json:"raw"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (t Threshold) String() string {
	return fmt.Sprintf("%.2f %s", t.Value, t.Unit)
}

// DecodeThreshold parses the u16-LE threshold characteristic
func DecodeThreshold(data []byte, scale Scale) (Threshold, error) {
	if err := codec.Exact("threshold", data, 2); err != nil {
		return Threshold{}, err
	}
	raw, _ := codec.NewReader(data).Uint16("threshold")
	return Threshold{Raw: raw, Value: scale.apply(float64(raw)), Unit: scale.Unit}, nil
}

// EncodeThreshold converts a physical threshold back to raw counts
func EncodeThreshold(value float64, scale Scale) ([]byte, error) {
	raw := value
	if scale.Divisor != 0 {
		raw = value * scale.Divisor
	}
	if raw < 0 || raw > 0xFFFF || raw != float64(uint16(raw)) {
		return nil, &codec.DecodeError{Kind: codec.InvalidOperand, Field: "threshold",
			Msg: fmt.Sprintf("threshold %g %s is not representable", value, scale.Unit)}
	}
	return codec.NewWriter(2).Uint16(uint16(raw)).Bytes(), nil
}

// ----------------------------
// Reading
// ----------------------------

// Reading aggregates the latest value of every barometer characteristic
type Reading struct {
	Pressure     *Pressure     `json:"pressure,omitempty"`
	ScanInterval *ScanInterval `json:"scan_interval,omitempty"`
	SensorType   *SensorType   `json:"sensor_type,omitempty"`
	Filter       *FilterType   `json:"filter,omitempty"`
	Threshold    *Threshold    `json:"threshold,omitempty"`
}

// Apply decodes data as kind and stores it. The reading is unchanged on error.
func (r *Reading) Apply(kind Kind, data []byte, scale Scale) error {
	switch kind {
	case KindSensorType:
		v, err := DecodeSensorType(data)
		if err != nil {
			return err
		}
		r.SensorType = &v
	case KindScanInterval:
		v, err := DecodeScanInterval(data)
		if err != nil {
			return err
		}
		r.ScanInterval = &v
	case KindFilter:
		v, err := DecodeFilterConfig(data)
		if err != nil {
			return err
		}
		r.Filter = &v
	case KindPressure:
		v, err := DecodePressure(data, scale)
		if err != nil {
			return err
		}
		r.Pressure = &v
	case KindThreshold:
		v, err := DecodeThreshold(data, scale)
		if err != nil {
			return err
		}
		r.Threshold = &v
	default:
		return fmt.Errorf("unknown barometer characteristic %q", kind)
	}
	return nil
}

func (r Reading) String() string {
	var parts []string
	if r.Pressure != nil {
		parts = append(parts, "pressure="+r.Pressure.String())
	}
	if r.Threshold != nil {
		parts = append(parts, "threshold="+r.Threshold.String())
	}
	if r.SensorType != nil {
		parts = append(parts, "type="+r.SensorType.String())
	}
	if r.Filter != nil {
		parts = append(parts, "filter="+r.Filter.String())
	}
	if r.ScanInterval != nil {
		parts = append(parts, "interval="+r.ScanInterval.String())
	}
	if len(parts) == 0 {
		return "no barometer data"
	}
	return strings.Join(parts, " ")
}
