package device

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/srg/sensorgatt/pkg/codec"
)

// Well-known GATT descriptor UUIDs (16-bit short form, normalized without dashes)
const (
	DescriptorExtendedProperties = "2900"
	DescriptorUserDescription    = "2901"
	DescriptorClientConfig       = "2902"
	DescriptorPresentationFormat = "2904"
)

// ExtendedProperties represents the Characteristic Extended Properties descriptor (0x2900)
type ExtendedProperties struct {
	ReliableWrite       bool `json:"reliable_write"`
	WritableAuxiliaries bool `json:"writable_auxiliaries"`
}

// ClientConfig represents the Client Characteristic Configuration descriptor (0x2902).
// Measurement and context subscriptions set Notifications; the control point sets Indications.
type ClientConfig struct {
	Notifications bool `json:"notifications"`
	Indications   bool `json:"indications"`
}

// PresentationFormat represents the Characteristic Presentation Format descriptor (0x2904)
type PresentationFormat struct {
	Format      uint8  `json:"format"`
	Exponent    int8   `json:"exponent"` // value = raw * 10^Exponent
	Unit        uint16 `json:"unit"`
	Namespace   uint8  `json:"namespace"`
	Description uint16 `json:"description"`
}

// Format types used by the glucose and barometer characteristics
const (
	FormatUint8    = 0x04
	FormatUint16   = 0x06
	FormatSint32   = 0x10
	FormatSFloat16 = 0x16
	FormatStruct   = 0x1B
)

func uint16Descriptor(field string, data []byte) (uint16, error) {
	if err := codec.Exact(field, data, 2); err != nil {
		return 0, err
	}
	v, _ := codec.NewReader(data).Uint16(field)
	return v, nil
}

// ParseExtendedProperties parses the Characteristic Extended Properties descriptor value.
func ParseExtendedProperties(data []byte) (*ExtendedProperties, error) {
	value, err := uint16Descriptor("extended_properties", data)
	if err != nil {
		return nil, err
	}
	return &ExtendedProperties{
		ReliableWrite:       (value & 0x0001) != 0,
		WritableAuxiliaries: (value & 0x0002) != 0,
	}, nil
}

// ParseClientConfig parses the Client Characteristic Configuration descriptor value.
func ParseClientConfig(data []byte) (*ClientConfig, error) {
	value, err := uint16Descriptor("client_config", data)
	if err != nil {
		return nil, err
	}
	return &ClientConfig{
		Notifications: (value & 0x0001) != 0,
		Indications:   (value & 0x0002) != 0,
	}, nil
}

// EncodeClientConfig is the inverse of ParseClientConfig
func EncodeClientConfig(c ClientConfig) []byte {
	var v uint16
	if c.Notifications {
		v |= 0x0001
	}
	if c.Indications {
		v |= 0x0002
	}
	return codec.NewWriter(2).Uint16(v).Bytes()
}

// ParseUserDescription parses the Characteristic User Description descriptor value.
func ParseUserDescription(data []byte) (string, error) {
	str := strings.TrimRight(string(data), "\x00")
	if !utf8.ValidString(str) {
		return "", fmt.Errorf("invalid UTF-8 in user description")
	}
	return str, nil
}

// ParsePresentationFormat parses the 7-byte Characteristic Presentation Format descriptor value.
func ParsePresentationFormat(data []byte) (*PresentationFormat, error) {
	if err := codec.Exact("presentation_format", data, 7); err != nil {
		return nil, err
	}
	r := codec.NewReader(data)
	format, _ := r.Uint8("format")
	exponent, _ := r.Uint8("exponent")
	unit, _ := r.Uint16("unit")
	namespace, _ := r.Uint8("namespace")
	description, _ := r.Uint16("description")
	return &PresentationFormat{
		Format:      format,
		Exponent:    int8(exponent),
		Unit:        unit,
		Namespace:   namespace,
		Description: description,
	}, nil
}

// IsKnownDescriptor reports whether uuid is a descriptor ParseDescriptorValue understands
func IsKnownDescriptor(uuid string) bool {
	switch NormalizeUUID(uuid) {
	case DescriptorExtendedProperties, DescriptorUserDescription, DescriptorClientConfig, DescriptorPresentationFormat:
		return true
	}
	return false
}

// ParseDescriptorValue parses a descriptor value based on its UUID.
// Returns raw []byte for unknown descriptors and (nil, nil) for empty data.
func ParseDescriptorValue(uuid string, data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch NormalizeUUID(uuid) {
	case DescriptorExtendedProperties:
		return ParseExtendedProperties(data)
	case DescriptorUserDescription:
		return ParseUserDescription(data)
	case DescriptorClientConfig:
		return ParseClientConfig(data)
	case DescriptorPresentationFormat:
		return ParsePresentationFormat(data)
	default:
		return data, nil
	}
}
