package device

import (
	"fmt"
	"strings"

	"github.com/srg/sensorgatt/internal/bledb"
)

// NormalizeUUID is re-exported from bledb for convenience.
// It converts a UUID string to the internal format (lowercase, no dashes) and reduces
// SIG-base UUIDs to their 16-bit form. Returns "" for malformed input.
func NormalizeUUID(uuid string) string {
	return bledb.NormalizeUUID(uuid)
}

// ShortenUUID returns a truncated version of a UUID for display purposes.
func ShortenUUID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns normalized UUID strings or an error.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, uuid := range uuids {
		if uuid == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		normalized := NormalizeUUID(uuid)
		if normalized == "" {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
		}
		result = append(result, normalized)
	}
	return result, nil
}

// Glucose profile UUIDs (16-bit short form)
const (
	ServiceGlucose                    = "1808"
	CharacteristicGlucoseMeasurement  = "2a18"
	CharacteristicGlucoseContext      = "2a34"
	CharacteristicRecordAccessControl = "2a52"
)

// Role identifies what a characteristic carries
type Role string

const (
	RoleGlucoseMeasurement Role = "measurement"
	RoleGlucoseContext     Role = "context"
	RoleRACP               Role = "racp"
	RoleBaroSensorType     Role = "baro-type"
	RoleBaroScanInterval   Role = "baro-interval"
	RoleBaroFilter         Role = "baro-filter"
	RoleBaroThreshold      Role = "baro-threshold"
	RoleBaroPressure       Role = "baro-pressure"
)

// Roles lists every role in display order
var Roles = []Role{
	RoleGlucoseMeasurement, RoleGlucoseContext, RoleRACP,
	RoleBaroSensorType, RoleBaroScanInterval, RoleBaroFilter, RoleBaroThreshold, RoleBaroPressure,
}

// BarometerUUIDs names the vendor barometer service and its characteristics
type BarometerUUIDs struct {
	Service      string `yaml:"service" default:"00040001-0000-1000-8000-00805f9b0131"`
	SensorType   string `yaml:"sensor_type" default:"00040002-0000-1000-8000-00805f9b0131"`
	ScanInterval string `yaml:"scan_interval" default:"00040003-0000-1000-8000-00805f9b0131"`
	Filter       string `yaml:"filter_config" default:"00040004-0000-1000-8000-00805f9b0131"`
	Threshold    string `yaml:"threshold" default:"00040005-0000-1000-8000-00805f9b0131"`
	Pressure     string `yaml:"pressure" default:"00040006-0000-1000-8000-00805f9b0131"`
}

// DefaultBarometerUUIDs returns the sensor-hub barometer layout
func DefaultBarometerUUIDs() BarometerUUIDs {
	return BarometerUUIDs{
		Service:      "00040001-0000-1000-8000-00805f9b0131",
		SensorType:   "00040002-0000-1000-8000-00805f9b0131",
		ScanInterval: "00040003-0000-1000-8000-00805f9b0131",
		Filter:       "00040004-0000-1000-8000-00805f9b0131",
		Threshold:    "00040005-0000-1000-8000-00805f9b0131",
		Pressure:     "00040006-0000-1000-8000-00805f9b0131",
	}
}

// Profile maps normalised characteristic UUIDs to roles
type Profile struct {
	byUUID map[string]Role
	byRole map[Role]string
	baroSv string
}

// NewProfile builds the glucose profile plus the given barometer layout
func NewProfile(baro BarometerUUIDs) (*Profile, error) {
	p := &Profile{
		byUUID: make(map[string]Role),
		byRole: make(map[Role]string),
	}
	entries := []struct {
		role Role
		uuid string
	}{
		{RoleGlucoseMeasurement, CharacteristicGlucoseMeasurement},
		{RoleGlucoseContext, CharacteristicGlucoseContext},
		{RoleRACP, CharacteristicRecordAccessControl},
		{RoleBaroSensorType, baro.SensorType},
		{RoleBaroScanInterval, baro.ScanInterval},
		{RoleBaroFilter, baro.Filter},
		{RoleBaroThreshold, baro.Threshold},
		{RoleBaroPressure, baro.Pressure},
	}
	for _, e := range entries {
		n := NormalizeUUID(e.uuid)
		if n == "" {
			return nil, fmt.Errorf("invalid UUID %q for %s", e.uuid, e.role)
		}
		if prev, dup := p.byUUID[n]; dup {
			return nil, fmt.Errorf("UUID %s assigned to both %s and %s", n, prev, e.role)
		}
		p.byUUID[n] = e.role
		p.byRole[e.role] = n
	}
	if p.baroSv = NormalizeUUID(baro.Service); p.baroSv == "" {
		return nil, fmt.Errorf("invalid barometer service UUID %q", baro.Service)
	}

	bledb.RegisterService(p.baroSv, "Barometer")
	for _, role := range Roles[3:] {
		bledb.RegisterCharacteristic(p.byRole[role], "Barometer "+strings.TrimPrefix(string(role), "baro-"))
	}
	return p, nil
}

// DefaultProfile returns the profile with the default barometer layout
func DefaultProfile() *Profile {
	p, err := NewProfile(DefaultBarometerUUIDs())
	if err != nil {
		panic(err)
	}
	return p
}

// Role returns the role of a characteristic UUID in any accepted form
func (p *Profile) Role(uuid string) (Role, bool) {
	r, ok := p.byUUID[NormalizeUUID(uuid)]
	return r, ok
}

// UUID returns the normalised UUID for role
func (p *Profile) UUID(role Role) string {
	return p.byRole[role]
}

// BarometerService returns the normalised barometer service UUID
func (p *Profile) BarometerService() string {
	return p.baroSv
}

// Resolve accepts a role alias or a UUID and returns the normalised UUID and its role
func (p *Profile) Resolve(nameOrUUID string) (string, Role, error) {
	if uuid, ok := p.byRole[Role(strings.ToLower(nameOrUUID))]; ok {
		return uuid, Role(strings.ToLower(nameOrUUID)), nil
	}
	n := NormalizeUUID(nameOrUUID)
	if n == "" {
		return "", "", fmt.Errorf("%q is neither a characteristic alias nor a UUID", nameOrUUID)
	}
	role, ok := p.byUUID[n]
	if !ok {
		return n, "", fmt.Errorf("%w: %s", ErrUnknownCharacteristic, n)
	}
	return n, role, nil
}
