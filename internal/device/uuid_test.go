package device

import (
	"errors"
	"testing"

	"github.com/srg/sensorgatt/internal/bledb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUUID(t *testing.T) {
	got, err := ValidateUUID("0X2A18", "00002a52-0000-1000-8000-00805f9b34fb")
	require.NoError(t, err)
	assert.Equal(t, []string{"2a18", "2a52"}, got)

	_, err = ValidateUUID()
	assert.Error(t, err)
	_, err = ValidateUUID("2a18", "")
	assert.ErrorContains(t, err, "index 1")
	_, err = ValidateUUID("not-a-uuid")
	assert.ErrorContains(t, err, "invalid UUID format")
}

func TestShortenUUID(t *testing.T) {
	assert.Equal(t, "2a18", ShortenUUID("2a18"))
	assert.Equal(t, "00040006", ShortenUUID("0004000600001000800000805f9b0131"))
}

// ----------------------------
// Profile Tests
// ----------------------------

func TestDefaultProfile_Roles(t *testing.T) {
	p := DefaultProfile()

	tests := []struct {
		uuid string
		role Role
	}{
		{uuid: "2A18", role: RoleGlucoseMeasurement},
		{uuid: "00002a34-0000-1000-8000-00805f9b34fb", role: RoleGlucoseContext},
		{uuid: "0x2a52", role: RoleRACP},
		{uuid: "00040002-0000-1000-8000-00805f9b0131", role: RoleBaroSensorType},
		{uuid: "00040003-0000-1000-8000-00805f9b0131", role: RoleBaroScanInterval},
		{uuid: "00040004-0000-1000-8000-00805f9b0131", role: RoleBaroFilter},
		{uuid: "00040005-0000-1000-8000-00805f9b0131", role: RoleBaroThreshold},
		{uuid: "0004000600001000800000805F9B0131", role: RoleBaroPressure},
	}

	for _, tt := range tests {
		role, ok := p.Role(tt.uuid)
		require.True(t, ok, "uuid %s MUST be known", tt.uuid)
		assert.Equal(t, tt.role, role)
	}

	_, ok := p.Role("2a19")
	assert.False(t, ok)
	assert.Equal(t, "0004000100001000800000805f9b0131", p.BarometerService())
	assert.Equal(t, "Barometer pressure", bledb.LookupCharacteristic(p.UUID(RoleBaroPressure)))
}

func TestNewProfile_CustomBarometer(t *testing.T) {
	baro := DefaultBarometerUUIDs()
	baro.Pressure = "0000aa06-0000-1000-8000-00805f9b34fb"

	p, err := NewProfile(baro)
	require.NoError(t, err)
	assert.Equal(t, "aa06", p.UUID(RoleBaroPressure))

	baro.Threshold = "2a18"
	_, err = NewProfile(baro)
	assert.ErrorContains(t, err, "assigned to both", "a barometer UUID MUST NOT shadow a glucose characteristic")

	baro = DefaultBarometerUUIDs()
	baro.Filter = "xyz"
	_, err = NewProfile(baro)
	assert.Error(t, err)
}

func TestProfile_Resolve(t *testing.T) {
	p := DefaultProfile()

	uuid, role, err := p.Resolve("measurement")
	require.NoError(t, err)
	assert.Equal(t, "2a18", uuid)
	assert.Equal(t, RoleGlucoseMeasurement, role)

	uuid, role, err = p.Resolve("BARO-PRESSURE")
	require.NoError(t, err)
	assert.Equal(t, "0004000600001000800000805f9b0131", uuid)
	assert.Equal(t, RoleBaroPressure, role)

	uuid, role, err = p.Resolve("00002a52-0000-1000-8000-00805f9b34fb")
	require.NoError(t, err)
	assert.Equal(t, "2a52", uuid)
	assert.Equal(t, RoleRACP, role)

	uuid, _, err = p.Resolve("2902")
	assert.True(t, errors.Is(err, ErrUnknownCharacteristic))
	assert.Equal(t, "2902", uuid, "the normalised UUID MUST still be returned for unknown characteristics")

	_, _, err = p.Resolve("glucose-ish")
	assert.ErrorContains(t, err, "neither a characteristic alias nor a UUID")
}
