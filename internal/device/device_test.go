package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		expected string
	}{
		{name: "no uuids", err: &NotFoundError{Resource: "service"}, expected: "service not found"},
		{name: "one uuid", err: &NotFoundError{Resource: "service", UUIDs: []string{"1808"}}, expected: `service "1808" not found`},
		{name: "characteristic in service", err: &NotFoundError{Resource: "characteristic", UUIDs: []string{"1808", "2a52"}},
			expected: `characteristic "2a52" not found in service "1808"`},
		{name: "descriptor in characteristic", err: &NotFoundError{Resource: "descriptor", UUIDs: []string{"2a52", "2902"}},
			expected: `descriptor "2902" not found in characteristic "2a52"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConnectionError_Is(t *testing.T) {
	err := &ConnectionError{State: NotConnected, Msg: "link lost"}
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.False(t, errors.Is(err, ErrDetached))
	assert.Equal(t, "not_connected: link lost", err.Error())
	assert.Equal(t, "detached", ErrDetached.Error())

	var nilErr *ConnectionError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.False(t, nilErr.Is(ErrNotConnected))
}

func TestNormalizeError(t *testing.T) {
	assert.Nil(t, NormalizeError(nil))

	err := NormalizeError(errors.New("Device Not Connected"))
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.Contains(t, err.Error(), "Device Not Connected")

	plain := errors.New("att: insufficient authentication")
	assert.Equal(t, plain, NormalizeError(plain))
}

func TestNotificationFunc(t *testing.T) {
	var got string
	var sink NotificationSink = NotificationFunc(func(uuid string, data []byte) error {
		got = uuid
		return nil
	})
	assert.NoError(t, sink.HandleNotification("2a18", nil))
	assert.Equal(t, "2a18", got)
}
