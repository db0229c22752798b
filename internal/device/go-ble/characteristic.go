package goble

import (
	"fmt"
	"time"

	"github.com/go-ble/ble"
	"github.com/srg/sensorgatt/internal/bledb"
	"github.com/srg/sensorgatt/internal/device"
)

// DefaultReadTimeout bounds a characteristic read when the caller passes zero
const DefaultReadTimeout = 5 * time.Second

// Characteristic is one profile characteristic found on the connected client.
// It implements device.CharacteristicReader and device.CharacteristicWriter.
type Characteristic struct {
	Role      device.Role
	UUID      string // normalised
	KnownName string
	BLEChar   *ble.Characteristic

	adapter *Adapter
}

func newCharacteristic(a *Adapter, role device.Role, c *ble.Characteristic) *Characteristic {
	uuid := device.NormalizeUUID(c.UUID.String())
	return &Characteristic{
		Role:      role,
		UUID:      uuid,
		KnownName: bledb.LookupCharacteristic(uuid),
		BLEChar:   c,
		adapter:   a,
	}
}

// Properties renders the GATT property bits
func (c *Characteristic) Properties() string {
	return FormatProperties(c.BLEChar.Property)
}

// Read reads the current value from the device
func (c *Characteristic) Read(timeout time.Duration) ([]byte, error) {
	if !canRead(c.BLEChar.Property) {
		return nil, fmt.Errorf("characteristic %s is not readable", c.UUID)
	}
	client, err := c.adapter.liveClient()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		data, err := client.ReadCharacteristic(c.BLEChar)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", c.UUID, device.NormalizeError(result.err))
		}
		return result.data, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w reading characteristic %s after %v", device.ErrTimeout, c.UUID, timeout)
	}
}

// Write sends data to the device. withResponse selects an acknowledged ATT write.
func (c *Characteristic) Write(data []byte, withResponse bool, timeout time.Duration) error {
	if !canWrite(c.BLEChar.Property) {
		return fmt.Errorf("characteristic %s is not writable", c.UUID)
	}
	client, err := c.adapter.liveClient()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	// go-ble serialises ATT requests per client; the mutex keeps our own writes ordered too
	c.adapter.writeMu.Lock()
	defer c.adapter.writeMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.WriteCharacteristic(c.BLEChar, data, !withResponse)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to write characteristic %s: %w", c.UUID, device.NormalizeError(err))
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w writing characteristic %s after %v", device.ErrTimeout, c.UUID, timeout)
	}
}
