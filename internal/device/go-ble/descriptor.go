package goble

import (
	"fmt"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/bledb"
	"github.com/srg/sensorgatt/internal/device"
)

// DefaultDescriptorReadTimeout bounds each descriptor read
const DefaultDescriptorReadTimeout = 2 * time.Second

// Descriptor is a descriptor value read from the device, parsed when its type is known.
// Err is set when the read or the parse failed; Value keeps whatever was read.
type Descriptor struct {
	UUID      string      `json:"uuid"`
	KnownName string      `json:"name,omitempty"`
	Value     []byte      `json:"value,omitempty"`
	Parsed    interface{} `json:"parsed,omitempty"`
	Err       error       `json:"-"`
}

// Descriptors reads every descriptor of c. Reads are best-effort: a failing descriptor
// is reported in its Err and does not stop the others.
func (c *Characteristic) Descriptors(timeout time.Duration) ([]Descriptor, error) {
	client, err := c.adapter.liveClient()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultDescriptorReadTimeout
	}

	out := make([]Descriptor, 0, len(c.BLEChar.Descriptors))
	for _, d := range c.BLEChar.Descriptors {
		out = append(out, readDescriptor(client, d, timeout, c.adapter.logger))
	}
	return out, nil
}

func readDescriptor(client ble.Client, d *ble.Descriptor, timeout time.Duration, logger *logrus.Logger) Descriptor {
	uuid := device.NormalizeUUID(d.UUID.String())
	desc := Descriptor{UUID: uuid, KnownName: bledb.LookupDescriptor(uuid)}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		if len(d.Value) > 0 {
			resultCh <- readResult{data: d.Value}
			return
		}
		// On macOS go-ble does not populate descriptor handles
		if d.Handle == 0 {
			resultCh <- readResult{err: fmt.Errorf("descriptor %s has no handle", uuid)}
			return
		}
		data, err := client.ReadDescriptor(d)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			desc.Err = device.NormalizeError(result.err)
			break
		}
		desc.Value = result.data
		if device.IsKnownDescriptor(uuid) {
			desc.Parsed, desc.Err = device.ParseDescriptorValue(uuid, result.data)
		}
	case <-time.After(timeout):
		desc.Err = fmt.Errorf("%w reading descriptor %s after %v", device.ErrTimeout, uuid, timeout)
	}

	if desc.Err != nil {
		logger.WithFields(logrus.Fields{"descriptor_uuid": uuid, "error": desc.Err}).Debug("Descriptor not available")
	}
	return desc
}
