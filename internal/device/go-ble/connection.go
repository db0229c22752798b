// Package goble binds an already connected go-ble client to a notification sink.
// It subscribes to the glucose and barometer characteristics, forwards every value in
// delivery order, and writes control point commands back. It never dials or discovers.
package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/internal/groutine"
	"github.com/srg/sensorgatt/pkg/barometer"
)

// DefaultWriteTimeout bounds a control point write when Options leave it zero
const DefaultWriteTimeout = 5 * time.Second

// Options configure Attach
type Options struct {
	Profile      *device.Profile
	Logger       *logrus.Logger
	Scale        barometer.Scale
	WriteTimeout time.Duration
}

type subscription struct {
	char     *Characteristic
	indicate bool
}

// Adapter is a go-ble client attached to a sink
type Adapter struct {
	logger       *logrus.Logger
	profile      *device.Profile
	sink         device.NotificationSink
	scale        barometer.Scale
	writeTimeout time.Duration

	chars map[device.Role]*Characteristic
	subs  []subscription

	writeMu sync.Mutex

	mu       sync.RWMutex
	client   ble.Client
	detached bool
}

// required roles must be present on the client for Attach to succeed
var required = []device.Role{device.RoleGlucoseMeasurement, device.RoleRACP}

// Attach locates the profile characteristics in the client's discovered profile and
// subscribes to them: measurement, context and barometer values by notification, the
// control point by indication. A missing glucose measurement or control point
// characteristic fails with *device.NotFoundError; barometer characteristics are optional.
func Attach(client ble.Client, sink device.NotificationSink, opts Options) (*Adapter, error) {
	if opts.Profile == nil {
		opts.Profile = device.DefaultProfile()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Scale.Divisor == 0 {
		opts.Scale = barometer.DefaultScale()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	a := &Adapter{
		logger:       opts.Logger,
		profile:      opts.Profile,
		sink:         sink,
		scale:        opts.Scale,
		writeTimeout: opts.WriteTimeout,
		chars:        make(map[device.Role]*Characteristic),
		client:       client,
	}

	p := client.Profile()
	if p == nil {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{device.ServiceGlucose}}
	}

	for _, role := range device.Roles {
		u, err := ble.Parse(opts.Profile.UUID(role))
		if err != nil {
			return nil, fmt.Errorf("invalid UUID for %s: %w", role, err)
		}
		if c := p.FindCharacteristic(ble.NewCharacteristic(u)); c != nil {
			a.chars[role] = newCharacteristic(a, role, c)
		}
	}

	for _, role := range required {
		if _, ok := a.chars[role]; !ok {
			return nil, &device.NotFoundError{
				Resource: "characteristic",
				UUIDs:    []string{device.ServiceGlucose, opts.Profile.UUID(role)},
			}
		}
	}

	if err := a.subscribeAll(client); err != nil {
		a.unsubscribeAll(client)
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"characteristics": len(a.chars),
		"subscriptions":   len(a.subs),
	}).Info("Meter attached")
	return a, nil
}

func (a *Adapter) subscribeAll(client ble.Client) error {
	for _, role := range device.Roles {
		c, ok := a.chars[role]
		if !ok {
			continue
		}
		props := c.BLEChar.Property

		indicate := role == device.RoleRACP
		switch {
		case indicate && !canIndicate(props):
			return fmt.Errorf("control point %s does not support indications: %w", c.UUID, device.ErrUnknownCharacteristic)
		case !indicate && !canNotify(props):
			// Read-only barometer settings are fetched by ReadBarometer
			a.logger.WithField("char_uuid", c.UUID).Debug("Characteristic has no notify property, not subscribing")
			continue
		}

		uuid := c.UUID
		err := client.Subscribe(c.BLEChar, indicate, func(data []byte) {
			a.deliver(uuid, data)
		})
		if err != nil {
			a.logger.WithFields(logrus.Fields{"char_uuid": uuid, "error": err}).Error("Failed to subscribe to characteristic")
			return fmt.Errorf("failed to subscribe to %s: %w", uuid, device.NormalizeError(err))
		}
		a.subs = append(a.subs, subscription{char: c, indicate: indicate})
		a.logger.WithFields(logrus.Fields{"char_uuid": uuid, "indicate": indicate}).Debug("Subscribed to characteristic")
	}
	return nil
}

// deliver copies data before handing it on; go-ble reuses its buffers
func (a *Adapter) deliver(uuid string, data []byte) {
	a.mu.RLock()
	detached := a.detached
	a.mu.RUnlock()
	if detached {
		return
	}

	value := append([]byte(nil), data...)
	if err := a.sink.HandleNotification(uuid, value); err != nil {
		a.logger.WithFields(logrus.Fields{"char_uuid": uuid, "error": err}).Debug("Sink rejected value")
	}
}

func (a *Adapter) liveClient() (ble.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.detached || a.client == nil {
		return nil, device.ErrDetached
	}
	return a.client, nil
}

// Characteristic returns the characteristic found for role
func (a *Adapter) Characteristic(role device.Role) (*Characteristic, bool) {
	c, ok := a.chars[role]
	return c, ok
}

// Write sends a control point command; the adapter is the racp.Writer of a session
func (a *Adapter) Write(data []byte, withResponse bool, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = a.writeTimeout
	}
	return a.chars[device.RoleRACP].Write(data, withResponse, timeout)
}

// ReadBarometer reads every readable barometer characteristic present into a Reading.
// Characteristics that fail to read or decode are skipped and their errors joined.
func (a *Adapter) ReadBarometer(timeout time.Duration) (barometer.Reading, error) {
	var reading barometer.Reading
	var errs []error
	for _, role := range device.Roles {
		kind, ok := device.BarometerKind(role)
		if !ok {
			continue
		}
		c, ok := a.chars[role]
		if !ok || !canRead(c.BLEChar.Property) {
			continue
		}
		data, err := c.Read(timeout)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reading.Apply(kind, data, a.scale); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
		}
	}
	return reading, errors.Join(errs...)
}

// SetScanInterval writes the barometer scan interval
func (a *Adapter) SetScanInterval(d time.Duration) error {
	data, err := barometer.EncodeScanInterval(d)
	if err != nil {
		return err
	}
	return a.writeRole(device.RoleBaroScanInterval, data)
}

// SetThreshold writes the pressure alert threshold in the configured scale
func (a *Adapter) SetThreshold(value float64) error {
	data, err := barometer.EncodeThreshold(value, a.scale)
	if err != nil {
		return err
	}
	return a.writeRole(device.RoleBaroThreshold, data)
}

// SetFilter writes the barometer filter configuration
func (a *Adapter) SetFilter(f barometer.FilterType) error {
	data, err := barometer.EncodeFilterConfig(f)
	if err != nil {
		return err
	}
	return a.writeRole(device.RoleBaroFilter, data)
}

func (a *Adapter) writeRole(role device.Role, data []byte) error {
	c, ok := a.chars[role]
	if !ok {
		return &device.NotFoundError{Resource: "characteristic", UUIDs: []string{a.profile.BarometerService(), a.profile.UUID(role)}}
	}
	return c.Write(data, true, a.writeTimeout)
}

// Watch calls onDisconnect once when the client reports a disconnection, unless ctx ends first.
// The adapter is detached before onDisconnect runs.
func (a *Adapter) Watch(ctx context.Context, onDisconnect func()) {
	client, err := a.liveClient()
	if err != nil {
		return
	}
	notifier, ok := client.(interface{ Disconnected() <-chan struct{} })
	if !ok || notifier.Disconnected() == nil {
		a.logger.Debug("Client does not report disconnections")
		return
	}
	disconnected := notifier.Disconnected()

	groutine.Go(ctx, "goble-disconnect-monitor", func(ctx context.Context) {
		select {
		case <-disconnected:
			a.logger.Warn("Meter disconnected")
			a.markDetached()
			if onDisconnect != nil {
				onDisconnect()
			}
		case <-ctx.Done():
		}
	})
}

func (a *Adapter) markDetached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detached {
		return false
	}
	a.detached = true
	return true
}

// Detach unsubscribes everything and stops forwarding values. It is safe to call twice.
func (a *Adapter) Detach() error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()

	if !a.markDetached() {
		return nil
	}
	errs := a.unsubscribeAll(client)
	if len(errs) > 0 {
		a.logger.WithField("errors", len(errs)).Warn("Failed to unsubscribe some characteristics")
	} else {
		a.logger.Info("Meter detached")
	}
	return errors.Join(errs...)
}

func (a *Adapter) unsubscribeAll(client ble.Client) []error {
	var errs []error
	for _, sub := range a.subs {
		if err := device.NormalizeError(client.Unsubscribe(sub.char.BLEChar, sub.indicate)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.char.UUID, err))
		}
	}
	a.subs = nil
	return errs
}
