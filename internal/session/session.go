// Package session routes characteristic notifications from one connected meter to
// the decoders, the record store, the control point controller and the barometer reading.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/internal/monitor"
	"github.com/srg/sensorgatt/pkg/barometer"
	"github.com/srg/sensorgatt/pkg/codec"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
)

// Handler processes one notification value
type Handler func(data []byte) error

type route struct {
	name    string
	handler Handler
}

// TraceEntry is one raw notification as it arrived
type TraceEntry struct {
	Seq  uint64    `json:"seq"`
	At   time.Time `json:"at"`
	UUID string    `json:"uuid"`
	Name string    `json:"name"`
	Data []byte    `json:"data"`
	Err  string    `json:"error,omitempty"`
}

// Options configure a Session
type Options struct {
	Logger       *logrus.Logger
	Metrics      *monitor.Metrics
	ParseOptions device.ParseOptions
	// TraceDepth is the number of raw notifications kept for Trace; 0 disables tracing
	TraceDepth       int
	RACPTimeout      time.Duration
	RACPWriteTimeout time.Duration
}

// Session holds the state of one measurement session.
//
// HandleNotification runs on the caller's delivery context and processes values strictly
// in arrival order; it never starts goroutines. Issue blocks and must be called elsewhere.
type Session struct {
	logger  *logrus.Logger
	metrics *monitor.Metrics
	profile *device.Profile
	opts    device.ParseOptions

	store      *glucose.RecordStore
	controller *racp.Controller
	routes     *hashmap.Map[string, route]

	// the ring rounds its capacity up to a power of two and keeps one slot free,
	// so it is sized past traceDepth and Trace trims to the newest traceDepth
	trace      mpmc.RichOverlappedRingBuffer[TraceEntry]
	traceDepth int
	traceSeq   atomic.Uint64

	mu      sync.Mutex
	reading barometer.Reading
}

// New creates a session writing control point commands through writer
func New(profile *device.Profile, writer racp.Writer, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.ParseOptions.Scale.Divisor == 0 {
		opts.ParseOptions.Scale = barometer.DefaultScale()
	}

	s := &Session{
		logger:  opts.Logger,
		metrics: opts.Metrics,
		profile: profile,
		opts:    opts.ParseOptions,
		store:   glucose.NewRecordStore(),
		controller: racp.NewController(writer,
			racp.WithTimeout(opts.RACPTimeout),
			racp.WithWriteTimeout(opts.RACPWriteTimeout),
			racp.WithLogger(opts.Logger),
			racp.WithMetrics(opts.Metrics),
		),
		routes: hashmap.New[string, route](),
	}
	if opts.TraceDepth > 0 {
		s.trace = mpmc.NewOverlappedRingBuffer[TraceEntry](uint32(opts.TraceDepth) + 1)
		s.traceDepth = opts.TraceDepth
	}

	s.routes.Set(profile.UUID(device.RoleGlucoseMeasurement), route{string(device.RoleGlucoseMeasurement), s.handleMeasurement})
	s.routes.Set(profile.UUID(device.RoleGlucoseContext), route{string(device.RoleGlucoseContext), s.handleContext})
	s.routes.Set(profile.UUID(device.RoleRACP), route{string(device.RoleRACP), s.handleRACP})
	for _, role := range device.Roles {
		if kind, ok := device.BarometerKind(role); ok {
			s.routes.Set(profile.UUID(role), route{string(role), s.barometerHandler(kind)})
		}
	}
	return s
}

// Register routes a further characteristic to handler. An existing route is replaced.
func (s *Session) Register(uuid, name string, handler Handler) error {
	n := device.NormalizeUUID(uuid)
	if n == "" {
		return fmt.Errorf("invalid UUID %q", uuid)
	}
	s.routes.Set(n, route{name: name, handler: handler})
	return nil
}

// Subscriptions returns the normalised UUIDs the session handles
func (s *Session) Subscriptions() []string {
	out := make([]string, 0, s.routes.Len())
	s.routes.Range(func(key string, _ route) bool {
		out = append(out, key)
		return true
	})
	return out
}

// HandleNotification dispatches one characteristic value. Every failure is logged,
// counted and returned; the session state is unchanged by a value that fails to decode.
func (s *Session) HandleNotification(uuid string, data []byte) error {
	n := device.NormalizeUUID(uuid)
	r, ok := s.routes.Get(n)
	name := r.name
	if !ok {
		name = "unknown"
	}
	s.metrics.Notification(name)

	log := s.logger.WithFields(logrus.Fields{"uuid": n, "characteristic": name, "bytes": fmt.Sprintf("%x", data)})

	var err error
	if ok {
		err = r.handler(data)
	} else {
		err = fmt.Errorf("%w: %s", device.ErrUnknownCharacteristic, n)
	}
	s.record(n, name, data, err)

	if err != nil {
		if kind := codec.KindOf(err); kind != "" {
			s.metrics.DecodeFailure(name, string(kind))
		}
		log.WithError(err).Warn("Notification rejected")
		return err
	}
	log.Debug("Notification handled")
	return nil
}

func (s *Session) record(uuid, name string, data []byte, err error) {
	if s.trace == nil {
		return
	}
	entry := TraceEntry{
		Seq:  s.traceSeq.Add(1),
		At:   time.Now(),
		UUID: uuid,
		Name: name,
		Data: append([]byte(nil), data...),
	}
	if err != nil {
		entry.Err = err.Error()
	}
	if overwrites, qerr := s.trace.EnqueueM(entry); qerr != nil {
		s.logger.WithError(qerr).Warn("Failed to trace notification")
	} else if overwrites > 0 {
		s.logger.WithField("overwrites", overwrites).Trace("Trace ring wrapped")
	}
}

func (s *Session) handleMeasurement(data []byte) error {
	var decodeOpts []glucose.DecodeOption
	if s.opts.IgnoreReservedFlags {
		decodeOpts = append(decodeOpts, glucose.IgnoreReservedFlags())
	}
	rec, err := glucose.DecodeMeasurement(data, decodeOpts...)
	if err != nil {
		return err
	}
	s.controller.Touch()

	if err := s.store.InsertRecord(rec); err != nil {
		if errors.Is(err, glucose.ErrDuplicateSequenceNumber) {
			s.metrics.Duplicate("record")
		}
		return err
	}
	s.metrics.RecordStored()
	s.metrics.SetPendingContexts(s.store.PendingContexts())
	s.logger.WithFields(logrus.Fields{"seq": rec.SequenceNumber, "context_follows": rec.ContextFollows}).Debug("Glucose record stored")
	return nil
}

func (s *Session) handleContext(data []byte) error {
	ctx, err := glucose.DecodeContext(data)
	if err != nil {
		return err
	}
	s.controller.Touch()

	if err := s.store.MergeContext(ctx); err != nil {
		if errors.Is(err, glucose.ErrDuplicateSequenceNumber) {
			s.metrics.Duplicate("context")
		}
		return err
	}
	s.metrics.SetPendingContexts(s.store.PendingContexts())
	s.logger.WithField("seq", ctx.SequenceNumber).Debug("Glucose context merged")
	return nil
}

func (s *Session) handleRACP(data []byte) error {
	ind, err := s.controller.HandleIndication(data)
	if err != nil {
		return err
	}
	s.logger.WithField("indication", ind.String()).Debug("RACP indication handled")
	return nil
}

func (s *Session) barometerHandler(kind barometer.Kind) Handler {
	return func(data []byte) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.reading.Apply(kind, data, s.opts.Scale)
	}
}

// Issue sends a control point command and waits for its completion
func (s *Session) Issue(ctx context.Context, cmd racp.Command) (*racp.Result, error) {
	return s.controller.Issue(ctx, cmd)
}

// Controller exposes the control point controller
func (s *Session) Controller() *racp.Controller {
	return s.controller
}

// Store exposes the record store
func (s *Session) Store() *glucose.RecordStore {
	return s.store
}

// Reading returns a copy of the latest barometer values
func (s *Session) Reading() barometer.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// Trace drains the raw notifications kept so far, oldest first
func (s *Session) Trace() []TraceEntry {
	if s.trace == nil {
		return nil
	}
	var out []TraceEntry
	for !s.trace.IsEmpty() {
		entry, err := s.trace.Dequeue()
		if err != nil {
			break
		}
		out = append(out, entry)
	}
	if len(out) > s.traceDepth {
		out = out[len(out)-s.traceDepth:]
	}
	return out
}

// Disconnected drops all records and pending contexts and fails any outstanding
// control point request with device.ErrNotConnected.
func (s *Session) Disconnected() {
	s.controller.Cancel(device.ErrNotConnected)
	s.store.Clear()
	s.metrics.SetPendingContexts(0)

	s.mu.Lock()
	s.reading = barometer.Reading{}
	s.mu.Unlock()

	s.logger.Info("Session cleared after disconnect")
}
