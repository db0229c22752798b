// Package simulator provides an in-process glucose meter that answers Record Access
// Control Point commands the way a real meter does: it streams the selected records as
// measurement and context notifications, then indicates the response.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/internal/groutine"
	"github.com/srg/sensorgatt/pkg/codec"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
)

// ErrOpCodeNotSupported is returned by Write for a control point value with an unknown opcode
var ErrOpCodeNotSupported = errors.New("simulator: opcode not supported")

type stored struct {
	record  *glucose.Record
	context *glucose.Context
}

// Meter is a simulated glucose meter. It implements device.CharacteristicWriter for the
// control point and delivers notifications to a device.NotificationSink.
type Meter struct {
	logger   *logrus.Logger
	profile  *device.Profile
	interval time.Duration

	mu      sync.Mutex
	sink    device.NotificationSink
	records []stored
	running bool
	abort   chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Meter
type Option func(*Meter)

func WithLogger(logger *logrus.Logger) Option {
	return func(m *Meter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithInterval sets the delay between streamed notifications
func WithInterval(d time.Duration) Option {
	return func(m *Meter) { m.interval = d }
}

// WithProfile sets the characteristic UUIDs the meter notifies on
func WithProfile(p *device.Profile) Option {
	return func(m *Meter) {
		if p != nil {
			m.profile = p
		}
	}
}

// NewMeter creates an empty meter. Attach a sink before writing commands.
func NewMeter(opts ...Option) *Meter {
	m := &Meter{
		logger:  logrus.New(),
		profile: device.DefaultProfile(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach sets where notifications are delivered
func (m *Meter) Attach(sink device.NotificationSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// AddRecord stores a record and, optionally, its context. ContextFollows is set to match.
// A record with an existing sequence number replaces it.
func (m *Meter) AddRecord(rec *glucose.Record, ctx *glucose.Context) {
	rec.ContextFollows = ctx != nil
	if ctx != nil {
		ctx.SequenceNumber = rec.SequenceNumber
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.records), func(i int) bool { return m.records[i].record.SequenceNumber >= rec.SequenceNumber })
	if i < len(m.records) && m.records[i].record.SequenceNumber == rec.SequenceNumber {
		m.records[i] = stored{rec, ctx}
		return
	}
	m.records = append(m.records, stored{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = stored{rec, ctx}
}

// Len returns the number of stored records
func (m *Meter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Notify delivers one value to the sink synchronously
func (m *Meter) Notify(uuid string, data []byte) error {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink == nil {
		return device.ErrNotConnected
	}
	return sink.HandleNotification(uuid, data)
}

// Wait blocks until the running procedure, if any, has finished
func (m *Meter) Wait() {
	m.wg.Wait()
}

// Write accepts a control point command. The procedure runs on its own goroutine so the
// response always arrives after Write returns, as it does over the air.
func (m *Meter) Write(data []byte, withResponse bool, _ time.Duration) error {
	if len(data) == 0 {
		return &codec.DecodeError{Kind: codec.TooShort, Field: "opcode", Need: 1}
	}
	op := racp.OpCode(data[0])
	if !op.Outbound() {
		return fmt.Errorf("%w: 0x%02x", ErrOpCodeNotSupported, data[0])
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sink == nil {
		return device.ErrNotConnected
	}
	if !withResponse {
		m.logger.Warn("Control point written without response")
	}

	cmd, err := racp.DecodeCommand(data)
	if err != nil {
		m.logger.WithError(err).Debug("Rejecting malformed command")
		m.start(nil, func() []emission { return m.respond(op, responseFor(err)) }, nil)
		return nil
	}

	if cmd.OpCode == racp.AbortOperation {
		if m.running {
			close(m.abort)
			m.running = false
		}
		m.start(nil, func() []emission { return m.respond(racp.AbortOperation, racp.Success) }, nil)
		return nil
	}
	if m.running {
		m.start(nil, func() []emission { return m.respond(cmd.OpCode, racp.ProcedureNotCompleted) }, nil)
		return nil
	}

	m.running = true
	m.abort = make(chan struct{})
	abort := m.abort
	m.start(abort, func() []emission { return m.execute(cmd) }, func() { m.finish(abort) })
	return nil
}

type emission struct {
	uuid string
	data []byte
}

// start runs plan on a named goroutine and delivers its emissions in order. Delivery
// stops without further output once abort is closed. The caller holds m.mu.
func (m *Meter) start(abort <-chan struct{}, plan func() []emission, done func()) {
	sink := m.sink
	interval := m.interval
	m.wg.Add(1)
	groutine.Go(context.Background(), "simulator-racp", func(ctx context.Context) {
		defer m.wg.Done()
		log := m.logger.WithField("goroutine", groutine.Name(ctx))
		if done != nil {
			defer done()
		}
		for _, e := range plan() {
			select {
			case <-abort:
				log.Debug("Simulated procedure aborted")
				return
			case <-ctx.Done():
				return
			default:
			}
			if err := sink.HandleNotification(e.uuid, e.data); err != nil {
				log.WithError(err).WithField("uuid", e.uuid).Debug("Sink rejected notification")
			}
			if interval > 0 {
				time.Sleep(interval)
			}
		}
	})
}

func (m *Meter) finish(abort chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abort == abort {
		m.running = false
	}
}

func (m *Meter) respond(op racp.OpCode, code racp.ResponseCode) []emission {
	data, _ := racp.Response{RequestOpCode: op, Code: code}.MarshalBinary()
	return []emission{{m.profile.UUID(device.RoleRACP), data}}
}

func (m *Meter) count(n uint16) []emission {
	data, _ := racp.RecordCount{Count: n}.MarshalBinary()
	return []emission{{m.profile.UUID(device.RoleRACP), data}}
}

func responseFor(err error) racp.ResponseCode {
	var derr *codec.DecodeError
	if errors.As(err, &derr) && derr.Kind == codec.InvalidEnumValue && derr.Field == "operator" {
		return racp.InvalidOperator
	}
	return racp.InvalidOperand
}

func (m *Meter) execute(cmd racp.Command) []emission {
	log := m.logger.WithFields(logrus.Fields{"opcode": cmd.OpCode.String(), "operator": cmd.Operator.String()})

	if cmd.OpCode == racp.ReportSequenceNumberOfLatestRecord {
		if cmd.Operator != racp.OpNull {
			return m.respond(cmd.OpCode, racp.InvalidOperator)
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if len(m.records) == 0 {
			return m.respond(cmd.OpCode, racp.NoRecordsFound)
		}
		return m.count(m.records[len(m.records)-1].record.SequenceNumber)
	}

	if cmd.Operator == racp.OpNull {
		return m.respond(cmd.OpCode, racp.InvalidOperator)
	}

	m.mu.Lock()
	selected := selectRecords(m.records, cmd)
	if cmd.OpCode == racp.DeleteStoredRecords && len(selected) > 0 {
		m.records = removeRecords(m.records, selected)
	}
	m.mu.Unlock()
	log.WithField("selected", len(selected)).Debug("Simulated procedure started")

	switch cmd.OpCode {
	case racp.ReportNumberOfStoredRecords:
		return m.count(uint16(len(selected)))

	case racp.DeleteStoredRecords:
		if len(selected) == 0 {
			return m.respond(cmd.OpCode, racp.NoRecordsFound)
		}
		return m.respond(cmd.OpCode, racp.Success)

	case racp.ReportStoredRecords:
		if len(selected) == 0 {
			return m.respond(cmd.OpCode, racp.NoRecordsFound)
		}
		return m.stream(cmd, selected)
	}
	return m.respond(cmd.OpCode, racp.OpCodeNotSupported)
}

func (m *Meter) stream(cmd racp.Command, selected []stored) []emission {
	out := make([]emission, 0, 2*len(selected)+1)
	for _, s := range selected {
		out = append(out, emission{m.profile.UUID(device.RoleGlucoseMeasurement), glucose.EncodeMeasurement(s.record)})
		if s.context != nil {
			out = append(out, emission{m.profile.UUID(device.RoleGlucoseContext), glucose.EncodeContext(s.context)})
		}
	}
	return append(out, m.respond(cmd.OpCode, racp.Success)...)
}

func selectRecords(records []stored, cmd racp.Command) []stored {
	if len(records) == 0 {
		return nil
	}
	switch cmd.Operator {
	case racp.OpAllRecords:
		return append([]stored(nil), records...)
	case racp.OpFirstRecord:
		return []stored{records[0]}
	case racp.OpLastRecord:
		return []stored{records[len(records)-1]}
	}

	var out []stored
	for _, s := range records {
		seq := s.record.SequenceNumber
		switch cmd.Operator {
		case racp.OpLessThanOrEqual:
			if seq <= cmd.Operand[0] {
				out = append(out, s)
			}
		case racp.OpGreaterThanOrEqual:
			if seq >= cmd.Operand[0] {
				out = append(out, s)
			}
		case racp.OpWithinRangeInclusive:
			if seq >= cmd.Operand[0] && seq <= cmd.Operand[1] {
				out = append(out, s)
			}
		}
	}
	return out
}

func removeRecords(records, selected []stored) []stored {
	drop := make(map[uint16]struct{}, len(selected))
	for _, s := range selected {
		drop[s.record.SequenceNumber] = struct{}{}
	}
	kept := records[:0]
	for _, s := range records {
		if _, ok := drop[s.record.SequenceNumber]; !ok {
			kept = append(kept, s)
		}
	}
	return kept
}
