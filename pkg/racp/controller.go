package racp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/monitor"
)

// DefaultTimeout bounds the wait for a response indication
const DefaultTimeout = 30 * time.Second

var (
	ErrBusy        = errors.New("racp: a request is already outstanding")
	ErrTimeout     = errors.New("racp: timed out waiting for response")
	ErrUnsolicited = errors.New("racp: unsolicited indication")
)

// ResponseCodeError is returned when the server answers with anything but Success
type ResponseCodeError struct {
	Request OpCode
	Code    ResponseCode
}

func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("racp: %s failed: %s", e.Request, e.Code)
}

// Result is the completed exchange for one command
type Result struct {
	Command    Command
	Indication Indication
	Elapsed    time.Duration
}

// Count returns the number carried by a 0x05 indication
func (r *Result) Count() (uint16, bool) {
	if r == nil || r.Indication.Count == nil {
		return 0, false
	}
	return r.Indication.Count.Count, true
}

type outcome struct {
	ind Indication
	err error
}

type request struct {
	cmd      Command
	started  time.Time
	done     chan outcome
	activity chan struct{}
}

// Writer is the control point characteristic. Any device.CharacteristicWriter satisfies it.
type Writer interface {
	Write(data []byte, withResponse bool, timeout time.Duration) error
}

// Controller drives the control point with at most one request in flight.
// Issue blocks, so it must not be called from the notification delivery context;
// HandleIndication, Touch and Cancel never block.
type Controller struct {
	writer       Writer
	timeout      time.Duration
	writeTimeout time.Duration
	logger       *logrus.Logger
	metrics      *monitor.Metrics

	mu      sync.Mutex
	pending *request
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithTimeout sets how long Issue waits without a response or record activity
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithWriteTimeout bounds the characteristic write itself
func WithWriteTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

func WithLogger(logger *logrus.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *monitor.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a controller writing commands through writer
func NewController(writer Writer, opts ...ControllerOption) *Controller {
	c := &Controller{
		writer:       writer,
		timeout:      DefaultTimeout,
		writeTimeout: 5 * time.Second,
		logger:       logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue writes cmd and waits for the indication that completes it.
//
// It fails immediately with ErrBusy when another request is outstanding. The wait ends
// with the matching indication, ctx cancellation, Cancel, or ErrTimeout once the timeout
// passes with no response and no Touch. A response other than Success yields both the
// Result and a *ResponseCodeError. The slot is free again whenever Issue returns.
func (c *Controller) Issue(ctx context.Context, cmd Command) (*Result, error) {
	data, err := cmd.MarshalBinary()
	if err != nil {
		return nil, err
	}

	req := &request{
		cmd:      cmd,
		started:  time.Now(),
		done:     make(chan outcome, 1),
		activity: make(chan struct{}, 1),
	}

	c.mu.Lock()
	if c.pending != nil {
		busyWith := c.pending.cmd.OpCode
		c.mu.Unlock()
		c.metrics.RACP(cmd.OpCode.String(), "busy", 0)
		return nil, fmt.Errorf("%w: %s in progress", ErrBusy, busyWith)
	}
	c.pending = req
	c.mu.Unlock()
	defer c.release(req)

	log := c.logger.WithFields(logrus.Fields{"opcode": cmd.OpCode.String(), "operator": cmd.Operator.String()})
	log.WithField("bytes", fmt.Sprintf("%x", data)).Debug("Writing RACP command")

	if err := c.writer.Write(data, true, c.writeTimeout); err != nil {
		c.metrics.RACP(cmd.OpCode.String(), "write_error", 0)
		return nil, fmt.Errorf("failed to write RACP command: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case out := <-req.done:
			return c.complete(log, req, out)

		case <-req.activity:
			timer.Reset(c.timeout)

		case <-ctx.Done():
			c.metrics.RACP(cmd.OpCode.String(), "canceled", 0)
			log.WithError(ctx.Err()).Debug("RACP request canceled")
			return nil, ctx.Err()

		case <-timer.C:
			c.metrics.RACP(cmd.OpCode.String(), "timeout", 0)
			log.WithField("timeout", c.timeout).Warn("RACP request timed out")
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, c.timeout, cmd.OpCode)
		}
	}
}

func (c *Controller) complete(log *logrus.Entry, req *request, out outcome) (*Result, error) {
	if out.err != nil {
		c.metrics.RACP(req.cmd.OpCode.String(), "canceled", 0)
		log.WithError(out.err).Debug("RACP request canceled")
		return nil, out.err
	}

	res := &Result{Command: req.cmd, Indication: out.ind, Elapsed: time.Since(req.started)}
	if resp := out.ind.Response; resp != nil && !resp.OK() {
		c.metrics.RACP(req.cmd.OpCode.String(), resp.Code.String(), res.Elapsed)
		log.WithField("code", resp.Code.String()).Info("RACP request completed with error response")
		return res, &ResponseCodeError{Request: resp.RequestOpCode, Code: resp.Code}
	}

	c.metrics.RACP(req.cmd.OpCode.String(), Success.String(), res.Elapsed)
	log.WithField("elapsed", res.Elapsed).Debug("RACP request completed")
	return res, nil
}

func (c *Controller) release(req *request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == req {
		c.pending = nil
	}
}

// HandleIndication decodes a control point indication and completes the pending
// request it answers. With nothing pending, or when the echoed request opcode does not
// match, the indication is dropped and ErrUnsolicited is returned.
func (c *Controller) HandleIndication(data []byte) (Indication, error) {
	ind, err := DecodeIndication(data)
	if err != nil {
		return Indication{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ind, fmt.Errorf("%w: %s with no request pending", ErrUnsolicited, ind)
	}
	if !ind.Answers(c.pending.cmd.OpCode) {
		return ind, fmt.Errorf("%w: %s while %s is pending", ErrUnsolicited, ind, c.pending.cmd.OpCode)
	}

	c.pending.done <- outcome{ind: ind}
	c.pending = nil
	return ind, nil
}

// Touch restarts the response timeout of the pending request.
// The session calls it for every record notification that streams in during a report.
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return
	}
	select {
	case c.pending.activity <- struct{}{}:
	default:
	}
}

// Cancel fails the pending request, if any, with err
func (c *Controller) Cancel(err error) {
	if err == nil {
		err = context.Canceled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return
	}
	c.pending.done <- outcome{err: err}
	c.pending = nil
}

// Pending returns the opcode of the outstanding request
func (c *Controller) Pending() (OpCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0, false
	}
	return c.pending.cmd.OpCode, true
}
