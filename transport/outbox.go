package transport

import (
	"context"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/push"
	"go.uber.org/atomic"
)

var (
	ErrQueueFull    = errors.New("send queue is full")
	ErrOutboxClosed = errors.New("outbox is closed")
)

// ConnectionEvents is told when the connection to the remote comes up and
// goes down. Calls come from socket goroutines.
type ConnectionEvents interface {
	Connected(addr string)
	Disconnected(addr string)
}

type queued struct {
	kind types.Kind
	buf  []byte
}

type noEvents struct{}

func (noEvents) Connected(string)    {}
func (noEvents) Disconnected(string) {}

// Outbox sends messages to one remote inbox. Send never blocks, messages
// are queued and written by Run.
type Outbox struct {
	log    *logging.Logger
	cfg    Config
	from   string
	addr   string
	sock   mangos.Socket
	events ConnectionEvents

	queue  chan queued
	pipes  atomic.Int32
	closed atomic.Bool
}

// NewOutbox prepares an outbox to addr, messages are stamped with from.
// Nothing is dialed before Run.
func NewOutbox(log *logging.Logger, cfg Config, from, addr string, events ConnectionEvents) (*Outbox, error) {
	log = log.Named(namedLogger).Named("outbox")
	log.SetLevel(cfg.Level.Get())
	if events == nil {
		events = noEvents{}
	}

	sock, err := push.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new socket")
	}
	opts := map[string]interface{}{
		mangos.OptionSendDeadline:     cfg.SendTimeout.Get(),
		mangos.OptionReconnectTime:    cfg.ReconnectInterval.Get(),
		mangos.OptionMaxReconnectTime: cfg.DialRetryInterval.Get(),
	}
	for name, v := range opts {
		if err := sock.SetOption(name, v); err != nil {
			sock.Close()
			return nil, errors.Wrapf(err, "failed to set %s", name)
		}
	}

	o := &Outbox{
		log:    log.With(logging.String("remote", addr)),
		cfg:    cfg,
		from:   from,
		addr:   addr,
		sock:   sock,
		events: events,
		queue:  make(chan queued, cfg.SendQueueLen),
	}
	sock.SetPipeEventHook(o.onPipeEvent)
	return o, nil
}

func (o *Outbox) onPipeEvent(ev mangos.PipeEvent, _ mangos.Pipe) {
	switch ev {
	case mangos.PipeEventAttached:
		if o.pipes.Inc() == 1 {
			o.log.Info("connected")
			metrics.TransportConnectedSet(o.addr, true)
			o.events.Connected(o.addr)
		}
	case mangos.PipeEventDetached:
		if o.pipes.Dec() == 0 {
			metrics.TransportConnectedSet(o.addr, false)
			// pipes of a closed outbox go away on purpose
			if o.closed.Load() {
				return
			}
			o.log.Warn("connection lost")
			o.events.Disconnected(o.addr)
		}
	}
}

func (o *Outbox) Addr() string {
	return o.addr
}

// Connected reports whether a connection to the remote is up.
func (o *Outbox) Connected() bool {
	return o.pipes.Load() > 0
}

// Send queues msg.
func (o *Outbox) Send(msg types.Message) error {
	return o.send("", msg)
}

// Request queues msg tagged with requestID, see Requests.
func (o *Outbox) Request(requestID string, msg types.Message) error {
	return o.send(requestID, msg)
}

func (o *Outbox) send(requestID string, msg types.Message) error {
	if o.closed.Load() {
		return ErrOutboxClosed
	}
	buf, err := Encode(o.from, requestID, msg)
	if err != nil {
		return err
	}
	select {
	case o.queue <- queued{kind: msg.Kind(), buf: buf}:
		return nil
	default:
		metrics.TransportMessageInc("out", string(msg.Kind()), "queue_full")
		return errors.Wrapf(ErrQueueFull, "dropping %s to %s", msg.Kind(), o.addr)
	}
}

// Run dials the remote, retrying at a fixed interval until it answers,
// then writes queued messages until ctx is done. Once dialed the socket
// reconnects by itself.
func (o *Outbox) Run(ctx context.Context) error {
	bo := backoff.WithContext(backoff.NewConstantBackOff(o.cfg.DialRetryInterval.Get()), ctx)
	err := backoff.RetryNotify(
		func() error {
			return o.sock.Dial(o.addr)
		},
		bo,
		func(err error, _ time.Duration) {
			o.log.Debug("failed to connect, retrying", logging.Error(err))
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrapf(err, "could not dial %s", o.addr)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case q := <-o.queue:
			if err := o.sock.Send(q.buf); err != nil {
				if errors.Is(err, mangos.ErrClosed) {
					return nil
				}
				o.log.Warn("failed to send message, dropping it",
					logging.String("kind", string(q.kind)),
					logging.Error(err),
				)
				metrics.TransportMessageInc("out", string(q.kind), "send_failed")
				continue
			}
			metrics.TransportMessageInc("out", string(q.kind), "ok")
		}
	}
}

// Close drops queued messages and closes the socket.
func (o *Outbox) Close() error {
	if o.closed.Swap(true) {
		return nil
	}
	return o.sock.Close()
}
