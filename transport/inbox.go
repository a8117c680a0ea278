// Package transport moves protocol messages between the controller, the
// worker groups and the checkpoint manager over nanomsg push/pull sockets.
// Every process listens on one Inbox and holds an Outbox per remote it talks
// to.
package transport

import (
	"context"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"

	"github.com/pkg/errors"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pull"

	// transports
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"
)

// recvPoll bounds how long Receive waits before checking its context.
const recvPoll = 250 * time.Millisecond

// Handler is called for every decoded message. It runs on the receiving
// goroutine, handlers post into their event loop.
type Handler func(env Envelope, msg types.Message)

type Inbox struct {
	log  *logging.Logger
	addr string
	sock mangos.Socket
}

// Listen opens an inbox on addr, "tcp://host:port" or "inproc://name".
func Listen(log *logging.Logger, cfg Config, addr string) (*Inbox, error) {
	log = log.Named(namedLogger).Named("inbox")
	log.SetLevel(cfg.Level.Get())

	sock, err := pull.NewSocket()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new socket")
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, recvPoll); err != nil {
		sock.Close()
		return nil, errors.Wrap(err, "failed to set receive deadline")
	}
	if err := sock.SetOption(mangos.OptionMaxRecvSize, int(cfg.MaxMessageSize.Get())); err != nil {
		sock.Close()
		return nil, errors.Wrap(err, "failed to set max message size")
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, errors.Wrapf(err, "failed to listen on %v", addr)
	}
	log.Info("listening", logging.String("address", addr))
	return &Inbox{
		log:  log,
		addr: addr,
		sock: sock,
	}, nil
}

func (i *Inbox) Addr() string {
	return i.addr
}

// Receive calls h for every message until ctx is done or the inbox is
// closed. Messages that cannot be decoded are logged and dropped.
func (i *Inbox) Receive(ctx context.Context, h Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		buf, err := i.sock.Recv()
		if err != nil {
			switch {
			case errors.Is(err, mangos.ErrRecvTimeout):
				continue
			case errors.Is(err, mangos.ErrClosed):
				return nil
			default:
				i.log.Error("failed to receive message", logging.Error(err))
				continue
			}
		}

		env, msg, err := Decode(buf)
		if err != nil {
			i.log.Warn("dropping undecodable message",
				logging.String("from", env.From),
				logging.Error(err),
			)
			metrics.TransportMessageInc("in", string(env.Kind), "undecodable")
			continue
		}
		metrics.TransportMessageInc("in", string(env.Kind), "ok")
		if i.log.IsDebug() {
			i.log.Debug("message received",
				logging.String("kind", string(env.Kind)),
				logging.String("from", env.From),
			)
		}
		h(env, msg)
	}
}

func (i *Inbox) Close() error {
	return i.sock.Close()
}
