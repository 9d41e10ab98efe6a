package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNATSSubjectRequired is returned when the subject is empty.
	ErrNATSSubjectRequired = errors.New("pkgmessage: nats subject is required")
	// ErrNATSHandlerRequired is returned when Consume is called with a nil handler.
	ErrNATSHandlerRequired = errors.New("pkgmessage: nats handler is required")
	// ErrNATSURLRequired is returned when no NATS URL is configured.
	ErrNATSURLRequired = errors.New("pkgmessage: nats url is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server URL.
	URL string
	// Options are passed through to nats.Connect.
	Options []nats.Option
}

// NATS is a messaging implementation backed by core NATS.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// NewNATS constructs a NATS messaging client.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close unsubscribes all consumers and drains the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := append([]*nats.Subscription{}, n.subs...)
	n.subs = nil
	n.mu.Unlock()

	var closeErr error
	for _, sub := range subs {
		closeErr = errors.Join(closeErr, sub.Unsubscribe())
	}
	return errors.Join(closeErr, n.conn.Drain())
}

// Publish sends a message to a NATS subject.
func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrNATSSubjectRequired
	}
	if err := n.ensureOpen(); err != nil {
		return err
	}

	nmsg := &nats.Msg{Subject: destination, Data: msg.Body}
	if len(msg.Headers) > 0 {
		nmsg.Header = nats.Header{}
		for _, h := range msg.Headers {
			if h.Key == "" {
				continue
			}
			nmsg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("pkgmessage: nats publish: %w", err)
	}

	return nil
}

// Consume starts consuming messages from a NATS subject. A queue group makes
// competing consumers share the subject. It blocks until the context is
// canceled.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrNATSHandlerRequired
	}
	if err := n.ensureOpen(); err != nil {
		return err
	}

	msgCh := make(chan *nats.Msg, 64)

	var (
		sub *nats.Subscription
		err error
	)
	if co.queueGroup != "" {
		sub, err = n.conn.ChanQueueSubscribe(source, co.queueGroup, msgCh)
	} else {
		sub, err = n.conn.ChanSubscribe(source, msgCh)
	}
	if err != nil {
		return fmt.Errorf("pkgmessage: nats subscribe: %w", err)
	}

	n.addSub(sub)
	defer func() {
		n.removeSub(sub)
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			slog.ErrorContext(ctx, "failed to unsubscribe nats subject", "subject", source, "error", err)
		}
	}()

	sema := make(chan struct{}, concurrencyOrDefault(co.concurrency, 1))
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case msg, ok := <-msgCh:
			if !ok {
				wg.Wait()
				return nil
			}

			sema <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() {
					<-sema
					wg.Done()
				}()

				wrapped := &natsMessage{msg: msg}
				if err := safeHandle(ctx, handler, wrapped); err != nil {
					slog.ErrorContext(ctx, "nats handler failed", "subject", source, "error", err)
					return
				}
				if co.autoAck {
					if err := wrapped.Ack(ctx); err != nil {
						slog.ErrorContext(ctx, "failed to ack nats message", "subject", source, "error", err)
					}
				}
			}()
		}
	}
}

func (n *NATS) ensureOpen() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func (n *NATS) addSub(sub *nats.Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
}

func (n *NATS) removeSub(sub *nats.Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.subs {
		if n.subs[i] == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}
