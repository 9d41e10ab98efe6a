package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

// natsMessage adapts a NATS message to the Message interface.
type natsMessage struct {
	msg *nats.Msg
}

func (m *natsMessage) Body() []byte {
	return m.msg.Data
}

// Key returns nil; core NATS has no partition key concept.
func (m *natsMessage) Key() []byte {
	return nil
}

func (m *natsMessage) Headers() []Header {
	if len(m.msg.Header) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(m.msg.Header))
	for key, values := range m.msg.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: key, Value: []byte(v)})
		}
	}
	return headers
}

func (m *natsMessage) Topic() string {
	return m.msg.Subject
}

// Timestamp returns the receive time; core NATS carries no broker timestamp.
func (m *natsMessage) Timestamp() time.Time {
	if meta, err := m.msg.Metadata(); err == nil {
		return meta.Timestamp
	}
	return time.Now()
}

// Ack acknowledges the message. Core NATS subscriptions have nothing to ack,
// so the no-reply case is treated as success.
func (m *natsMessage) Ack(context.Context) error {
	if err := m.msg.Ack(); err != nil && !errors.Is(err, nats.ErrMsgNoReply) {
		return err
	}
	return nil
}
