package messaging

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaMessage adapts a kafka-go message to the Message interface.
type kafkaMessage struct {
	msg    kafka.Message
	reader *kafka.Reader
}

func (m *kafkaMessage) Body() []byte {
	return m.msg.Value
}

func (m *kafkaMessage) Key() []byte {
	return m.msg.Key
}

func (m *kafkaMessage) Headers() []Header {
	if len(m.msg.Headers) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		headers = append(headers, Header{Key: h.Key, Value: h.Value})
	}
	return headers
}

func (m *kafkaMessage) Topic() string {
	return m.msg.Topic
}

func (m *kafkaMessage) Timestamp() time.Time {
	return m.msg.Time
}

// Ack commits the message offset to the consumer group.
func (m *kafkaMessage) Ack(ctx context.Context) error {
	return m.reader.CommitMessages(ctx, m.msg)
}
