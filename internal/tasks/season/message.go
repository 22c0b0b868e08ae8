package season

import (
	"time"
)

// MessageInterface is the JetStream message surface handlers work with.
type MessageInterface interface {
	Ack() error
	Nak() error
	Term() error
	InProgress() error
	NakWithDelay(delay time.Duration) error
	NumDelivered() uint64
	Data() []byte
}
