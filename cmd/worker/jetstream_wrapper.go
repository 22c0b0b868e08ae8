package main

import (
	"time"

	seasontask "f1-pitwall/internal/tasks/season"

	"github.com/nats-io/nats.go/jetstream"
)

// jetstreamMessageWrapper adapts jetstream.Msg to the handler message interface
type jetstreamMessageWrapper struct {
	msg jetstream.Msg
}

func (w *jetstreamMessageWrapper) Ack() error {
	return w.msg.Ack()
}

func (w *jetstreamMessageWrapper) Nak() error {
	return w.msg.Nak()
}

func (w *jetstreamMessageWrapper) Term() error {
	return w.msg.Term()
}

func (w *jetstreamMessageWrapper) InProgress() error {
	return w.msg.InProgress()
}

func (w *jetstreamMessageWrapper) NakWithDelay(delay time.Duration) error {
	return w.msg.NakWithDelay(delay)
}

func (w *jetstreamMessageWrapper) NumDelivered() uint64 {
	md, err := w.msg.Metadata()
	if err != nil {
		return 1
	}
	return md.NumDelivered
}

func (w *jetstreamMessageWrapper) Data() []byte {
	return w.msg.Data()
}

func wrapJetStreamMsg(msg jetstream.Msg) seasontask.MessageInterface {
	return &jetstreamMessageWrapper{msg: msg}
}

func getMessageMetadata(msg jetstream.Msg) (uint64, uint64) {
	md, err := msg.Metadata()
	if err != nil {
		return 0, 0
	}
	return md.NumDelivered, md.Sequence.Stream
}
