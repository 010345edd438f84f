// Package events carries the NATS JetStream plumbing shared by both
// services: durable publication of file/user lifecycle events and the
// subscriptions consuming them.
package events

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	StreamName = "file-events"

	SubjectFileUploaded = "files.uploaded"
	SubjectFileDeleted  = "files.deleted"
	SubjectUserDeleted  = "users.deleted"
)

type FileUploadedEvent struct {
	FileID     string `json:"file_id"`
	ObjectName string `json:"object_name"`
	OwnerID    string `json:"user_id"`
	Filename   string `json:"filename"`
}

type FileDeletedEvent struct {
	FileID     string `json:"file_id"`
	ObjectName string `json:"object_name"`
	OwnerID    string `json:"user_id"`
}

type UserDeletedEvent struct {
	UserID string `json:"user_id"`
}

// Bus is a connected NATS JetStream context.
type Bus struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect dials NATS, initializes JetStream and ensures the stream exists.
func Connect(url, name string) (*Bus, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Println("[NATS] connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	bus := &Bus{nc: nc, js: js}
	if err := bus.ensureStream(); err != nil {
		log.Printf("[NATS] warning: failed to ensure streams: %v", err)
	}

	log.Println("[NATS] connected and JetStream initialized")
	return bus, nil
}

func (b *Bus) ensureStream() error {
	if _, err := b.js.StreamInfo(StreamName); err == nil {
		return nil
	}

	_, err := b.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"files.*", "users.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish sends an event via JetStream with a unique message id.
func (b *Bus) Publish(subject string, payload interface{}) error {
	if b == nil || b.js == nil {
		return errors.New("jetstream not initialized")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := b.js.Publish(subject, data, nats.MsgId(uuid.New().String())); err != nil {
		log.Printf("[NATS] publish failed subject=%s err=%v", subject, err)
		return err
	}
	return nil
}

// Subscribe creates a durable, manual-ack consumer. The handler must
// Ack or Nak the message itself.
func (b *Bus) Subscribe(subject, durableName string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if b == nil || b.js == nil {
		return nil, errors.New("jetstream not initialized")
	}
	sub, err := b.js.Subscribe(subject, handler, nats.Durable(durableName), nats.ManualAck())
	if err != nil {
		return nil, err
	}
	log.Printf("[NATS] subscribed subject=%s durable=%s", subject, durableName)
	return sub, nil
}

// Close drains the connection.
func (b *Bus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}

// Ack safely acknowledges a message.
func Ack(msg *nats.Msg) {
	if err := msg.Ack(); err != nil {
		log.Printf("[NATS] Failed to ack message: %v", err)
	}
}

// Nak negatively acknowledges a message for redelivery.
func Nak(msg *nats.Msg) {
	if err := msg.Nak(); err != nil {
		log.Printf("[NATS] Failed to nak message: %v", err)
	}
}
