package mq

import (
	"encoding/json"
	"errors"
	"sync"
)

// Task mutation topics.
const (
	TopicTaskAdded   = "task.added"
	TopicTaskUpdated = "task.updated"
	TopicTaskDeleted = "task.deleted"
)

// TaskTopics lists every topic a task mutation can be published on.
var TaskTopics = []string{TopicTaskAdded, TopicTaskUpdated, TopicTaskDeleted}

type Publisher interface {
	Publish(topic string, payload []byte) error
}

type Subscriber interface {
	Subscribe(topic string, handler func([]byte) error) error
}

// Event is the payload carried on the task topics.
type Event struct {
	Topic  string `json:"topic"`
	TaskID int64  `json:"task_id"`
	Title  string `json:"title,omitempty"`
}

func (e Event) Marshal() ([]byte, error) { return json.Marshal(e) }

func DecodeEvent(payload []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(payload, &e)
	return e, err
}

// PublishEvent encodes e and publishes it on e.Topic.
func PublishEvent(p Publisher, e Event) error {
	b, err := e.Marshal()
	if err != nil {
		return err
	}
	return p.Publish(e.Topic, b)
}

type Noop struct{}

func (Noop) Publish(topic string, payload []byte) error               { return nil }
func (Noop) Subscribe(topic string, handler func([]byte) error) error { return nil }

// Bus is an in-process, synchronous Publisher/Subscriber. Handlers run on the
// publishing goroutine in subscription order; all handler errors are joined.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte) error
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]func([]byte) error)}
}

func (b *Bus) Subscribe(topic string, handler func([]byte) error) error {
	if handler == nil {
		return errors.New("mq: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *Bus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	hs := make([]func([]byte) error, len(b.handlers[topic]))
	copy(hs, b.handlers[topic])
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
