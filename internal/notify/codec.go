package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownTargetType       = errors.New("unknown target type")
	ErrUnknownNotificationType = errors.New("unknown notification type")
)

// JSONCodec encodes targets and notifications as JSON and rehydrates them
// through factories registered per type name.
type JSONCodec struct {
	mu            sync.RWMutex
	targets       map[string]func() Notifiable
	notifications map[string]func() Notification
}

// NewJSONCodec creates a codec with the built-in Recipient and Message types registered.
func NewJSONCodec() *JSONCodec {
	c := &JSONCodec{
		targets:       make(map[string]func() Notifiable),
		notifications: make(map[string]func() Notification),
	}

	c.RegisterTarget(RecipientType, func() Notifiable { return &Recipient{} })
	c.RegisterNotification(MessageType, func() Notification { return &Message{} })

	return c
}

// RegisterTarget registers a factory returning a pointer to a zero target of type typ.
func (c *JSONCodec) RegisterTarget(typ string, factory func() Notifiable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.targets[typ] = factory
}

// RegisterNotification registers a factory returning a pointer to a zero notification of type typ.
func (c *JSONCodec) RegisterNotification(typ string, factory func() Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notifications[typ] = factory
}

// EncodeTarget serializes target. Unregistered types are rejected so that
// every stored record can be rehydrated later.
func (c *JSONCodec) EncodeTarget(target Notifiable) ([]byte, error) {
	if !c.hasTarget(target.NotifiableType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTargetType, target.NotifiableType())
	}

	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("marshal target: %w", err)
	}

	return data, nil
}

// DecodeTarget rehydrates a target of type typ.
func (c *JSONCodec) DecodeTarget(typ string, data []byte) (Notifiable, error) {
	c.mu.RLock()
	factory, ok := c.targets[typ]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTargetType, typ)
	}

	target := factory()
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("unmarshal target: %w", err)
	}

	return target, nil
}

// EncodeNotification serializes n.
func (c *JSONCodec) EncodeNotification(n Notification) ([]byte, error) {
	if !c.hasNotification(n.NotificationType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotificationType, n.NotificationType())
	}

	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}

	return data, nil
}

// DecodeNotification rehydrates a notification of type typ.
func (c *JSONCodec) DecodeNotification(typ string, data []byte) (Notification, error) {
	c.mu.RLock()
	factory, ok := c.notifications[typ]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotificationType, typ)
	}

	n := factory()
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}

	return n, nil
}

func (c *JSONCodec) hasTarget(typ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.targets[typ]
	return ok
}

func (c *JSONCodec) hasNotification(typ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.notifications[typ]
	return ok
}
