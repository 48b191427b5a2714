package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// ChangeMessage announces a committed mutation. It carries only the
// identity of the row; consumers read the current state themselves.
type ChangeMessage struct {
	Entity    core.Entity `json:"entity"`
	Op        core.Op     `json:"op"`
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewChangeMessage(entity core.Entity, op core.Op, id int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Entity.IsValid() {
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	if !msg.Op.IsValid() {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid id %d", msg.ID)
	}
	return &msg, nil
}
