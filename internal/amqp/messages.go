package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/ui"
)

// NotificationMessage is the wire form of a user notification.
type NotificationMessage struct {
	Message   string      `json:"message"`
	Severity  ui.Severity `json:"severity"`
	Source    string      `json:"source,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewNotificationMessage stamps n with now when it carries no time.
func NewNotificationMessage(n ui.Notification, source string) *NotificationMessage {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	return &NotificationMessage{
		Message:   n.Message,
		Severity:  n.Severity,
		Source:    source,
		Timestamp: at,
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *NotificationMessage) Notification() ui.Notification {
	return ui.Notification{Message: m.Message, Severity: m.Severity, At: m.Timestamp}
}
