package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// Event is one server-sent event.
type Event struct {
	// Event is the event type; omitted when empty.
	Event string

	// Data is written as-is for strings and bytes, JSON-encoded otherwise.
	Data interface{}

	ID    string
	Retry int
}

// Send writes event to w and flushes.
func Send(w *bufio.Writer, event Event) error {
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if event.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", event.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}
	if event.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}

	var data string
	switch v := event.Data.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(encoded)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}
	return w.Flush()
}

// SendSnapshot sends the full moderation queue state.
func SendSnapshot(w *bufio.Writer, id string, data interface{}) error {
	return Send(w, Event{Event: "snapshot", ID: id, Data: data})
}

// SendError sends an error event.
func SendError(w *bufio.Writer, err error) error {
	return Send(w, Event{
		Event: "error",
		Data: map[string]interface{}{
			"type":    "error",
			"message": err.Error(),
		},
	})
}

// SendKeepAlive writes a comment line so idle proxies keep the stream open.
func SendKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	return w.Flush()
}
