package queue

import (
	"encoding/json"
	"fmt"
)

const (
	TaskPasswordResetEmail = "password_reset_email"
	TaskWelcomeEmail       = "welcome_email"
	TaskSessionCleanup     = "session_cleanup"
)

// Task is one unit of background work carried on the stream. Data holds
// task-specific string fields such as the recipient email.
type Task struct {
	Type string
	Data map[string]string
}

func (t Task) values() (map[string]any, error) {
	data, err := json.Marshal(t.Data)
	if err != nil {
		return nil, fmt.Errorf("encode task data: %w", err)
	}
	return map[string]any{"type": t.Type, "data": string(data)}, nil
}

// DecodeTask reads a task back from stream message values.
func DecodeTask(values map[string]any) (Task, error) {
	typ, _ := values["type"].(string)
	if typ == "" {
		return Task{}, fmt.Errorf("task type missing")
	}
	task := Task{Type: typ, Data: map[string]string{}}
	raw, _ := values["data"].(string)
	if raw == "" {
		return task, nil
	}
	if err := json.Unmarshal([]byte(raw), &task.Data); err != nil {
		return Task{}, fmt.Errorf("decode task data: %w", err)
	}
	return task, nil
}
