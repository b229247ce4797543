package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStreamValues(t *testing.T) {
	task := Task{Type: TaskWelcomeEmail, Data: map[string]string{"email": "owner@menux.app"}}

	values, err := task.values()
	require.NoError(t, err)
	assert.Equal(t, TaskWelcomeEmail, values["type"])

	decoded, err := DecodeTask(values)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestDecodeTaskWithoutData(t *testing.T) {
	task, err := DecodeTask(map[string]any{"type": TaskSessionCleanup})
	require.NoError(t, err)
	assert.Equal(t, TaskSessionCleanup, task.Type)
	assert.Empty(t, task.Data)
}

func TestDecodeTaskRejectsMissingType(t *testing.T) {
	_, err := DecodeTask(map[string]any{"data": "{}"})
	assert.Error(t, err)

	_, err = DecodeTask(map[string]any{"type": TaskWelcomeEmail, "data": "{not json"})
	assert.Error(t, err)
}
