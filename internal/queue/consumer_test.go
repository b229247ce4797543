package queue

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConsumerDefaults(t *testing.T) {
	c := NewConsumer(nil, ConsumerOptions{Stream: "menux:tasks", Group: "g"}, zerolog.Nop(), nil)

	assert.Equal(t, int64(5), c.opts.MaxDeliveries)
	assert.Equal(t, "menux:tasks:dead", c.opts.DeadLetterStream)
}

func TestConsumerExhaustedAfterMaxDeliveries(t *testing.T) {
	c := NewConsumer(nil, ConsumerOptions{Stream: "s", MaxDeliveries: 3}, zerolog.Nop(), nil)

	assert.False(t, c.exhausted(1))
	assert.False(t, c.exhausted(2))
	assert.True(t, c.exhausted(3))
	assert.True(t, c.exhausted(7))
}
