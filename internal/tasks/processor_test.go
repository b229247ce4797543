package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariffaisalsheam/menux-app/internal/mail"
)

type outbox struct {
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

type cleaner struct {
	calls int
	err   error
}

func (c *cleaner) DeleteExpired(context.Context) (int64, error) {
	c.calls++
	return 4, c.err
}

func newProcessor() (*Processor, *outbox, *cleaner) {
	box, sessions := &outbox{}, &cleaner{}
	return NewProcessor(zerolog.Nop(), box, mail.NewComposer("http://web.test"), sessions), box, sessions
}

func message(typ, data string) redis.XMessage {
	values := map[string]any{"type": typ}
	if data != "" {
		values["data"] = data
	}
	return redis.XMessage{ID: "1-0", Values: values}
}

func TestPasswordResetTaskSendsMail(t *testing.T) {
	p, box, _ := newProcessor()

	err := p.Handle(context.Background(), message("password_reset_email", `{"email":"owner@menux.app","firstName":"Ayesha","token":"tok"}`))
	require.NoError(t, err)
	require.Len(t, box.sent, 1)
	assert.Equal(t, "owner@menux.app", box.sent[0].To)
	assert.Contains(t, box.sent[0].Text, "http://web.test/reset-password?token=tok")
}

func TestWelcomeTaskSendsMail(t *testing.T) {
	p, box, _ := newProcessor()

	require.NoError(t, p.Handle(context.Background(), message("welcome_email", `{"email":"new@menux.app","firstName":"Nadia"}`)))
	require.Len(t, box.sent, 1)
	assert.Equal(t, "Welcome to Menu.X", box.sent[0].Subject)
}

func TestMailFailureIsRetried(t *testing.T) {
	p, box, _ := newProcessor()
	box.err = errors.New("smtp down")

	err := p.Handle(context.Background(), message("welcome_email", `{"email":"new@menux.app"}`))
	assert.ErrorIs(t, err, box.err)
}

func TestSessionCleanupTask(t *testing.T) {
	p, _, sessions := newProcessor()

	require.NoError(t, p.Handle(context.Background(), message("session_cleanup", "")))
	assert.Equal(t, 1, sessions.calls)

	sessions.err = errors.New("db down")
	assert.Error(t, p.Handle(context.Background(), message("session_cleanup", "")))
}

func TestUnknownAndMalformedTasksAreAcked(t *testing.T) {
	p, box, _ := newProcessor()

	assert.NoError(t, p.Handle(context.Background(), message("nsfw_scan", "")))
	assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]any{}}))
	assert.NoError(t, p.Handle(context.Background(), message("welcome_email", `not json`)))
	assert.NoError(t, p.Handle(context.Background(), message("password_reset_email", `{"email":"x@menux.app"}`)))
	assert.Empty(t, box.sent)
}
