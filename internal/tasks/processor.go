package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/mail"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
)

type SessionCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Processor struct {
	logger   zerolog.Logger
	mailer   mail.Mailer
	composer mail.Composer
	sessions SessionCleaner
}

func NewProcessor(logger zerolog.Logger, mailer mail.Mailer, composer mail.Composer, sessions SessionCleaner) *Processor {
	return &Processor{
		logger:   logger,
		mailer:   mailer,
		composer: composer,
		sessions: sessions,
	}
}

// Handle dispatches one stream message. Malformed and unknown tasks are
// logged and acked so they do not loop through the pending list forever.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := queue.DecodeTask(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		return nil
	}

	switch task.Type {
	case queue.TaskPasswordResetEmail:
		return p.handlePasswordReset(ctx, task)
	case queue.TaskWelcomeEmail:
		return p.handleWelcome(ctx, task)
	case queue.TaskSessionCleanup:
		return p.handleSessionCleanup(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handlePasswordReset(ctx context.Context, task queue.Task) error {
	email, token := task.Data["email"], task.Data["token"]
	if email == "" || token == "" {
		p.logger.Warn().Msg("password reset task without email or token")
		return nil
	}
	msg, err := p.composer.PasswordReset(email, task.Data["firstName"], token)
	if err != nil {
		return err
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("password reset mail: %w", err)
	}
	p.logger.Info().Str("to", email).Msg("password reset mail sent")
	return nil
}

func (p *Processor) handleWelcome(ctx context.Context, task queue.Task) error {
	email := task.Data["email"]
	if email == "" {
		p.logger.Warn().Msg("welcome task without email")
		return nil
	}
	msg, err := p.composer.Welcome(email, task.Data["firstName"])
	if err != nil {
		return err
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("welcome mail: %w", err)
	}
	p.logger.Info().Str("to", email).Msg("welcome mail sent")
	return nil
}

func (p *Processor) handleSessionCleanup(ctx context.Context) error {
	removed, err := p.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	p.logger.Info().Int64("removed", removed).Msg("expired sessions removed")
	return nil
}
