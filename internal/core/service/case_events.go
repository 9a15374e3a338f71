package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// eventRecorder writes case events to the audit store and the event stream.
// Both sinks are optional and their failures are only logged.
type eventRecorder struct {
	repo      ports.CaseEventRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
	// timeout bounds both sinks together; zero means defaultEventTimeout.
	timeout time.Duration
}

const defaultEventTimeout = 2 * time.Second

// record runs detached from the caller's cancellation but never longer than
// the recorder timeout.
func (r eventRecorder) record(ctx context.Context, e *domain.CaseEvent) {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if r.repo != nil {
		if err := r.repo.Insert(ctx, e); err != nil {
			r.log.Warn().Err(err).Str("case_id", e.CaseID).Str("type", string(e.Type)).Msg("case event not stored")
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, e); err != nil {
			r.log.Warn().Err(err).Str("case_id", e.CaseID).Str("type", string(e.Type)).Msg("case event not published")
		}
	}
}
