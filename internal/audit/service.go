package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Service stamps events and hands them to every sink. Writes are
// synchronous: the CLI exits right after an edit and must not lose events.
type Service struct {
	sinks []Sink
	clock Clock
	log   zerolog.Logger
}

func NewService(log zerolog.Logger, clock Clock, sinks ...Sink) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{sinks: sinks, clock: clock, log: log}
}

// Log stamps event with an id and time and writes it to all sinks. Sink
// failures are logged and do not fail the edit that was already saved.
func (s *Service) Log(ctx context.Context, event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now().UTC()
	}
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			s.log.Error().Err(err).Str("rule_id", event.RuleID).Str("action", event.Action).Msg("audit: failed to write event")
		}
	}
	return event
}

// CurrentActor names the operating-system user running the command.
func CurrentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// LogSink writes events to a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Write(_ context.Context, event Event) error {
	s.Logger.Info().
		Str("audit_id", event.ID).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("rule_id", event.RuleID).
		Interface("changes", event.Changes).
		Msg("rule changed")
	return nil
}

// FileSink appends events to a file as JSON lines.
type FileSink struct {
	Path string

	mu sync.Mutex
}

func (s *FileSink) Write(_ context.Context, event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
