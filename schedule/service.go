package schedule

import (
	"context"
	"log/slog"
)

// FragmentSource fetches the current raw schedule fragment.
type FragmentSource interface {
	Fragment(ctx context.Context) (string, error)
}

// Service composes fetch, normalize, extract and render into a single
// "current message for group" operation used by both the poll cycle and the
// on-demand bot commands.
type Service struct {
	fragments   FragmentSource
	logger      *slog.Logger
	strictGroup bool
}

// NewService creates a schedule service over the given fragment source.
func NewService(fragments FragmentSource, strictGroup bool, logger *slog.Logger) *Service {
	return &Service{
		fragments:   fragments,
		strictGroup: strictGroup,
		logger:      logger,
	}
}

// MessageForGroup returns the rendered notification text for a group. Fetch
// errors are propagated unchanged; extraction never fails.
func (s *Service) MessageForGroup(ctx context.Context, group string) (string, error) {
	fragment, err := s.fragments.Fragment(ctx)
	if err != nil {
		return "", err
	}

	lines := Normalize(fragment)
	rec := Extract(lines, group, s.strictGroup)

	s.logger.Debug("Schedule extracted",
		"group", group,
		"lines", len(lines),
		"date", rec.Date,
		"as_of", rec.AsOf)

	return Render(rec), nil
}
