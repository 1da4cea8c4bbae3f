package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/events"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// notFoundAs replaces a missing-row error with target.
func notFoundAs(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

// canonicalID returns id in the lowercase hyphenated form the store returns.
// Braced, urn:uuid: and upper-case spellings of the same id all map to it.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func userActor(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, TeamID: user.TeamID}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func subTaskInsertError(err error, teamID string) error {
	if apperrors.IsUniqueViolation(err) {
		return domain.ErrDuplicateAssignment.WithDetails(map[string]any{"team_id": teamID})
	}
	return err
}
