package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEventNotFound = errors.New("calendar event not found")

type Repository interface {
	CreateEvent(ctx context.Context, ev *Event) error
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// EventsInRange returns events that may occupy time within [from, to):
	// one-off events overlapping the range plus every recurring event of the
	// practitioner (expansion decides which occurrences actually land inside).
	EventsInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Event, error)
}
