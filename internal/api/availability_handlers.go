package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/booking"
	"github.com/locspot/salon-booking/internal/calendar"
	"github.com/locspot/salon-booking/internal/catalog"
)

func createPatternHandler(mgr *availability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		var req CreatePatternRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		from, _ := time.Parse(dateLayout, req.EffectiveFrom)
		var until *time.Time
		if req.EffectiveUntil != nil {
			u, _ := time.Parse(dateLayout, *req.EffectiveUntil)
			until = &u
		}

		p := &availability.Pattern{
			PractitionerID: practitionerID,
			Weekday:        time.Weekday(req.DayOfWeek),
			StartMinute:    req.StartMinute,
			EndMinute:      req.EndMinute,
			EffectiveFrom:  from,
			EffectiveUntil: until,
			Active:         true,
		}

		if err := mgr.CreatePattern(r.Context(), p); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, p)
	}
}

func deactivatePatternHandler(mgr *availability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "patternID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_pattern_id", "patternID must be a valid UUID")
			return
		}

		if err := mgr.DeactivatePattern(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func deletePatternHandler(mgr *availability.Manager, cat catalog.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "patternID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_pattern_id", "patternID must be a valid UUID")
			return
		}

		// Deletion checks future bookings in the practitioner's own zone.
		loc := time.UTC
		if p, err := mgr.PatternPractitioner(r.Context(), id); err == nil {
			if prac, err := cat.GetPractitionerByID(r.Context(), p); err == nil {
				if l, err := time.LoadLocation(prac.Timezone); err == nil {
					loc = l
				}
			}
		}

		if err := mgr.DeletePattern(r.Context(), id, loc); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func upsertOverrideHandler(mgr *availability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var req UpsertOverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		o := &availability.Override{
			PractitionerID: practitionerID,
			Date:           date,
			StartMinute:    req.StartMinute,
			EndMinute:      req.EndMinute,
			Available:      req.IsAvailable,
			Reason:         req.Reason,
		}

		if err := mgr.UpsertOverride(r.Context(), o); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, o)
	}
}

func deleteOverrideHandler(mgr *availability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		if err := mgr.DeleteOverride(r.Context(), practitionerID, date); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func createEventHandler(events calendar.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if req.Recurring && req.RecurrenceRule == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "recurring events need a recurrence_rule")
			return
		}

		ev := &calendar.Event{
			PractitionerID: practitionerID,
			Title:          req.Title,
			EventType:      calendar.EventType(req.EventType),
			Start:          req.Start,
			End:            req.End,
			Recurring:      req.Recurring,
			RecurrenceRule: req.RecurrenceRule,
			Public:         req.Public,
		}

		if err := events.CreateEvent(r.Context(), ev); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ev)
	}
}

func deleteEventHandler(events calendar.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_id", "eventID must be a valid UUID")
			return
		}

		if err := events.DeleteEvent(r.Context(), id); err != nil {
			if errors.Is(err, calendar.ErrEventNotFound) {
				writeError(w, http.StatusNotFound, "event_not_found", err.Error())
				return
			}
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// icsFeedHandler serves the practitioner's public iCalendar feed for the
// next 90 days.
func icsFeedHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		now := time.Now()
		feed, err := svc.CalendarFeed(r.Context(), practitionerID, now, now.AddDate(0, 0, 90))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(feed))
	}
}
