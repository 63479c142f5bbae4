package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/booking"
	"github.com/locspot/salon-booking/internal/catalog"
)

const dateLayout = "2006-01-02"

func listSlotsHandler(svc *booking.Service, defaultInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be a date (YYYY-MM-DD)")
			return
		}

		to := from
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err = time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be a date (YYYY-MM-DD)")
				return
			}
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "invalid_range", "to must not be before from")
			return
		}

		interval := defaultInterval
		if raw := r.URL.Query().Get("interval_minutes"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_interval", "interval_minutes must be a positive integer")
				return
			}
			interval = time.Duration(n) * time.Minute
		}

		slots, err := svc.AvailableSlots(r.Context(), practitionerID, serviceID, from, to, interval)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{Start: s.Start, End: s.End})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		practitionerID, _ := uuid.Parse(req.PractitionerID)
		customerID, _ := uuid.Parse(req.CustomerID)
		serviceID, _ := uuid.Parse(req.ServiceID)

		b, err := svc.AdmitBooking(r.Context(), practitionerID, customerID, serviceID, req.Start)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func bookingHistoryHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		changes, err := svc.StateHistory(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]StateChangeResponse, 0, len(changes))
		for _, sc := range changes {
			var prev *string
			if sc.PreviousStatus != nil {
				p := string(*sc.PreviousStatus)
				prev = &p
			}
			resp = append(resp, StateChangeResponse{
				PreviousStatus: prev,
				NewStatus:      string(sc.NewStatus),
				Reason:         sc.Reason,
				ChangedAt:      sc.ChangedAt,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listCustomerBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_customer_id", "id must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		bookings, err := svc.ListBookingsByCustomer(r.Context(), customerID, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			resp = append(resp, toBookingResponse(&bookings[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// transitionHandler serves the confirm/start/complete/no-show endpoints,
// which differ only in the service method invoked.
func transitionHandler(apply func(r *http.Request, id uuid.UUID) (*booking.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		b, err := apply(r, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func cancelBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		var req CancelBookingRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
			if err := validate.Struct(req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
		}

		b, err := svc.Cancel(r.Context(), id, req.Reason, nil)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	var conflict *booking.ConflictError
	var policy *booking.PolicyError
	var transition *booking.InvalidTransitionError

	switch {
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "window_conflict", conflict.Error())
	case errors.As(err, &policy):
		writeError(w, http.StatusUnprocessableEntity, "policy_violation", policy.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.Is(err, booking.ErrAdmissionContended):
		writeError(w, http.StatusConflict, "calendar_busy", "practitioner calendar is busy, please retry shortly")
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, catalog.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
	case errors.Is(err, catalog.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", err.Error())
	case errors.Is(err, availability.ErrInvalidDuration),
		errors.Is(err, availability.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, availability.ErrPatternNotFound):
		writeError(w, http.StatusNotFound, "pattern_not_found", err.Error())
	case errors.Is(err, availability.ErrOverrideNotFound):
		writeError(w, http.StatusNotFound, "override_not_found", err.Error())
	case errors.Is(err, availability.ErrPatternInUse):
		writeError(w, http.StatusConflict, "pattern_in_use", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
