package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/service"
)

// TravelerHeader carries the authenticated traveler id, set by the gateway
const TravelerHeader = "X-Traveler-ID"

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	logger         logger.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService, log logger.Logger) *Handler {
	return &Handler{
		bookingService: bookingService,
		logger:         log,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var (
		validation *holds.ValidationError
		class      *holds.InvalidClassError
		conflict   *holds.ConflictError
		storage    *holds.StorageError
	)

	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &class):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid class", "class": class.Token})
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, models.ConflictResponse{Error: "seats unavailable", Seats: conflict.Seats})
	case errors.Is(err, holds.ErrHoldExpired):
		respondError(w, http.StatusConflict, holds.ErrHoldExpired.Error())
	case errors.Is(err, schedule.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrCheckoutNotFound):
		respondError(w, http.StatusNotFound, "Checkout not found")
	case errors.Is(err, service.ErrCheckoutUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &storage) && storage.Retryable():
		respondError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		h.logger.Error("Request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func travelerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(TravelerHeader))
}

// requireTraveler writes 401 and returns false when the traveler header is missing
func requireTraveler(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := travelerID(r)
	if id == "" {
		respondError(w, http.StatusUnauthorized, "traveler id is required")
		return "", false
	}
	return id, true
}

func parseDate(value string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// SearchSolutions handles GET /api/solutions/search
func (h *Handler) SearchSolutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := strings.ToUpper(strings.TrimSpace(q.Get("origin")))
	destination := strings.ToUpper(strings.TrimSpace(q.Get("destination")))

	if origin == "" || destination == "" {
		respondError(w, http.StatusBadRequest, "Origin and destination are required")
		return
	}
	if origin == destination {
		respondError(w, http.StatusBadRequest, "Origin and destination must differ")
		return
	}

	departure, err := parseDate(q.Get("departure"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid departure date")
		return
	}

	if ret := q.Get("return"); ret != "" {
		inbound, err := parseDate(ret)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid return date")
			return
		}
		if inbound.Before(departure) {
			respondError(w, http.StatusBadRequest, "Return date must not precede departure")
			return
		}

		result, err := h.bookingService.SearchRoundTrip(r.Context(), origin, destination, departure, inbound)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.bookingService.SearchOneWay(r.Context(), origin, destination, departure)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetConfiguration handles GET /api/booking/configuration
func (h *Handler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSpace(r.URL.Query().Get("model"))
	if model == "" {
		respondError(w, http.StatusBadRequest, "Model is required")
		return
	}

	cfg, err := h.bookingService.GetAircraftConfiguration(r.Context(), model)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// GetSeatMap handles GET /api/booking/seatmap
func (h *Handler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}

	flight := strings.TrimSpace(r.URL.Query().Get("flight"))
	if flight == "" {
		respondError(w, http.StatusBadRequest, "Flight is required")
		return
	}

	legs := 1
	if raw := r.URL.Query().Get("legs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > holds.MaxLegs {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Legs must be between 1 and %d", holds.MaxLegs))
			return
		}
		legs = n
	}

	seatMap, err := h.bookingService.GetSeatMap(r.Context(), flight, legs, traveler)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seatMap)
}

// GetOccupiedSeats handles GET /api/booking/seats
func (h *Handler) GetOccupiedSeats(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}

	flight := strings.TrimSpace(r.URL.Query().Get("flight"))
	if flight == "" {
		respondError(w, http.StatusBadRequest, "Flight is required")
		return
	}

	occupied, err := h.bookingService.GetOccupiedSeats(r.Context(), flight, traveler)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if occupied == nil {
		occupied = []string{}
	}
	respondJSON(w, http.StatusOK, models.OccupiedSeatsResponse{Occupied: occupied})
}

// ReserveSeats handles POST /api/booking/seats/reserve
func (h *Handler) ReserveSeats(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}

	var req models.ReserveSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickets) == 0 {
		respondError(w, http.StatusBadRequest, "At least one seat must be selected")
		return
	}

	res, err := h.bookingService.ReserveSeats(r.Context(), traveler, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// FinalizeTickets handles POST /api/checkout/tickets
func (h *Handler) FinalizeTickets(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}

	var tickets []models.FinalizeTicket
	if err := json.NewDecoder(r.Body).Decode(&tickets); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(tickets) == 0 {
		respondError(w, http.StatusBadRequest, "At least one ticket is required")
		return
	}

	if err := h.bookingService.FinalizeTickets(r.Context(), traveler, tickets); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StartCheckout handles POST /api/checkout
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickets) == 0 {
		respondError(w, http.StatusBadRequest, "At least one ticket is required")
		return
	}

	started, err := h.bookingService.StartCheckout(r.Context(), traveler, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, started)
}

// GetCheckout handles GET /api/checkout/{id}
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}
	checkoutID := mux.Vars(r)["id"]

	state, err := h.bookingService.GetCheckout(r.Context(), traveler, checkoutID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// SubmitPayment handles POST /api/checkout/{id}/pay
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}
	checkoutID := mux.Vars(r)["id"]

	var req models.SubmitPaymentSignal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.bookingService.SubmitPayment(r.Context(), traveler, checkoutID, req.PaymentCode); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Payment submitted"})
}

// CancelCheckout handles DELETE /api/checkout/{id}
func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	traveler, ok := requireTraveler(w, r)
	if !ok {
		return
	}
	checkoutID := mux.Vars(r)["id"]

	if err := h.bookingService.CancelCheckout(r.Context(), traveler, checkoutID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Checkout cancelled"})
}

// BuildSegments handles POST /api/booking/segments. It turns the chosen
// itineraries into the ordered legs the traveler picks seats for.
func (h *Handler) BuildSegments(w http.ResponseWriter, r *http.Request) {
	var req models.SegmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Outbound == nil || len(req.Outbound.Legs) == 0 {
		respondError(w, http.StatusBadRequest, "Outbound itinerary is required")
		return
	}
	if req.Return != nil && len(req.Return.Legs) == 0 {
		respondError(w, http.StatusBadRequest, "Return itinerary has no flights")
		return
	}

	respondJSON(w, http.StatusOK, models.Segments(req.Outbound, req.Return))
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
