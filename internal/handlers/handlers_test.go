package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/service"
	"github.com/sabscarpenter/skytravel/internal/service/mocks"
)

func setupTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/solutions/search", h.SearchSolutions).Methods(http.MethodGet)
	api.HandleFunc("/booking/configuration", h.GetConfiguration).Methods(http.MethodGet)
	api.HandleFunc("/booking/seatmap", h.GetSeatMap).Methods(http.MethodGet)
	api.HandleFunc("/booking/seats", h.GetOccupiedSeats).Methods(http.MethodGet)
	api.HandleFunc("/booking/seats/reserve", h.ReserveSeats).Methods(http.MethodPost)
	api.HandleFunc("/booking/segments", h.BuildSegments).Methods(http.MethodPost)
	api.HandleFunc("/checkout/tickets", h.FinalizeTickets).Methods(http.MethodPost)
	api.HandleFunc("/checkout", h.StartCheckout).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{id}", h.GetCheckout).Methods(http.MethodGet)
	api.HandleFunc("/checkout/{id}", h.CancelCheckout).Methods(http.MethodDelete)
	api.HandleFunc("/checkout/{id}/pay", h.SubmitPayment).Methods(http.MethodPost)
	return r
}

func newTestHandler() (*mocks.MockBookingService, *mux.Router) {
	mockService := new(mocks.MockBookingService)
	return mockService, setupTestRouter(NewHandler(mockService, logger.NewNop()))
}

func doRequest(router http.Handler, method, target string, body interface{}, traveler string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if traveler != "" {
		req.Header.Set(TravelerHeader, traveler)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SearchOneWay(t *testing.T) {
	mockService, router := newTestHandler()

	departure := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	views := []models.ItineraryView{{
		Legs:          []models.FlightLeg{{FlightNumber: "AZ100", Origin: "FCO", Destination: "LIN", EconomyPrice: 70}},
		TotalDuration: "1h 10m",
	}}
	mockService.On("SearchOneWay", mock.Anything, "FCO", "LIN", departure).Return(views, nil)

	rec := doRequest(router, http.MethodGet, "/api/solutions/search?origin=fco&destination=LIN&departure=2025-03-01", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []models.ItineraryView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Len(t, response, 1)
	assert.Equal(t, "AZ100", response[0].Legs[0].FlightNumber)
	mockService.AssertExpectations(t)
}

func TestHandler_SearchRoundTrip(t *testing.T) {
	mockService, router := newTestHandler()

	departure := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	inbound := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	mockService.On("SearchRoundTrip", mock.Anything, "FCO", "LIN", departure, inbound).
		Return(&models.RoundTripResponse{Outbound: []models.ItineraryView{}, Return: []models.ItineraryView{}}, nil)

	rec := doRequest(router, http.MethodGet, "/api/solutions/search?origin=FCO&destination=LIN&departure=2025-03-01T08:30&return=2025-03-05", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"outbound":[],"return":[]}`, rec.Body.String())
	mockService.AssertExpectations(t)
}

func TestHandler_SearchValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing origin", query: "destination=LIN&departure=2025-03-01"},
		{name: "same airports", query: "origin=FCO&destination=fco&departure=2025-03-01"},
		{name: "bad departure", query: "origin=FCO&destination=LIN&departure=tomorrow"},
		{name: "bad return", query: "origin=FCO&destination=LIN&departure=2025-03-01&return=x"},
		{name: "return before departure", query: "origin=FCO&destination=LIN&departure=2025-03-05&return=2025-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := newTestHandler()

			rec := doRequest(router, http.MethodGet, "/api/solutions/search?"+tt.query, nil, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			mockService.AssertNotCalled(t, "SearchOneWay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_GetConfiguration(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockReturn     *models.AircraftConfiguration
		mockError      error
		expectedStatus int
	}{
		{
			name:           "found",
			query:          "model=A320",
			mockReturn:     &models.AircraftConfiguration{Model: "A320", TotalSeats: 16, Layout: "3-3"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown model",
			query:          "model=B747",
			mockError:      schedule.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing model",
			query:          "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := newTestHandler()
			if tt.mockReturn != nil || tt.mockError != nil {
				mockService.On("GetAircraftConfiguration", mock.Anything, mock.Anything).Return(tt.mockReturn, tt.mockError)
			}

			rec := doRequest(router, http.MethodGet, "/api/booking/configuration?"+tt.query, nil, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_GetSeatMap(t *testing.T) {
	mockService, router := newTestHandler()

	seatMap := &models.SeatMapResponse{FlightNumber: "AZ100", Layout: "3-3"}
	mockService.On("GetSeatMap", mock.Anything, "AZ100", 2, "trav-1").Return(seatMap, nil)

	rec := doRequest(router, http.MethodGet, "/api/booking/seatmap?flight=AZ100&legs=2", nil, "trav-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)

	t.Run("invalid legs", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/booking/seatmap?flight=AZ100&legs=4", nil, "trav-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing traveler", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/booking/seatmap?flight=AZ100", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandler_GetOccupiedSeats(t *testing.T) {
	mockService, router := newTestHandler()
	mockService.On("GetOccupiedSeats", mock.Anything, "AZ100", "trav-1").Return(nil, nil)

	rec := doRequest(router, http.MethodGet, "/api/booking/seats?flight=AZ100", nil, "trav-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"occupied":[]}`, rec.Body.String())
	mockService.AssertExpectations(t)
}

func TestHandler_ReserveSeats(t *testing.T) {
	expiresAt := time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)
	body := models.ReserveSeatsRequest{
		FlightNumber: "AZ100",
		Legs:         1,
		Tickets:      []models.SeatTicket{{SeatCode: "2A", Class: "economy", FirstName: "Ada", LastName: "Lovelace"}},
	}

	tests := []struct {
		name           string
		mockReturn     *models.ReserveSeatsResponse
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "held",
			mockReturn:     &models.ReserveSeatsResponse{Success: true, ExpiresAt: expiresAt},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"expiresAt":"2025-03-01T10:15:00Z"}`,
		},
		{
			name:           "conflict",
			mockError:      &holds.ConflictError{Seats: []string{"2A"}},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"error":"seats unavailable","seats":["2A"]}`,
		},
		{
			name:           "invalid class",
			mockError:      &holds.InvalidClassError{Token: "premium", Seat: "2A"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid class","class":"premium"}`,
		},
		{
			name:           "validation",
			mockError:      &holds.ValidationError{Field: "seat", Reason: "duplicate seat 2A"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid seat: duplicate seat 2A"}`,
		},
		{
			name:           "unknown flight",
			mockError:      schedule.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"not found"}`,
		},
		{
			name:           "serialization failure",
			mockError:      &holds.StorageError{Op: "reserve seats", Err: &pgconn.PgError{Code: "40001"}},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"temporarily unavailable, retry"}`,
		},
		{
			name:           "storage failure",
			mockError:      &holds.StorageError{Op: "reserve seats", Err: errors.New("connection refused")},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := newTestHandler()
			mockService.On("ReserveSeats", mock.Anything, "trav-1", mock.AnythingOfType("*models.ReserveSeatsRequest")).
				Return(tt.mockReturn, tt.mockError)

			rec := doRequest(router, http.MethodPost, "/api/booking/seats/reserve", body, "trav-1")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_ReserveSeats_BadRequest(t *testing.T) {
	mockService, router := newTestHandler()

	t.Run("no seats", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/api/booking/seats/reserve", models.ReserveSeatsRequest{FlightNumber: "AZ100"}, "trav-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/booking/seats/reserve", bytes.NewBufferString("{"))
		req.Header.Set(TravelerHeader, "trav-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing traveler", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/api/booking/seats/reserve", models.ReserveSeatsRequest{}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	mockService.AssertNotCalled(t, "ReserveSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_FinalizeTickets(t *testing.T) {
	tickets := []models.FinalizeTicket{{FlightNumber: "AZ100", SeatCode: "2A", ExtraBags: 1}}

	t.Run("ticketed", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("FinalizeTickets", mock.Anything, "trav-1", tickets).Return(nil)

		rec := doRequest(router, http.MethodPost, "/api/checkout/tickets", tickets, "trav-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("hold expired", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("FinalizeTickets", mock.Anything, "trav-1", tickets).Return(holds.ErrHoldExpired)

		rec := doRequest(router, http.MethodPost, "/api/checkout/tickets", tickets, "trav-1")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"hold expired or invalid"}`, rec.Body.String())
	})
}

func TestHandler_StartCheckout(t *testing.T) {
	req := models.CheckoutRequest{
		Tickets:     []models.FinalizeTicket{{FlightNumber: "AZ100", SeatCode: "2A"}},
		PaymentCode: "12345",
	}

	t.Run("started", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("StartCheckout", mock.Anything, "trav-1", mock.AnythingOfType("*models.CheckoutRequest")).
			Return(&models.CheckoutStarted{CheckoutID: "c-1", WorkflowID: "checkout-c-1"}, nil)

		rec := doRequest(router, http.MethodPost, "/api/checkout", req, "trav-1")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"checkoutId":"c-1","workflowId":"checkout-c-1"}`, rec.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("workflow engine unavailable", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("StartCheckout", mock.Anything, "trav-1", mock.Anything).Return(nil, service.ErrCheckoutUnavailable)

		rec := doRequest(router, http.MethodPost, "/api/checkout", req, "trav-1")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandler_GetCheckout(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *models.CheckoutState
		mockError      error
		expectedStatus int
	}{
		{
			name:           "found",
			mockReturn:     &models.CheckoutState{CheckoutID: "c-1", TravelerID: "trav-1", Status: models.CheckoutStatusAwaitingPayment},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			mockError:      service.ErrCheckoutNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unavailable",
			mockError:      service.ErrCheckoutUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "workflow engine error",
			mockError:      errors.New("failed to query workflow: connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := newTestHandler()
			mockService.On("GetCheckout", mock.Anything, "trav-1", "c-1").Return(tt.mockReturn, tt.mockError)

			rec := doRequest(router, http.MethodGet, "/api/checkout/c-1", nil, "trav-1")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_CheckoutRequiresTraveler(t *testing.T) {
	tests := []struct {
		method string
		target string
		body   interface{}
	}{
		{http.MethodGet, "/api/checkout/c-1", nil},
		{http.MethodPost, "/api/checkout/c-1/pay", models.SubmitPaymentSignal{PaymentCode: "12345"}},
		{http.MethodDelete, "/api/checkout/c-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			mockService, router := newTestHandler()

			rec := doRequest(router, tt.method, tt.target, tt.body, "")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			mockService.AssertNotCalled(t, "GetCheckout", mock.Anything, mock.Anything, mock.Anything)
			mockService.AssertNotCalled(t, "SubmitPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mockService.AssertNotCalled(t, "CancelCheckout", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_SubmitPayment(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("SubmitPayment", mock.Anything, "trav-1", "c-1", "12345").Return(nil)

		rec := doRequest(router, http.MethodPost, "/api/checkout/c-1/pay", models.SubmitPaymentSignal{PaymentCode: "12345"}, "trav-1")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("another traveler's checkout", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("SubmitPayment", mock.Anything, "trav-2", "c-1", "12345").Return(service.ErrCheckoutNotFound)

		rec := doRequest(router, http.MethodPost, "/api/checkout/c-1/pay", models.SubmitPaymentSignal{PaymentCode: "12345"}, "trav-2")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_CancelCheckout(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("CancelCheckout", mock.Anything, "trav-1", "c-1").Return(nil)

		rec := doRequest(router, http.MethodDelete, "/api/checkout/c-1", nil, "trav-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("another traveler's checkout", func(t *testing.T) {
		mockService, router := newTestHandler()
		mockService.On("CancelCheckout", mock.Anything, "trav-2", "c-1").Return(service.ErrCheckoutNotFound)

		rec := doRequest(router, http.MethodDelete, "/api/checkout/c-1", nil, "trav-2")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_BuildSegments(t *testing.T) {
	outbound := &models.ItineraryView{Legs: []models.FlightLeg{
		{FlightNumber: "AZ100", Origin: "FCO", Destination: "LIN"},
		{FlightNumber: "AZ200", Origin: "LIN", Destination: "CDG"},
	}}
	inbound := &models.ItineraryView{Legs: []models.FlightLeg{
		{FlightNumber: "AF300", Origin: "CDG", Destination: "FCO"},
	}}

	t.Run("round trip", func(t *testing.T) {
		_, router := newTestHandler()

		rec := doRequest(router, http.MethodPost, "/api/booking/segments",
			models.SegmentsRequest{Outbound: outbound, Return: inbound}, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var segments []models.BookingSegment
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&segments))
		require.Len(t, segments, 3)
		assert.Equal(t, models.DirectionOutbound, segments[0].Direction)
		assert.Equal(t, 2, segments[1].Legs)
		assert.Equal(t, "AF300-2", segments[2].ID)
		assert.Equal(t, models.DirectionReturn, segments[2].Direction)
	})

	t.Run("one way", func(t *testing.T) {
		_, router := newTestHandler()

		rec := doRequest(router, http.MethodPost, "/api/booking/segments", models.SegmentsRequest{Outbound: outbound}, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var segments []models.BookingSegment
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&segments))
		require.Len(t, segments, 2)
		assert.Equal(t, models.DirectionOneWay, segments[0].Direction)
	})

	t.Run("missing outbound", func(t *testing.T) {
		_, router := newTestHandler()

		rec := doRequest(router, http.MethodPost, "/api/booking/segments", models.SegmentsRequest{Return: inbound}, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_HealthCheck(t *testing.T) {
	handler := NewHandler(new(mocks.MockBookingService), logger.NewNop())

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
}
