package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabscarpenter/skytravel/internal/handlers"
	"github.com/sabscarpenter/skytravel/internal/ratelimit"
	"github.com/sabscarpenter/skytravel/internal/websocket"
)

// RequestIDHeader correlates a request with its log lines and response
const RequestIDHeader = "X-Request-ID"

// Options carries the collaborators the router mounts besides the handlers
type Options struct {
	Hub           *websocket.Hub
	SearchLimiter *ratelimit.ClientLimiter
	Gatherer      prometheus.Gatherer
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, opts Options) *mux.Router {
	r := mux.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Search is the expensive endpoint, so it is limited per client
	search := http.Handler(http.HandlerFunc(h.SearchSolutions))
	if opts.SearchLimiter != nil {
		search = opts.SearchLimiter.Middleware(search)
	}
	api.Handle("/solutions/search", search).Methods(http.MethodGet, http.MethodOptions)

	// Booking
	api.HandleFunc("/booking/configuration", h.GetConfiguration).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/seatmap", h.GetSeatMap).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/seats", h.GetOccupiedSeats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/seats/reserve", h.ReserveSeats).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/booking/segments", h.BuildSegments).Methods(http.MethodPost, http.MethodOptions)

	// Checkout
	api.HandleFunc("/checkout/tickets", h.FinalizeTickets).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout", h.StartCheckout).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout/{id}", h.GetCheckout).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/checkout/{id}", h.CancelCheckout).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/checkout/{id}/pay", h.SubmitPayment).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket for real-time seat updates
	if opts.Hub != nil {
		api.HandleFunc("/flights/{number}/ws", opts.Hub.HandleWebSocket)
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+handlers.TravelerHeader+", "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware keeps the caller's request id or assigns a new one,
// and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
