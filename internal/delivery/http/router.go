package http

import (
	"net/http"

	"clinic-slot-booking/internal/delivery/http/handler"
	"clinic-slot-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	authHandler     *handler.AuthHandler
	slotHandler     *handler.SlotHandler
	bookingHandler  *handler.BookingHandler
	auditLogHandler *handler.AuditLogHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	slotHandler *handler.SlotHandler,
	bookingHandler *handler.BookingHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		authHandler:     authHandler,
		slotHandler:     slotHandler,
		bookingHandler:  bookingHandler,
		auditLogHandler: auditLogHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.Me).Methods(http.MethodGet)

	// Patient routes (any authenticated user)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.authMiddleware.Authenticate)
	protected.HandleFunc("/slots", r.slotHandler.ListPublicSlots).Methods(http.MethodGet)
	protected.HandleFunc("/bookings", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/me", r.bookingHandler.GetMyBookings).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{id}", r.bookingHandler.CancelBooking).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Slot management (admin)
	admin.HandleFunc("/slots", r.slotHandler.AddSlot).Methods(http.MethodPost)
	admin.HandleFunc("/slots", r.slotHandler.ListAdminSlots).Methods(http.MethodGet)
	admin.HandleFunc("/slots/generate", r.slotHandler.GenerateSlots).Methods(http.MethodPost)
	admin.HandleFunc("/slots/{id}", r.slotHandler.RemoveSlot).Methods(http.MethodDelete)

	// Booking oversight (admin)
	admin.HandleFunc("/bookings", r.bookingHandler.GetAllBookings).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetRecent).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
