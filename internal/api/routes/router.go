package routes

import (
	"net/http"

	"github.com/caninosoft/vetcore/backend/internal/api/handlers"
	"github.com/caninosoft/vetcore/backend/internal/api/middleware"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler
	branchHandler      *handlers.BranchHandler
	patientHandler     *handlers.PatientHandler
	sseHandler         *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	dataLoaders     func(http.Handler) http.Handler
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	branchHandler *handlers.BranchHandler,
	patientHandler *handlers.PatientHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	dataLoaders func(http.Handler) http.Handler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		appointmentHandler: appointmentHandler,
		branchHandler:      branchHandler,
		patientHandler:     patientHandler,
		sseHandler:         sseHandler,
		cacheMiddleware:    cacheMiddleware,
		dataLoaders:        dataLoaders,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Appointment lifecycle
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.RequestAppointment)
	r.mux.HandleFunc("POST /api/appointments/backfill", r.appointmentHandler.BackfillAppointment)
	r.mux.HandleFunc("GET /api/appointments", r.appointmentHandler.ListAppointments)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.appointmentHandler.GetAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/confirm", r.appointmentHandler.ConfirmAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/complete", r.appointmentHandler.CompleteAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/no-show", r.appointmentHandler.MarkNoShow)
	r.mux.HandleFunc("GET /api/appointments/{id}/record", r.appointmentHandler.GetRecord)

	// Veterinarian calendars
	r.mux.HandleFunc("GET /api/veterinarians/{id}", r.branchHandler.GetVeterinarian)
	r.mux.HandleFunc("GET /api/veterinarians/{id}/calendar", r.appointmentHandler.GetCalendar)
	r.mux.HandleFunc("GET /api/veterinarians/{id}/open-slots", r.appointmentHandler.GetOpenSlots)

	// Branches and inventory
	r.mux.HandleFunc("GET /api/branches", r.branchHandler.ListBranches)
	r.mux.HandleFunc("GET /api/branches/{id}", r.branchHandler.GetBranch)
	r.mux.HandleFunc("GET /api/branches/{id}/veterinarians", r.branchHandler.ListVeterinarians)
	r.mux.HandleFunc("GET /api/branches/{id}/drugs", r.branchHandler.ListDrugs)
	r.mux.HandleFunc("GET /api/drugs/{id}", r.branchHandler.GetDrug)
	r.mux.HandleFunc("POST /api/drugs/{id}/restock", r.branchHandler.RestockDrug)
	r.mux.HandleFunc("POST /api/usages/{id}/reverse", r.branchHandler.ReverseUsage)

	// Patients, records and vaccinations
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("GET /api/owners/{id}/patients", r.patientHandler.ListOwnerPatients)
	r.mux.HandleFunc("GET /api/patients/{id}/records", r.patientHandler.ListRecords)
	r.mux.HandleFunc("GET /api/patients/{id}/vaccinations", r.patientHandler.GetVaccinationHistory)
	r.mux.HandleFunc("GET /api/patients/{id}/vaccinations/due", r.patientHandler.GetDueVaccinations)
	r.mux.HandleFunc("POST /api/patients/{id}/vaccinations", r.patientHandler.RecordVaccination)
	r.mux.HandleFunc("GET /api/vaccines/catalog", r.patientHandler.GetVaccineCatalog)

	// Real-time streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/appointments", r.sseHandler.StreamAppointments)
		r.mux.HandleFunc("GET /api/stream/branches/{id}/appointments", r.sseHandler.StreamBranchAppointments)
		r.mux.HandleFunc("GET /api/stream/stock", r.sseHandler.StreamStock)
		r.mux.HandleFunc("GET /api/stream/stats", r.sseHandler.Stats)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	if r.dataLoaders != nil {
		handler = r.dataLoaders(handler)
	}
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
