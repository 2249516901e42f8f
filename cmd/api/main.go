package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/adapters/cache"
	"github.com/caninosoft/vetcore/backend/internal/adapters/database"
	"github.com/caninosoft/vetcore/backend/internal/adapters/events"
	"github.com/caninosoft/vetcore/backend/internal/adapters/memory"
	"github.com/caninosoft/vetcore/backend/internal/api/handlers"
	"github.com/caninosoft/vetcore/backend/internal/api/middleware"
	"github.com/caninosoft/vetcore/backend/internal/api/routes"
	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/postgres"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/redis"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/sqlite"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/notifications"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
	"github.com/caninosoft/vetcore/backend/pkg/config"
)

// repoSet groups the repositories main wires into services, regardless of
// which storage driver backs them
type repoSet struct {
	appointments repositories.AppointmentRepository
	calendar     repositories.CalendarRepository
	records      repositories.ClinicalRecordRepository
	drugs        repositories.DrugRepository
	vaccines     repositories.VaccineRepository
	branches     repositories.BranchRepository
	vets         repositories.VeterinarianRepository
	owners       repositories.OwnerRepository
	patients     repositories.PatientRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Logging.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is optional; the server runs without an exporter
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	repos, ledgerDB, closeStorage, err := buildStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer closeStorage()
	log.Info().Str("driver", cfg.Database.Driver).Msg("storage initialized")

	// Redis backs the cache and the event bus; both degrade to nil when it
	// is unavailable
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Msg("redis cache and event bus initialized")
		}
	}

	flags := services.NewFeatureFlags()
	if flags.BackfillEnabled() {
		cfg.Scheduling.BackfillEnabled = true
	}

	var notificationService *services.NotificationService
	if cfg.WhatsApp.Enabled && ledgerDB != nil {
		sender, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
		if err != nil {
			log.Warn().Err(err).Msg("whatsapp sender unavailable, notifications disabled")
		} else {
			notificationService = services.NewNotificationService(ledgerDB, sender, repos.owners, repos.patients, repos.branches)
			log.Info().Msg("whatsapp notifications enabled")
		}
	}

	schedulingService := services.NewSchedulingService(
		repos.appointments,
		repos.calendar,
		repos.records,
		repos.vets,
		repos.branches,
		repos.patients,
		eventBus,
		notificationService,
		cfg.Scheduling,
	)
	treatmentService := services.NewTreatmentService(repos.drugs, repos.appointments, eventBus)
	vaccinationService := services.NewVaccinationService(repos.vaccines, repos.patients, cacheProvider, eventBus)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			log.Info().Msg("cache invalidation service started")
		}
	}

	if cacheProvider != nil && flags.CacheWarmingEnabled() {
		warmingService := services.NewCacheWarmingService(repos.branches, repos.drugs, repos.vaccines, cacheProvider)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
		log.Info().Msg("cache warming service started")
	}

	appointmentHandler := handlers.NewAppointmentHandler(schedulingService)
	branchHandler := handlers.NewBranchHandler(repos.branches, repos.vets, treatmentService)
	patientHandler := handlers.NewPatientHandler(repos.patients, repos.owners, schedulingService, vaccinationService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		appointmentHandler,
		branchHandler,
		patientHandler,
		sseHandler,
		cacheMiddleware,
		middleware.DataLoaderMiddleware(repos.vets, repos.patients),
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// SSE responses are long-lived and must not hit the write deadline
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Info().Msg("server stopped")
}

// buildStorage wires the repository set for the configured driver. The
// sqlx handle is nil for the in-memory driver, which keeps no
// notification ledger.
func buildStorage(cfg *config.Config) (*repoSet, *sqlx.DB, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore(cfg.Scheduling.LockWait, cfg.Scheduling.BranchCapacity)
		return &repoSet{
			appointments: store.Appointments(),
			calendar:     store.Calendar(),
			records:      store.ClinicalRecords(),
			drugs:        store.Drugs(),
			vaccines:     store.Vaccines(),
			branches:     store.Branches(),
			vets:         store.Veterinarians(),
			owners:       store.Owners(),
			patients:     store.Patients(),
		}, nil, func() {}, nil

	case "sqlite":
		client, err := sqlite.NewClient(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return adapterSet(client, cfg), sqlx.NewDb(client.DB(), "sqlite"), func() { _ = client.Close() }, nil

	default:
		client, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return adapterSet(client, cfg), sqlx.NewDb(client.DB(), "postgres"), func() { _ = client.Close() }, nil
	}
}

func adapterSet(client database.Client, cfg *config.Config) *repoSet {
	return &repoSet{
		appointments: database.NewAppointmentAdapter(client),
		calendar:     database.NewCalendarAdapter(client, cfg.Scheduling.LockWait, cfg.Scheduling.BranchCapacity),
		records:      database.NewClinicalRecordAdapter(client),
		drugs:        database.NewDrugAdapter(client),
		vaccines:     database.NewVaccineAdapter(client),
		branches:     database.NewBranchAdapter(client),
		vets:         database.NewVeterinarianAdapter(client),
		owners:       database.NewOwnerAdapter(client),
		patients:     database.NewPatientAdapter(client),
	}
}
