package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/adapters/cache"
	"github.com/caninosoft/vetcore/backend/internal/adapters/database"
	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/postgres"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/redis"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/sqlite"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/notifications"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
	"github.com/caninosoft/vetcore/backend/pkg/config"
)

// Reminder sweep: projects due vaccinations for every active patient and
// sends a WhatsApp reminder for entries due within the lookahead window.
// Intended to run daily from cron.
func main() {
	workers := flag.Int("workers", 4, "number of concurrent projection workers")
	lookaheadDays := flag.Int("lookahead", 7, "remind for vaccinations due within this many days")
	dryRun := flag.Bool("dry-run", false, "project due vaccinations but send nothing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("vetcore-remind", cfg.Logging.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var client database.Client
	var dialect string
	switch cfg.Database.Driver {
	case "sqlite":
		c, err := sqlite.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite database")
		}
		defer c.Close()
		client, dialect = c, "sqlite"
	case "memory":
		log.Fatal().Msg("the reminder sweep needs a persistent database")
	default:
		c, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer c.Close()
		client, dialect = c, "postgres"
	}

	patientRepo := database.NewPatientAdapter(client)
	ownerRepo := database.NewOwnerAdapter(client)
	branchRepo := database.NewBranchAdapter(client)
	vaccineRepo := database.NewVaccineAdapter(client)

	// The due cache is optional here; a cold sweep just recomputes
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		if redisClient, err := redis.NewClient(&cfg.Redis); err == nil {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
		}
	}

	vaccinationService := services.NewVaccinationService(vaccineRepo, patientRepo, cacheProvider, nil)

	var notificationService *services.NotificationService
	if !*dryRun {
		if !cfg.WhatsApp.Enabled {
			log.Fatal().Msg("WHATSAPP_ENABLED must be set, or pass -dry-run")
		}
		sender, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize whatsapp sender")
		}
		ledgerDB := sqlx.NewDb(client.DB(), dialect)
		notificationService = services.NewNotificationService(ledgerDB, sender, ownerRepo, patientRepo, branchRepo)
	}

	patients, err := patientRepo.ListActive(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list patients")
	}
	log.Info().Int("patients", len(patients)).Int("workers", *workers).Msg("starting reminder sweep")

	horizon := time.Now().AddDate(0, 0, *lookaheadDays)

	type sweepStats struct {
		mu       sync.Mutex
		due      int
		sent     int
		failures int
	}
	stats := &sweepStats{}

	jobs := make(chan *entities.Patient)
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for patient := range jobs {
				dueList, err := vaccinationService.NextDue(ctx, patient.ID)
				if err != nil {
					log.Error().Err(err).Str("patient_id", patient.ID).Msg("projection failed")
					stats.mu.Lock()
					stats.failures++
					stats.mu.Unlock()
					continue
				}
				for _, due := range dueList {
					if due.DueAt.After(horizon) {
						continue
					}
					stats.mu.Lock()
					stats.due++
					stats.mu.Unlock()

					if *dryRun {
						log.Info().
							Str("patient_id", patient.ID).
							Str("vaccine", due.Entry.Name).
							Time("due_at", due.DueAt).
							Bool("overdue", due.Overdue).
							Msg("would remind")
						continue
					}
					if err := notificationService.SendVaccineReminder(ctx, patient, due); err != nil {
						log.Error().Err(err).Str("patient_id", patient.ID).Str("vaccine", due.Entry.Name).Msg("reminder failed")
						stats.mu.Lock()
						stats.failures++
						stats.mu.Unlock()
						continue
					}
					stats.mu.Lock()
					stats.sent++
					stats.mu.Unlock()
				}
			}
		}()
	}

	for _, patient := range patients {
		jobs <- patient
	}
	close(jobs)
	wg.Wait()

	log.Info().
		Int("due", stats.due).
		Int("sent", stats.sent).
		Int("failures", stats.failures).
		Msg("reminder sweep finished")

	if stats.failures > 0 {
		os.Exit(1)
	}
}
