package main

import (
	"context"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/adapters/database"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/postgres"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/clients/sqlite"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
	"github.com/caninosoft/vetcore/backend/pkg/config"
)

// Seeds a development database: two branches with staff and inventory, a
// few owners and patients, the species vaccination catalogs and the
// WhatsApp message templates.
//
//	APPLY_SCHEMA=true  apply migrations/001_initial_schema.sql first
//	RESET_DB=true      truncate all tables before seeding
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("vetcore-seed", cfg.Logging.Environment)

	var client database.Client
	if cfg.Database.Driver == "sqlite" {
		c, err := sqlite.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite database")
		}
		defer c.Close()
		client = c
	} else {
		c, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer c.Close()
		client = c
	}

	ctx := context.Background()
	db := goqu.New(client.Dialect(), client.DB())

	if os.Getenv("APPLY_SCHEMA") == "true" {
		schema, err := os.ReadFile("migrations/001_initial_schema.sql")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read schema file")
		}
		if _, err := client.DB().ExecContext(ctx, string(schema)); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("schema applied")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true, clearing tables before seeding")
		tables := []string{
			"appointment_notifications",
			"notification_templates",
			"notification_preferences",
			"vaccine_administrations",
			"vaccine_catalog",
			"treatment_usages",
			"clinical_records",
			"appointments",
			"calendar_slots",
			"drugs",
			"patients",
			"owners",
			"veterinarians",
			"branches",
		}
		for _, table := range tables {
			if _, err := client.DB().ExecContext(ctx, "DELETE FROM "+table); err != nil {
				log.Fatal().Err(err).Str("table", table).Msg("failed to clear table")
			}
		}
	}

	now := time.Now().UTC()

	insert := func(table string, rows []goqu.Record) {
		for _, row := range rows {
			query, args, err := db.Insert(table).Rows(row).ToSQL()
			if err != nil {
				log.Fatal().Err(err).Str("table", table).Msg("failed to build insert")
			}
			if _, err := client.DB().ExecContext(ctx, query, args...); err != nil {
				log.Fatal().Err(err).Str("table", table).Interface("row", row["id"]).Msg("insert failed")
			}
		}
		log.Info().Str("table", table).Int("rows", len(rows)).Msg("seeded")
	}

	insert("branches", []goqu.Record{
		{"id": "branch-centro", "name": "Centro", "address": "Av. Rivadavia 1200", "phone": "+541143000001",
			"whatsapp_phone": "+541143000001", "schedule_note": "Lun-Sab 9:00-19:00", "is_active": true,
			"created_at": now, "updated_at": now},
		{"id": "branch-norte", "name": "Norte", "address": "Av. Cabildo 2300", "phone": "+541143000002",
			"whatsapp_phone": "+541143000002", "schedule_note": "Lun-Vie 9:00-19:00", "is_active": true,
			"created_at": now, "updated_at": now},
	})

	insert("veterinarians", []goqu.Record{
		{"id": "vet-reyes", "branch_id": "branch-centro", "full_name": "Dra. Ana Reyes", "specialty": "Clínica general",
			"license_number": "MP-10021", "is_active": true, "created_at": now, "updated_at": now},
		{"id": "vet-sosa", "branch_id": "branch-centro", "full_name": "Dr. Martín Sosa", "specialty": "Cirugía",
			"license_number": "MP-10388", "is_active": true, "created_at": now, "updated_at": now},
		{"id": "vet-paz", "branch_id": "branch-norte", "full_name": "Dra. Lucía Paz", "specialty": "Clínica general",
			"license_number": "MP-11502", "is_active": true, "created_at": now, "updated_at": now},
		{"id": "vet-gimenez", "branch_id": "branch-norte", "full_name": "Dr. Pablo Giménez", "specialty": "Dermatología",
			"license_number": "MP-11744", "is_active": true, "created_at": now, "updated_at": now},
	})

	insert("owners", []goqu.Record{
		{"id": "owner-diaz", "full_name": "Marta Díaz", "phone": "+5491100000001",
			"whatsapp_phone": "+5491100000002", "email": "marta.diaz@example.com", "created_at": now, "updated_at": now},
		{"id": "owner-lopez", "full_name": "Jorge López", "phone": "+5491100000003",
			"whatsapp_phone": nil, "email": nil, "created_at": now, "updated_at": now},
	})

	insert("patients", []goqu.Record{
		{"id": "patient-rocco", "owner_id": "owner-diaz", "name": "Rocco", "species": "canine", "breed": "Labrador",
			"sex": "male", "date_of_birth": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "is_active": true,
			"created_at": now, "updated_at": now},
		{"id": "patient-mia", "owner_id": "owner-diaz", "name": "Mía", "species": "feline", "breed": "Siamés",
			"sex": "female", "date_of_birth": time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), "is_active": true,
			"created_at": now, "updated_at": now},
		{"id": "patient-bruno", "owner_id": "owner-lopez", "name": "Bruno", "species": "canine", "breed": "",
			"sex": "male", "date_of_birth": time.Date(2021, 11, 20, 0, 0, 0, 0, time.UTC), "is_active": true,
			"created_at": now, "updated_at": now},
	})

	insert("drugs", []goqu.Record{
		{"id": "drug-centro-rabies", "branch_id": "branch-centro", "name": "Vacuna antirrábica", "category": "vaccine",
			"description": "Dosis monovalente", "stock": 40, "is_active": true, "created_at": now, "updated_at": now},
		{"id": "drug-centro-amoxi", "branch_id": "branch-centro", "name": "Amoxicilina 250mg", "category": "antibiotic",
			"description": "", "stock": 120, "is_active": true, "created_at": now, "updated_at": now},
		{"id": "drug-centro-melox", "branch_id": "branch-centro", "name": "Meloxicam 1mg", "category": "analgesic",
			"description": "", "stock": 80, "is_active": true, "created_at": now, "updated_at": now},
		{"id": "drug-norte-rabies", "branch_id": "branch-norte", "name": "Vacuna antirrábica", "category": "vaccine",
			"description": "Dosis monovalente", "stock": 25, "is_active": true, "created_at": now, "updated_at": now},
		{"id": "drug-norte-quintuple", "branch_id": "branch-norte", "name": "Vacuna quíntuple", "category": "vaccine",
			"description": "", "stock": 30, "is_active": true, "created_at": now, "updated_at": now},
	})

	// Catalog entries are ordered series per species; predecessor links
	// gate the due projection until the prior dose is applied
	insert("vaccine_catalog", []goqu.Record{
		catalogRow("vx-canine-parvo", "canine", "Parvovirus", 6, "weeks", span(3, "weeks"), "refuerzo cada 3 semanas hasta las 16 semanas", 1, nil),
		catalogRow("vx-canine-distemper", "canine", "Moquillo", 6, "weeks", span(3, "weeks"), "refuerzo cada 3 semanas hasta las 16 semanas", 2, ptr("vx-canine-parvo")),
		catalogRow("vx-canine-hepatitis", "canine", "Hepatitis", 8, "weeks", span(4, "weeks"), "", 3, ptr("vx-canine-distemper")),
		catalogRow("vx-canine-lepto", "canine", "Leptospirosis", 12, "weeks", span(1, "years"), "refuerzo anual", 4, ptr("vx-canine-hepatitis")),
		catalogRow("vx-canine-rabies", "canine", "Antirrábica", 16, "weeks", span(1, "years"), "refuerzo anual, obligatoria", 5, ptr("vx-canine-lepto")),
		catalogRow("vx-canine-bordetella", "canine", "Bordetella", 18, "weeks", span(1, "years"), "recomendada para guardería", 6, ptr("vx-canine-rabies")),

		catalogRow("vx-feline-fvrcp", "feline", "Triple felina (FVRCP)", 8, "weeks", span(3, "weeks"), "refuerzo cada 3 semanas hasta las 16 semanas", 1, nil),
		catalogRow("vx-feline-felv", "feline", "Leucemia felina (FeLV)", 12, "weeks", span(3, "weeks"), "", 2, ptr("vx-feline-fvrcp")),
		catalogRow("vx-feline-rabies", "feline", "Antirrábica", 16, "weeks", span(1, "years"), "refuerzo anual, obligatoria", 3, ptr("vx-feline-felv")),
		catalogRow("vx-feline-bordetella", "feline", "Bordetella", 16, "weeks", nil, "dosis única", 4, ptr("vx-feline-rabies")),
	})

	insert("notification_preferences", []goqu.Record{
		{"id": "prefs-diaz", "owner_id": "owner-diaz", "phone": nil, "whatsapp_enabled": true,
			"reminder_enabled": true, "created_at": now, "updated_at": now},
		{"id": "prefs-lopez", "owner_id": "owner-lopez", "phone": nil, "whatsapp_enabled": false,
			"reminder_enabled": false, "created_at": now, "updated_at": now},
	})

	insert("notification_templates", []goqu.Record{
		{"id": "tpl-confirmation", "name": "Confirmación de turno", "channel": "whatsapp", "template_type": "confirmation",
			"body": "Hola! Confirmamos el turno de {{patient_name}} para el {{scheduled_date}} a las {{scheduled_time}} en la sucursal {{branch_name}}, {{branch_address}}.",
			"whatsapp_template_name": nil, "whatsapp_template_lang": "es_AR", "is_active": true,
			"created_at": now, "updated_at": now},
		{"id": "tpl-cancellation", "name": "Cancelación de turno", "channel": "whatsapp", "template_type": "cancellation",
			"body": "El turno de {{patient_name}} del {{scheduled_date}} a las {{scheduled_time}} en {{branch_name}} fue cancelado.",
			"whatsapp_template_name": nil, "whatsapp_template_lang": "es_AR", "is_active": true,
			"created_at": now, "updated_at": now},
		{"id": "tpl-reminder", "name": "Recordatorio de vacunación", "channel": "whatsapp", "template_type": "reminder",
			"body": "Recordatorio: a {{patient_name}} le toca la vacuna {{vaccine_name}} el {{due_date}}. Pedí turno respondiendo este mensaje.",
			"whatsapp_template_name": nil, "whatsapp_template_lang": "es_AR", "is_active": true,
			"created_at": now, "updated_at": now},
	})

	log.Info().Msg("seeding complete")
}

type ageSpan struct {
	value int
	unit  string
}

func span(value int, unit string) *ageSpan {
	return &ageSpan{value: value, unit: unit}
}

func ptr(s string) *string {
	return &s
}

func catalogRow(id, species, name string, ageValue int, ageUnit string, booster *ageSpan, note string, order int, predecessorID *string) goqu.Record {
	row := goqu.Record{
		"id":                     id,
		"species":                species,
		"name":                   name,
		"description":            "",
		"recommended_age_value":  ageValue,
		"recommended_age_unit":   ageUnit,
		"booster_interval_value": nil,
		"booster_interval_unit":  nil,
		"booster_note":           note,
		"sequence_order":         order,
		"predecessor_id":         predecessorID,
	}
	if booster != nil {
		row["booster_interval_value"] = booster.value
		row["booster_interval_unit"] = booster.unit
	}
	return row
}
