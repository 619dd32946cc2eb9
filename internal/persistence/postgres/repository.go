// Package postgres provides pgx-backed persistence for health records,
// conversations, insights and the transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CHIDI00/healix/internal/domain"
	"github.com/CHIDI00/healix/internal/events"
	"github.com/CHIDI00/healix/internal/observability"
)

// Repository provides Postgres-backed persistence. Every statement runs in a
// transaction that first sets app.tenant_id so row-level security policies
// scope the session to the caller's tenant.
type Repository struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// storeErr marks connectivity failures so callers can tell an unreachable
// store apart from an empty result set.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// connectivityErr reports whether err is a transport-level failure rather
// than a statement-level one. Server-reported SQL errors arrive as
// *pgconn.PgError and stay as they are, except SQLSTATE classes 08
// (connection exception) and 57 (operator intervention); a connection
// dropped mid-statement surfaces as a net or EOF error instead.
func connectivityErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (r *Repository) withTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return storeErr(err)
	}

	// fn errors pass through untouched so row-level sentinels like
	// pgx.ErrNoRows keep their identity; only transport failures are
	// reclassified.
	if err := fn(tx); err != nil {
		if connectivityErr(err) {
			return storeErr(err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if connectivityErr(err) {
			return storeErr(err)
		}
		return err
	}
	return nil
}

// --- creates ---

const insertVitals = `INSERT INTO health_vitals (id, tenant_id, user_id, recorded_at, heart_rate, resting_heart_rate, respiratory_rate, body_temperature, basal_body_temperature, bp_systolic, bp_diastolic, oxygen_saturation, blood_glucose, vo2_max, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

// CreateVitals persists the record and a vitals.recorded outbox event in one
// transaction.
func (r *Repository) CreateVitals(ctx context.Context, rec domain.VitalsRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertVitals,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt,
			rec.HeartRate, rec.RestingHeartRate, rec.RespiratoryRate,
			rec.BodyTemperature, rec.BasalBodyTemperature,
			rec.BPSystolic, rec.BPDiastolic, rec.OxygenSaturation,
			rec.BloodGlucose, rec.VO2Max, rec.CreatedAt,
		); err != nil {
			return err
		}

		return r.insertOutbox(ctx, tx, rec.TenantID, rec.ID, "vitals.recorded", events.VitalsRecorded{
			RecordID:         rec.ID,
			TenantID:         rec.TenantID,
			UserID:           rec.UserID,
			RecordedAt:       rec.RecordedAt,
			HeartRate:        rec.HeartRate,
			BPSystolic:       rec.BPSystolic,
			BPDiastolic:      rec.BPDiastolic,
			OxygenSaturation: rec.OxygenSaturation,
			BloodGlucose:     rec.BloodGlucose,
			BodyTemperature:  rec.BodyTemperature,
		})
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategoryVitals, rec.CreatedAt)
	return nil
}

const insertPhysical = `INSERT INTO health_physical (id, tenant_id, user_id, recorded_at, weight_kg, height_cm, body_fat_pct, bmr_kcal, lean_body_mass_kg, bone_mass_kg, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

// CreatePhysical persists a physical record.
func (r *Repository) CreatePhysical(ctx context.Context, rec domain.PhysicalRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertPhysical,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt,
			rec.Weight, rec.Height, rec.BodyFatPct, rec.BMR,
			rec.LeanBodyMass, rec.BoneMass, rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategoryPhysical, rec.CreatedAt)
	return nil
}

const insertFitness = `INSERT INTO health_fitness (id, tenant_id, user_id, recorded_at, steps, floors_climbed, calories_burned, distance_km, speed_kmh, elevation_gained_m, exercise_type, exercise_minutes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

// CreateFitness persists a fitness record.
func (r *Repository) CreateFitness(ctx context.Context, rec domain.FitnessRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertFitness,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt,
			rec.Steps, rec.FloorsClimbed, rec.CaloriesBurned, rec.Distance,
			rec.Speed, rec.ElevationGained, rec.ExerciseType, rec.ExerciseMinutes,
			rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategoryFitness, rec.CreatedAt)
	return nil
}

const insertNutrition = `INSERT INTO health_nutrition (id, tenant_id, user_id, recorded_at, calories, protein_g, carbohydrates_g, fats_g, fiber_g, sodium_mg, hydration_ml, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

// CreateNutrition persists a nutrition record.
func (r *Repository) CreateNutrition(ctx context.Context, rec domain.NutritionRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertNutrition,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt,
			rec.Calories, rec.Protein, rec.Carbohydrates, rec.Fats,
			rec.Fiber, rec.Sodium, rec.Hydration, rec.Notes, rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategoryNutrition, rec.CreatedAt)
	return nil
}

const insertSleep = `INSERT INTO health_sleep (id, tenant_id, user_id, recorded_at, sleep_date, duration_min, deep_min, light_min, rem_min, awake_min, quality, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

// CreateSleep persists a sleep record.
func (r *Repository) CreateSleep(ctx context.Context, rec domain.SleepRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertSleep,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt, rec.Date,
			rec.DurationMin, rec.DeepMin, rec.LightMin, rec.REMMin, rec.AwakeMin,
			rec.Quality, rec.Notes, rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategorySleep, rec.CreatedAt)
	return nil
}

const insertReproductive = `INSERT INTO health_reproductive (id, tenant_id, user_id, recorded_at, entry_date, menstruation_flow, ovulation_test, cervical_mucus, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

// CreateReproductiveHealth persists a reproductive-health record.
func (r *Repository) CreateReproductiveHealth(ctx context.Context, rec domain.ReproductiveHealthRecord) error {
	err := r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertReproductive,
			rec.ID, rec.TenantID, rec.UserID, rec.RecordedAt, rec.Date,
			rec.MenstruationFlow, rec.OvulationTest, rec.CervicalMucus,
			rec.Notes, rec.CreatedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordHealthRecordPersisted(domain.CategoryReproductiveHealth, rec.CreatedAt)
	return nil
}

// --- outbox ---

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"vitals.recorded": {
		Topic:         "health_vitals",
		SchemaSubject: "health_vitals-value",
	},
	"alert.raised": {
		Topic:         "health_alerts",
		SchemaSubject: "health_alerts-value",
	},
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, tenantID, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		tenantID,
		"health_record",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		tenantID+":"+aggregateID,
		body,
		dedupeKey,
	)
	return err
}

// --- listings (keyset pagination, newest first) ---

const selectVitalsColumns = `id, tenant_id, user_id, recorded_at, heart_rate, resting_heart_rate, respiratory_rate, body_temperature, basal_body_temperature, bp_systolic, bp_diastolic, oxygen_saturation, blood_glucose, vo2_max, created_at`

func scanVitals(rows pgx.Rows) (domain.VitalsRecord, error) {
	var rec domain.VitalsRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt,
		&rec.HeartRate, &rec.RestingHeartRate, &rec.RespiratoryRate,
		&rec.BodyTemperature, &rec.BasalBodyTemperature,
		&rec.BPSystolic, &rec.BPDiastolic, &rec.OxygenSaturation,
		&rec.BloodGlucose, &rec.VO2Max, &rec.CreatedAt)
	return rec, err
}

// ListVitals returns vitals records newest-first with keyset pagination.
func (r *Repository) ListVitals(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.VitalsRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_vitals", selectVitalsColumns, tenantID, userID, cursor, limit, scanVitals)
}

const selectPhysicalColumns = `id, tenant_id, user_id, recorded_at, weight_kg, height_cm, body_fat_pct, bmr_kcal, lean_body_mass_kg, bone_mass_kg, created_at`

func scanPhysical(rows pgx.Rows) (domain.PhysicalRecord, error) {
	var rec domain.PhysicalRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt,
		&rec.Weight, &rec.Height, &rec.BodyFatPct, &rec.BMR,
		&rec.LeanBodyMass, &rec.BoneMass, &rec.CreatedAt)
	return rec, err
}

// ListPhysical returns physical records newest-first with keyset pagination.
func (r *Repository) ListPhysical(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.PhysicalRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_physical", selectPhysicalColumns, tenantID, userID, cursor, limit, scanPhysical)
}

const selectFitnessColumns = `id, tenant_id, user_id, recorded_at, steps, floors_climbed, calories_burned, distance_km, speed_kmh, elevation_gained_m, exercise_type, exercise_minutes, created_at`

func scanFitness(rows pgx.Rows) (domain.FitnessRecord, error) {
	var rec domain.FitnessRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt,
		&rec.Steps, &rec.FloorsClimbed, &rec.CaloriesBurned, &rec.Distance,
		&rec.Speed, &rec.ElevationGained, &rec.ExerciseType, &rec.ExerciseMinutes,
		&rec.CreatedAt)
	return rec, err
}

// ListFitness returns fitness records newest-first with keyset pagination.
func (r *Repository) ListFitness(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.FitnessRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_fitness", selectFitnessColumns, tenantID, userID, cursor, limit, scanFitness)
}

const selectNutritionColumns = `id, tenant_id, user_id, recorded_at, calories, protein_g, carbohydrates_g, fats_g, fiber_g, sodium_mg, hydration_ml, notes, created_at`

func scanNutrition(rows pgx.Rows) (domain.NutritionRecord, error) {
	var rec domain.NutritionRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt,
		&rec.Calories, &rec.Protein, &rec.Carbohydrates, &rec.Fats,
		&rec.Fiber, &rec.Sodium, &rec.Hydration, &rec.Notes, &rec.CreatedAt)
	return rec, err
}

// ListNutrition returns nutrition records newest-first with keyset pagination.
func (r *Repository) ListNutrition(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.NutritionRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_nutrition", selectNutritionColumns, tenantID, userID, cursor, limit, scanNutrition)
}

const selectSleepColumns = `id, tenant_id, user_id, recorded_at, sleep_date, duration_min, deep_min, light_min, rem_min, awake_min, quality, notes, created_at`

func scanSleep(rows pgx.Rows) (domain.SleepRecord, error) {
	var rec domain.SleepRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt, &rec.Date,
		&rec.DurationMin, &rec.DeepMin, &rec.LightMin, &rec.REMMin, &rec.AwakeMin,
		&rec.Quality, &rec.Notes, &rec.CreatedAt)
	return rec, err
}

// ListSleep returns sleep records newest-first with keyset pagination.
func (r *Repository) ListSleep(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.SleepRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_sleep", selectSleepColumns, tenantID, userID, cursor, limit, scanSleep)
}

const selectReproductiveColumns = `id, tenant_id, user_id, recorded_at, entry_date, menstruation_flow, ovulation_test, cervical_mucus, notes, created_at`

func scanReproductive(rows pgx.Rows) (domain.ReproductiveHealthRecord, error) {
	var rec domain.ReproductiveHealthRecord
	err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.RecordedAt, &rec.Date,
		&rec.MenstruationFlow, &rec.OvulationTest, &rec.CervicalMucus,
		&rec.Notes, &rec.CreatedAt)
	return rec, err
}

// ListReproductiveHealth returns reproductive-health records newest-first with keyset pagination.
func (r *Repository) ListReproductiveHealth(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.ReproductiveHealthRecord, *domain.Cursor, error) {
	return listRecords(ctx, r, "health_reproductive", selectReproductiveColumns, tenantID, userID, cursor, limit, scanReproductive)
}

// listRecords runs the shared keyset query. Rows that fail to scan are
// logged and skipped rather than failing the whole page; one corrupt row
// must not hide the rest of the data.
func listRecords[T any](ctx context.Context, r *Repository, table, columns, tenantID, userID string, cursor *domain.Cursor, limit int, scan func(pgx.Rows) (T, error)) ([]T, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id=$1 AND user_id=$2`, columns, table)

	if cursor != nil {
		query += ` AND (recorded_at, id) < ($4, $5)`
		args = append(args, cursor.RecordedAt, cursor.ID)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT $3`

	var results []T
	var last *domain.Cursor
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = make([]T, 0, limit)
		for rows.Next() {
			rec, err := scan(rows)
			if err != nil {
				r.logger.Printf("skipping malformed %s row: %v", table, err)
				continue
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	if len(results) == limit && limit > 0 {
		cur := cursorOf(results[len(results)-1])
		last = &cur
	}
	return results, last, nil
}

func cursorOf(rec interface{}) domain.Cursor {
	switch v := rec.(type) {
	case domain.VitalsRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	case domain.PhysicalRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	case domain.FitnessRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	case domain.NutritionRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	case domain.SleepRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	case domain.ReproductiveHealthRecord:
		return domain.Cursor{RecordedAt: v.RecordedAt, ID: v.ID}
	}
	return domain.Cursor{}
}

// --- resolver queries ---

// VitalsSince returns the newest vitals records in the window, capped at limit.
func (r *Repository) VitalsSince(ctx context.Context, tenantID, userID string, since time.Time, limit int) ([]domain.VitalsRecord, error) {
	return sinceRecords(ctx, r, "health_vitals", selectVitalsColumns, tenantID, userID, since, limit, scanVitals)
}

// LatestPhysical returns the most recent physical record, or nil when the
// user has none.
func (r *Repository) LatestPhysical(ctx context.Context, tenantID, userID string) (*domain.PhysicalRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM health_physical WHERE tenant_id=$1 AND user_id=$2 ORDER BY recorded_at DESC, id DESC LIMIT 1`, selectPhysicalColumns)

	var rec *domain.PhysicalRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		if rows.Next() {
			scanned, err := scanPhysical(rows)
			if err != nil {
				return err
			}
			rec = &scanned
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FitnessSince returns fitness records in the window, newest first.
func (r *Repository) FitnessSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.FitnessRecord, error) {
	return sinceRecords(ctx, r, "health_fitness", selectFitnessColumns, tenantID, userID, since, 0, scanFitness)
}

// NutritionSince returns nutrition records in the window, newest first.
func (r *Repository) NutritionSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.NutritionRecord, error) {
	return sinceRecords(ctx, r, "health_nutrition", selectNutritionColumns, tenantID, userID, since, 0, scanNutrition)
}

// SleepSince returns sleep records in the window, newest first.
func (r *Repository) SleepSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.SleepRecord, error) {
	return sinceRecords(ctx, r, "health_sleep", selectSleepColumns, tenantID, userID, since, 0, scanSleep)
}

// ReproductiveHealthSince returns reproductive-health records in the window,
// newest first, capped at limit.
func (r *Repository) ReproductiveHealthSince(ctx context.Context, tenantID, userID string, since time.Time, limit int) ([]domain.ReproductiveHealthRecord, error) {
	return sinceRecords(ctx, r, "health_reproductive", selectReproductiveColumns, tenantID, userID, since, limit, scanReproductive)
}

func sinceRecords[T any](ctx context.Context, r *Repository, table, columns, tenantID, userID string, since time.Time, limit int, scan func(pgx.Rows) (T, error)) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id=$1 AND user_id=$2 AND recorded_at >= $3 ORDER BY recorded_at DESC, id DESC`, columns, table)
	args := []interface{}{tenantID, userID, since}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	var results []T
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scan(rows)
			if err != nil {
				r.logger.Printf("skipping malformed %s row: %v", table, err)
				continue
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// --- contacts and alerts ---

// CreateContact persists an emergency contact.
func (r *Repository) CreateContact(ctx context.Context, contact domain.EmergencyContact) error {
	const stmt = `INSERT INTO emergency_contacts (id, tenant_id, user_id, name, email, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	return r.withTenant(ctx, contact.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			contact.ID, contact.TenantID, contact.UserID,
			contact.Name, contact.Email, contact.CreatedAt,
		)
		return err
	})
}

// ListContacts returns the user's emergency contacts.
func (r *Repository) ListContacts(ctx context.Context, tenantID, userID string) ([]domain.EmergencyContact, error) {
	const query = `SELECT id, tenant_id, user_id, name, email, created_at
        FROM emergency_contacts WHERE tenant_id=$1 AND user_id=$2 ORDER BY created_at`

	var contacts []domain.EmergencyContact
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c domain.EmergencyContact
			if err := rows.Scan(&c.ID, &c.TenantID, &c.UserID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
				return err
			}
			contacts = append(contacts, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// RaiseAlert persists the alert, an alert-type insight and an alert.raised
// outbox event in one transaction.
func (r *Repository) RaiseAlert(ctx context.Context, alert domain.EmergencyAlert) error {
	const insertAlert = `INSERT INTO emergency_alerts (id, tenant_id, user_id, reason, urgency, raised_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	const insertInsight = `INSERT INTO health_insights (id, tenant_id, user_id, insight_type, title, content, is_read, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	return r.withTenant(ctx, alert.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertAlert,
			alert.ID, alert.TenantID, alert.UserID,
			alert.Reason, alert.Urgency, alert.RaisedAt,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, insertInsight,
			alert.ID, alert.TenantID, alert.UserID,
			domain.InsightTypeAlert,
			fmt.Sprintf("Health Alert (%s)", alert.Urgency),
			alert.Reason,
			false, alert.RaisedAt,
		); err != nil {
			return err
		}

		return r.insertOutbox(ctx, tx, alert.TenantID, alert.ID, "alert.raised", events.AlertRaised{
			AlertID:  alert.ID,
			TenantID: alert.TenantID,
			UserID:   alert.UserID,
			Reason:   alert.Reason,
			Urgency:  alert.Urgency,
			RaisedAt: alert.RaisedAt,
		})
	})
}
