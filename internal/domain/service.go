package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound is returned when a record cannot be located.
	ErrRecordNotFound = errors.New("record not found")
	// ErrConversationNotFound is returned when a conversation lookup misses.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrStoreUnavailable indicates the record store could not be reached.
	// Callers must not treat it as "no data": absence of a record set is a
	// normal empty result, an unreachable store is not.
	ErrStoreUnavailable = errors.New("health data store unavailable")
)

// HealthRepository captures persistence operations for records, contacts and alerts.
type HealthRepository interface {
	CreateVitals(ctx context.Context, rec VitalsRecord) error
	CreatePhysical(ctx context.Context, rec PhysicalRecord) error
	CreateFitness(ctx context.Context, rec FitnessRecord) error
	CreateNutrition(ctx context.Context, rec NutritionRecord) error
	CreateSleep(ctx context.Context, rec SleepRecord) error
	CreateReproductiveHealth(ctx context.Context, rec ReproductiveHealthRecord) error

	ListVitals(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]VitalsRecord, *Cursor, error)
	ListPhysical(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]PhysicalRecord, *Cursor, error)
	ListFitness(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]FitnessRecord, *Cursor, error)
	ListNutrition(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]NutritionRecord, *Cursor, error)
	ListSleep(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]SleepRecord, *Cursor, error)
	ListReproductiveHealth(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]ReproductiveHealthRecord, *Cursor, error)

	CreateContact(ctx context.Context, contact EmergencyContact) error
	ListContacts(ctx context.Context, tenantID, userID string) ([]EmergencyContact, error)
	RaiseAlert(ctx context.Context, alert EmergencyAlert) error
}

// Service orchestrates health-record workflows.
type Service struct {
	repo HealthRepository
}

// NewService constructs a Service.
func NewService(repo HealthRepository) *Service {
	return &Service{repo: repo}
}

func stampRecord(id *string, recordedAt, createdAt *time.Time) {
	*id = uuid.NewString()
	now := time.Now().UTC()
	if recordedAt.IsZero() {
		*recordedAt = now
	} else {
		*recordedAt = recordedAt.UTC()
	}
	*createdAt = now
}

// AddVitals stamps identity fields and persists a vitals record. The
// repository emits a vitals.recorded outbox event in the same transaction.
func (s *Service) AddVitals(ctx context.Context, rec VitalsRecord) (*VitalsRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreateVitals(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddPhysical stamps identity fields and persists a physical record.
func (s *Service) AddPhysical(ctx context.Context, rec PhysicalRecord) (*PhysicalRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreatePhysical(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddFitness stamps identity fields and persists a fitness record.
func (s *Service) AddFitness(ctx context.Context, rec FitnessRecord) (*FitnessRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreateFitness(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddNutrition stamps identity fields and persists a nutrition record.
func (s *Service) AddNutrition(ctx context.Context, rec NutritionRecord) (*NutritionRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreateNutrition(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddSleep stamps identity fields and persists a sleep record.
func (s *Service) AddSleep(ctx context.Context, rec SleepRecord) (*SleepRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreateSleep(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddReproductiveHealth stamps identity fields and persists a reproductive-health record.
func (s *Service) AddReproductiveHealth(ctx context.Context, rec ReproductiveHealthRecord) (*ReproductiveHealthRecord, error) {
	stampRecord(&rec.ID, &rec.RecordedAt, &rec.CreatedAt)
	if err := s.repo.CreateReproductiveHealth(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListVitals fetches vitals records newest-first with cursor pagination.
func (s *Service) ListVitals(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]VitalsRecord, *Cursor, error) {
	return s.repo.ListVitals(ctx, tenantID, userID, cursor, limit)
}

// ListPhysical fetches physical records newest-first with cursor pagination.
func (s *Service) ListPhysical(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]PhysicalRecord, *Cursor, error) {
	return s.repo.ListPhysical(ctx, tenantID, userID, cursor, limit)
}

// ListFitness fetches fitness records newest-first with cursor pagination.
func (s *Service) ListFitness(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]FitnessRecord, *Cursor, error) {
	return s.repo.ListFitness(ctx, tenantID, userID, cursor, limit)
}

// ListNutrition fetches nutrition records newest-first with cursor pagination.
func (s *Service) ListNutrition(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]NutritionRecord, *Cursor, error) {
	return s.repo.ListNutrition(ctx, tenantID, userID, cursor, limit)
}

// ListSleep fetches sleep records newest-first with cursor pagination.
func (s *Service) ListSleep(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]SleepRecord, *Cursor, error) {
	return s.repo.ListSleep(ctx, tenantID, userID, cursor, limit)
}

// ListReproductiveHealth fetches reproductive-health records newest-first with cursor pagination.
func (s *Service) ListReproductiveHealth(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]ReproductiveHealthRecord, *Cursor, error) {
	return s.repo.ListReproductiveHealth(ctx, tenantID, userID, cursor, limit)
}

// AddContact persists an emergency contact.
func (s *Service) AddContact(ctx context.Context, contact EmergencyContact) (*EmergencyContact, error) {
	contact.ID = uuid.NewString()
	contact.CreatedAt = time.Now().UTC()
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListContacts returns the user's emergency contacts.
func (s *Service) ListContacts(ctx context.Context, tenantID, userID string) ([]EmergencyContact, error) {
	return s.repo.ListContacts(ctx, tenantID, userID)
}

// RaiseAlert records an emergency alert. The repository persists an
// alert-type insight and an alert.raised outbox event in one transaction.
func (s *Service) RaiseAlert(ctx context.Context, tenantID, userID, reason, urgency string) (*EmergencyAlert, error) {
	alert := EmergencyAlert{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		UserID:   userID,
		Reason:   reason,
		Urgency:  urgency,
		RaisedAt: time.Now().UTC(),
	}
	if err := s.repo.RaiseAlert(ctx, alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
