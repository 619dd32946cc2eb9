// Package domain defines the business logic for the healix backend.
package domain

import "time"

// Category identifies one of the six health-record types.
type Category string

const (
	CategoryVitals             Category = "vitals"
	CategoryPhysical           Category = "physical"
	CategoryFitness            Category = "fitness"
	CategoryNutrition          Category = "nutrition"
	CategorySleep              Category = "sleep"
	CategoryReproductiveHealth Category = "reproductive-health"
)

// Categories lists every record category in canonical order.
var Categories = []Category{
	CategoryVitals,
	CategoryPhysical,
	CategoryFitness,
	CategoryNutrition,
	CategorySleep,
	CategoryReproductiveHealth,
}

// ParseCategory maps a URL path segment to a Category.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// VitalsRecord stores point-in-time vital sign measurements. Every metric is
// optional; a nil pointer means the reading was not reported, not zero.
type VitalsRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time

	HeartRate            *int
	RestingHeartRate     *int
	RespiratoryRate      *int
	BodyTemperature      *float64
	BasalBodyTemperature *float64
	BPSystolic           *float64
	BPDiastolic          *float64
	OxygenSaturation     *float64
	BloodGlucose         *float64
	VO2Max               *float64

	CreatedAt time.Time
}

// PhysicalRecord stores body-composition measurements.
type PhysicalRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time

	Weight       *float64
	Height       *float64
	BodyFatPct   *float64
	BMR          *float64
	LeanBodyMass *float64
	BoneMass     *float64

	CreatedAt time.Time
}

// FitnessRecord stores exercise and movement metrics.
type FitnessRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time

	Steps           *int
	FloorsClimbed   *int
	CaloriesBurned  *float64
	Distance        *float64
	Speed           *float64
	ElevationGained *float64
	ExerciseType    *string
	ExerciseMinutes *int

	CreatedAt time.Time
}

// NutritionRecord stores dietary intake tracking data.
type NutritionRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time

	Calories      *float64
	Protein       *float64
	Carbohydrates *float64
	Fats          *float64
	Fiber         *float64
	Sodium        *float64
	Hydration     *float64
	Notes         *string

	CreatedAt time.Time
}

// SleepRecord stores rest and recovery metrics for a single session.
type SleepRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time
	Date       *time.Time

	DurationMin *int
	DeepMin     *int
	LightMin    *int
	REMMin      *int
	AwakeMin    *int
	Quality     *string // poor, fair, good, excellent
	Notes       *string

	CreatedAt time.Time
}

// ReproductiveHealthRecord stores menstrual and fertility tracking data.
type ReproductiveHealthRecord struct {
	ID         string
	TenantID   string
	UserID     string
	RecordedAt time.Time
	Date       *time.Time

	MenstruationFlow *string // light, medium, heavy
	OvulationTest    *string // positive, negative, indeterminate
	CervicalMucus    *string
	Notes            *string

	CreatedAt time.Time
}

// Cursor models the keyset pagination token for record listings.
type Cursor struct {
	RecordedAt time.Time
	ID         string
}

// EmergencyContact is a person notified when the user raises a health alert.
type EmergencyContact struct {
	ID        string
	TenantID  string
	UserID    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// EmergencyAlert captures a user-raised (or threshold-triggered) health alert.
type EmergencyAlert struct {
	ID       string
	TenantID string
	UserID   string
	Reason   string
	Urgency  string
	RaisedAt time.Time
}
