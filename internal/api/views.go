package api

import (
	"errors"
	"strings"
	"time"

	"github.com/CHIDI00/healix/internal/domain"
)

// Record requests carry pointer fields so "not reported" survives the trip
// to storage; an omitted measurement is stored as NULL, never zero.

// VitalsRequest is the payload for POST /v1/records/vitals.
type VitalsRequest struct {
	RecordedAt           time.Time `json:"recorded_at"`
	HeartRate            *int      `json:"heart_rate"`
	RestingHeartRate     *int      `json:"resting_heart_rate"`
	RespiratoryRate      *int      `json:"respiratory_rate"`
	BodyTemperature      *float64  `json:"body_temperature"`
	BasalBodyTemperature *float64  `json:"basal_body_temperature"`
	BPSystolic           *float64  `json:"bp_systolic"`
	BPDiastolic          *float64  `json:"bp_diastolic"`
	OxygenSaturation     *float64  `json:"oxygen_saturation"`
	BloodGlucose         *float64  `json:"blood_glucose"`
	VO2Max               *float64  `json:"vo2_max"`
}

// Validate ensures at least one measurement was reported.
func (r VitalsRequest) Validate() error {
	if r.HeartRate == nil && r.RestingHeartRate == nil && r.RespiratoryRate == nil &&
		r.BodyTemperature == nil && r.BasalBodyTemperature == nil &&
		r.BPSystolic == nil && r.BPDiastolic == nil && r.OxygenSaturation == nil &&
		r.BloodGlucose == nil && r.VO2Max == nil {
		return errors.New("at least one measurement is required")
	}
	if (r.BPSystolic == nil) != (r.BPDiastolic == nil) {
		return errors.New("bp_systolic and bp_diastolic must be reported together")
	}
	return nil
}

func (r VitalsRequest) toRecord(tenantID, userID string) domain.VitalsRecord {
	return domain.VitalsRecord{
		TenantID:             tenantID,
		UserID:               userID,
		RecordedAt:           r.RecordedAt,
		HeartRate:            r.HeartRate,
		RestingHeartRate:     r.RestingHeartRate,
		RespiratoryRate:      r.RespiratoryRate,
		BodyTemperature:      r.BodyTemperature,
		BasalBodyTemperature: r.BasalBodyTemperature,
		BPSystolic:           r.BPSystolic,
		BPDiastolic:          r.BPDiastolic,
		OxygenSaturation:     r.OxygenSaturation,
		BloodGlucose:         r.BloodGlucose,
		VO2Max:               r.VO2Max,
	}
}

// PhysicalRequest is the payload for POST /v1/records/physical.
type PhysicalRequest struct {
	RecordedAt   time.Time `json:"recorded_at"`
	Weight       *float64  `json:"weight_kg"`
	Height       *float64  `json:"height_cm"`
	BodyFatPct   *float64  `json:"body_fat_pct"`
	BMR          *float64  `json:"bmr_kcal"`
	LeanBodyMass *float64  `json:"lean_body_mass_kg"`
	BoneMass     *float64  `json:"bone_mass_kg"`
}

// Validate ensures at least one measurement was reported.
func (r PhysicalRequest) Validate() error {
	if r.Weight == nil && r.Height == nil && r.BodyFatPct == nil &&
		r.BMR == nil && r.LeanBodyMass == nil && r.BoneMass == nil {
		return errors.New("at least one measurement is required")
	}
	return nil
}

func (r PhysicalRequest) toRecord(tenantID, userID string) domain.PhysicalRecord {
	return domain.PhysicalRecord{
		TenantID:     tenantID,
		UserID:       userID,
		RecordedAt:   r.RecordedAt,
		Weight:       r.Weight,
		Height:       r.Height,
		BodyFatPct:   r.BodyFatPct,
		BMR:          r.BMR,
		LeanBodyMass: r.LeanBodyMass,
		BoneMass:     r.BoneMass,
	}
}

// FitnessRequest is the payload for POST /v1/records/fitness.
type FitnessRequest struct {
	RecordedAt      time.Time `json:"recorded_at"`
	Steps           *int      `json:"steps"`
	FloorsClimbed   *int      `json:"floors_climbed"`
	CaloriesBurned  *float64  `json:"calories_burned"`
	Distance        *float64  `json:"distance_km"`
	Speed           *float64  `json:"speed_kmh"`
	ElevationGained *float64  `json:"elevation_gained_m"`
	ExerciseType    *string   `json:"exercise_type"`
	ExerciseMinutes *int      `json:"exercise_minutes"`
}

// Validate ensures at least one metric was reported.
func (r FitnessRequest) Validate() error {
	if r.Steps == nil && r.FloorsClimbed == nil && r.CaloriesBurned == nil &&
		r.Distance == nil && r.Speed == nil && r.ElevationGained == nil &&
		r.ExerciseType == nil && r.ExerciseMinutes == nil {
		return errors.New("at least one metric is required")
	}
	return nil
}

func (r FitnessRequest) toRecord(tenantID, userID string) domain.FitnessRecord {
	return domain.FitnessRecord{
		TenantID:        tenantID,
		UserID:          userID,
		RecordedAt:      r.RecordedAt,
		Steps:           r.Steps,
		FloorsClimbed:   r.FloorsClimbed,
		CaloriesBurned:  r.CaloriesBurned,
		Distance:        r.Distance,
		Speed:           r.Speed,
		ElevationGained: r.ElevationGained,
		ExerciseType:    r.ExerciseType,
		ExerciseMinutes: r.ExerciseMinutes,
	}
}

// NutritionRequest is the payload for POST /v1/records/nutrition.
type NutritionRequest struct {
	RecordedAt    time.Time `json:"recorded_at"`
	Calories      *float64  `json:"calories"`
	Protein       *float64  `json:"protein_g"`
	Carbohydrates *float64  `json:"carbohydrates_g"`
	Fats          *float64  `json:"fats_g"`
	Fiber         *float64  `json:"fiber_g"`
	Sodium        *float64  `json:"sodium_mg"`
	Hydration     *float64  `json:"hydration_ml"`
	Notes         *string   `json:"notes"`
}

// Validate ensures at least one intake value was reported.
func (r NutritionRequest) Validate() error {
	if r.Calories == nil && r.Protein == nil && r.Carbohydrates == nil &&
		r.Fats == nil && r.Fiber == nil && r.Sodium == nil && r.Hydration == nil {
		return errors.New("at least one intake value is required")
	}
	return nil
}

func (r NutritionRequest) toRecord(tenantID, userID string) domain.NutritionRecord {
	return domain.NutritionRecord{
		TenantID:      tenantID,
		UserID:        userID,
		RecordedAt:    r.RecordedAt,
		Calories:      r.Calories,
		Protein:       r.Protein,
		Carbohydrates: r.Carbohydrates,
		Fats:          r.Fats,
		Fiber:         r.Fiber,
		Sodium:        r.Sodium,
		Hydration:     r.Hydration,
		Notes:         r.Notes,
	}
}

var sleepQualities = map[string]bool{"poor": true, "fair": true, "good": true, "excellent": true}

// SleepRequest is the payload for POST /v1/records/sleep.
type SleepRequest struct {
	RecordedAt  time.Time  `json:"recorded_at"`
	Date        *time.Time `json:"date"`
	DurationMin *int       `json:"duration_min"`
	DeepMin     *int       `json:"deep_min"`
	LightMin    *int       `json:"light_min"`
	REMMin      *int       `json:"rem_min"`
	AwakeMin    *int       `json:"awake_min"`
	Quality     *string    `json:"quality"`
	Notes       *string    `json:"notes"`
}

// Validate checks duration and quality values.
func (r SleepRequest) Validate() error {
	if r.DurationMin == nil && r.Quality == nil {
		return errors.New("duration_min or quality is required")
	}
	if r.DurationMin != nil && *r.DurationMin < 0 {
		return errors.New("duration_min must be >= 0")
	}
	if r.Quality != nil && !sleepQualities[strings.ToLower(*r.Quality)] {
		return errors.New("quality must be one of poor, fair, good, excellent")
	}
	return nil
}

func (r SleepRequest) toRecord(tenantID, userID string) domain.SleepRecord {
	return domain.SleepRecord{
		TenantID:    tenantID,
		UserID:      userID,
		RecordedAt:  r.RecordedAt,
		Date:        r.Date,
		DurationMin: r.DurationMin,
		DeepMin:     r.DeepMin,
		LightMin:    r.LightMin,
		REMMin:      r.REMMin,
		AwakeMin:    r.AwakeMin,
		Quality:     r.Quality,
		Notes:       r.Notes,
	}
}

// ReproductiveHealthRequest is the payload for POST /v1/records/reproductive-health.
type ReproductiveHealthRequest struct {
	RecordedAt       time.Time  `json:"recorded_at"`
	Date             *time.Time `json:"date"`
	MenstruationFlow *string    `json:"menstruation_flow"`
	OvulationTest    *string    `json:"ovulation_test"`
	CervicalMucus    *string    `json:"cervical_mucus"`
	Notes            *string    `json:"notes"`
}

// Validate ensures at least one attribute was reported.
func (r ReproductiveHealthRequest) Validate() error {
	if r.MenstruationFlow == nil && r.OvulationTest == nil && r.CervicalMucus == nil && r.Notes == nil {
		return errors.New("at least one attribute is required")
	}
	return nil
}

func (r ReproductiveHealthRequest) toRecord(tenantID, userID string) domain.ReproductiveHealthRecord {
	return domain.ReproductiveHealthRecord{
		TenantID:         tenantID,
		UserID:           userID,
		RecordedAt:       r.RecordedAt,
		Date:             r.Date,
		MenstruationFlow: r.MenstruationFlow,
		OvulationTest:    r.OvulationTest,
		CervicalMucus:    r.CervicalMucus,
		Notes:            r.Notes,
	}
}

// --- views ---

// VitalsView exposes a stored vitals record.
type VitalsView struct {
	RecordID             string    `json:"record_id"`
	RecordedAt           time.Time `json:"recorded_at"`
	HeartRate            *int      `json:"heart_rate,omitempty"`
	RestingHeartRate     *int      `json:"resting_heart_rate,omitempty"`
	RespiratoryRate      *int      `json:"respiratory_rate,omitempty"`
	BodyTemperature      *float64  `json:"body_temperature,omitempty"`
	BasalBodyTemperature *float64  `json:"basal_body_temperature,omitempty"`
	BPSystolic           *float64  `json:"bp_systolic,omitempty"`
	BPDiastolic          *float64  `json:"bp_diastolic,omitempty"`
	OxygenSaturation     *float64  `json:"oxygen_saturation,omitempty"`
	BloodGlucose         *float64  `json:"blood_glucose,omitempty"`
	VO2Max               *float64  `json:"vo2_max,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

func toVitalsView(rec domain.VitalsRecord) VitalsView {
	return VitalsView{
		RecordID:             rec.ID,
		RecordedAt:           rec.RecordedAt,
		HeartRate:            rec.HeartRate,
		RestingHeartRate:     rec.RestingHeartRate,
		RespiratoryRate:      rec.RespiratoryRate,
		BodyTemperature:      rec.BodyTemperature,
		BasalBodyTemperature: rec.BasalBodyTemperature,
		BPSystolic:           rec.BPSystolic,
		BPDiastolic:          rec.BPDiastolic,
		OxygenSaturation:     rec.OxygenSaturation,
		BloodGlucose:         rec.BloodGlucose,
		VO2Max:               rec.VO2Max,
		CreatedAt:            rec.CreatedAt,
	}
}

// PhysicalView exposes a stored physical record.
type PhysicalView struct {
	RecordID     string    `json:"record_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	Weight       *float64  `json:"weight_kg,omitempty"`
	Height       *float64  `json:"height_cm,omitempty"`
	BodyFatPct   *float64  `json:"body_fat_pct,omitempty"`
	BMR          *float64  `json:"bmr_kcal,omitempty"`
	LeanBodyMass *float64  `json:"lean_body_mass_kg,omitempty"`
	BoneMass     *float64  `json:"bone_mass_kg,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPhysicalView(rec domain.PhysicalRecord) PhysicalView {
	return PhysicalView{
		RecordID:     rec.ID,
		RecordedAt:   rec.RecordedAt,
		Weight:       rec.Weight,
		Height:       rec.Height,
		BodyFatPct:   rec.BodyFatPct,
		BMR:          rec.BMR,
		LeanBodyMass: rec.LeanBodyMass,
		BoneMass:     rec.BoneMass,
		CreatedAt:    rec.CreatedAt,
	}
}

// FitnessView exposes a stored fitness record.
type FitnessView struct {
	RecordID        string    `json:"record_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	Steps           *int      `json:"steps,omitempty"`
	FloorsClimbed   *int      `json:"floors_climbed,omitempty"`
	CaloriesBurned  *float64  `json:"calories_burned,omitempty"`
	Distance        *float64  `json:"distance_km,omitempty"`
	Speed           *float64  `json:"speed_kmh,omitempty"`
	ElevationGained *float64  `json:"elevation_gained_m,omitempty"`
	ExerciseType    *string   `json:"exercise_type,omitempty"`
	ExerciseMinutes *int      `json:"exercise_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toFitnessView(rec domain.FitnessRecord) FitnessView {
	return FitnessView{
		RecordID:        rec.ID,
		RecordedAt:      rec.RecordedAt,
		Steps:           rec.Steps,
		FloorsClimbed:   rec.FloorsClimbed,
		CaloriesBurned:  rec.CaloriesBurned,
		Distance:        rec.Distance,
		Speed:           rec.Speed,
		ElevationGained: rec.ElevationGained,
		ExerciseType:    rec.ExerciseType,
		ExerciseMinutes: rec.ExerciseMinutes,
		CreatedAt:       rec.CreatedAt,
	}
}

// NutritionView exposes a stored nutrition record.
type NutritionView struct {
	RecordID      string    `json:"record_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	Calories      *float64  `json:"calories,omitempty"`
	Protein       *float64  `json:"protein_g,omitempty"`
	Carbohydrates *float64  `json:"carbohydrates_g,omitempty"`
	Fats          *float64  `json:"fats_g,omitempty"`
	Fiber         *float64  `json:"fiber_g,omitempty"`
	Sodium        *float64  `json:"sodium_mg,omitempty"`
	Hydration     *float64  `json:"hydration_ml,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toNutritionView(rec domain.NutritionRecord) NutritionView {
	return NutritionView{
		RecordID:      rec.ID,
		RecordedAt:    rec.RecordedAt,
		Calories:      rec.Calories,
		Protein:       rec.Protein,
		Carbohydrates: rec.Carbohydrates,
		Fats:          rec.Fats,
		Fiber:         rec.Fiber,
		Sodium:        rec.Sodium,
		Hydration:     rec.Hydration,
		Notes:         rec.Notes,
		CreatedAt:     rec.CreatedAt,
	}
}

// SleepView exposes a stored sleep record.
type SleepView struct {
	RecordID    string     `json:"record_id"`
	RecordedAt  time.Time  `json:"recorded_at"`
	Date        *time.Time `json:"date,omitempty"`
	DurationMin *int       `json:"duration_min,omitempty"`
	DeepMin     *int       `json:"deep_min,omitempty"`
	LightMin    *int       `json:"light_min,omitempty"`
	REMMin      *int       `json:"rem_min,omitempty"`
	AwakeMin    *int       `json:"awake_min,omitempty"`
	Quality     *string    `json:"quality,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toSleepView(rec domain.SleepRecord) SleepView {
	return SleepView{
		RecordID:    rec.ID,
		RecordedAt:  rec.RecordedAt,
		Date:        rec.Date,
		DurationMin: rec.DurationMin,
		DeepMin:     rec.DeepMin,
		LightMin:    rec.LightMin,
		REMMin:      rec.REMMin,
		AwakeMin:    rec.AwakeMin,
		Quality:     rec.Quality,
		Notes:       rec.Notes,
		CreatedAt:   rec.CreatedAt,
	}
}

// ReproductiveHealthView exposes a stored reproductive-health record.
type ReproductiveHealthView struct {
	RecordID         string     `json:"record_id"`
	RecordedAt       time.Time  `json:"recorded_at"`
	Date             *time.Time `json:"date,omitempty"`
	MenstruationFlow *string    `json:"menstruation_flow,omitempty"`
	OvulationTest    *string    `json:"ovulation_test,omitempty"`
	CervicalMucus    *string    `json:"cervical_mucus,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toReproductiveHealthView(rec domain.ReproductiveHealthRecord) ReproductiveHealthView {
	return ReproductiveHealthView{
		RecordID:         rec.ID,
		RecordedAt:       rec.RecordedAt,
		Date:             rec.Date,
		MenstruationFlow: rec.MenstruationFlow,
		OvulationTest:    rec.OvulationTest,
		CervicalMucus:    rec.CervicalMucus,
		Notes:            rec.Notes,
		CreatedAt:        rec.CreatedAt,
	}
}

// ListRecordsResponse packages list results.
type ListRecordsResponse struct {
	Items      []interface{} `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ContextResponse is the body for GET /v1/context.
type ContextResponse struct {
	Query   string `json:"query,omitempty"`
	Context string `json:"context"`
}

// ContactRequest is the payload for POST /v1/contacts.
type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate ensures request correctness.
func (r ContactRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("email is invalid")
	}
	return nil
}

// ContactView exposes a stored emergency contact.
type ContactView struct {
	ContactID string    `json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toContactView(c domain.EmergencyContact) ContactView {
	return ContactView{
		ContactID: c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

var alertUrgencies = map[string]bool{"low": true, "high": true, "critical": true}

// AlertRequest is the payload for POST /v1/alerts.
type AlertRequest struct {
	Reason  string `json:"reason"`
	Urgency string `json:"urgency"`
}

// Validate ensures request correctness.
func (r AlertRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	if !alertUrgencies[strings.ToLower(r.Urgency)] {
		return errors.New("urgency must be one of low, high, critical")
	}
	return nil
}

// AlertView is the body returned when an alert is accepted.
type AlertView struct {
	AlertID  string    `json:"alert_id"`
	Reason   string    `json:"reason"`
	Urgency  string    `json:"urgency"`
	RaisedAt time.Time `json:"raised_at"`
}
