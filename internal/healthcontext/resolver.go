// Package healthcontext selects and formats a bounded slice of a user's
// health history into a compact text block for prompt construction.
package healthcontext

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CHIDI00/healix/internal/domain"
)

// Default lookback windows and record caps per category.
const (
	DefaultWindowDays             = 7
	DefaultVitalsMaxRecords       = 10
	DefaultReproductiveWindowDays = 30
	DefaultReproductiveMaxRecords = 10
)

// NoDataSentinel is returned by ComprehensiveContext when every category is
// empty. The per-category summarizers and ContextForQuery never return it.
const NoDataSentinel = "No health data available for this user."

// RecordStore exposes the per-category record queries the resolver depends
// on. Implementations return records newest-first; the resolver does not
// re-sort. A store that cannot be reached must return an error wrapping
// domain.ErrStoreUnavailable rather than an empty result.
type RecordStore interface {
	VitalsSince(ctx context.Context, tenantID, userID string, since time.Time, limit int) ([]domain.VitalsRecord, error)
	LatestPhysical(ctx context.Context, tenantID, userID string) (*domain.PhysicalRecord, error)
	FitnessSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.FitnessRecord, error)
	NutritionSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.NutritionRecord, error)
	SleepSince(ctx context.Context, tenantID, userID string, since time.Time) ([]domain.SleepRecord, error)
	ReproductiveHealthSince(ctx context.Context, tenantID, userID string, since time.Time, limit int) ([]domain.ReproductiveHealthRecord, error)
}

// Resolver is a stateless transform from (identity, store state) to text. It
// holds no per-call state and is safe for concurrent use.
type Resolver struct {
	store  RecordStore
	logger *log.Logger
	now    func() time.Time
}

// Option configures optional Resolver behaviour.
type Option func(*Resolver)

// WithLogger overrides the logger used for skipped-category reporting.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithClock overrides the time source used to anchor lookback windows.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store RecordStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: log.New(log.Writer(), "[healthcontext] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// category binds a keyword set to its summarizer. The same table drives both
// query routing and the comprehensive ordering.
type category struct {
	name      string
	keywords  []string
	summarize func(ctx context.Context, tenantID, userID string) (string, error)
}

func (r *Resolver) categories() []category {
	return []category{
		{"vitals", []string{"vital", "heart", "blood pressure", "temperature", "oxygen"},
			func(ctx context.Context, tenantID, userID string) (string, error) {
				return r.SummarizeVitals(ctx, tenantID, userID, DefaultWindowDays, DefaultVitalsMaxRecords)
			}},
		{"physical", []string{"weight", "height", "fat", "body", "physical"},
			r.SummarizePhysical},
		{"fitness", []string{"exercise", "workout", "fitness", "steps", "calories"},
			func(ctx context.Context, tenantID, userID string) (string, error) {
				return r.SummarizeFitness(ctx, tenantID, userID, DefaultWindowDays)
			}},
		{"nutrition", []string{"nutrition", "diet", "food", "protein", "hydration"},
			func(ctx context.Context, tenantID, userID string) (string, error) {
				return r.SummarizeNutrition(ctx, tenantID, userID, DefaultWindowDays)
			}},
		{"sleep", []string{"sleep", "rest", "tired", "insomnia"},
			func(ctx context.Context, tenantID, userID string) (string, error) {
				return r.SummarizeSleep(ctx, tenantID, userID, DefaultWindowDays)
			}},
		{"reproductive", []string{"period", "menstruation", "ovulation", "fertility"},
			func(ctx context.Context, tenantID, userID string) (string, error) {
				return r.SummarizeReproductiveHealth(ctx, tenantID, userID, DefaultReproductiveWindowDays)
			}},
	}
}

func (r *Resolver) since(windowDays int) time.Time {
	return r.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
}

// SummarizeVitals formats the newest vitals readings in the window, one line
// per record, listing only reported measurements. Returns "" when the window
// holds no records.
func (r *Resolver) SummarizeVitals(ctx context.Context, tenantID, userID string, windowDays, maxRecords int) (string, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if maxRecords <= 0 {
		maxRecords = DefaultVitalsMaxRecords
	}

	records, err := r.store.VitalsSince(ctx, tenantID, userID, r.since(windowDays), maxRecords)
	if err != nil {
		return "", fmt.Errorf("fetch vitals: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent Vital Signs (past %d days):", windowDays)
	for _, rec := range records {
		readings := make([]string, 0, 5)
		if rec.HeartRate != nil {
			readings = append(readings, fmt.Sprintf("HR: %d bpm", *rec.HeartRate))
		}
		if rec.BodyTemperature != nil {
			readings = append(readings, fmt.Sprintf("Temp: %s°C", fmtFloat(*rec.BodyTemperature)))
		}
		if rec.BPSystolic != nil && rec.BPDiastolic != nil {
			readings = append(readings, fmt.Sprintf("BP: %s/%s mmHg", fmtFloat(*rec.BPSystolic), fmtFloat(*rec.BPDiastolic)))
		}
		if rec.OxygenSaturation != nil {
			readings = append(readings, fmt.Sprintf("SpO2: %s%%", fmtFloat(*rec.OxygenSaturation)))
		}
		if rec.BloodGlucose != nil {
			readings = append(readings, fmt.Sprintf("Blood Glucose: %s mg/dL", fmtFloat(*rec.BloodGlucose)))
		}
		if len(readings) > 0 {
			fmt.Fprintf(&b, "\n  %s: %s", rec.RecordedAt.Format("2006-01-02 15:04"), strings.Join(readings, ", "))
		}
	}
	return b.String(), nil
}

// SummarizePhysical formats the single most recent physical record, one line
// per reported field. Returns "" when the user has no physical records.
func (r *Resolver) SummarizePhysical(ctx context.Context, tenantID, userID string) (string, error) {
	rec, err := r.store.LatestPhysical(ctx, tenantID, userID)
	if err != nil {
		return "", fmt.Errorf("fetch physical: %w", err)
	}
	if rec == nil {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Latest Physical Data (%s):", rec.RecordedAt.Format("2006-01-02"))
	if rec.Weight != nil {
		fmt.Fprintf(&b, "\n  Weight: %s kg", fmtFloat(*rec.Weight))
	}
	if rec.Height != nil {
		fmt.Fprintf(&b, "\n  Height: %s cm", fmtFloat(*rec.Height))
	}
	if rec.BodyFatPct != nil {
		fmt.Fprintf(&b, "\n  Body Fat: %s%%", fmtFloat(*rec.BodyFatPct))
	}
	if rec.BMR != nil {
		fmt.Fprintf(&b, "\n  BMR: %s kcal/day", fmtFloat(*rec.BMR))
	}
	if rec.LeanBodyMass != nil {
		fmt.Fprintf(&b, "\n  Lean Mass: %s kg", fmtFloat(*rec.LeanBodyMass))
	}
	return b.String(), nil
}

// SummarizeFitness totals steps, calories and distance over the window.
// Unreported fields count as zero in the totals. Exercise-type tallies are
// appended only when at least one record names a type.
func (r *Resolver) SummarizeFitness(ctx context.Context, tenantID, userID string, windowDays int) (string, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	records, err := r.store.FitnessSince(ctx, tenantID, userID, r.since(windowDays))
	if err != nil {
		return "", fmt.Errorf("fetch fitness: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var totalSteps int
	var totalCalories, totalDistance float64
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Steps != nil {
			totalSteps += *rec.Steps
		}
		if rec.CaloriesBurned != nil {
			totalCalories += *rec.CaloriesBurned
		}
		if rec.Distance != nil {
			totalDistance += *rec.Distance
		}
		if rec.ExerciseType != nil && *rec.ExerciseType != "" {
			counts[*rec.ExerciseType]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fitness Activity (past %d days):", windowDays)
	fmt.Fprintf(&b, "\n  Total Steps: %d", totalSteps)
	fmt.Fprintf(&b, "\n  Total Calories Burned: %s kcal", fmtFloat(totalCalories))
	fmt.Fprintf(&b, "\n  Total Distance: %s km", fmtFloat(totalDistance))

	if len(counts) > 0 {
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n  Exercises:")
		for _, name := range names {
			fmt.Fprintf(&b, "\n    %s: %d times", name, counts[name])
		}
	}
	return b.String(), nil
}

// SummarizeNutrition averages calories, protein and hydration over the
// window. Unreported values count as zero but the divisor stays the full
// record count, so sparse logging pulls the averages down. Long-standing
// behaviour; changing it changes reported metrics.
func (r *Resolver) SummarizeNutrition(ctx context.Context, tenantID, userID string, windowDays int) (string, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	records, err := r.store.NutritionSince(ctx, tenantID, userID, r.since(windowDays))
	if err != nil {
		return "", fmt.Errorf("fetch nutrition: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var calories, protein, hydration float64
	for _, rec := range records {
		if rec.Calories != nil {
			calories += *rec.Calories
		}
		if rec.Protein != nil {
			protein += *rec.Protein
		}
		if rec.Hydration != nil {
			hydration += *rec.Hydration
		}
	}
	n := float64(len(records))

	var b strings.Builder
	fmt.Fprintf(&b, "Nutrition Summary (past %d days):", windowDays)
	fmt.Fprintf(&b, "\n  Avg Daily Calories: %.0f kcal", calories/n)
	fmt.Fprintf(&b, "\n  Avg Daily Protein: %.0fg", protein/n)
	fmt.Fprintf(&b, "\n  Avg Daily Hydration: %.0f mL", hydration/n)
	return b.String(), nil
}

// SummarizeSleep averages duration over the window (same null-as-zero,
// full-count divisor as nutrition) and appends detail for the most recent
// session.
func (r *Resolver) SummarizeSleep(ctx context.Context, tenantID, userID string, windowDays int) (string, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	records, err := r.store.SleepSince(ctx, tenantID, userID, r.since(windowDays))
	if err != nil {
		return "", fmt.Errorf("fetch sleep: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var totalMinutes float64
	for _, rec := range records {
		if rec.DurationMin != nil {
			totalMinutes += float64(*rec.DurationMin)
		}
	}
	avgHours := totalMinutes / float64(len(records)) / 60

	var b strings.Builder
	fmt.Fprintf(&b, "Sleep Summary (past %d days):", windowDays)
	fmt.Fprintf(&b, "\n  Average Sleep Duration: %.1f hours", avgHours)

	last := records[0]
	fmt.Fprintf(&b, "\n  Last Night's Sleep: %s", sleepDate(last))
	if last.DurationMin != nil {
		fmt.Fprintf(&b, "\n    Duration: %d minutes", *last.DurationMin)
	}
	if last.Quality != nil {
		fmt.Fprintf(&b, "\n    Quality: %s", *last.Quality)
	}
	return b.String(), nil
}

// SummarizeReproductiveHealth lists flow and ovulation-test entries for the
// most recent records in the window, one line per reported attribute.
func (r *Resolver) SummarizeReproductiveHealth(ctx context.Context, tenantID, userID string, windowDays int) (string, error) {
	if windowDays <= 0 {
		windowDays = DefaultReproductiveWindowDays
	}

	records, err := r.store.ReproductiveHealthSince(ctx, tenantID, userID, r.since(windowDays), DefaultReproductiveMaxRecords)
	if err != nil {
		return "", fmt.Errorf("fetch reproductive health: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reproductive Health (past %d days):", windowDays)
	for _, rec := range records {
		date := recordDate(rec.Date, rec.RecordedAt)
		if rec.MenstruationFlow != nil {
			fmt.Fprintf(&b, "\n  %s: Menstruation (%s)", date, *rec.MenstruationFlow)
		}
		if rec.OvulationTest != nil {
			fmt.Fprintf(&b, "\n  %s: Ovulation Test (%s)", date, *rec.OvulationTest)
		}
	}
	return b.String(), nil
}

// ComprehensiveContext runs every summarizer with its default window and
// joins the non-empty results. Categories whose fetch fails are skipped so a
// partial store outage degrades rather than blanks the context. The error
// surfaces once no category produced output and at least one failed; an
// outage is never reported as absence of data.
func (r *Resolver) ComprehensiveContext(ctx context.Context, tenantID, userID string) (string, error) {
	cats := r.categories()
	parts := make([]string, 0, len(cats))
	failures := 0
	var lastErr error

	for _, cat := range cats {
		part, err := cat.summarize(ctx, tenantID, userID)
		if err != nil {
			failures++
			lastErr = err
			r.logger.Printf("skipping %s summary: %v", cat.name, err)
			continue
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		// The sentinel asserts the user has no data; it must only be issued
		// when every category resolved and came back empty. Any skipped
		// category leaves that claim unproven, so the failure surfaces.
		if failures > 0 {
			return "", fmt.Errorf("could not summarize %d of %d categories: %w", failures, len(cats), lastErr)
		}
		return NoDataSentinel, nil
	}
	return strings.Join(parts, "\n"), nil
}

// ContextForQuery routes the query to category summarizers by
// case-insensitive substring keyword match (no word boundaries, so
// "heartache" matches "heart"). With no match it falls back to
// ComprehensiveContext. A matched-but-empty category set yields "", not the
// sentinel; callers relying on the sentinel must use ComprehensiveContext.
func (r *Resolver) ContextForQuery(ctx context.Context, tenantID, userID, query string) (string, error) {
	lowered := strings.ToLower(query)

	parts := make([]string, 0, 6)
	matched := false
	for _, cat := range r.categories() {
		if !containsAny(lowered, cat.keywords) {
			continue
		}
		matched = true
		part, err := cat.summarize(ctx, tenantID, userID)
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	if !matched {
		return r.ComprehensiveContext(ctx, tenantID, userID)
	}
	return strings.Join(parts, "\n"), nil
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sleepDate(rec domain.SleepRecord) string {
	return recordDate(rec.Date, rec.RecordedAt)
}

func recordDate(date *time.Time, fallback time.Time) string {
	if date != nil {
		return date.Format("2006-01-02")
	}
	return fallback.Format("2006-01-02")
}
