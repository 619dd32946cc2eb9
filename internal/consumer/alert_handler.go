package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CHIDI00/healix/internal/domain"
	"github.com/CHIDI00/healix/internal/events"
)

// Vital-sign bounds that trigger an alert when breached.
const (
	heartRateLow     = 40
	heartRateHigh    = 150
	spo2Low          = 92.0
	systolicHigh     = 160.0
	bloodGlucoseHigh = 200.0
)

// AlertRaiser raises an emergency alert for a user.
type AlertRaiser interface {
	RaiseAlert(ctx context.Context, tenantID, userID, reason, urgency string) (*domain.EmergencyAlert, error)
}

// AlertHandler audits consumed events and raises alerts when a vitals
// reading breaches a safety threshold.
type AlertHandler struct {
	pool   *pgxpool.Pool
	alerts AlertRaiser
}

// NewAlertHandler constructs a handler backed by the provided pool and alert raiser.
func NewAlertHandler(pool *pgxpool.Pool, alerts AlertRaiser) *AlertHandler {
	return &AlertHandler{pool: pool, alerts: alerts}
}

// Handle stores the event in the audit log and, for vitals events, evaluates
// threshold rules.
func (h *AlertHandler) Handle(ctx context.Context, msg Message) error {
	if err := h.logEvent(ctx, msg); err != nil {
		return err
	}
	if msg.EventType != "vitals.recorded" {
		return nil
	}

	var payload events.VitalsRecorded
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode vitals payload: %w", err)
	}

	breaches := EvaluateThresholds(payload)
	if len(breaches) == 0 {
		return nil
	}

	urgency := urgencyFor(breaches)
	reason := strings.Join(breaches, "; ")
	if _, err := h.alerts.RaiseAlert(ctx, payload.TenantID, payload.UserID, reason, urgency); err != nil {
		return fmt.Errorf("raise alert: %w", err)
	}
	recordAlertRaised(urgency)
	return nil
}

func (h *AlertHandler) logEvent(ctx context.Context, msg Message) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx,
		`INSERT INTO health_event_log (event_type, tenant_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		msg.EventType,
		msg.TenantID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}

// EvaluateThresholds returns a human-readable breach description per rule
// the reading violates. Unreported measurements never trigger a rule.
func EvaluateThresholds(v events.VitalsRecorded) []string {
	var breaches []string
	if v.HeartRate != nil && (*v.HeartRate < heartRateLow || *v.HeartRate > heartRateHigh) {
		breaches = append(breaches, fmt.Sprintf("heart rate %d bpm outside safe range %d-%d", *v.HeartRate, heartRateLow, heartRateHigh))
	}
	if v.OxygenSaturation != nil && *v.OxygenSaturation < spo2Low {
		breaches = append(breaches, fmt.Sprintf("oxygen saturation %.1f%% below %.0f%%", *v.OxygenSaturation, spo2Low))
	}
	if v.BPSystolic != nil && *v.BPSystolic > systolicHigh {
		breaches = append(breaches, fmt.Sprintf("systolic blood pressure %.0f mmHg above %.0f", *v.BPSystolic, systolicHigh))
	}
	if v.BloodGlucose != nil && *v.BloodGlucose > bloodGlucoseHigh {
		breaches = append(breaches, fmt.Sprintf("blood glucose %.0f mg/dL above %.0f", *v.BloodGlucose, bloodGlucoseHigh))
	}
	return breaches
}

func urgencyFor(breaches []string) string {
	for _, b := range breaches {
		if strings.HasPrefix(b, "heart rate") || strings.HasPrefix(b, "oxygen saturation") {
			return "critical"
		}
	}
	return "high"
}
