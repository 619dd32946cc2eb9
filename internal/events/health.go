// Package events defines cross-process event payloads emitted by the outbox.
package events

import "time"

// VitalsRecorded is emitted when a new vitals record is accepted. Metric
// fields are pointers so downstream consumers can distinguish "not reported"
// from zero when evaluating thresholds.
type VitalsRecorded struct {
	RecordID         string    `json:"record_id"`
	TenantID         string    `json:"tenant_id"`
	UserID           string    `json:"user_id"`
	RecordedAt       time.Time `json:"recorded_at"`
	HeartRate        *int      `json:"heart_rate,omitempty"`
	BPSystolic       *float64  `json:"bp_systolic,omitempty"`
	BPDiastolic      *float64  `json:"bp_diastolic,omitempty"`
	OxygenSaturation *float64  `json:"oxygen_saturation,omitempty"`
	BloodGlucose     *float64  `json:"blood_glucose,omitempty"`
	BodyTemperature  *float64  `json:"body_temperature,omitempty"`
}

// AlertRaised is emitted when an emergency alert is recorded, either by the
// user or by the threshold watcher.
type AlertRaised struct {
	AlertID  string    `json:"alert_id"`
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	Urgency  string    `json:"urgency"`
	RaisedAt time.Time `json:"raised_at"`
}
