// Package watch simulates a wearable device that measures vitals and syncs
// them to the records API.
package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Physiological bounds for generated readings.
const (
	heartRateMin = 45
	heartRateMax = 180
	systolicMin  = 90.0
	systolicMax  = 160.0
	diastolicMin = 60.0
	diastolicMax = 100.0
	tempMin      = 35.5
	tempMax      = 38.5
	spo2Min      = 92.0
	spo2Max      = 100.0
	glucoseMin   = 70.0
	glucoseMax   = 180.0
	respRateMin  = 12
	respRateMax  = 25
)

const batteryWarnLevel = 15.0

// Reading is one simulated measurement cycle.
type Reading struct {
	RecordedAt       time.Time `json:"recorded_at"`
	HeartRate        int       `json:"heart_rate"`
	RespiratoryRate  int       `json:"respiratory_rate"`
	BodyTemperature  float64   `json:"body_temperature"`
	BPSystolic       float64   `json:"bp_systolic"`
	BPDiastolic      float64   `json:"bp_diastolic"`
	OxygenSaturation float64   `json:"oxygen_saturation"`
	BloodGlucose     float64   `json:"blood_glucose"`
}

// Device produces plausible vitals readings. Values drift around a personal
// baseline modulated by time of day, then clamp to physiological bounds.
type Device struct {
	rng     *rand.Rand
	now     func() time.Time
	battery float64

	baseHeartRate float64
	baseSystolic  float64
	baseGlucose   float64
}

// NewDevice constructs a Device from a seed so runs are reproducible.
func NewDevice(seed int64) *Device {
	rng := rand.New(rand.NewSource(seed))
	return &Device{
		rng:           rng,
		now:           time.Now,
		battery:       100,
		baseHeartRate: 62 + rng.Float64()*14,
		baseSystolic:  108 + rng.Float64()*16,
		baseGlucose:   85 + rng.Float64()*20,
	}
}

// Battery reports the remaining charge percentage.
func (d *Device) Battery() float64 {
	return d.battery
}

// Measure produces the next reading and drains a little battery.
func (d *Device) Measure() Reading {
	now := d.now().UTC()
	activity := d.circadianFactor(now)

	hr := d.baseHeartRate*(0.9+0.4*activity) + d.rng.NormFloat64()*4
	sys := d.baseSystolic*(0.95+0.12*activity) + d.rng.NormFloat64()*5
	dia := sys*0.65 + d.rng.NormFloat64()*4
	temp := 36.4 + 0.5*activity + d.rng.NormFloat64()*0.15
	spo2 := 98 - 1.5*(1-activity)*d.rng.Float64()
	glucose := d.baseGlucose*(0.9+0.35*activity) + d.rng.NormFloat64()*8
	resp := 14 + 6*activity + d.rng.NormFloat64()*1.5

	d.battery = math.Max(0, d.battery-0.2-d.rng.Float64()*0.3)

	return Reading{
		RecordedAt:       now,
		HeartRate:        clampInt(int(math.Round(hr)), heartRateMin, heartRateMax),
		RespiratoryRate:  clampInt(int(math.Round(resp)), respRateMin, respRateMax),
		BodyTemperature:  round1(clamp(temp, tempMin, tempMax)),
		BPSystolic:       math.Round(clamp(sys, systolicMin, systolicMax)),
		BPDiastolic:      math.Round(clamp(dia, diastolicMin, diastolicMax)),
		OxygenSaturation: round1(clamp(spo2, spo2Min, spo2Max)),
		BloodGlucose:     math.Round(clamp(glucose, glucoseMin, glucoseMax)),
	}
}

// circadianFactor maps clock time to activity level in [0,1]: lowest in the
// small hours, peaking late afternoon.
func (d *Device) circadianFactor(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	return 0.5 - 0.5*math.Cos((hour-4)/24*2*math.Pi)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Syncer pushes readings to the records API.
type Syncer struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewSyncer constructs a Syncer with sane defaults.
func NewSyncer(apiURL, token string) *Syncer {
	return &Syncer{
		apiURL: apiURL,
		token:  token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Push posts one reading to POST /v1/records/vitals.
func (s *Syncer) Push(ctx context.Context, reading Reading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v1/records/vitals", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("User-Agent", "healix-watchsim/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sync rejected (%d): %s", resp.StatusCode, data)
	}
	return nil
}

// Service runs the measure-and-sync loop.
type Service struct {
	device   *Device
	syncer   *Syncer
	interval time.Duration
	logger   *log.Logger
}

// NewService constructs a Service.
func NewService(device *Device, syncer *Syncer, interval time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{device: device, syncer: syncer, interval: interval, logger: logger}
}

// Run measures and syncs on the configured interval until the context is
// cancelled or the battery is flat.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		reading := s.device.Measure()
		if err := s.syncer.Push(ctx, reading); err != nil {
			s.logger.Printf("sync failed, reading dropped: %v", err)
		} else {
			s.logger.Printf("synced reading: hr=%d spo2=%.1f battery=%.0f%%", reading.HeartRate, reading.OxygenSaturation, s.device.Battery())
		}

		if s.device.Battery() <= 0 {
			s.logger.Print("battery flat, shutting down")
			return nil
		}
		if s.device.Battery() <= batteryWarnLevel {
			s.logger.Printf("battery low: %.0f%%", s.device.Battery())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
