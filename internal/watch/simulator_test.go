package watch

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMeasureStaysWithinBounds(t *testing.T) {
	device := NewDevice(42)

	for i := 0; i < 500; i++ {
		reading := device.Measure()
		require.GreaterOrEqual(t, reading.HeartRate, heartRateMin)
		require.LessOrEqual(t, reading.HeartRate, heartRateMax)
		require.GreaterOrEqual(t, reading.RespiratoryRate, respRateMin)
		require.LessOrEqual(t, reading.RespiratoryRate, respRateMax)
		require.GreaterOrEqual(t, reading.BodyTemperature, tempMin)
		require.LessOrEqual(t, reading.BodyTemperature, tempMax)
		require.GreaterOrEqual(t, reading.BPSystolic, systolicMin)
		require.LessOrEqual(t, reading.BPSystolic, systolicMax)
		require.GreaterOrEqual(t, reading.BPDiastolic, diastolicMin)
		require.LessOrEqual(t, reading.BPDiastolic, diastolicMax)
		require.GreaterOrEqual(t, reading.OxygenSaturation, spo2Min)
		require.LessOrEqual(t, reading.OxygenSaturation, spo2Max)
		require.GreaterOrEqual(t, reading.BloodGlucose, glucoseMin)
		require.LessOrEqual(t, reading.BloodGlucose, glucoseMax)
	}
}

func TestMeasureIsReproducibleForSeed(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	first := NewDevice(7)
	first.now = func() time.Time { return now }
	second := NewDevice(7)
	second.now = func() time.Time { return now }

	for i := 0; i < 20; i++ {
		require.Equal(t, first.Measure(), second.Measure())
	}
}

func TestMeasureDrainsBattery(t *testing.T) {
	device := NewDevice(1)
	before := device.Battery()
	device.Measure()
	require.Less(t, device.Battery(), before)
}

func TestPushSendsAuthorizedJSON(t *testing.T) {
	var gotAuth, gotAgent string
	var gotReading Reading

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		require.Equal(t, "/v1/records/vitals", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReading))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	syncer := NewSyncer(server.URL, "test-token")
	reading := NewDevice(3).Measure()

	require.NoError(t, syncer.Push(context.Background(), reading))
	require.Equal(t, "Bearer test-token", gotAuth)
	require.Equal(t, "healix-watchsim/1.0", gotAgent)
	require.Equal(t, reading.HeartRate, gotReading.HeartRate)
}

func TestPushReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	syncer := NewSyncer(server.URL, "test-token")
	err := syncer.Push(context.Background(), NewDevice(3).Measure())
	require.ErrorContains(t, err, "403")
}

func TestRunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	service := NewService(NewDevice(5), NewSyncer(server.URL, "tok"), 10*time.Millisecond, log.New(testWriter{t}, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := service.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
