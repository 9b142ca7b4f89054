package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// moveRequestMetrics collects per-request timings for the relocation
// endpoint and emits them as one structured log line.
type moveRequestMetrics struct {
	logger         *log.Logger
	start          time.Time
	authDuration   time.Duration
	moveDuration   time.Duration
	encodeDuration time.Duration
	errorStage     string
}

func newMoveRequestMetrics(logger *log.Logger) *moveRequestMetrics {
	return &moveRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
}

func (m *moveRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *moveRequestMetrics) ObserveMove(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.moveDuration = duration
}

func (m *moveRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *moveRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *moveRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    "/api/v1/task/move",
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}

	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.moveDuration > 0 {
		fields["move_ms"] = durationToMillis(m.moveDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("task.move.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
