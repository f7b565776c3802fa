package influxdb

import (
	"github.com/robohome/robohome-core/internal/automation"
	"github.com/robohome/robohome-core/internal/dispatch"
)

// Measurement names written by Recorder.
const (
	MeasurementReaction = "reaction"
	MeasurementJob      = "queue_job"
)

// Recorder writes automation telemetry. It implements automation.Recorder.
type Recorder struct {
	client *Client
	house  string
}

// NewRecorder returns a recorder tagging every point with houseID.
func NewRecorder(client *Client, houseID string) *Recorder {
	return &Recorder{client: client, house: houseID}
}

// RecordReaction writes one point per trigger handled by the engine.
func (r *Recorder) RecordReaction(rx automation.Reaction) {
	r.client.WritePoint(MeasurementReaction,
		map[string]string{
			"house":   r.house,
			"address": rx.Address,
			"trigger": rx.Trigger,
		},
		map[string]any{
			"item_id":     rx.ItemID,
			"matched":     len(rx.Matched),
			"rejected":    len(rx.Rejected),
			"skipped":     len(rx.Skipped),
			"executed":    len(rx.Executed),
			"failures":    len(rx.Failures),
			"duration_ms": milliseconds(rx.Duration.Seconds()),
		},
	)
}

// RecordJob writes one point per queued method invocation.
func (r *Recorder) RecordJob(res dispatch.Result) {
	status := "ok"
	if res.Err != nil {
		status = "failed"
	}
	fields := map[string]any{
		"job_id":      res.Job.ID.String(),
		"room_id":     res.Job.RoomID,
		"item_id":     res.Job.ItemID,
		"priority":    res.Job.Priority,
		"duration_ms": milliseconds(res.Duration.Seconds()),
	}
	if !res.Job.SubmittedAt.IsZero() {
		fields["wait_ms"] = milliseconds(r.client.now().Sub(res.Job.SubmittedAt).Seconds() - res.Duration.Seconds())
	}
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}

	r.client.WritePoint(MeasurementJob,
		map[string]string{
			"house":  r.house,
			"method": res.Job.Method,
			"status": status,
		},
		fields,
	)
}

func milliseconds(seconds float64) float64 {
	return seconds * millisecondsPerSecond
}
