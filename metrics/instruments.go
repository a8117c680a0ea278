package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scopes of the restore instruments.
const (
	ScopeController  = "controller"
	ScopeWorkerGroup = "workergroup"
)

// Restore events, counted per scope.
const (
	RestoreStart                     = "start_restore"
	RestoreFailed                    = "failed"
	RestoreCompleted                 = "completed"
	RestoreCkptRequests              = "ckpt_requests"
	RestoreCkptResponses             = "ckpt_responses"
	RestoreCkptResponsesIgnored      = "ckpt_responses_ignored"
	RestoreCkptResponsesError        = "ckpt_responses_error"
	RestoreInstanceRequests          = "instance_restore_requests"
	RestoreInstanceResponses         = "instance_restore_responses"
	RestoreInstanceResponsesIgnored  = "instance_restore_responses_ignored"
	RestoreWorkerGroupReplies        = "worker_group_replies"
	RestoreWorkerGroupRepliesIgnored = "worker_group_replies_ignored"
)

// Pending sets exported as gauges.
const (
	PendingCheckpointAcks = "checkpoint_acks"
	PendingRestoreReplies = "restore_replies"
	PendingGetState       = "get_state"
	PendingRestoreAcks    = "restore_acks"
)

var (
	gatewayBufferedBytes prometheus.Gauge
	gatewayEvents        *prometheus.CounterVec

	checkpointEvents     *prometheus.CounterVec
	consistentCheckpoint prometheus.Gauge

	pendingSize *prometheus.GaugeVec

	restoreEvents     *prometheus.CounterVec
	restoreInProgress *prometheus.GaugeVec
	restoreDuration   *prometheus.HistogramVec

	ckptmgrRequests   *prometheus.CounterVec
	ckptmgrStateBytes *prometheus.HistogramVec

	transportMessages  *prometheus.CounterVec
	transportConnected *prometheus.GaugeVec
)

func setupMetrics(reg prometheus.Registerer) error {
	h, err := AddInstrument(reg, Gauge, "buffered_bytes",
		Subsystem("gateway"),
		Help("Bytes held back by the barrier gateways while aligning"),
	)
	if err != nil {
		return err
	}
	if gatewayBufferedBytes, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "events_total",
		Subsystem("gateway"),
		Vectors("event"),
		Help("Barrier alignments completed, reset and force drained"),
	)
	if err != nil {
		return err
	}
	if gatewayEvents, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "events_total",
		Subsystem("checkpoint"),
		Vectors("event"),
		Help("Checkpoints started, committed and failed to commit"),
	)
	if err != nil {
		return err
	}
	if checkpointEvents, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Gauge, "consistent_generation",
		Subsystem("checkpoint"),
		Help("Controller generation of the latest globally consistent checkpoint"),
	)
	if err != nil {
		return err
	}
	if consistentCheckpoint, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Gauge, "pending",
		Vectors("set"),
		Help("Size of the pending sets of the checkpoint and restore protocols"),
	)
	if err != nil {
		return err
	}
	if pendingSize, err = h.GaugeVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "events_total",
		Subsystem("restore"),
		Vectors("scope", "event"),
		Help("Restore protocol events"),
	)
	if err != nil {
		return err
	}
	if restoreEvents, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Gauge, "in_progress",
		Subsystem("restore"),
		Vectors("scope"),
		Help("1 while a restore is in progress"),
	)
	if err != nil {
		return err
	}
	if restoreInProgress, err = h.GaugeVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Histogram, "duration_seconds",
		Subsystem("restore"),
		Vectors("scope"),
		Buckets(prometheus.ExponentialBuckets(0.05, 2, 12)),
		Help("Time from the start of a restore to its completion"),
	)
	if err != nil {
		return err
	}
	if restoreDuration, err = h.HistogramVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "requests_total",
		Subsystem("ckptmgr"),
		Vectors("request", "status"),
		Help("Requests served by the checkpoint manager"),
	)
	if err != nil {
		return err
	}
	if ckptmgrRequests, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Histogram, "state_bytes",
		Subsystem("ckptmgr"),
		Vectors("request"),
		Buckets(prometheus.ExponentialBuckets(256, 4, 10)),
		Help("Size of the instance states saved and fetched"),
	)
	if err != nil {
		return err
	}
	if ckptmgrStateBytes, err = h.HistogramVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "messages_total",
		Subsystem("transport"),
		Vectors("direction", "kind", "outcome"),
		Help("Messages sent and received"),
	)
	if err != nil {
		return err
	}
	if transportMessages, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Gauge, "connected",
		Subsystem("transport"),
		Vectors("remote"),
		Help("1 while at least one connection to the remote address is up"),
	)
	if err != nil {
		return err
	}
	transportConnected, err = h.GaugeVec()
	return err
}

// GatewayBufferedBytesSet update the bytes currently buffered by the gateway.
func GatewayBufferedBytesSet(n uint64) {
	if gatewayBufferedBytes == nil {
		return
	}
	gatewayBufferedBytes.Set(float64(n))
}

// GatewayEventInc counts "aligned", "reset" or "force_drain".
func GatewayEventInc(event string) {
	if gatewayEvents == nil {
		return
	}
	gatewayEvents.WithLabelValues(event).Inc()
}

func CheckpointEventInc(event string) {
	if checkpointEvents == nil {
		return
	}
	checkpointEvents.WithLabelValues(event).Inc()
}

func ConsistentCheckpointSet(generation uint64) {
	if consistentCheckpoint == nil {
		return
	}
	consistentCheckpoint.Set(float64(generation))
}

func PendingSet(set string, n int) {
	if pendingSize == nil {
		return
	}
	pendingSize.WithLabelValues(set).Set(float64(n))
}

func RestoreEventInc(scope, event string) {
	if restoreEvents == nil {
		return
	}
	restoreEvents.WithLabelValues(scope, event).Inc()
}

func RestoreInProgressSet(scope string, inProgress bool) {
	if restoreInProgress == nil {
		return
	}
	v := 0.
	if inProgress {
		v = 1.
	}
	restoreInProgress.WithLabelValues(scope).Set(v)
}

func RestoreDurationObserve(scope string, d time.Duration) {
	if restoreDuration == nil {
		return
	}
	restoreDuration.WithLabelValues(scope).Observe(d.Seconds())
}

func CkptmgrRequestInc(request, status string) {
	if ckptmgrRequests == nil {
		return
	}
	ckptmgrRequests.WithLabelValues(request, status).Inc()
}

func CkptmgrStateBytesObserve(request string, n int) {
	if ckptmgrStateBytes == nil {
		return
	}
	ckptmgrStateBytes.WithLabelValues(request).Observe(float64(n))
}

// TransportMessageInc counts a message, direction is "in" or "out", outcome
// "ok" or the reason it was dropped.
func TransportMessageInc(direction, kind, outcome string) {
	if transportMessages == nil {
		return
	}
	transportMessages.WithLabelValues(direction, kind, outcome).Inc()
}

func TransportConnectedSet(remote string, connected bool) {
	if transportConnected == nil {
		return
	}
	v := 0.
	if connected {
		v = 1.
	}
	transportConnected.WithLabelValues(remote).Set(v)
}
