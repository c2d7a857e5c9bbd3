package quic

import (
	"github.com/docker/go-metrics"

	"github.com/goburrow/quicoutq/transport"
)

// namespacePrefix names this engine's prometheus namespace, mirroring
// distribution-distribution/metrics/prometheus.go's NamespacePrefix.
const namespacePrefix = "quicoutq"

// outqNamespace is the single metrics.Namespace every OutQ-facing counter
// and gauge in this package is registered under, grounded on
// distribution-distribution/metrics/prometheus.go's StorageNamespace /
// registry/proxy/proxymetrics.go's ProxyNamespace, which likewise hold one
// package-level Namespace fed by LabeledCounters.
var outqNamespace = metrics.NewNamespace(namespacePrefix, "outq", nil)

var (
	framesEnqueued = outqNamespace.NewLabeledCounter("frames_enqueued", "frames pushed onto a pending queue", "type")
	framesAcked    = outqNamespace.NewLabeledCounter("frames_acked", "frames released by an acknowledgement", "type")
	framesLost     = outqNamespace.NewLabeledCounter("frames_lost", "frames marked lost and returned to a pending queue", "type")

	dataInflightGauge = outqNamespace.NewGauge("data_inflight", "payload bytes currently in flight", metrics.Bytes)
	wireInflightGauge = outqNamespace.NewGauge("inflight", "wire bytes currently in flight", metrics.Bytes)
	windowGauge       = outqNamespace.NewGauge("window", "congestion window snapshot", metrics.Bytes)
	rtxCountGauge     = outqNamespace.NewGauge("rtx_count", "consecutive loss-recovery epochs", metrics.Total)
)

func init() {
	metrics.Register(outqNamespace)
}

// RecordEnqueued increments the enqueued counter for a frame type. Nothing
// in this module calls it: the Conn wrapper's enqueues are counted through
// qlogSink's recordQlogMetric instead (transport.OutQ itself has no
// metrics dependency).
func RecordEnqueued(t transport.FrameType) {
	framesEnqueued.WithValues(t.String()).Inc(1)
}

// RecordAcked increments the acked counter for a frame type.
func RecordAcked(t transport.FrameType) {
	framesAcked.WithValues(t.String()).Inc(1)
}

// RecordLost increments the lost counter for a frame type.
func RecordLost(t transport.FrameType) {
	framesLost.WithValues(t.String()).Inc(1)
}

// Sample refreshes the gauges from an OutQ's current snapshot. Callers
// invoke this periodically (e.g. after Transmit/TransmittedSack) rather
// than OutQ pushing samples itself, keeping transport free of a metrics
// dependency.
func Sample(outq *transport.OutQ) {
	dataInflightGauge.Update(float64(outq.DataInflight()))
	wireInflightGauge.Update(float64(outq.Inflight()))
	windowGauge.Update(float64(outq.Window()))
	rtxCountGauge.Update(float64(outq.RtxCount()))
}
