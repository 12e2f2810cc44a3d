package telemetry

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PromName converts an instrument name such as droid.agent.steps into a
// Prometheus metric name (droid_agent_steps).
func PromName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

// NewSnapshotRegistry exposes a snapshot as one gauge per instrument.
func NewSnapshotRegistry(values map[string]float64, labels map[string]string) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for name, v := range values {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        PromName(name),
			Help:        "Value of " + name + " at the end of the run.",
			ConstLabels: labels,
		})
		g.Set(v)
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return reg, nil
}

// WriteTextfile writes a snapshot in the Prometheus text format, for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, values map[string]float64, labels map[string]string) error {
	reg, err := NewSnapshotRegistry(values, labels)
	if err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
