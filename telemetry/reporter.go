// Package telemetry periodically ships a github.com/rcrowley/go-metrics
// registry somewhere.
package telemetry

// A Reporter continuously scans a metrics.Registry and emits all metrics.
// Stop must flush whatever was not emitted yet.
type Reporter interface {
	Name() string

	Start() error
	Stop()
}
