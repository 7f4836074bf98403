package metrics

import (
	"sync"

	"github.com/kilianp07/fleetscope/core/factory"
	coremetrics "github.com/kilianp07/fleetscope/core/metrics"
)

// InfluxConf holds the connection settings of the influx sink module.
type InfluxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

var (
	builtinsOnce sync.Once
	builtinsErr  error
)

// RegisterBuiltins registers the built-in sink factories. Registration
// happens once per process; later calls return the first outcome.
func RegisterBuiltins() error {
	builtinsOnce.Do(func() { builtinsErr = registerBuiltins() })
	return builtinsErr
}

func registerBuiltins() error {
	if err := coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	}); err != nil {
		return err
	}
	if err := coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	}); err != nil {
		return err
	}
	return coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
