package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/armon/go-metrics"
	prometheusMetrics "github.com/armon/go-metrics/prometheus"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

const (
	defaultServiceName = "giveth-bridge-relayer"
	metricsServiceName = "giveth_bridge"
)

type TelemetryConfig struct {
	PrometheusAddr string `json:"prometheusAddr"` // empty means disabled otherwise something like 0.0.0.0:5001
	DataDogAddr    string `json:"dataDogAddr"`    // empty means disabled otherwise something like localhost:8126
	ServiceName    string `json:"serviceName"`    // datadog service tag
}

// Telemetry exposes relay metrics to prometheus and profiles the process with datadog
type Telemetry struct {
	config           TelemetryConfig
	prometheusServer *http.Server
	listener         net.Listener
	logger           hclog.Logger
}

func NewTelemetry(config TelemetryConfig, logger hclog.Logger) *Telemetry {
	if config.ServiceName == "" {
		config.ServiceName = defaultServiceName
	}

	return &Telemetry{
		config: config,
		logger: logger,
	}
}

// Start installs the global metrics sink. The prometheus address is bound before returning
// so a busy port fails the startup instead of being only logged.
func (t *Telemetry) Start() error {
	if !t.IsEnabled() {
		return nil
	}

	if err := setupMetrics(); err != nil {
		return fmt.Errorf("failed to setup metrics: %w", err)
	}

	if t.config.DataDogAddr != "" {
		if err := t.startDataDog(); err != nil {
			return err
		}
	}

	if t.config.PrometheusAddr != "" {
		listener, err := net.Listen("tcp", t.config.PrometheusAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on prometheus address %s: %w", t.config.PrometheusAddr, err)
		}

		t.listener = listener
		t.prometheusServer = newPrometheusServer()

		go t.servePrometheus()
	}

	return nil
}

func (t *Telemetry) Close(ctx context.Context) error {
	var errs []error

	if t.prometheusServer != nil {
		t.logger.Info("Prometheus server stopping", "addr", t.PrometheusAddr())

		if err := t.prometheusServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("prometheus shutdown: %w", err))
		}
	}

	if t.config.DataDogAddr != "" {
		profiler.Stop()
		tracer.Stop()
	}

	return errors.Join(errs...)
}

func (t *Telemetry) IsEnabled() bool {
	return t.config.DataDogAddr != "" || t.config.PrometheusAddr != ""
}

// PrometheusAddr is the bound scrape address, empty until Start
func (t *Telemetry) PrometheusAddr() string {
	if t.listener == nil {
		return ""
	}

	return t.listener.Addr().String()
}

func (t *Telemetry) servePrometheus() {
	t.logger.Info("Prometheus server started", "addr", t.PrometheusAddr())

	if err := t.prometheusServer.Serve(t.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.logger.Error("Prometheus server Serve error", "err", err)
	}
}

func (t *Telemetry) startDataDog() error {
	err := profiler.Start(
		profiler.WithService(t.config.ServiceName),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			profiler.BlockProfile,
			profiler.MutexProfile,
			profiler.GoroutineProfile,
			profiler.MetricsProfile,
		),
		profiler.WithAgentAddr(t.config.DataDogAddr),
	)
	if err != nil {
		return fmt.Errorf("could not start datadog profiler: %w", err)
	}

	tracer.Start(tracer.WithService(t.config.ServiceName), tracer.WithAgentAddr(t.config.DataDogAddr))

	t.logger.Info("DataDog profiler started", "addr", t.config.DataDogAddr, "service", t.config.ServiceName)

	return nil
}

func setupMetrics() error {
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(inm)

	var sink metrics.MetricSink

	promSink, err := prometheusMetrics.NewPrometheusSinkFrom(prometheusMetrics.PrometheusOpts{
		Name:       "giveth_bridge_prometheus_sink",
		Expiration: 0,
	})
	if err == nil {
		sink = promSink
	} else {
		// a sink registered by an earlier start keeps serving the same registry
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return err
		}

		existing, ok := alreadyRegistered.ExistingCollector.(metrics.MetricSink)
		if !ok {
			return err
		}

		sink = existing
	}

	metricsConf := metrics.DefaultConfig(metricsServiceName)
	metricsConf.EnableHostname = false

	_, err = metrics.NewGlobal(metricsConf, metrics.FanoutSink{
		inm, sink,
	})

	return err
}

func newPrometheusServer() *http.Server {
	return &http.Server{
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{},
			),
		),
		ReadHeaderTimeout: 60 * time.Second,
	}
}
