package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestTelemetry_Disabled(t *testing.T) {
	telemetry := NewTelemetry(TelemetryConfig{}, hclog.NewNullLogger())

	require.False(t, telemetry.IsEnabled())
	require.NoError(t, telemetry.Start())
	require.NoError(t, telemetry.Close(context.Background()))

	// metrics go to the default blackhole sink when telemetry is disabled
	UpdateRelayerIntentsDiscoveredCounter("home", 2)
	UpdateRelayerSubmitFailedCounter("foreign", 1)
	UpdateScannerCursor("home", 100)
	UpdateRelayStatusGauge("pending", 3)
}

func TestTelemetry_IsEnabled(t *testing.T) {
	require.True(t, NewTelemetry(TelemetryConfig{PrometheusAddr: "0.0.0.0:5001"}, hclog.NewNullLogger()).IsEnabled())
	require.True(t, NewTelemetry(TelemetryConfig{DataDogAddr: "localhost:8126"}, hclog.NewNullLogger()).IsEnabled())
}

func TestTelemetry_Prometheus(t *testing.T) {
	telemetry := NewTelemetry(TelemetryConfig{PrometheusAddr: "127.0.0.1:0"}, hclog.NewNullLogger())

	require.Empty(t, telemetry.PrometheusAddr())
	require.NoError(t, telemetry.Start())

	defer func() {
		require.NoError(t, telemetry.Close(context.Background()))
	}()

	UpdateRelayerSubmitSucceededCounter("home", 3)

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", telemetry.PrometheusAddr()))
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "relayer_submit_succeeded_counter_home")

	busy := NewTelemetry(TelemetryConfig{PrometheusAddr: telemetry.PrometheusAddr()}, hclog.NewNullLogger())
	require.ErrorContains(t, busy.Start(), "failed to listen")
}
