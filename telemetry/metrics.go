package telemetry

import (
	"github.com/armon/go-metrics"
)

const (
	relayerMetricsPrefix  = "relayer"
	verifierMetricsPrefix = "verifier"
	scannerMetricsPrefix  = "scanner"
)

func UpdateRelayerIntentsDiscoveredCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{relayerMetricsPrefix, "intents_discovered_counter", chain}, float32(cnt))
}

func UpdateRelayerInvalidEventsCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{relayerMetricsPrefix, "invalid_events_counter", chain}, float32(cnt))
}

func UpdateRelayerSubmitSucceededCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{relayerMetricsPrefix, "submit_succeeded_counter", chain}, float32(cnt))
}

func UpdateRelayerSubmitFailedCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{relayerMetricsPrefix, "submit_failed_counter", chain}, float32(cnt))
}

func UpdateRelayerPermanentFailuresCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{relayerMetricsPrefix, "permanent_failures_counter", chain}, float32(cnt))
}

func UpdateVerifierConfirmedCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{verifierMetricsPrefix, "confirmed_counter", chain}, float32(cnt))
}

func UpdateVerifierMismatchCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{verifierMetricsPrefix, "mismatch_counter", chain}, float32(cnt))
}

func UpdateVerifierResubmitCounter(chain string, cnt int) {
	metrics.IncrCounter([]string{verifierMetricsPrefix, "resubmit_counter", chain}, float32(cnt))
}

func UpdateScannerCursor(chain string, block uint64) {
	metrics.SetGauge([]string{scannerMetricsPrefix, "last_scanned_block", chain}, float32(block))
}

func UpdateRelayStatusGauge(status string, cnt int) {
	metrics.SetGauge([]string{relayerMetricsPrefix, "records", status}, float32(cnt))
}
