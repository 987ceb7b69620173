package session

// LatencyStats reports illustrative engine latency figures. This is an
// explicit stub: the numbers are fixed placeholders, not measurements, and
// Source says so.
type LatencyStats struct {
	Source            string  `json:"source"`
	AvgUpdateMicros   float64 `json:"avg_update_micros"`
	P50UpdateMicros   float64 `json:"p50_update_micros"`
	P99UpdateMicros   float64 `json:"p99_update_micros"`
	AvgExecuteMicros  float64 `json:"avg_execute_micros"`
	QuoteRefreshMills float64 `json:"quote_refresh_millis"`
}

// Latency returns the static placeholder metrics.
func (s *Session) Latency() LatencyStats {
	return LatencyStats{
		Source:            "simulated",
		AvgUpdateMicros:   12.5,
		P50UpdateMicros:   9.0,
		P99UpdateMicros:   48.0,
		AvgExecuteMicros:  21.0,
		QuoteRefreshMills: 2.5,
	}
}
