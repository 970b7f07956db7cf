// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16 `json:"health"`
	HealthName     string `json:"health_name"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`

	Mode         string `json:"mode"`
	StoreSize    int    `json:"store_size"`
	LastSampleAt int64  `json:"last_sample_at"` // ms since epoch, 0 before the first sample
	Skipped      uint64 `json:"skipped_ticks"`
}
