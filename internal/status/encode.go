// internal/status/encode.go
package status

import "encoding/json"

// Encode converts a Snapshot into the published status document.
// Layout is fixed by the json tags on Snapshot.
// No IO. No side effects.
func Encode(s Snapshot) ([]byte, error) {
	s.HealthName = HealthName(s.Health)
	return json.Marshal(s)
}
