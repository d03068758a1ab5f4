package device

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ContentHash computes the deterministic cache key of a device instance:
// a sha256 digest over the template name and the parameter values.
//
// encoding/json sorts map keys, so equal parameter mappings hash equally
// regardless of insertion order. Stored values are limited to float64, int,
// bool and string by the schema, all of which marshal deterministically.
func ContentHash(template string, params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	payload := struct {
		Device string         `json:"device"`
		Params map[string]any `json:"params"`
	}{Device: template, Params: params}

	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
