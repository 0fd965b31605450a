// Package opaque keeps JSON object keys a struct does not declare, so that
// records owned partly by other writers survive a decode/encode round trip.
package opaque

import (
	"encoding/json"
	"fmt"
)

// Fields holds undeclared keys with their raw values.
type Fields map[string]json.RawMessage

// Split returns the keys of the JSON object in data that are not in known.
// It returns nil when there are none.
func Split(data []byte, known []string) (Fields, error) {
	var all Fields
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// Join adds extra to the JSON object in data. Keys already present in data
// win. Output keys are sorted.
func Join(data []byte, extra Fields) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var all Fields
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("merging extra fields: %w", err)
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// Inherit returns dst with every key of src that dst lacks. Neither argument
// is modified.
func Inherit(dst, src Fields) Fields {
	if len(src) == 0 {
		return dst
	}
	out := make(Fields, len(dst)+len(src))
	for k, v := range src {
		out[k] = v
	}
	for k, v := range dst {
		out[k] = v
	}
	return out
}
