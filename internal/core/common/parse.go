package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals a model response into T, tolerating the usual
// quirks: markdown fences, leading commentary, trailing prose. It keeps
// the span between the first '{' and the last '}' and parses that.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end < start {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
