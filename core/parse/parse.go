package parse

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// Option configures decoding behavior.
type Option func(*options)

type options struct {
	repair bool
}

// WithRepair makes decoding retry a block through jsonrepair when it is not
// valid JSON (single quotes, trailing commas, unquoted keys, truncated
// output). Without it an invalid block is simply reported as unparseable.
func WithRepair() Option {
	return func(o *options) {
		o.repair = true
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// decodeBlock unmarshals content into a generic JSON value. If that fails and
// repair is enabled, the content is repaired and unmarshaled again.
func decodeBlock(content string, o options) (any, error) {
	var value any
	err := json.Unmarshal([]byte(content), &value)
	if err == nil {
		return value, nil
	}
	if !o.repair {
		return nil, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return nil, fmt.Errorf("unmarshal error: %w, repair error: %v", err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repaired JSON: %w", err)
	}
	return value, nil
}
