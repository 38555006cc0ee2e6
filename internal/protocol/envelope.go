package protocol

import (
	"encoding/json"
	"strings"

	"github.com/simplegameutils/sgu/internal/common"
)

var ErrNotObject = common.Errorf(common.ErrValidation, "messages must be a JSON object")

// Envelope is a parsed inbound message whose kind is known but whose payload
// has not been decoded yet.
type Envelope struct {
	Kind   Kind
	Raw    []byte
	fields map[string]json.RawMessage
}

// Parse reads one message. It fails when data is not a JSON object or the
// kind field is absent or not a string; it does not consult the registry.
func Parse(data []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrNotObject
	}

	raw, ok := fields["kind"]
	if !ok {
		return nil, common.Errorf(common.ErrValidation, "message kind is missing")
	}
	var kind string
	if err := json.Unmarshal(raw, &kind); err != nil {
		return nil, common.Errorf(common.ErrValidation, "message kind must be a string")
	}
	return &Envelope{Kind: Kind(kind), Raw: data, fields: fields}, nil
}

// Has reports whether the field is present. A JSON null counts as present.
func (e *Envelope) Has(field string) bool {
	_, ok := e.fields[field]
	return ok
}

// Validate checks the kind against the registry and that every required
// field is present. It has no side effects.
func (e *Envelope) Validate() error {
	required, ok := requiredByKind[e.Kind]
	if !ok {
		return common.Errorf(common.ErrValidation, "unknown message kind %q", string(e.Kind))
	}

	var missing []string
	for _, f := range required {
		if !e.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return common.Errorf(common.ErrValidation, "missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
