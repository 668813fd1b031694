package locale

import (
	"errors"
	"fmt"
	"os"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNotObject is returned when the messages file is valid JSON but not an object.
var ErrNotObject = errors.New("localized messages must be a JSON object")

// Messages is a loaded message table.
type Messages struct {
	table *structpb.Struct
}

// Load reads a JSON object of messages from path. An empty path means no
// localization and returns nil messages without error.
func Load(path string) (*Messages, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // absence of localization is not an error.
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read localized messages: %w", err)
	}

	return Parse(contents)
}

// Parse decodes a JSON object of messages.
func Parse(contents []byte) (*Messages, error) {
	var value structpb.Value
	if err := protojson.Unmarshal(contents, &value); err != nil {
		return nil, fmt.Errorf("decode localized messages: %w", err)
	}

	table := value.GetStructValue()
	if table == nil {
		return nil, ErrNotObject
	}

	return &Messages{table: table}, nil
}

// Loaded reports whether any messages are available.
func (m *Messages) Loaded() bool {
	return m != nil && m.table != nil
}

// Len returns the number of top-level message keys.
func (m *Messages) Len() int {
	if !m.Loaded() {
		return 0
	}

	return len(m.table.GetFields())
}

// Lookup returns the string message stored under key.
func (m *Messages) Lookup(key string) (string, bool) {
	if !m.Loaded() {
		return "", false
	}

	field, ok := m.table.GetFields()[key]
	if !ok {
		return "", false
	}

	text, ok := field.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}

	return text.StringValue, true
}

// Bytes serializes the messages for the delegate.
func (m *Messages) Bytes() ([]byte, error) {
	if !m.Loaded() {
		return nil, nil
	}

	data, err := protojson.Marshal(m.table)
	if err != nil {
		return nil, fmt.Errorf("encode localized messages: %w", err)
	}

	return data, nil
}
