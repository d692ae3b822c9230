package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bulk-importer/internal/types"
)

// JSONParser reads JSON files holding either an array of flat objects (one
// row each) or a single object (one row). Loaded fully into memory; the
// upload boundary enforces the file size cap.
type JSONParser struct{}

// Detect classifies JSON content by extension or a validity probe.
func (p *JSONParser) Detect(content []byte, filename string) types.ImportFormat {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		return types.FormatJSON
	}
	if json.Valid(content) {
		return types.FormatJSON
	}
	return types.FormatUnknown
}

// Headers returns the keys of the first object in document order.
func (p *JSONParser) Headers(content []byte) ([]string, error) {
	keys, err := firstObjectKeys(content)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Rows returns an iterator over the decoded rows with all values stringified.
func (p *JSONParser) Rows(content []byte, limit int) (RowIterator, error) {
	objects, err := decodeObjects(content)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(objects))
	for _, obj := range objects {
		if limit > 0 && len(rows) >= limit {
			break
		}
		row := make(Row, len(obj))
		for k, v := range obj {
			row[k] = stringifyValue(v)
		}
		rows = append(rows, row)
	}
	return &sliceIterator{rows: rows}, nil
}

// RowCount returns the number of objects: array length, or 1 for a single object.
func (p *JSONParser) RowCount(content []byte) (int, error) {
	objects, err := decodeObjects(content)
	if err != nil {
		return 0, err
	}
	return len(objects), nil
}

func decodeObjects(content []byte) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := data.(type) {
	case []interface{}:
		objects := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				objects = append(objects, obj)
			}
		}
		return objects, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	default:
		return nil, fmt.Errorf("JSON must be an object or an array of objects")
	}
}

// firstObjectKeys walks the token stream so header order matches the document
// instead of Go's randomized map iteration.
func firstObjectKeys(content []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// Skip into the first element when the document is an array.
	if delim, ok := tok.(json.Delim); ok && delim == '[' {
		if !dec.More() {
			return []string{}, nil
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("JSON must be an object or an array of objects")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token in JSON object")
		}
		keys = append(keys, key)

		// Consume the value, whole subtrees included.
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return keys, nil
}

func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		// Nested structures keep their JSON rendering.
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
