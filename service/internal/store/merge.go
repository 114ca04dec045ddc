// internal/store/merge.go
package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// mergeFields applies a partial update to a JSON document and returns the new
// encoding. Keys containing "/" walk (and create) nested objects.
func mergeFields(doc []byte, fields map[string]any) ([]byte, error) {
	root := map[string]any{}
	if len(doc) > 0 && string(doc) != "null" {
		if err := json.Unmarshal(doc, &root); err != nil {
			return nil, fmt.Errorf("merge: current document is not an object: %w", err)
		}
	}
	for key, value := range fields {
		// round-trip through JSON so nested maps and structs become plain values
		plain, err := toPlain(value)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", key, err)
		}
		parts := strings.Split(key, "/")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = plain
	}
	return json.Marshal(root)
}

func toPlain(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// stampEvent returns ev as a plain object carrying an id, minting one if ev
// has none.
func stampEvent(ev any, mint func() string) (map[string]any, string, error) {
	plain, err := toPlain(ev)
	if err != nil {
		return nil, "", err
	}
	obj, ok := plain.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("store: event must encode as an object, got %T", plain)
	}
	id, _ := obj["id"].(string)
	if id == "" {
		id = mint()
		obj["id"] = id
	}
	return obj, id, nil
}
