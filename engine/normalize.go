package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// listFields are the document fields that are arrays but may arrive as
// objects keyed by index.
var listFields = []string{"deck", "discard", "playerOrder", "log"}

// DecodeState parses a shared document. Arrays that the store handed back as
// index-keyed objects ({"0": a, "1": b}) are turned back into arrays first,
// including every hand.
func DecodeState(data []byte) (*GameState, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	for _, f := range listFields {
		if raw, ok := doc[f]; ok {
			fixed, err := NormalizeList(raw)
			if err != nil {
				return nil, fmt.Errorf("decode state: %s: %w", f, err)
			}
			doc[f] = fixed
		}
	}
	if raw, ok := doc["hands"]; ok && isObject(raw) {
		var hands map[string]json.RawMessage
		if err := json.Unmarshal(raw, &hands); err != nil {
			return nil, fmt.Errorf("decode state: hands: %w", err)
		}
		for id, h := range hands {
			fixed, err := NormalizeList(h)
			if err != nil {
				return nil, fmt.Errorf("decode state: hands/%s: %w", id, err)
			}
			hands[id] = fixed
		}
		merged, err := json.Marshal(hands)
		if err != nil {
			return nil, err
		}
		doc["hands"] = merged
	}

	fixed, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var g GameState
	if err := json.Unmarshal(fixed, &g); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &g, nil
}

// NormalizeList returns raw unchanged when it is already an array (or null),
// and otherwise rebuilds the array from an index-keyed object. Numeric keys
// are ordered numerically; any other keys follow in lexical order.
func NormalizeList(raw json.RawMessage) (json.RawMessage, error) {
	if !isObject(raw) {
		return raw, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		switch {
		case aerr == nil && berr == nil:
			return ai - bi
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		}
		return bytes.Compare([]byte(a), []byte(b))
	})
	list := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		list = append(list, obj[k])
	}
	return json.Marshal(list)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
