package upstream

import (
	"bytes"
	"encoding/json"
	"sort"
)

var emptyList = json.RawMessage("[]")

// UnwrapList normalises a list response. The backend answers either a bare array or an
// object wrapping it under a named key such as "routes"; older endpoints use a "data"
// envelope or some other key. The named key wins, then a bare array, then the first
// array-valued field in key order. Anything else yields an empty list.
func UnwrapList(body []byte, key string) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return emptyList
	}
	switch trimmed[0] {
	case '[':
		return json.RawMessage(trimmed)
	case '{':
	default:
		return emptyList
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return emptyList
	}

	if raw, ok := fields[key]; ok && isArray(raw) {
		return raw
	}
	if data, ok := fields["data"]; ok {
		if isArray(data) {
			return data
		}
		if isObject(data) {
			if nested := UnwrapList(data, key); len(nested) > 2 {
				return nested
			}
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if isArray(fields[name]) {
			return fields[name]
		}
	}
	return emptyList
}

// UnwrapObject returns the object stored under key or a "data" envelope, else the body itself.
func UnwrapObject(body []byte, key string) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if !isObject(trimmed) {
		return json.RawMessage(trimmed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return json.RawMessage(trimmed)
	}
	for _, name := range []string{key, "data"} {
		if raw, ok := fields[name]; ok && isObject(raw) {
			return raw
		}
	}
	return json.RawMessage(trimmed)
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
