package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cacheable read: a resource name followed by its parameters,
// e.g. Key{"reservations", userID}.
//
// Two keys are equal when their canonical JSON encodings are equal, so
// Key{"x", int64(1)} and Key{"x", 1} name the same entry.
type Key []any

// Hash returns the canonical identity of k.
func (k Key) Hash() string {
	if data, err := json.Marshal([]any(k)); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%#v", []any(k))
}

// HasPrefix reports whether the leading elements of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if elemHash(k[i]) != elemHash(prefix[i]) {
			return false
		}
	}
	return true
}

// Name is the resource part of the key, used as a metrics label.
func (k Key) Name() string {
	if len(k) == 0 {
		return ""
	}
	return fmt.Sprint(k[0])
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func elemHash(v any) string {
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%#v", v)
}
