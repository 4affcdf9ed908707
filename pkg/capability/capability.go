// Package capability prepares Appium capability maps for session creation.
//
// Capability objects must never carry undefined values to the server. In Go an
// undefined value is a nil interface; the string "undefined" is treated the
// same way because it leaks in from unset environment substitutions.
package capability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// Undefined is the literal string value stripped by Clean.
const Undefined = "undefined"

// IsUndefined reports whether v is nil or the string "undefined".
func IsUndefined(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == Undefined
}

// Clean returns a copy of caps without undefined values, recursing into
// nested maps. Falsy but defined values (0, false, "") are kept. Slices are
// copied as-is.
func Clean(caps map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(caps))
	for k, v := range caps {
		if IsUndefined(v) {
			logger.Debug("capability %s removed: undefined value", k)
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = Clean(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// Verify returns an error naming every key path that still holds an
// undefined value, e.g. "appium:settings.snapshotMaxDepth".
func Verify(caps map[string]interface{}) error {
	var bad []string
	collectUndefined("", caps, &bad)
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return core.ErrInvalidConfig.
		WithMessage(fmt.Sprintf("capabilities contain undefined values: %s", strings.Join(bad, ", "))).
		WithDetails(map[string]interface{}{"keys": bad})
}

func collectUndefined(prefix string, caps map[string]interface{}, bad *[]string) {
	for k, v := range caps {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if IsUndefined(v) {
			*bad = append(*bad, path)
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			collectUndefined(path, nested, bad)
		}
	}
}

// RemoveKeys returns a shallow copy of caps without the named top-level keys.
func RemoveKeys(caps map[string]interface{}, keys ...string) map[string]interface{} {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := make(map[string]interface{}, len(caps))
	for k, v := range caps {
		if !drop[k] {
			out[k] = v
		}
	}
	return out
}

// Prepare cleans caps and verifies the result. It is what every session
// creation path calls before sending capabilities.
func Prepare(caps map[string]interface{}) (map[string]interface{}, error) {
	cleaned := Clean(caps)
	if err := Verify(cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}
