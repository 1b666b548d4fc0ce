/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package transforms holds the static registry of named, pure per-field
// transform functions that table descriptors reference by name. Using a
// registry (rather than closures configured inline) keeps descriptors
// serializable and transform logic auditable ahead of time.
package transforms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// Func is a pure, synchronous per-field transform: given the field's
// current value and the full source row it came from, it returns the
// value's replacement.
type Func func(value any, sourceRow etlmodel.Row) (any, error)

// registry is the process-wide set of named transforms, populated at
// package init. It is never mutated after startup.
var registry = map[string]Func{
	"mapUserStatus":    mapUserStatus,
	"cleanPhone":       cleanPhone,
	"lowercaseEmail":   lowercaseEmail,
	"normalizeCountry": normalizeCountry,
	"centsToAmount":    centsToAmount,
	"titleCase":        titleCase,
}

// Lookup returns the named transform function, or false if no such
// transform is registered.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Register adds a transform to the registry. Intended for use from test
// files and from main() wiring that needs to add deployment-specific
// transforms; it is not safe to call concurrently with Lookup.
func Register(name string, fn Func) {
	registry[name] = fn
}

func mapUserStatus(value any, _ etlmodel.Row) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, fmt.Errorf("mapUserStatus: expected string, got %T", value)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "active", "enabled":
		return "active", nil
	case "0", "inactive", "disabled":
		return "inactive", nil
	case "banned", "blocked":
		return "banned", nil
	default:
		return s, nil
	}
}

func cleanPhone(value any, _ etlmodel.Row) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, fmt.Errorf("cleanPhone: expected string, got %T", value)
	}
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func lowercaseEmail(value any, _ etlmodel.Row) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, fmt.Errorf("lowercaseEmail: expected string, got %T", value)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

func normalizeCountry(value any, _ etlmodel.Row) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, fmt.Errorf("normalizeCountry: expected string, got %T", value)
	}
	return strings.ToUpper(strings.TrimSpace(s)), nil
}

// centsToAmount divides an integer-cents value by 100 to produce a decimal
// amount. It accepts int64, float64, or a numeric string.
func centsToAmount(value any, _ etlmodel.Row) (any, error) {
	switch v := value.(type) {
	case int64:
		return float64(v) / 100.0, nil
	case float64:
		return v / 100.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return value, fmt.Errorf("centsToAmount: %w", err)
		}
		return f / 100.0, nil
	default:
		return value, fmt.Errorf("centsToAmount: unsupported type %T", value)
	}
}

func titleCase(value any, _ etlmodel.Row) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, fmt.Errorf("titleCase: expected string, got %T", value)
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " "), nil
}
