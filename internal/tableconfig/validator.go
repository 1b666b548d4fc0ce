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

// Package tableconfig validates table descriptors against a JSON Schema
// before the scheduler or a manual sync path may act on them.
package tableconfig

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

//go:embed descriptor.schema.json
var embeddedSchema string

// Validator rejects malformed fieldMapping/filters shapes at load time
// rather than at first sync.
type Validator struct {
	schema gojsonschema.JSONLoader
}

// NewValidator builds a Validator against the embedded descriptor schema.
func NewValidator() *Validator {
	return &Validator{schema: gojsonschema.NewStringLoader(embeddedSchema)}
}

// Validate checks td against the descriptor schema. It round-trips td
// through JSON since gojsonschema validates JSON documents, not Go values
// directly.
func (v *Validator) Validate(td etlmodel.TableDescriptor) error {
	data, err := json.Marshal(td)
	if err != nil {
		return fmt.Errorf("tableconfig: marshal descriptor: %w", err)
	}

	result, err := gojsonschema.Validate(v.schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("tableconfig: schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("tableconfig: invalid table descriptor: %s", strings.Join(msgs, "; "))
	}
	return nil
}
