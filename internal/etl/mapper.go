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

// Package etl implements the per-table extract/transform/load pipeline:
// RecordMapper (pure row transformation) and TableSyncer (orchestration of
// SourceReader, RecordMapper, and a TargetWriter for one table).
package etl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagerflow/etlcore/internal/etlmodel"
	"github.com/wagerflow/etlcore/internal/transforms"
)

// emailPattern is the validation regex named in spec: a field fails the
// "email" validation unless it matches this shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// timestampLayouts are tried in order when coercing a string value in a
// "_at"/"_date"/"date_*" column to a time.Time.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RecordMapper applies field renames, per-field transforms, default type
// coercions, and validation rules to rows extracted from the source. It is
// pure and stateless aside from the registry.Lookup function it is built
// against, and its NowFunc hook (overridable in tests).
type RecordMapper struct {
	descriptor etlmodel.TableDescriptor
	lookup     func(name string) (transforms.Func, bool)
	// NowFunc returns the current time; defaults to time.Now. Exposed for
	// deterministic tests of ETLMetadata.TransformedAt.
	NowFunc func() time.Time
}

// NewRecordMapper builds a RecordMapper for the given table descriptor,
// resolving named transforms through the shared transforms registry.
func NewRecordMapper(descriptor etlmodel.TableDescriptor) *RecordMapper {
	return &RecordMapper{
		descriptor: descriptor,
		lookup:     transforms.Lookup,
		NowFunc:    time.Now,
	}
}

// MapBatch applies MapRow to every row in rows, partitioning the results
// into accepted and rejected rows and accumulating stats.
func (m *RecordMapper) MapBatch(rows []etlmodel.Row) ([]etlmodel.Row, []etlmodel.RejectedRow, etlmodel.MapperStats) {
	accepted := make([]etlmodel.Row, 0, len(rows))
	rejected := make([]etlmodel.RejectedRow, 0)
	var warnings []string

	now := m.now()
	for _, src := range rows {
		mapped, rowWarnings, rowErrors := m.mapRow(src, now)
		warnings = append(warnings, rowWarnings...)
		if len(rowErrors) > 0 {
			rejected = append(rejected, etlmodel.RejectedRow{
				SourceRow:  src,
				Errors:     rowErrors,
				RejectedAt: now,
			})
			continue
		}
		accepted = append(accepted, mapped)
	}

	stats := etlmodel.MapperStats{
		Processed:      len(rows),
		Transformed:    len(accepted),
		Rejected:       len(rejected),
		SuccessRatePct: etlmodel.ComputeSuccessRate(len(accepted), len(rows)),
		TransformWarns: warnings,
	}
	return accepted, rejected, stats
}

// MapRow applies the full pipeline to a single source row, returning the
// mapped row and any validation errors. A non-empty errors slice means the
// row was rejected and out should not be used.
func (m *RecordMapper) MapRow(src etlmodel.Row) (out etlmodel.Row, warnings []string, errs []string) {
	return m.mapRow(src, m.now())
}

func (m *RecordMapper) mapRow(src etlmodel.Row, now time.Time) (etlmodel.Row, []string, []string) {
	row := m.rename(src)
	warnings := m.applyTransforms(row, src)
	warnings = append(warnings, m.applyDefaultCoercions(row)...)

	errs := m.validate(row)
	if len(errs) > 0 {
		return nil, warnings, errs
	}

	m.attachMetadata(row, src, now)
	return row, warnings, nil
}

func (m *RecordMapper) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now()
}

// rename projects src through fieldMapping; unmapped source columns are
// dropped.
func (m *RecordMapper) rename(src etlmodel.Row) etlmodel.Row {
	out := make(etlmodel.Row, len(m.descriptor.FieldMapping))
	for sourceCol, targetCol := range m.descriptor.FieldMapping {
		if v, ok := src[sourceCol]; ok {
			out[targetCol] = v
		}
	}
	return out
}

// applyTransforms runs each configured transform function against the
// renamed row. A transform error leaves the field at its pre-transform
// value and is recorded as a warning rather than rejecting the row.
func (m *RecordMapper) applyTransforms(row etlmodel.Row, src etlmodel.Row) []string {
	var warnings []string
	for targetCol, transformName := range m.descriptor.Transformations {
		current, present := row[targetCol]
		if !present {
			continue
		}
		fn, ok := m.lookup(transformName)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown transform %q for field %q", transformName, targetCol))
			continue
		}
		newVal, err := fn(current, src)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("transform %q failed for field %q: %v", transformName, targetCol, err))
			continue
		}
		row[targetCol] = newVal
	}
	return warnings
}

// applyDefaultCoercions implements the ordered set of default type
// coercions spec.md §4.2 step 3 describes, applied after per-field
// transforms.
func (m *RecordMapper) applyDefaultCoercions(row etlmodel.Row) []string {
	var warnings []string
	for col, val := range row {
		s, isString := val.(string)

		// Whitespace trim; empty string becomes null.
		if isString {
			trimmed := strings.TrimSpace(s)
			if trimmed == "" {
				row[col] = nil
				continue
			}
			if trimmed != s {
				s = trimmed
				row[col] = s
			}
		}

		switch {
		case isTimestampColumn(col):
			if isString {
				if t, ok := parseTimestamp(s); ok {
					row[col] = t
				} else {
					row[col] = nil
					warnings = append(warnings, fmt.Sprintf("field %q: invalid timestamp %q, set to null", col, s))
				}
			}
		case isNumericColumn(col):
			if isString {
				if n, err := strconv.ParseFloat(s, 64); err == nil {
					row[col] = n
				}
			}
		case isString && (strings.EqualFold(s, "true") || strings.EqualFold(s, "false")):
			row[col] = strings.EqualFold(s, "true")
		}
	}
	return warnings
}

func isTimestampColumn(col string) bool {
	return strings.HasSuffix(col, "_at") || strings.HasSuffix(col, "_date") || strings.HasPrefix(col, "date_")
}

func isNumericColumn(col string) bool {
	return col == "id" || strings.Contains(col, "amount") || strings.HasSuffix(col, "_id")
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validate runs the descriptor's ValidationRules against row, returning a
// human-readable error per failed rule. Unique rules are intentionally not
// checked here; they are surfaced to TargetWriter via _unique_fields.
func (m *RecordMapper) validate(row etlmodel.Row) []string {
	var errs []string
	rules := m.descriptor.Validations

	for _, field := range rules.Required {
		if isEmpty(row[field]) {
			errs = append(errs, fmt.Sprintf("field %q is required", field))
		}
	}

	if rules.Email != "" {
		v, ok := row[rules.Email].(string)
		if !ok || !emailPattern.MatchString(v) {
			errs = append(errs, fmt.Sprintf("field %q failed email validation", rules.Email))
		}
	}

	for _, field := range rules.Numeric {
		if !isNumeric(row[field]) {
			errs = append(errs, fmt.Sprintf("field %q is not numeric", field))
		}
	}

	for _, field := range rules.Positive {
		n, ok := asFloat(row[field])
		if !ok || n <= 0 {
			errs = append(errs, fmt.Sprintf("field %q must be positive", field))
		}
	}

	return errs
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func isNumeric(v any) bool {
	_, ok := asFloat(v)
	return ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// attachMetadata stamps _etl_metadata and, when the descriptor names
// unique-validated fields, _unique_fields for the writer to consult.
func (m *RecordMapper) attachMetadata(row etlmodel.Row, src etlmodel.Row, now time.Time) {
	row[etlmodel.MetadataKey] = etlmodel.ETLMetadata{
		SourceTable:   m.descriptor.SourceTable,
		TargetTable:   m.descriptor.TargetTable,
		TransformedAt: now,
		SourceID:      src[m.descriptor.PrimaryKey],
	}
	if len(m.descriptor.Validations.Unique) > 0 {
		row[etlmodel.UniqueFieldsKey] = m.descriptor.Validations.Unique
	}
}
