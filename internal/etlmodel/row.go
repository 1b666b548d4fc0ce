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

package etlmodel

import "time"

// Row is an unordered mapping from column name to scalar value,
// used both for rows read from the source and rows produced by RecordMapper.
// Values are one of nil, bool, int64, float64, string, or time.Time.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ETLMetadata is the "_etl_metadata" sub-mapping RecordMapper attaches to
// every accepted row.
type ETLMetadata struct {
	SourceTable   string    `json:"source_table"`
	TargetTable   string    `json:"target_table"`
	TransformedAt time.Time `json:"transformed_at"`
	SourceID      any       `json:"source_id"`
}

// MetadataKey is the Row key under which RecordMapper stores ETLMetadata.
const MetadataKey = "_etl_metadata"

// UniqueFieldsKey is the Row key under which RecordMapper surfaces the
// table descriptor's expected-unique target columns to TargetWriter.
const UniqueFieldsKey = "_unique_fields"

// RejectedRow carries a source row that failed validation, together with
// the reasons it was rejected.
type RejectedRow struct {
	SourceRow  Row       `json:"sourceRow"`
	Errors     []string  `json:"errors"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// MapperStats summarizes one RecordMapper.MapBatch invocation.
type MapperStats struct {
	Processed       int     `json:"processed"`
	Transformed     int     `json:"transformed"`
	Rejected        int     `json:"rejected"`
	SuccessRatePct  float64 `json:"successRatePct"`
	TransformWarns  []string `json:"transformWarnings,omitempty"`
}

// ComputeSuccessRate returns 100.00 when input is 0, avoiding a divide by
// zero; otherwise it returns the percentage of input rows that were
// transformed successfully. See spec ambiguity #1.
func ComputeSuccessRate(transformed, input int) float64 {
	if input == 0 {
		return 100.00
	}
	return float64(transformed) / float64(input) * 100.0
}

// WriterStats summarizes one TargetWriter.LoadBatch invocation.
type WriterStats struct {
	Loaded   int      `json:"loaded"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
