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

// Package etlmodel defines the configuration and row shapes shared by the
// extract/transform/load pipeline and the analytics aggregation engine.
package etlmodel

// TableDescriptor configures a single syncable source-to-target table pair.
type TableDescriptor struct {
	// SourceTable is the table name in the source database.
	SourceTable string `yaml:"sourceTable" json:"sourceTable"`
	// TargetTable is the table name in the target database.
	TargetTable string `yaml:"targetTable" json:"targetTable"`
	// PrimaryKey is the source column used for full-sync pagination ordering
	// and as the "_etl_metadata.source_id" value.
	PrimaryKey string `yaml:"primaryKey" json:"primaryKey"`
	// IncrementalField is the source column used for watermark-based
	// incremental reads. Empty means the table supports full sync only.
	IncrementalField string `yaml:"incrementalField,omitempty" json:"incrementalField,omitempty"`
	// ExternalKeyColumn is the target-table column TargetWriter uses to
	// look up an existing row (e.g. "external_user_id").
	ExternalKeyColumn string `yaml:"externalKeyColumn" json:"externalKeyColumn"`
	// Enabled gates whether the scheduler and manual sync paths will run
	// this table at all.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// FieldMapping maps source column name to target column name. Source
	// columns absent from this map are dropped by RecordMapper.
	FieldMapping map[string]string `yaml:"fieldMapping" json:"fieldMapping"`
	// Transformations maps a target column name to the name of a
	// registered pure transform function (see internal/transforms).
	Transformations map[string]string `yaml:"transformations,omitempty" json:"transformations,omitempty"`
	// Filters constrains which source rows are read. Each value is either
	// a scalar, a list (IN clause), or an Operator map ({op: value}).
	Filters map[string]any `yaml:"filters,omitempty" json:"filters,omitempty"`
	// Validations lists field-level acceptance rules applied by RecordMapper.
	Validations ValidationRules `yaml:"validations,omitempty" json:"validations,omitempty"`
}

// ValidationRules groups the per-field validation checks RecordMapper runs
// against a mapped row before it is accepted.
type ValidationRules struct {
	// Required lists target fields that must be present and non-empty.
	Required []string `yaml:"required,omitempty" json:"required,omitempty"`
	// Email names a target field that must match a basic email pattern.
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
	// Numeric lists target fields that must be numeric.
	Numeric []string `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	// Positive lists target fields that must be > 0.
	Positive []string `yaml:"positive,omitempty" json:"positive,omitempty"`
	// Unique lists target fields TargetWriter should treat as carrying a
	// unique-constraint expectation; RecordMapper does not check these.
	Unique []string `yaml:"unique,omitempty" json:"unique,omitempty"`
}

// FilterOperator is a comparison operator usable in a TableDescriptor filter
// entry shaped as {operator: value}.
type FilterOperator string

// Supported filter operators, parameterized directly into the WHERE clause
// built by internal/sourcedb.
const (
	OpEquals      FilterOperator = "eq"
	OpNotEquals   FilterOperator = "neq"
	OpGreaterThan FilterOperator = "gt"
	OpGreaterOrEq FilterOperator = "gte"
	OpLessThan    FilterOperator = "lt"
	OpLessOrEq    FilterOperator = "lte"
)

// sqlBySymbol maps a FilterOperator to its SQL infix operator.
var sqlBySymbol = map[FilterOperator]string{
	OpEquals:      "=",
	OpNotEquals:   "<>",
	OpGreaterThan: ">",
	OpGreaterOrEq: ">=",
	OpLessThan:    "<",
	OpLessOrEq:    "<=",
}

// SQL returns the SQL infix operator for op, or "" if op is unrecognized.
func (op FilterOperator) SQL() string {
	return sqlBySymbol[op]
}
