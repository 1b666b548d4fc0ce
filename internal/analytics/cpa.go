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

package analytics

// CriterionType names one of the metrics a CPA validation criterion can
// compare against.
type CriterionType string

// Supported criterion types, matching the default rule set in spec.md §4.6.
const (
	CriterionTotalDeposits CriterionType = "total_deposits"
	CriterionBetCount      CriterionType = "bet_count"
	CriterionTotalBets     CriterionType = "total_bets"
	CriterionDaysActive    CriterionType = "days_active"
)

// GroupOperator combines criteria within a group, or groups within a rule
// set, with boolean AND/OR.
type GroupOperator string

// Supported group operators.
const (
	OperatorAND GroupOperator = "AND"
	OperatorOR  GroupOperator = "OR"
)

// Criterion is one CPA qualification test: metrics[Type] compared against
// Value. Disabled criteria are skipped (never evaluated, never block a
// group from qualifying via the rest of its members).
type Criterion struct {
	Type    CriterionType
	Value   float64
	Enabled bool
}

// CriteriaGroup is a set of criteria combined with Operator.
type CriteriaGroup struct {
	Operator GroupOperator
	Criteria []Criterion
}

// RuleSet is cpa_validation_rules: one or more CriteriaGroups combined with
// GroupOperator across groups.
type RuleSet struct {
	Groups        []CriteriaGroup
	GroupOperator GroupOperator
}

// DefaultRuleSet matches spec.md §4.6's default rule set: total_deposits >=
// 30, bet_count >= 10, total_bets >= 100, days_active >= 3, all required
// (AND) within a single group.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		GroupOperator: OperatorAND,
		Groups: []CriteriaGroup{{
			Operator: OperatorAND,
			Criteria: []Criterion{
				{Type: CriterionTotalDeposits, Value: 30, Enabled: true},
				{Type: CriterionBetCount, Value: 10, Enabled: true},
				{Type: CriterionTotalBets, Value: 100, Enabled: true},
				{Type: CriterionDaysActive, Value: 3, Enabled: true},
			},
		}},
	}
}

// Metrics supplies the observed values a RuleSet is evaluated against.
type Metrics struct {
	TotalDeposits float64
	BetCount      int
	TotalBets     float64
	DaysActive    int
}

func (m Metrics) value(t CriterionType) float64 {
	switch t {
	case CriterionTotalDeposits:
		return m.TotalDeposits
	case CriterionBetCount:
		return float64(m.BetCount)
	case CriterionTotalBets:
		return m.TotalBets
	case CriterionDaysActive:
		return float64(m.DaysActive)
	default:
		return 0
	}
}

// Qualifies evaluates rules against metrics: a criterion passes when
// metrics[criterion.Type] >= criterion.Value; groups combine their
// criteria with Operator, and the rule set combines its groups with
// GroupOperator. An empty rule set never qualifies.
func Qualifies(rules RuleSet, metrics Metrics) bool {
	if len(rules.Groups) == 0 {
		return false
	}

	results := make([]bool, len(rules.Groups))
	for i, group := range rules.Groups {
		results[i] = evaluateGroup(group, metrics)
	}
	return combine(results, rules.GroupOperator)
}

func evaluateGroup(group CriteriaGroup, metrics Metrics) bool {
	var enabled []bool
	for _, c := range group.Criteria {
		if !c.Enabled {
			continue
		}
		enabled = append(enabled, metrics.value(c.Type) >= c.Value)
	}
	if len(enabled) == 0 {
		return true
	}
	return combine(enabled, group.Operator)
}

func combine(results []bool, op GroupOperator) bool {
	if op == OperatorOR {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}
