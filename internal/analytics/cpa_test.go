/*
Copyright 2026.
*/

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifies_DefaultRuleSetAllMet(t *testing.T) {
	assert.True(t, Qualifies(DefaultRuleSet(), Metrics{
		TotalDeposits: 30, BetCount: 10, TotalBets: 100, DaysActive: 3,
	}))
}

func TestQualifies_DefaultRuleSetOneMissing(t *testing.T) {
	assert.False(t, Qualifies(DefaultRuleSet(), Metrics{
		TotalDeposits: 29, BetCount: 10, TotalBets: 100, DaysActive: 3,
	}))
}

func TestQualifies_DisabledCriterionIgnored(t *testing.T) {
	rules := RuleSet{
		GroupOperator: OperatorAND,
		Groups: []CriteriaGroup{{
			Operator: OperatorAND,
			Criteria: []Criterion{
				{Type: CriterionTotalDeposits, Value: 1000, Enabled: false},
				{Type: CriterionBetCount, Value: 1, Enabled: true},
			},
		}},
	}
	assert.True(t, Qualifies(rules, Metrics{BetCount: 5}))
}

func TestQualifies_OROperatorAcrossGroups(t *testing.T) {
	rules := RuleSet{
		GroupOperator: OperatorOR,
		Groups: []CriteriaGroup{
			{Operator: OperatorAND, Criteria: []Criterion{{Type: CriterionTotalDeposits, Value: 1000, Enabled: true}}},
			{Operator: OperatorAND, Criteria: []Criterion{{Type: CriterionDaysActive, Value: 1, Enabled: true}}},
		},
	}
	assert.True(t, Qualifies(rules, Metrics{DaysActive: 5}))
}

func TestQualifies_EmptyRuleSetNeverQualifies(t *testing.T) {
	assert.False(t, Qualifies(RuleSet{}, Metrics{TotalDeposits: 1_000_000}))
}

func TestQualifies_OROperatorWithinGroup(t *testing.T) {
	rules := RuleSet{
		GroupOperator: OperatorAND,
		Groups: []CriteriaGroup{{
			Operator: OperatorOR,
			Criteria: []Criterion{
				{Type: CriterionTotalDeposits, Value: 1000, Enabled: true},
				{Type: CriterionDaysActive, Value: 1, Enabled: true},
			},
		}},
	}
	assert.True(t, Qualifies(rules, Metrics{DaysActive: 2}))
}
