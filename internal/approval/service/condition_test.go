package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erpcore/backend/internal/approval/model"
)

func skipTestFixture(conditions model.ConditionMap, metadata map[string]any) (*model.ApprovalStep, *model.ApprovalRequest, *model.ApprovalFlow) {
	step := &model.ApprovalStep{StepOrder: 2, Name: "manager"}
	request := &model.ApprovalRequest{
		EntityType:      "order",
		EntityID:        "order-42",
		RequestedBy:     "alice",
		RequestMetadata: metadata,
	}
	flow := &model.ApprovalFlow{Conditions: conditions}
	return step, request, flow
}

func TestShouldSkipOperators(t *testing.T) {
	tests := []struct {
		name       string
		conditions model.ConditionMap
		metadata   map[string]any
		want       bool
	}{
		{
			name: "lt matches",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"amount": map[string]any{"operator": "lt", "value": 1000},
				},
			},
			metadata: map[string]any{"amount": 500.0},
			want:     true,
		},
		{
			name: "lt does not match",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"amount": map[string]any{"operator": "lt", "value": 1000},
				},
			},
			metadata: map[string]any{"amount": 1500.0},
			want:     false,
		},
		{
			name: "gte matches at boundary",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"amount": map[string]any{"operator": "gte", "value": 1000},
				},
			},
			metadata: map[string]any{"amount": 1000.0},
			want:     true,
		},
		{
			name: "eq on built-in field",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"entity_type": map[string]any{"operator": "eq", "value": "order"},
				},
			},
			want: true,
		},
		{
			name: "ne matches",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"requested_by": map[string]any{"operator": "ne", "value": "bob"},
				},
			},
			want: true,
		},
		{
			name: "numeric eq across int and float",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"amount": map[string]any{"operator": "eq", "value": 500},
				},
			},
			metadata: map[string]any{"amount": 500.0},
			want:     true,
		},
		{
			name: "absent field never matches",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"missing": map[string]any{"operator": "eq", "value": "x"},
				},
			},
			want: false,
		},
		{
			name: "unknown operator never matches",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"amount": map[string]any{"operator": "contains", "value": 1},
				},
			},
			metadata: map[string]any{"amount": 1.0},
			want:     false,
		},
		{
			name: "first matching field wins across several",
			conditions: model.ConditionMap{
				"step_2": map[string]any{
					"missing": map[string]any{"operator": "eq", "value": "x"},
					"amount":  map[string]any{"operator": "lt", "value": 1000},
				},
			},
			metadata: map[string]any{"amount": 10.0},
			want:     true,
		},
	}

	evaluator := NewConditionEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, request, flow := skipTestFixture(tt.conditions, tt.metadata)
			assert.Equal(t, tt.want, evaluator.ShouldSkip(step, request, flow))
		})
	}
}

func TestShouldSkipListMembership(t *testing.T) {
	evaluator := NewConditionEvaluator()

	conditions := model.ConditionMap{
		"step_2": map[string]any{
			"entity_type": []any{"order", "invoice"},
		},
	}
	step, request, flow := skipTestFixture(conditions, nil)
	assert.True(t, evaluator.ShouldSkip(step, request, flow))

	conditions["step_2"] = map[string]any{
		"entity_type": []any{"expense"},
	}
	assert.False(t, evaluator.ShouldSkip(step, request, flow))
}

func TestShouldSkipNoConditions(t *testing.T) {
	evaluator := NewConditionEvaluator()

	// No conditions at all
	step, request, flow := skipTestFixture(nil, nil)
	assert.False(t, evaluator.ShouldSkip(step, request, flow))

	// Conditions for a different step
	step, request, flow = skipTestFixture(model.ConditionMap{
		"step_3": map[string]any{
			"entity_type": map[string]any{"operator": "eq", "value": "order"},
		},
	}, nil)
	assert.False(t, evaluator.ShouldSkip(step, request, flow))

	// Step entry with the wrong shape
	step, request, flow = skipTestFixture(model.ConditionMap{
		"step_2": "not a mapping",
	}, nil)
	assert.False(t, evaluator.ShouldSkip(step, request, flow))
}

func TestShouldSkipExpression(t *testing.T) {
	evaluator := NewConditionEvaluator()

	conditions := model.ConditionMap{
		"step_2": map[string]any{
			"auto_skip": `amount < 1000 && entity_type == "order"`,
		},
	}
	step, request, flow := skipTestFixture(conditions, map[string]any{"amount": 500.0})
	assert.True(t, evaluator.ShouldSkip(step, request, flow))

	step, request, flow = skipTestFixture(conditions, map[string]any{"amount": 2000.0})
	assert.False(t, evaluator.ShouldSkip(step, request, flow))

	// A broken expression can never skip a gate.
	broken := model.ConditionMap{
		"step_2": map[string]any{
			"auto_skip": "amount <",
		},
	}
	step, request, flow = skipTestFixture(broken, map[string]any{"amount": 500.0})
	assert.False(t, evaluator.ShouldSkip(step, request, flow))
}
