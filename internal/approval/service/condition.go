package service

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/erpcore/backend/internal/approval/model"
)

// ConditionOperators is the fixed allow-list of comparison operators accepted
// in flow skip conditions.
var ConditionOperators = map[string]bool{
	"lt": true, "lte": true, "gt": true, "gte": true, "eq": true, "ne": true,
}

// ConditionEvaluator decides whether a step must be skipped for a given
// request, based on the flow's per-step skip rules.
//
// Three condition shapes are supported per field:
//   - an operator object {"operator": "lt", "value": 1000}
//   - a list, treated as a value-in-list membership test
//   - a string, compiled and evaluated as a boolean expression against the
//     request environment
//
// Fields combine with short-circuit OR semantics: the first matching
// condition skips the step.
type ConditionEvaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewConditionEvaluator creates a ConditionEvaluator with an empty
// expression-program cache.
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{cache: make(map[string]*vm.Program)}
}

// ShouldSkip reports whether the step must be bypassed for the request.
// Missing or malformed conditions never skip a step.
func (e *ConditionEvaluator) ShouldSkip(step *model.ApprovalStep, request *model.ApprovalRequest, flow *model.ApprovalFlow) bool {
	if step == nil || request == nil || flow == nil {
		return false
	}

	conditions := flow.StepConditions(step.StepOrder)
	if conditions == nil {
		return false
	}

	for field, condition := range conditions {
		switch cond := condition.(type) {
		case map[string]any:
			if _, hasOp := cond["operator"]; !hasOp {
				continue
			}
			actual, found := resolveField(field, request)
			if !found {
				// Absent values never match; evaluate the remaining fields.
				continue
			}
			operator, _ := cond["operator"].(string)
			if matchOperator(operator, actual, cond["value"]) {
				return true
			}
		case []any:
			actual, found := resolveField(field, request)
			if !found {
				continue
			}
			for _, candidate := range cond {
				if valuesEqual(actual, candidate) {
					return true
				}
			}
		case string:
			if e.evalExpression(cond, request) {
				return true
			}
		}
	}

	return false
}

// evalExpression compiles and runs a boolean expression against the request
// environment. Broken expressions are logged and treated as "no match" so a
// bad rule can never skip a gate.
func (e *ConditionEvaluator) evalExpression(expression string, request *model.ApprovalRequest) bool {
	env := requestEnv(request)

	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()

	if !ok {
		e.mu.Lock()
		if program, ok = e.cache[expression]; !ok {
			var err error
			program, err = expr.Compile(expression, expr.Env(env), expr.AsBool())
			if err != nil {
				e.mu.Unlock()
				slog.Error("failed to compile skip condition expression",
					"expression", expression,
					"error", err)
				return false
			}
			e.cache[expression] = program
		}
		e.mu.Unlock()
	}

	result, err := expr.Run(program, env)
	if err != nil {
		slog.Error("failed to evaluate skip condition expression",
			"expression", expression,
			"request_id", request.ID,
			"error", err)
		return false
	}

	matched, ok := result.(bool)
	return ok && matched
}

// requestEnv builds the evaluation environment for expression conditions.
func requestEnv(request *model.ApprovalRequest) map[string]any {
	env := make(map[string]any, len(request.RequestMetadata)+3)
	for k, v := range request.RequestMetadata {
		env[k] = v
	}
	env["entity_type"] = request.EntityType
	env["entity_id"] = request.EntityID
	env["requested_by"] = request.RequestedBy
	return env
}

// resolveField resolves a condition field against the request. Known
// attributes take precedence over metadata keys.
func resolveField(field string, request *model.ApprovalRequest) (any, bool) {
	switch field {
	case "entity_type":
		return request.EntityType, true
	case "entity_id":
		return request.EntityID, true
	case "requested_by":
		return request.RequestedBy, true
	}
	if request.RequestMetadata == nil {
		return nil, false
	}
	value, ok := request.RequestMetadata[field]
	return value, ok
}

// matchOperator applies one comparison operator. Unknown operators never
// match.
func matchOperator(operator string, actual, expected any) bool {
	switch operator {
	case "eq":
		return valuesEqual(actual, expected)
	case "ne":
		return !valuesEqual(actual, expected)
	case "lt", "lte", "gt", "gte":
		a, aok := toFloat(actual)
		b, bok := toFloat(expected)
		if !aok || !bok {
			return false
		}
		switch operator {
		case "lt":
			return a < b
		case "lte":
			return a <= b
		case "gt":
			return a > b
		default:
			return a >= b
		}
	}
	return false
}

// valuesEqual compares two values, coercing numerics so that 500 and 500.0
// compare equal regardless of JSON decoding.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// toFloat normalizes the numeric types JSON decoding and Go callers produce.
func toFloat(v any) (float64, bool) {
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
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
