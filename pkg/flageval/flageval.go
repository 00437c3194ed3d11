// Package flageval decides whether a feature flag is enabled for a given
// request context. It is the single evaluator shared by every caller; the
// rules engine is deliberately tolerant: malformed conditions disable the
// flag, they never abort the evaluation.
package flageval

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Supported condition operators.
const (
	OpEquals    = "equals"
	OpDifferent = "different"
	OpGreater   = "greater"
	OpLower     = "lower"
	OpIn        = "in"
)

// Condition is one clause of a flag's enablement rule. Value carries the
// decoded JSON literal: string, number, bool, null, or a sequence for OpIn.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Context is the caller-supplied evaluation context. Untyped by contract:
// whatever the client sent in the request body.
type Context map[string]any

// Evaluate applies conditions in order, ANDing the per-condition results.
// An empty condition list means the flag is fully enabled. Processing stops
// at the first false condition; since AND is commutative this is purely an
// optimization and cannot change the outcome. Evaluate never panics and
// never returns an error: any malformed condition counts as false.
func Evaluate(conditions []Condition, evalCtx Context) bool {
	enabled := true

	for _, cond := range conditions {
		enabled = enabled && match(cond, evalCtx)
		if !enabled {
			break
		}
	}

	return enabled
}

func match(cond Condition, evalCtx Context) bool {
	got, present := evalCtx[cond.Field]

	switch cond.Operator {
	case OpEquals:
		return present && strictEqual(got, cond.Value)
	case OpDifferent:
		// A missing field is never strictly equal to a stored literal.
		return !present || !strictEqual(got, cond.Value)
	case OpGreater:
		return parseFloat(got, present) > parseFloat(cond.Value, true)
	case OpLower:
		return parseFloat(got, present) < parseFloat(cond.Value, true)
	case OpIn:
		seq, ok := cond.Value.([]any)
		if !ok {
			zap.L().Error("condition value for 'in' must be a sequence",
				zap.String("field", cond.Field),
				zap.Any("value", cond.Value))
			return false
		}
		if !present {
			return false
		}
		for _, candidate := range seq {
			if strictEqual(got, candidate) {
				return true
			}
		}
		return false
	default:
		zap.L().Error("unrecognized condition operator",
			zap.String("operator", cond.Operator),
			zap.String("field", cond.Field))
		return false
	}
}

// strictEqual compares two decoded JSON values without coercion: the number 1
// and the string "1" are not equal. Sequences and objects compare by identity
// in the evaluation contract, so two decoded copies are never equal.
func strictEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		af, aok := asNumber(a)
		bf, bok := asNumber(b)
		return aok && bok && af == bf
	}
}

func asNumber(v any) (float64, bool) {
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
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
