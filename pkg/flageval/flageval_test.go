package flageval

import (
	"encoding/json"
	"math"
	"testing"
)

func TestEvaluate_EmptyConditions(t *testing.T) {
	if !Evaluate(nil, Context{"a": "b"}) {
		t.Error("nil condition list must evaluate to true")
	}
	if !Evaluate([]Condition{}, nil) {
		t.Error("empty condition list must evaluate to true")
	}
}

func TestEvaluate_Operators(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		ctx  Context
		want bool
	}{
		{
			name: "equals match",
			cond: Condition{Field: "country", Operator: OpEquals, Value: "uy"},
			ctx:  Context{"country": "uy"},
			want: true,
		},
		{
			name: "equals mismatch",
			cond: Condition{Field: "country", Operator: OpEquals, Value: "uy"},
			ctx:  Context{"country": "ar"},
			want: false,
		},
		{
			name: "equals is strict, number vs numeric string",
			cond: Condition{Field: "a", Operator: OpEquals, Value: "1"},
			ctx:  Context{"a": float64(1)},
			want: false,
		},
		{
			name: "equals missing field",
			cond: Condition{Field: "a", Operator: OpEquals, Value: "x"},
			ctx:  Context{},
			want: false,
		},
		{
			name: "equals null against null",
			cond: Condition{Field: "a", Operator: OpEquals, Value: nil},
			ctx:  Context{"a": nil},
			want: true,
		},
		{
			name: "equals missing field against null",
			cond: Condition{Field: "a", Operator: OpEquals, Value: nil},
			ctx:  Context{},
			want: false,
		},
		{
			name: "different mismatch",
			cond: Condition{Field: "plan", Operator: OpDifferent, Value: "free"},
			ctx:  Context{"plan": "pro"},
			want: true,
		},
		{
			name: "different match",
			cond: Condition{Field: "plan", Operator: OpDifferent, Value: "free"},
			ctx:  Context{"plan": "free"},
			want: false,
		},
		{
			name: "different missing field",
			cond: Condition{Field: "plan", Operator: OpDifferent, Value: "free"},
			ctx:  Context{},
			want: true,
		},
		{
			name: "greater with numeric strings",
			cond: Condition{Field: "age", Operator: OpGreater, Value: "18"},
			ctx:  Context{"age": "22"},
			want: true,
		},
		{
			name: "greater with numbers",
			cond: Condition{Field: "age", Operator: OpGreater, Value: float64(18)},
			ctx:  Context{"age": float64(17)},
			want: false,
		},
		{
			name: "greater with non-numeric context value",
			cond: Condition{Field: "a", Operator: OpGreater, Value: "5"},
			ctx:  Context{"a": "x"},
			want: false,
		},
		{
			name: "greater with missing field",
			cond: Condition{Field: "a", Operator: OpGreater, Value: "5"},
			ctx:  Context{},
			want: false,
		},
		{
			name: "lower with numeric strings",
			cond: Condition{Field: "age", Operator: OpLower, Value: "18"},
			ctx:  Context{"age": "12"},
			want: true,
		},
		{
			name: "lower with non-numeric stored value",
			cond: Condition{Field: "age", Operator: OpLower, Value: "abc"},
			ctx:  Context{"age": "12"},
			want: false,
		},
		{
			name: "in match",
			cond: Condition{Field: "country", Operator: OpIn, Value: []any{"uy", "ar"}},
			ctx:  Context{"country": "ar"},
			want: true,
		},
		{
			name: "in mismatch",
			cond: Condition{Field: "country", Operator: OpIn, Value: []any{"uy", "ar"}},
			ctx:  Context{"country": "br"},
			want: false,
		},
		{
			name: "in is strict",
			cond: Condition{Field: "n", Operator: OpIn, Value: []any{"1", "2"}},
			ctx:  Context{"n": float64(1)},
			want: false,
		},
		{
			name: "in with non-sequence value fails closed",
			cond: Condition{Field: "a", Operator: OpIn, Value: "x"},
			ctx:  Context{"a": "x"},
			want: false,
		},
		{
			name: "in with missing field",
			cond: Condition{Field: "a", Operator: OpIn, Value: []any{"x"}},
			ctx:  Context{},
			want: false,
		},
		{
			name: "unknown operator fails closed",
			cond: Condition{Field: "a", Operator: "matches", Value: "x"},
			ctx:  Context{"a": "x"},
			want: false,
		},
		{
			name: "empty operator fails closed",
			cond: Condition{Field: "a", Operator: "", Value: "x"},
			ctx:  Context{"a": "x"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate([]Condition{tt.cond}, tt.ctx)
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_ConjunctionAndShortCircuit(t *testing.T) {
	conds := []Condition{
		{Field: "country", Operator: OpEquals, Value: "uy"},
		{Field: "age", Operator: OpGreater, Value: "18"},
	}

	if !Evaluate(conds, Context{"country": "uy", "age": "22"}) {
		t.Error("all conditions satisfied, expected true")
	}
	if Evaluate(conds, Context{"country": "ar", "age": "22"}) {
		t.Error("first condition failed, expected false")
	}
	if Evaluate(conds, Context{"country": "uy", "age": "15"}) {
		t.Error("second condition failed, expected false")
	}

	// A malformed condition after a failing one must not matter: the
	// accumulator is already false and evaluation stops.
	conds = []Condition{
		{Field: "country", Operator: OpEquals, Value: "uy"},
		{Field: "a", Operator: OpIn, Value: 42},
	}
	if Evaluate(conds, Context{"country": "ar"}) {
		t.Error("expected false regardless of trailing malformed condition")
	}
}

func TestEvaluate_NeverPanics(t *testing.T) {
	hostile := []Condition{
		{Field: "", Operator: "", Value: nil},
		{Field: "a", Operator: OpIn, Value: map[string]any{"not": "a list"}},
		{Field: "b", Operator: OpGreater, Value: []any{1, 2}},
		{Field: "c", Operator: OpEquals, Value: []any{"x"}},
		{Field: "d", Operator: "!!", Value: struct{}{}},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Evaluate panicked: %v", r)
		}
	}()

	for _, ctx := range []Context{nil, {}, {"a": nil, "b": []any{}, "c": map[string]any{}}} {
		if Evaluate(hostile, ctx) {
			t.Error("hostile conditions must all fail closed")
		}
	}
}

func TestEvaluate_DecodedJSONShapes(t *testing.T) {
	// Conditions arrive from storage as decoded JSON; make sure the evaluator
	// sees the same types the persistence layer produces.
	raw := `[{"field":"country","operator":"in","value":["uy","ar"]},{"field":"age","operator":"greater","value":18}]`
	var conds []Condition
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		t.Fatalf("unmarshal conditions: %v", err)
	}

	var evalCtx Context
	if err := json.Unmarshal([]byte(`{"country":"uy","age":"22"}`), &evalCtx); err != nil {
		t.Fatalf("unmarshal context: %v", err)
	}

	if !Evaluate(conds, evalCtx) {
		t.Error("expected decoded JSON round-trip to evaluate true")
	}
}

func TestParseFloatPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"22", 22},
		{"  -3.5 ", -3.5},
		{"22px", 22},
		{"1e3", 1000},
		{"1e", 1},
		{".5", 0.5},
		{"+7", 7},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		if got := parseFloatPrefix(tt.in); got != tt.want {
			t.Errorf("parseFloatPrefix(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "x", "px22", "--1", "e5", "."} {
		if got := parseFloatPrefix(in); !math.IsNaN(got) {
			t.Errorf("parseFloatPrefix(%q) = %v, want NaN", in, got)
		}
	}
}
