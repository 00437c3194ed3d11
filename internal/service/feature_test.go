package service

import (
	"errors"
	"testing"

	"togglehub/internal/model"
	"togglehub/pkg/flageval"
)

func TestCheckProjectAccess(t *testing.T) {
	project := &model.Project{ID: 1, CompanyID: 5}

	tests := []struct {
		name     string
		operator *OperatorInfo
		wantErr  error
	}{
		{"nil operator rejected", nil, ErrForbiddenProject},
		{"same company allowed", &OperatorInfo{CompanyID: 5}, nil},
		{"other company rejected", &OperatorInfo{CompanyID: 6}, ErrForbiddenProject},
		{"unassigned operator allowed", &OperatorInfo{CompanyID: 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkProjectAccess(project, tt.operator)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("checkProjectAccess() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeConditions(t *testing.T) {
	raw, err := encodeConditions(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "[]" {
		t.Errorf("nil conditions must encode as empty array, got %q", raw)
	}

	raw, err = encodeConditions([]flageval.Condition{
		{Field: "country", Operator: "equals", Value: "uy"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"field":"country","operator":"equals","value":"uy"}]`
	if raw != want {
		t.Errorf("encodeConditions = %q, want %q", raw, want)
	}
}
