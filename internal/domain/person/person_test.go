package person

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}
	rec, err := New("Alice", "VP of Sales", "VP", vec, "text-embedding-ada-002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "" {
		t.Errorf("ID() = %q, want empty", rec.ID())
	}
	if rec.Name() != "Alice" || rec.Role() != "VP of Sales" || rec.NormalizedRole() != "VP" {
		t.Errorf("unexpected fields: %s", rec)
	}
	if rec.Model() != "text-embedding-ada-002" {
		t.Errorf("Model() = %q", rec.Model())
	}

	// vector is copied
	vec[0] = 9
	if rec.Vector()[0] != 0.1 {
		t.Errorf("Vector() aliased caller slice")
	}
}

func TestNew_Invalid(t *testing.T) {
	vec := []float32{1}
	tests := []struct {
		name    string
		pname   string
		role    string
		norm    string
		vector  []float32
		wantMsg string
	}{
		{"empty name", "", "VP of Sales", "VP", vec, "name is required"},
		{"blank role", "Alice", "  ", "VP", vec, "role is required"},
		{"empty normalized", "Alice", "VP of Sales", "", vec, "normalizedRole is required"},
		{"nil vector", "Alice", "VP of Sales", "VP", nil, "roleVector is required"},
		{"NaN", "Alice", "VP of Sales", "VP", []float32{float32(math.NaN())}, "not a finite number"},
		{"too long", strings.Repeat("a", MaxFieldLength+1), "VP", "VP", vec, "too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pname, tt.role, tt.norm, tt.vector, "m")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestWithID(t *testing.T) {
	rec, err := New("Alice", "VP of Sales", "VP", []float32{1}, "m")
	if err != nil {
		t.Fatal(err)
	}
	withID := rec.WithID("abc")
	if withID.ID() != "abc" {
		t.Errorf("ID() = %q", withID.ID())
	}
	if rec.ID() != "" {
		t.Errorf("original record mutated")
	}
}

func TestReconstruct(t *testing.T) {
	rec := Reconstruct("id-1", "Bob", "Director of Sales", "Director", nil, "")
	if rec.ID() != "id-1" || rec.NormalizedRole() != "Director" {
		t.Errorf("unexpected record: %s", rec)
	}
}
