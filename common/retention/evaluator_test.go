package retention

import (
	"testing"
	"time"

	"github.com/inkwell/studio/common/models"
)

const defaultPolicy = `age_days > 90 && !starred && status != "confirmed"`

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	return e
}

func design(ageDays int, starred bool, status models.DesignStatus) *models.Design {
	return &models.Design{
		CreatedAt: time.Now().UTC().Add(-time.Duration(ageDays) * 24 * time.Hour),
		IsStarred: starred,
		Status:    status,
	}
}

func TestShouldDelete_DefaultPolicy(t *testing.T) {
	e := newEvaluator(t)
	now := time.Now().UTC()

	cases := []struct {
		name   string
		design *models.Design
		want   bool
	}{
		{"old unstarred draft goes", design(120, false, models.StatusDraft), true},
		{"young draft stays", design(10, false, models.StatusDraft), false},
		{"starred design stays regardless of age", design(400, true, models.StatusDraft), false},
		{"confirmed design stays regardless of age", design(400, false, models.StatusConfirmed), false},
		{"boundary: exactly 90 days stays", design(90, false, models.StatusDraft), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.ShouldDelete(defaultPolicy, tc.design, now)
			if err != nil {
				t.Fatalf("ShouldDelete failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestShouldDelete_SharedVariable(t *testing.T) {
	e := newEvaluator(t)

	d := design(10, false, models.StatusDraft)
	d.Shared = true

	got, err := e.ShouldDelete(`shared`, d, time.Now().UTC())
	if err != nil {
		t.Fatalf("ShouldDelete failed: %v", err)
	}
	if !got {
		t.Errorf("expected shared design to match policy 'shared'")
	}
}

func TestValidate_RejectsBadExpressions(t *testing.T) {
	e := newEvaluator(t)

	if err := e.Validate(`age_days >`); err == nil {
		t.Errorf("expected syntax error")
	}
	if err := e.Validate(`age_days + 1`); err == nil {
		t.Errorf("expected non-boolean policy to be rejected")
	}
	if err := e.Validate(`has_children`); err == nil {
		t.Errorf("expected unknown variable to be rejected")
	}
	if err := e.Validate(defaultPolicy); err != nil {
		t.Errorf("default policy must validate: %v", err)
	}
}

func TestCompile_CachesPrograms(t *testing.T) {
	e := newEvaluator(t)

	if _, err := e.compile(defaultPolicy); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(e.cache) != 1 {
		t.Errorf("expected 1 cached program, got %d", len(e.cache))
	}

	// Second compile of the same expression reuses the program
	if _, err := e.compile(defaultPolicy); err != nil {
		t.Fatalf("recompile failed: %v", err)
	}
	if len(e.cache) != 1 {
		t.Errorf("expected cache to stay at 1, got %d", len(e.cache))
	}
}
