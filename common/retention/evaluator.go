package retention

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/inkwell/studio/common/models"
)

// Evaluator decides whether a design is eligible for retention deletion
// using a CEL policy expression, e.g.:
//
//	age_days > 90 && !starred && status != "confirmed"
//
// Available variables: age_days (int), starred (bool), status (string),
// shared (bool), has_children is NOT exposed — lineage links survive as
// truncated history by design.
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a policy evaluator with program caching
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("age_days", cel.IntType),
		cel.Variable("starred", cel.BoolType),
		cel.Variable("status", cel.StringType),
		cel.Variable("shared", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Validate checks that a policy expression compiles and returns a boolean
func (e *Evaluator) Validate(expr string) error {
	_, err := e.compile(expr)
	return err
}

// ShouldDelete evaluates the policy against a design at the given time
func (e *Evaluator) ShouldDelete(expr string, design *models.Design, now time.Time) (bool, error) {
	prg, err := e.compile(expr)
	if err != nil {
		return false, err
	}

	ageDays := int64(now.Sub(design.CreatedAt).Hours() / 24)

	out, _, err := prg.Eval(map[string]interface{}{
		"age_days": ageDays,
		"starred":  design.IsStarred,
		"status":   string(design.Status),
		"shared":   design.Shared,
	})
	if err != nil {
		return false, fmt.Errorf("policy evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy did not return boolean, got %T", out.Value())
	}

	return result, nil
}

func (e *Evaluator) compile(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()

	if exists {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy compile error: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy must return a boolean, returns %s", ast.OutputType())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy program error: %w", err)
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()

	return prg, nil
}
