package assertion

import (
	"errors"
	"fmt"
	"sync"

	"digital.vasic.oracle/pkg/record"
)

// Engine defines the interface for verdict engines.
type Engine interface {
	// Reduce computes the verdict of a single group.
	Reduce(g *Group) (Result, error)

	// Evaluate groups the instances by id and reduces every
	// group exactly once.
	Evaluate(
		instances []record.AssertionInstance,
	) (*Evaluation, error)

	// Register adds an evaluator for an assert type. Returns an
	// error if the type is already registered.
	Register(kind record.AssertType, evaluator Evaluator) error
}

// DefaultEngine is the standard Engine implementation. Its
// evaluator registry is safe for concurrent use; a single
// Evaluate call is synchronous.
type DefaultEngine struct {
	mu              sync.RWMutex
	evaluators      map[record.AssertType]Evaluator
	tolerateMissing bool
}

// Option configures a DefaultEngine.
type Option func(*DefaultEngine)

// WithTolerateMissingDeclarations makes Evaluate report undeclared
// ids in Evaluation.Missing instead of failing the batch.
func WithTolerateMissingDeclarations(tolerate bool) Option {
	return func(e *DefaultEngine) {
		e.tolerateMissing = tolerate
	}
}

// NewEngine creates a DefaultEngine with the always, sometimes and
// reachability evaluators registered.
func NewEngine(opts ...Option) *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[record.AssertType]Evaluator),
	}
	e.registerDefaults()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *DefaultEngine) registerDefaults() {
	e.evaluators[record.AssertAlways] = evaluateAlways
	e.evaluators[record.AssertSometimes] = evaluateSometimes
	e.evaluators[record.AssertReachability] = evaluateReachability
}

// Register adds a custom evaluator for the given assert type.
func (e *DefaultEngine) Register(
	kind record.AssertType,
	evaluator Evaluator,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[kind]; exists {
		return fmt.Errorf(
			"assert type already registered: %s", kind,
		)
	}

	e.evaluators[kind] = evaluator
	return nil
}

// HasEvaluator returns true if the assert type has a registered
// evaluator.
func (e *DefaultEngine) HasEvaluator(kind record.AssertType) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[kind]
	return exists
}

// Reduce computes the verdict of g from its declaration and
// witnesses. It returns *MissingDeclarationError when g has no
// declaration.
func (e *DefaultEngine) Reduce(g *Group) (Result, error) {
	decl := g.Declaration
	if decl == nil {
		return Result{}, &MissingDeclarationError{ID: g.ID}
	}

	e.mu.RLock()
	evaluator, exists := e.evaluators[decl.AssertType]
	e.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf(
			"%w: %q for assertion %q",
			ErrUnknownAssertType, decl.AssertType, g.ID,
		)
	}

	out := evaluator(g)

	return Result{
		DisplayType:    decl.DisplayType,
		ID:             decl.ID,
		Message:        decl.Message,
		Location:       decl.Location,
		ExampleDetails: detailsOf(out.Example),
		CounterDetails: detailsOf(out.Counter),
		Passed:         out.Passed,
		AssertType:     decl.AssertType,
		MustHit:        decl.MustHit,
		Reason:         out.Reason,
	}, nil
}

// Evaluate groups instances in input order and reduces each group.
// Undeclared ids fail the whole batch unless the engine tolerates
// them, in which case they are listed in Evaluation.Missing and
// every other id is still evaluated.
func (e *DefaultEngine) Evaluate(
	instances []record.AssertionInstance,
) (*Evaluation, error) {
	return e.EvaluateGrouping(GroupInstances(instances))
}

// EvaluateGrouping reduces an already built grouping.
func (e *DefaultEngine) EvaluateGrouping(
	grouping *Grouping,
) (*Evaluation, error) {
	eval := &Evaluation{
		Results: make([]Result, 0, grouping.Len()),
	}
	var missing []error

	for _, g := range grouping.Groups() {
		result, err := e.Reduce(g)
		if err != nil {
			var mde *MissingDeclarationError
			if !errors.As(err, &mde) {
				return nil, err
			}
			missing = append(missing, err)
			eval.Missing = append(eval.Missing, mde.ID)
			continue
		}
		eval.Results = append(eval.Results, result)
	}

	if len(missing) > 0 && !e.tolerateMissing {
		return nil, errors.Join(missing...)
	}
	return eval, nil
}

func detailsOf(inst *record.AssertionInstance) []byte {
	if inst == nil {
		return nil
	}
	return inst.Details
}
