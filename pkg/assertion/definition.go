// Package assertion reduces the assertion instances of a run to one
// verdict per declared assertion. Instances are grouped by id into
// a declaration slot and two witness slots, then each group is
// handed to the evaluator registered for its assert type.
package assertion

import (
	"encoding/json"

	"digital.vasic.oracle/pkg/record"
)

// Group is the running summary of one assertion id. Each slot
// holds the last instance seen for it in input order.
type Group struct {
	// ID is the assertion identity shared by all instances.
	ID string

	// Declaration is the last instance with hit == false.
	Declaration *record.AssertionInstance

	// WitnessTrue is the last observation whose condition held.
	WitnessTrue *record.AssertionInstance

	// WitnessFalse is the last observation whose condition did
	// not hold.
	WitnessFalse *record.AssertionInstance
}

// Add places inst in its slot, replacing the previous occupant.
func (g *Group) Add(inst record.AssertionInstance) {
	switch {
	case !inst.Hit:
		g.Declaration = &inst
	case inst.Condition:
		g.WitnessTrue = &inst
	default:
		g.WitnessFalse = &inst
	}
}

// Reached reports whether any runtime observation was recorded.
func (g *Group) Reached() bool {
	return g.WitnessTrue != nil || g.WitnessFalse != nil
}

// AnyWitness returns the true witness if present, otherwise the
// false witness, otherwise nil.
func (g *Group) AnyWitness() *record.AssertionInstance {
	if g.WitnessTrue != nil {
		return g.WitnessTrue
	}
	return g.WitnessFalse
}

// Result is the verdict for one assertion id. Metadata is copied
// from the declaration instance. Absent detail payloads encode as
// JSON null.
type Result struct {
	DisplayType    string          `json:"display_type"`
	ID             string          `json:"id"`
	Message        string          `json:"message"`
	Location       record.Location `json:"location"`
	ExampleDetails json.RawMessage `json:"example_details"`
	CounterDetails json.RawMessage `json:"counter_details"`
	Passed         bool            `json:"passed"`

	// AssertType and MustHit are carried for reporting and are not
	// part of the verdict encoding.
	AssertType record.AssertType `json:"-"`
	MustHit    bool              `json:"-"`

	// Reason is the evaluator's explanation of the verdict.
	Reason string `json:"-"`
}

// Evaluation is the outcome of evaluating a whole batch.
type Evaluation struct {
	// Results holds one verdict per evaluated id, in the order the
	// ids were first seen.
	Results []Result

	// Missing lists ids that had observations but no declaration.
	// It is only populated when missing declarations are
	// tolerated; otherwise they fail the evaluation.
	Missing []string
}

// Passed counts the passing verdicts.
func (e *Evaluation) Passed() int {
	n := 0
	for _, r := range e.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed counts the failing verdicts.
func (e *Evaluation) Failed() int {
	return len(e.Results) - e.Passed()
}
