package assertion

import "digital.vasic.oracle/pkg/record"

// Outcome is what an Evaluator decides for one group.
type Outcome struct {
	Passed bool

	// Example supports the verdict; Counter contradicts it. Either
	// may be nil.
	Example *record.AssertionInstance
	Counter *record.AssertionInstance

	// Reason is a human-readable explanation.
	Reason string
}

// Evaluator decides the verdict of a group whose declaration is
// known to be present. The must-hit flag is read from
// g.Declaration.
type Evaluator func(g *Group) Outcome
