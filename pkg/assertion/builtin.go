package assertion

// evaluateAlways fails as soon as a false observation exists. With
// must_hit it also needs at least one true observation.
func evaluateAlways(g *Group) Outcome {
	out := Outcome{
		Example: g.WitnessTrue,
		Counter: g.WitnessFalse,
	}

	switch {
	case g.WitnessFalse != nil:
		out.Reason = "condition was observed false"
	case g.Declaration.MustHit && g.WitnessTrue == nil:
		out.Reason = "never observed true"
	default:
		out.Passed = true
		out.Reason = "condition was never observed false"
	}
	return out
}

// evaluateSometimes passes once the condition was observed true. A
// false observation is reported but never flips the verdict.
func evaluateSometimes(g *Group) Outcome {
	out := Outcome{
		Passed:  g.WitnessTrue != nil,
		Example: g.WitnessTrue,
		Counter: g.WitnessFalse,
	}
	if out.Passed {
		out.Reason = "condition was observed true"
	} else {
		out.Reason = "condition was never observed true"
	}
	return out
}

// evaluateReachability ignores the condition. With must_hit the
// location has to be reached; without it, it must never be.
func evaluateReachability(g *Group) Outcome {
	reached := g.Reached()

	if g.Declaration.MustHit {
		out := Outcome{Passed: reached, Example: g.AnyWitness()}
		if reached {
			out.Reason = "location was reached"
		} else {
			out.Reason = "location was never reached"
		}
		return out
	}

	out := Outcome{Passed: !reached, Counter: g.AnyWitness()}
	if reached {
		out.Reason = "unreachable location was reached"
	} else {
		out.Reason = "unreachable location was never reached"
	}
	return out
}
