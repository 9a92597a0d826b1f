package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"digital.vasic.oracle/pkg/record"
)

func groupOf(
	decl record.AssertionInstance,
	obs ...record.AssertionInstance,
) *Group {
	g := &Group{ID: decl.ID}
	g.Add(decl)
	for _, o := range obs {
		g.Add(o)
	}
	return g
}

func TestEvaluateAlways(t *testing.T) {
	mustHit := declare("A", record.AssertAlways, true)
	optional := declare("A", record.AssertAlways, false)

	tests := []struct {
		name    string
		group   *Group
		passed  bool
		example bool
		counter bool
	}{
		{"must hit, true only", groupOf(mustHit, observe(mustHit, true, `1`)), true, true, false},
		{"must hit, false only", groupOf(mustHit, observe(mustHit, false, `2`)), false, false, true},
		{"must hit, both", groupOf(mustHit, observe(mustHit, true, `1`), observe(mustHit, false, `2`)), false, true, true},
		{"must hit, none", groupOf(mustHit), false, false, false},
		{"optional, true only", groupOf(optional, observe(optional, true, `1`)), true, true, false},
		{"optional, false only", groupOf(optional, observe(optional, false, `2`)), false, false, true},
		{"optional, none", groupOf(optional), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := evaluateAlways(tt.group)
			assert.Equal(t, tt.passed, out.Passed)
			assert.Equal(t, tt.example, out.Example != nil)
			assert.Equal(t, tt.counter, out.Counter != nil)
			assert.NotEmpty(t, out.Reason)
		})
	}
}

func TestEvaluateSometimes(t *testing.T) {
	decl := declare("S", record.AssertSometimes, true)

	tests := []struct {
		name   string
		group  *Group
		passed bool
	}{
		{"true observed", groupOf(decl, observe(decl, true, `1`)), true},
		{"false does not flip", groupOf(decl, observe(decl, true, `1`), observe(decl, false, `2`)), true},
		{"false only", groupOf(decl, observe(decl, false, `2`)), false},
		{"none", groupOf(decl), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := evaluateSometimes(tt.group)
			assert.Equal(t, tt.passed, out.Passed)
			assert.Equal(t, tt.group.WitnessTrue, out.Example)
			assert.Equal(t, tt.group.WitnessFalse, out.Counter)
		})
	}
}

func TestEvaluateReachability_MustHit(t *testing.T) {
	decl := declare("R", record.AssertReachability, true)

	out := evaluateReachability(groupOf(decl))
	assert.False(t, out.Passed)
	assert.Nil(t, out.Example)
	assert.Nil(t, out.Counter)

	falseObs := observe(decl, false, `{"f":1}`)
	out = evaluateReachability(groupOf(decl, falseObs))
	assert.True(t, out.Passed)
	assert.Equal(t, `{"f":1}`, string(out.Example.Details))
	assert.Nil(t, out.Counter)

	trueObs := observe(decl, true, `{"t":1}`)
	out = evaluateReachability(groupOf(decl, falseObs, trueObs))
	assert.True(t, out.Passed)
	assert.Equal(t, `{"t":1}`, string(out.Example.Details),
		"true witness is preferred")
}

func TestEvaluateReachability_Forbidden(t *testing.T) {
	decl := declare("R", record.AssertReachability, false)

	out := evaluateReachability(groupOf(decl))
	assert.True(t, out.Passed)
	assert.Nil(t, out.Example)
	assert.Nil(t, out.Counter)

	falseObs := observe(decl, false, `{"f":1}`)
	trueObs := observe(decl, true, `{"t":1}`)

	out = evaluateReachability(groupOf(decl, falseObs))
	assert.False(t, out.Passed)
	assert.Equal(t, `{"f":1}`, string(out.Counter.Details))
	assert.Nil(t, out.Example)

	out = evaluateReachability(groupOf(decl, trueObs, falseObs))
	assert.False(t, out.Passed)
	assert.Equal(t, `{"t":1}`, string(out.Counter.Details))
}
