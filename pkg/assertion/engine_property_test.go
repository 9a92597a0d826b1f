package assertion

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"digital.vasic.oracle/pkg/record"
)

// TestEvaluate_LastTrueObservationIsExample verifies that
// example_details tracks the last true observation in input order.
func TestEvaluate_LastTrueObservationIsExample(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("example is the last true observation", prop.ForAll(
		func(values []int) bool {
			if len(values) == 0 {
				return true
			}
			decl := declare("P", record.AssertSometimes, true)
			instances := []record.AssertionInstance{decl}
			for _, v := range values {
				instances = append(instances,
					observe(decl, true, strconv.Itoa(v)))
			}

			eval, err := NewEngine().Evaluate(instances)
			if err != nil || len(eval.Results) != 1 {
				return false
			}
			want := strconv.Itoa(values[len(values)-1])
			return string(eval.Results[0].ExampleDetails) == want
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t)
}

// TestEvaluate_Deterministic verifies that evaluating the same
// instance sequence twice yields identical encoded verdicts.
func TestEvaluate_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	kinds := []record.AssertType{
		record.AssertAlways,
		record.AssertSometimes,
		record.AssertReachability,
	}

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(codes []int) bool {
			instances := make([]record.AssertionInstance, 0, len(codes)+3)
			for i, kind := range kinds {
				instances = append(instances,
					declare(fmt.Sprintf("id-%d", i), kind, i%2 == 0))
			}
			for n, code := range codes {
				id := code % len(kinds)
				decl := declare(fmt.Sprintf("id-%d", id), kinds[id], id%2 == 0)
				inst := observe(decl, code%2 == 0, strconv.Itoa(n))
				if code%7 == 0 {
					inst = decl
				}
				instances = append(instances, inst)
			}

			first, err1 := NewEngine().Evaluate(instances)
			second, err2 := NewEngine().Evaluate(instances)
			if err1 != nil || err2 != nil {
				return false
			}
			a, _ := json.Marshal(first.Results)
			b, _ := json.Marshal(second.Results)
			return reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
