package report

import (
	"encoding/json"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/record"
)

func makeTestResults() []assertion.Result {
	return []assertion.Result{
		{
			DisplayType: "Always",
			ID:          "balance never negative",
			Message:     "balance never negative",
			Location: record.Location{
				File:      "bank.go",
				Function:  "Withdraw",
				BeginLine: 42,
			},
			ExampleDetails: json.RawMessage(`{"balance":10}`),
			Passed:         true,
			AssertType:     record.AssertAlways,
			MustHit:        true,
		},
		{
			DisplayType: "Sometimes",
			ID:          "retry <path> taken",
			Message:     "retry <path> taken",
			Location: record.Location{
				File:      "client.go",
				Function:  "Do",
				BeginLine: 7,
			},
			CounterDetails: json.RawMessage(`{"attempt":1}`),
			Passed:         false,
			AssertType:     record.AssertSometimes,
			Reason:         "condition never held",
		},
	}
}
