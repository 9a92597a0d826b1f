// Package record classifies the lines of an instrumented-run event
// log into typed records. Each line is matched against an ordered
// list of JSON schemas for the known record variants; lines shaped
// outside that set fall back to generic named events.
package record

import "encoding/json"

// AssertType is the quantifier family of a declared assertion.
type AssertType string

const (
	// AssertAlways holds when no observation was false.
	AssertAlways AssertType = "always"
	// AssertSometimes holds when at least one observation was true.
	AssertSometimes AssertType = "sometimes"
	// AssertReachability is about whether a location was reached
	// at all, independent of the observed condition.
	AssertReachability AssertType = "reachability"
)

// Kind identifies which variant a Record carries.
type Kind int

const (
	// KindSDK is an SDK descriptor record.
	KindSDK Kind = iota
	// KindSetup is a setup/status record.
	KindSetup
	// KindAssertion is an assertion instance.
	KindAssertion
	// KindEvent is a generic named event.
	KindEvent
)

// String returns the wire name of the record kind.
func (k Kind) String() string {
	switch k {
	case KindSDK:
		return "sdk"
	case KindSetup:
		return "setup"
	case KindAssertion:
		return "assertion"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Location is the source position of an assertion declaration.
type Location struct {
	BeginColumn int    `json:"begin_column"`
	BeginLine   int    `json:"begin_line"`
	Class       string `json:"class"`
	File        string `json:"file"`
	Function    string `json:"function"`
}

// SDKDescriptor identifies the SDK that produced the log.
type SDKDescriptor struct {
	Language string `json:"language"`
	Version  string `json:"version"`
}

// SetupStatus reports the setup phase of the instrumented run.
type SetupStatus struct {
	Status  string          `json:"status"`
	Details json.RawMessage `json:"details"`
}

// AssertionInstance is one observation, or the declaration, of a
// single declared assertion.
type AssertionInstance struct {
	// AssertType is fixed per declaration.
	AssertType AssertType `json:"assert_type"`

	// Condition is the evaluated guard. Only meaningful when Hit
	// is true.
	Condition bool `json:"condition"`

	DisplayType string `json:"display_type"`

	// Hit is false for the catalog entry that declares the
	// assertion and true for runtime observations.
	Hit bool `json:"hit"`

	MustHit bool `json:"must_hit"`

	// ID groups all instances of one declared assertion.
	ID string `json:"id"`

	Message  string   `json:"message"`
	Location Location `json:"location"`

	// Details is an opaque payload, kept as raw JSON.
	Details json.RawMessage `json:"details"`
}

// IsDeclaration reports whether the instance is the catalog entry
// rather than a runtime observation.
func (a *AssertionInstance) IsDeclaration() bool {
	return !a.Hit
}

// NamedEvent is a user event, either from the send_event variant
// or from a single-key mapping that matched no known schema.
type NamedEvent struct {
	Name    string          `json:"event_name"`
	Details json.RawMessage `json:"details"`
}

// Record is a classified log line. Exactly one of the payload
// pointers is set, selected by Kind.
type Record struct {
	Kind Kind

	// Line is the 1-based line number in the source stream, or 0
	// when the record was classified outside a stream.
	Line int

	SDK       *SDKDescriptor
	Setup     *SetupStatus
	Assertion *AssertionInstance
	Event     *NamedEvent
}

// Assertions returns the assertion instances of records, in input
// order, dropping every other variant.
func Assertions(records []Record) []AssertionInstance {
	out := make([]AssertionInstance, 0, len(records))
	for _, r := range records {
		if r.Kind == KindAssertion && r.Assertion != nil {
			out = append(out, *r.Assertion)
		}
	}
	return out
}
