package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// matcher is one entry of the ordered strict-schema list.
type matcher struct {
	tag    string
	schema *jsonschema.Schema
	build  func(raw json.RawMessage) (Record, error)
}

// Classifier turns one raw log line into a Record. It holds only
// compiled schemas and is safe for concurrent use.
type Classifier struct {
	matchers []matcher
}

// NewClassifier compiles the record schemas in match order:
// SDK descriptor, setup status, assertion, send_event.
func NewClassifier() (*Classifier, error) {
	specs := []struct {
		tag    string
		schema string
		build  func(raw json.RawMessage) (Record, error)
	}{
		{TagSDK, sdkSchema, buildSDK},
		{TagSetup, setupSchema, buildSetup},
		{TagAssert, assertSchema, buildAssertion},
		{TagSendEvent, sendEventSchema, buildSendEvent},
	}

	c := &Classifier{matchers: make([]matcher, 0, len(specs))}
	for _, s := range specs {
		compiled, err := compileSchema(s.tag, s.schema)
		if err != nil {
			return nil, err
		}
		c.matchers = append(c.matchers, matcher{
			tag:    s.tag,
			schema: compiled,
			build:  s.build,
		})
	}
	return c, nil
}

func compileSchema(tag, schema string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := schemaBaseURL + tag + ".schema.json"
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("load %s schema: %w", tag, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", tag, err)
	}
	return compiled, nil
}

// Classify decodes a single line. A line that is a one-key object
// whose key names a known variant and whose value satisfies that
// variant's schema becomes the typed record. Any other non-empty
// object becomes a NamedEvent keyed by its first key in sorted
// order. Everything else is a *DecodeError.
func (c *Classifier) Classify(line []byte) (Record, error) {
	value, err := decodeStrict(line)
	if err != nil {
		return Record{}, &DecodeError{Reason: "invalid JSON", Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return Record{}, &DecodeError{
			Reason: fmt.Sprintf("record is a JSON %s, not an object", jsonKind(value)),
		}
	}
	if len(obj) == 0 {
		return Record{}, &DecodeError{Reason: "record is an empty object"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Record{}, &DecodeError{Reason: "invalid JSON", Err: err}
	}

	if len(obj) == 1 && !hasDuplicateKeys(line) {
		for _, m := range c.matchers {
			payload, ok := obj[m.tag]
			if !ok {
				continue
			}
			if m.schema.Validate(payload) != nil {
				break
			}
			rec, err := m.build(fields[m.tag])
			if err != nil {
				break
			}
			return rec, nil
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Record{
		Kind: KindEvent,
		Event: &NamedEvent{
			Name:    keys[0],
			Details: fields[keys[0]],
		},
	}, nil
}

// hasDuplicateKeys reports whether the top-level object in line
// repeats a key. Such a record is not a strict variant match even
// though decoding keeps only the last value.
func hasDuplicateKeys(line []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(line))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return false
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		key, _ := tok.(string)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return false
		}
	}
	return false
}

// decodeStrict decodes exactly one JSON value, rejecting trailing
// data.
func decodeStrict(line []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "value"
	}
}

// decodeFields fills dst from the object in raw using exact key
// matches only. encoding/json would also accept keys that differ in
// case, letting an extra "ID" or "Hit" override the validated field.
func decodeFields(raw json.RawMessage, dst map[string]any) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	for key, target := range dst {
		value, ok := obj[key]
		if !ok {
			continue
		}
		if loc, isLoc := target.(*Location); isLoc {
			if err := decodeLocation(value, loc); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func decodeLocation(raw json.RawMessage, loc *Location) error {
	return decodeFields(raw, map[string]any{
		"begin_column": &loc.BeginColumn,
		"begin_line":   &loc.BeginLine,
		"class":        &loc.Class,
		"file":         &loc.File,
		"function":     &loc.Function,
	})
}

func buildSDK(raw json.RawMessage) (Record, error) {
	var sdk SDKDescriptor
	err := decodeFields(raw, map[string]any{
		"language": &sdk.Language,
		"version":  &sdk.Version,
	})
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindSDK, SDK: &sdk}, nil
}

func buildSetup(raw json.RawMessage) (Record, error) {
	var setup SetupStatus
	err := decodeFields(raw, map[string]any{
		"status":  &setup.Status,
		"details": &setup.Details,
	})
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindSetup, Setup: &setup}, nil
}

func buildAssertion(raw json.RawMessage) (Record, error) {
	var a AssertionInstance
	err := decodeFields(raw, map[string]any{
		"assert_type":  &a.AssertType,
		"condition":    &a.Condition,
		"display_type": &a.DisplayType,
		"hit":          &a.Hit,
		"must_hit":     &a.MustHit,
		"id":           &a.ID,
		"message":      &a.Message,
		"location":     &a.Location,
		"details":      &a.Details,
	})
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindAssertion, Assertion: &a}, nil
}

func buildSendEvent(raw json.RawMessage) (Record, error) {
	var ev NamedEvent
	err := decodeFields(raw, map[string]any{
		"event_name": &ev.Name,
		"details":    &ev.Details,
	})
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindEvent, Event: &ev}, nil
}
