// Command oracle evaluates the assertion records of an instrumented
// run and writes one verdict per declared assertion.
//
// Usage:
//
//	oracle [flags] <input.jsonl> <output.jsonl>
//
// The exit status is 0 when the log was evaluated and 1 when it
// could not be, for example on a malformed line or an assertion
// observed without a declaration. Failing verdicts are data in the
// output, not errors.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
