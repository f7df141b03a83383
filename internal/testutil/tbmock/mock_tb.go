// Package tbmock provides a testing.TB double for checking that fixture
// helpers stop on bad input.
package tbmock

import (
	"fmt"
	"testing"
)

// FatalSentinel is panicked by MockTB in place of runtime.Goexit and
// recovered by ExpectFatal.
type FatalSentinel struct{ Msg string }

// MockTB delegates to a real testing.TB except for the fatal methods,
// which record the message and unwind with a FatalSentinel.
type MockTB struct {
	testing.TB
	failed   bool
	FatalMsg string
}

// NewMockTB wraps t.
func NewMockTB(t testing.TB) *MockTB {
	return &MockTB{TB: t}
}

// Failed reports whether a fatal method was called.
func (m *MockTB) Failed() bool { return m.failed }

func (m *MockTB) Helper() {}

func (m *MockTB) Fatalf(format string, args ...any) { m.fatal(fmt.Sprintf(format, args...)) }

func (m *MockTB) Fatal(args ...any) { m.fatal(fmt.Sprint(args...)) }

func (m *MockTB) FailNow() { m.fatal("") }

func (m *MockTB) fatal(msg string) {
	m.failed = true
	m.FatalMsg = msg
	panic(FatalSentinel{msg})
}

// ExpectFatal runs fn and reports whether it stopped through m.
// Panics other than FatalSentinel propagate.
func ExpectFatal(m *MockTB, fn func()) (fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(FatalSentinel); !ok {
				panic(r)
			}
			fatal = true
		}
	}()
	fn()
	return false
}
