// Package test contains small helpers shared by the package tests.
package test

import (
	"errors"
	"fmt"
	"testing"
)

func id(tags ...any) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprintf("%v: ", fmt.Sprint(tags...))
}

// ExpectEquality reports a test error if v does not equal expected.
func ExpectEquality[T comparable](t *testing.T, v T, expected T, tags ...any) bool {
	t.Helper()
	if v != expected {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality but stops the test on failure. Use it
// when later checks depend on the value being correct.
func DemandEquality[T comparable](t *testing.T, v T, expected T, tags ...any) {
	t.Helper()
	if v != expected {
		t.Fatalf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
	}
}

// ExpectSuccess tests v for a success value suitable for its type:
//
//	bool  -> true
//	error -> nil
func ExpectSuccess(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("%sexpected success (bool)", id(tags...))
			return false
		}
	case error:
		if v != nil {
			t.Errorf("%sexpected success (error: %v)", id(tags...), v)
			return false
		}
	case nil:
	default:
		t.Fatalf("unsupported type (%T) for expectation testing", v)
		return false
	}
	return true
}

// ExpectFailure tests v for a failure value suitable for its type:
//
//	bool  -> false
//	error -> not nil
func ExpectFailure(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("%sexpected failure (bool)", id(tags...))
			return false
		}
	case error:
		if v == nil {
			t.Errorf("%sexpected failure (error)", id(tags...))
			return false
		}
	case nil:
		t.Errorf("%sexpected failure (nil)", id(tags...))
		return false
	default:
		t.Fatalf("unsupported type (%T) for expectation testing", v)
		return false
	}
	return true
}

// ExpectError tests that err matches target using errors.Is.
func ExpectError(t *testing.T, err error, target error, tags ...any) bool {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%sexpected error %q, got %v", id(tags...), target, err)
		return false
	}
	return true
}

// DemandSuccess is like ExpectSuccess but stops the test on failure.
func DemandSuccess(t *testing.T, v any, tags ...any) {
	t.Helper()
	if !ExpectSuccess(t, v, tags...) {
		t.FailNow()
	}
}
