package sl

import (
	"errors"
	"testing"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != "error" || attr.Value.String() != "boom" {
		t.Fatalf("attr = %v", attr)
	}
}

func TestModule(t *testing.T) {
	attr := Module("dispatch")
	if attr.Key != "module" || attr.Value.String() != "dispatch" {
		t.Fatalf("attr = %v", attr)
	}
}

func TestSecretMasks(t *testing.T) {
	attr := Secret("api_key", "super-secret-value")
	if got := attr.Value.String(); got != "super-..." {
		t.Fatalf("masked value = %q", got)
	}

	// Short values pass through unchanged.
	if got := Secret("api_key", "abc").Value.String(); got != "abc" {
		t.Fatalf("short value = %q", got)
	}
}
