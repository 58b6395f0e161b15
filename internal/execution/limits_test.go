package execution_test

import (
	"testing"

	"codelab/internal/execution"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	got := execution.Limits{}.Normalize()
	want := execution.DefaultLimits()
	if got != want {
		t.Fatalf("normalize zero limits: got %+v, want %+v", got, want)
	}
}

func TestNormalizeKeepsOverrides(t *testing.T) {
	got := execution.Limits{TimeoutMs: 5000}.Normalize()
	if got.TimeoutMs != 5000 {
		t.Fatalf("timeout override lost: got %d", got.TimeoutMs)
	}
	if got.MemoryBytes != execution.DefaultMemoryBytes {
		t.Fatalf("memory default not applied: got %d", got.MemoryBytes)
	}
	if got.MaxOutputChars != execution.DefaultMaxOutputChars {
		t.Fatalf("output default not applied: got %d", got.MaxOutputChars)
	}
}

func TestValidate(t *testing.T) {
	if err := execution.DefaultLimits().Validate(); err != nil {
		t.Fatalf("default limits should validate: %v", err)
	}
	bad := []execution.Limits{
		{TimeoutMs: 0, MemoryBytes: 1, MaxOutputChars: 1},
		{TimeoutMs: 1, MemoryBytes: -1, MaxOutputChars: 1},
		{TimeoutMs: 1, MemoryBytes: 1, MaxOutputChars: 0},
	}
	for i, l := range bad {
		if err := l.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, l)
		}
	}
}
