package execution_test

import (
	"testing"

	"codelab/internal/execution"
)

func TestStageTransitions(t *testing.T) {
	cases := []struct {
		from, to execution.LoadStage
		want     bool
	}{
		{execution.StageChecking, execution.StageDownloading, true},
		{execution.StageChecking, execution.StageReady, true},
		{execution.StageDownloading, execution.StageLoading, true},
		{execution.StageLoading, execution.StageReady, true},
		{execution.StageReady, execution.StageDownloading, false},
		{execution.StageLoading, execution.StageChecking, false},
		{execution.StageChecking, execution.StageError, true},
		{execution.StageReady, execution.StageError, true},
		{execution.StageError, execution.StageReady, false},
		{execution.StageDownloading, execution.StageDownloading, true},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
