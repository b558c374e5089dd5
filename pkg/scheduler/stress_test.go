package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStressSubmitAndDrain runs the submit/drain conservation check across
// a table of worker counts and submission volumes, the shape a stress
// sweep takes better as a flat table than as nested Convey scenarios.
func TestStressSubmitAndDrain(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		submits int
	}{
		{name: "single worker, light load", workers: 1, submits: 100},
		{name: "few workers, moderate load", workers: 4, submits: 2000},
		{name: "many workers, heavy load", workers: 16, submits: 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.CreateGroup(0, 0, tt.workers, 0)
			s.BeginExecution(nil, nil)

			var counter atomic.Int64
			for i := 0; i < tt.submits; i++ {
				s.SubmitToGroup(0, 0, Func(func(*WorkerContext) { counter.Add(1) }))
			}

			s.EndExecution()

			require.Equal(t, int64(tt.submits), counter.Load())
			assert.True(t, s.allQueuesEmpty(), "EndExecution must drain every workgroup queue")
		})
	}
}
