package systems

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
)

func TestNewJobSystemValidation(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("err=%v; expected ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("err=%v; expected ErrNegativeChannelSize", err)
	}
}

func TestJobSystem(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}

	var completed, failed, finished atomic.Int32
	var mu sync.Mutex
	sum := 0

	for i := 0; i < 20; i++ {
		js.Submit(metadata.JobTask{
			InputParams: i,
			OnStart: func(params interface{}, results chan<- interface{}) error {
				n := params.(int)
				if n%5 == 0 {
					return errors.Errorf("job %d failed", n)
				}
				results <- n
				return nil
			},
			OnComplete: func(results <-chan interface{}) {
				mu.Lock()
				sum += (<-results).(int)
				mu.Unlock()
				completed.Add(1)
			},
			OnFailure: func(err error) {
				failed.Add(1)
			},
			OnCompletionCallback: func() {
				finished.Add(1)
			},
		})
	}
	// A job without an entry point fails instead of panicking.
	js.Submit(metadata.JobTask{
		OnFailure: func(err error) {
			if errors.Is(err, ErrMissingEntryPoint) {
				failed.Add(1)
			}
		},
	})

	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	// Shutdown is idempotent.
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := js.Submit(metadata.JobTask{}); !errors.Is(err, core.ErrShutdown) {
		t.Errorf("Submit after Shutdown: err=%v; expected ErrShutdown", err)
	}

	if completed.Load() != 16 || failed.Load() != 5 || finished.Load() != 20 {
		t.Errorf("completed=%d failed=%d finished=%d; expected 16 5 20", completed.Load(), failed.Load(), finished.Load())
	}
	// 0..19 minus multiples of five.
	if sum != 190-(0+5+10+15) {
		t.Errorf("sum=%d; expected 160", sum)
	}
}
