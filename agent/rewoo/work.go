package rewoo

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/core/agent/invoker"
)

// work fans out over sketches with a bounded worker pool reading from a
// shared queue (§4.6 step 2, REDESIGN FLAGS: "bounded worker pool + queue;
// avoid manual promise-array book-keeping"). Sketches with no Tool are
// recorded as evidence with no output, left for Organize to reason about
// directly from the sketch's Query. Tool errors are captured as Evidence,
// never propagated — a failing sketch must not fail the run.
func (s *Strategy) work(ctx context.Context, sketches []Sketch, threadID string) []Evidence {
	out := make([]Evidence, len(sketches))
	jobs := make(chan int, len(sketches))
	for i := range sketches {
		jobs <- i
	}
	close(jobs)

	workers := s.maxParallelWork
	if workers <= 0 {
		workers = 1
	}
	if workers > len(sketches) {
		workers = len(sketches)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = s.runSketch(ctx, sketches[i], threadID)
			}
		}()
	}
	wg.Wait()
	return out
}

func (s *Strategy) runSketch(ctx context.Context, sk Sketch, threadID string) Evidence {
	ev := Evidence{ID: "evidence-" + sk.ID, SketchID: sk.ID, ToolName: sk.Tool, Input: sk.Arguments}
	if sk.Tool == "" {
		return ev
	}

	callCtx, cancel := context.WithTimeout(ctx, s.perWorkTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.caller.Invoke(callCtx, sk.Tool, sk.Arguments, invoker.Options{ThreadID: threadID})
	ev.LatencyMs = time.Since(started).Milliseconds()
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	ev.Output = result
	return ev
}
