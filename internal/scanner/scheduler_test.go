package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
)

// fakeProbe is an instrumented Prober for pool behavior tests.
type fakeProbe struct {
	provider   probe.Provider
	delay      time.Duration
	active     int32
	maxActive  int32
	probeCount int32
	block      chan struct{}
}

func (f *fakeProbe) Provider() probe.Provider { return f.provider }

func (f *fakeProbe) Probe(ctx context.Context, candidate mutate.Candidate) probe.Outcome {
	current := atomic.AddInt32(&f.active, 1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, current) {
			break
		}
	}
	atomic.AddInt32(&f.probeCount, 1)

	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	atomic.AddInt32(&f.active, -1)
	return probe.Outcome{
		Candidate: candidate,
		Provider:  f.provider,
		Access:    probe.AccessNotFound,
		Timestamp: time.Now(),
	}
}

// sharedCounter tracks concurrently active probes across all providers.
type sharedCounter struct {
	active    int32
	maxActive int32
}

func (c *sharedCounter) enter() {
	current := atomic.AddInt32(&c.active, 1)
	for {
		max := atomic.LoadInt32(&c.maxActive)
		if current <= max || atomic.CompareAndSwapInt32(&c.maxActive, max, current) {
			return
		}
	}
}

func (c *sharedCounter) leave() {
	atomic.AddInt32(&c.active, -1)
}

type countedProbe struct {
	provider probe.Provider
	counter  *sharedCounter
	access   probe.AccessLevel
}

func (p *countedProbe) Provider() probe.Provider { return p.provider }

func (p *countedProbe) Probe(ctx context.Context, candidate mutate.Candidate) probe.Outcome {
	p.counter.enter()
	time.Sleep(5 * time.Millisecond)
	p.counter.leave()
	return probe.Outcome{
		Candidate: candidate,
		Provider:  p.provider,
		Access:    p.access,
		Timestamp: time.Now(),
	}
}

func candidates(names ...string) []mutate.Candidate {
	var out []mutate.Candidate
	for _, n := range names {
		out = append(out, mutate.Candidate{Name: n, Source: mutate.SourceRaw})
	}
	return out
}

func TestSchedulerCrossProduct(t *testing.T) {
	counter := &sharedCounter{}
	probes := []probe.Prober{
		&countedProbe{provider: probe.ProviderS3, counter: counter},
		&countedProbe{provider: probe.ProviderGCS, counter: counter},
		&countedProbe{provider: probe.ProviderAzure, counter: counter},
	}

	s := New(2, probes)
	outcomes, stats, err := s.Run(context.Background(), candidates("a-1", "b-2", "c-3", "d-4", "e-5"))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcomes) != 15 {
		t.Errorf("expected 15 outcomes (5 candidates x 3 providers), got %d", len(outcomes))
	}

	seen := make(map[string]bool)
	for _, out := range outcomes {
		key := out.Candidate.Name + "/" + string(out.Provider)
		if seen[key] {
			t.Errorf("duplicate outcome for %s", key)
		}
		seen[key] = true
	}

	if stats.GetProcessed() != 15 {
		t.Errorf("expected 15 processed, got %d", stats.GetProcessed())
	}

	if max := atomic.LoadInt32(&counter.maxActive); max > 2 {
		t.Errorf("worker pool exceeded concurrency bound: %d active probes", max)
	}
}

func TestSchedulerDeduplicatesPairs(t *testing.T) {
	fake := &fakeProbe{provider: probe.ProviderS3}
	s := New(2, []probe.Prober{fake})

	dupes := append(candidates("same-name"), candidates("same-name", "same-name")...)
	outcomes, _, err := s.Run(context.Background(), dupes)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcomes) != 1 {
		t.Errorf("expected 1 outcome for duplicated candidate, got %d", len(outcomes))
	}

	if n := atomic.LoadInt32(&fake.probeCount); n != 1 {
		t.Errorf("expected candidate probed exactly once, got %d", n)
	}
}

func TestSchedulerCancellation(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeProbe{provider: probe.ProviderS3, block: release}

	s := New(2, []probe.Prober{fake})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var outcomes []probe.Outcome
	var runErr error
	go func() {
		defer close(done)
		outcomes, _, runErr = s.Run(ctx, candidates(
			"c-01", "c-02", "c-03", "c-04", "c-05",
			"c-06", "c-07", "c-08", "c-09", "c-10",
			"c-11", "c-12", "c-13", "c-14", "c-15",
		))
	}()

	// Wait until both workers hold an in-flight probe, then cancel.
	for atomic.LoadInt32(&fake.active) < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not shut down after cancellation")
	}

	if runErr != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", runErr)
	}

	if len(outcomes) < 2 {
		t.Errorf("expected at least the 2 in-flight outcomes, got %d", len(outcomes))
	}

	if len(outcomes) > 15 {
		t.Errorf("expected at most 15 outcomes, got %d", len(outcomes))
	}
}

func TestSchedulerFoundAndErrorCounters(t *testing.T) {
	counter := &sharedCounter{}
	probes := []probe.Prober{
		&countedProbe{provider: probe.ProviderS3, counter: counter, access: probe.AccessListable},
		&countedProbe{provider: probe.ProviderGCS, counter: counter, access: probe.AccessError},
		&countedProbe{provider: probe.ProviderAzure, counter: counter, access: probe.AccessNotFound},
	}

	s := New(3, probes)
	_, stats, err := s.Run(context.Background(), candidates("one-1", "two-2"))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.GetFound() != 2 {
		t.Errorf("expected 2 found, got %d", stats.GetFound())
	}
	if stats.GetErrors() != 2 {
		t.Errorf("expected 2 errors, got %d", stats.GetErrors())
	}
}

func TestSchedulerEmptyCandidates(t *testing.T) {
	s := New(4, []probe.Prober{&fakeProbe{provider: probe.ProviderS3}})

	outcomes, stats, err := s.Run(context.Background(), nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
	if stats.GetTotal() != 0 {
		t.Errorf("expected total 0, got %d", stats.GetTotal())
	}
}

func TestStatsConcurrent(t *testing.T) {
	stats := NewStats(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.IncrementProcessed()
			stats.IncrementFound()
			stats.IncrementErrors()
		}()
	}
	wg.Wait()

	if stats.GetProcessed() != 100 {
		t.Errorf("expected processed=100, got %d", stats.GetProcessed())
	}
	if stats.GetFound() != 100 {
		t.Errorf("expected found=100, got %d", stats.GetFound())
	}
	if stats.GetErrors() != 100 {
		t.Errorf("expected errors=100, got %d", stats.GetErrors())
	}
}
