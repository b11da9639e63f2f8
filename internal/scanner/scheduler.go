package scanner

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
)

// Scheduler dispatches the candidates x probes cross product into a
// bounded worker pool and collects outcomes through a single collector
// goroutine. Workers share only the channels and the pooled HTTP client
// inside each probe.
type Scheduler struct {
	concurrency int
	probes      []probe.Prober
	stats       *Stats
}

func New(concurrency int, probes []probe.Prober) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{concurrency: concurrency, probes: probes, stats: NewStats(0)}
}

// Stats exposes the live counters, usable for progress reporting while
// Run is in flight.
func (s *Scheduler) Stats() *Stats {
	return s.stats
}

type unit struct {
	prober    probe.Prober
	candidate mutate.Candidate
}

// Run probes every candidate against every configured provider. Each
// (name, provider) pair is dispatched at most once. On cancellation no
// new work is dispatched, in-flight probes finish on their own timeout,
// and the outcomes gathered so far are returned with ctx.Err().
func (s *Scheduler) Run(ctx context.Context, candidates []mutate.Candidate) ([]probe.Outcome, *Stats, error) {
	stats := s.stats
	stats.SetTotal(int64(len(candidates) * len(s.probes)))

	tasks := make(chan unit, s.concurrency*2)
	results := make(chan probe.Outcome, s.concurrency*2)

	var outcomes []probe.Outcome
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for out := range results {
			outcomes = append(outcomes, out)
			switch {
			case out.Access >= probe.AccessListable:
				stats.IncrementFound()
			case out.Access == probe.AccessError:
				stats.IncrementErrors()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range tasks {
				select {
				case <-ctx.Done():
					// Queued but undispatched work is dropped.
					continue
				default:
				}
				results <- u.prober.Probe(ctx, u.candidate)
				stats.IncrementProcessed()
			}
		}()
	}

	// The bounded task channel is the backpressure: this producer blocks
	// instead of buffering the whole cross product.
	seen := make(map[string]struct{}, len(candidates)*len(s.probes))
producer:
	for _, candidate := range candidates {
		for _, prober := range s.probes {
			key := candidate.Name + "\x00" + string(prober.Provider())
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			select {
			case tasks <- unit{prober: prober, candidate: candidate}:
			case <-ctx.Done():
				log.Debug("scan cancelled, no further probes dispatched")
				break producer
			}
		}
	}
	close(tasks)

	wg.Wait()
	close(results)
	<-collectorDone

	if err := ctx.Err(); err != nil {
		return outcomes, stats, err
	}
	return outcomes, stats, nil
}
