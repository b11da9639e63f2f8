package scanner

import (
	"sync/atomic"
	"time"
)

// Stats tracks scan progress with atomic counters.
type Stats struct {
	Total     int64
	Processed int64
	Found     int64
	Errors    int64
	StartTime time.Time
}

func NewStats(total int64) *Stats {
	return &Stats{
		Total:     total,
		StartTime: time.Now(),
	}
}

func (s *Stats) SetTotal(total int64) {
	atomic.StoreInt64(&s.Total, total)
}

func (s *Stats) IncrementProcessed() {
	atomic.AddInt64(&s.Processed, 1)
}

func (s *Stats) IncrementFound() {
	atomic.AddInt64(&s.Found, 1)
}

func (s *Stats) IncrementErrors() {
	atomic.AddInt64(&s.Errors, 1)
}

func (s *Stats) GetProcessed() int64 {
	return atomic.LoadInt64(&s.Processed)
}

func (s *Stats) GetFound() int64 {
	return atomic.LoadInt64(&s.Found)
}

func (s *Stats) GetErrors() int64 {
	return atomic.LoadInt64(&s.Errors)
}

func (s *Stats) GetTotal() int64 {
	return atomic.LoadInt64(&s.Total)
}
