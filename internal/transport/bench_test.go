package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func BenchmarkClientGet_Success(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClient(10, 0, 0, 10)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.Get(ctx, server.URL)
	}
}

func BenchmarkRateLimiter_GetOrCreate(b *testing.B) {
	client := NewClient(10, 10, 0, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.getRateLimiter("bench-bucket.s3.amazonaws.com")
	}
}

func BenchmarkCircuitBreaker_IsOpen(b *testing.B) {
	cb := &CircuitBreaker{
		failureCounts: make(map[string]int),
		lastFailure:   make(map[string]time.Time),
		threshold:     10,
		resetTimeout:  30 * time.Second,
	}
	host := "core.windows.net"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.isOpen(host)
	}
}
