package metrics

import (
	"testing"
	"time"
)

func BenchmarkRecordRun(b *testing.B) {
	c := NewCollector(testMetricsConfig(), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordRun("csv", "succeeded", 250, 3*time.Second)
	}
}

func BenchmarkRecordBatchFetch(b *testing.B) {
	c := NewCollector(testMetricsConfig(), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordBatchFetch(50*time.Millisecond, 100)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	c := NewCollector(testMetricsConfig(), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordHTTPRequest("POST", "/v1/exports", 202, 10*time.Millisecond)
	}
}

func BenchmarkRecordRunDisabled(b *testing.B) {
	cfg := testMetricsConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordRun("csv", "succeeded", 250, 3*time.Second)
	}
}

func BenchmarkCardinalityLimiterHit(b *testing.B) {
	cl := NewCardinalityLimiter(100)
	cl.Allow("existing")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cl.Allow("existing")
	}
}

func BenchmarkRecordRunParallel(b *testing.B) {
	c := NewCollector(testMetricsConfig(), nil)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.RecordRun("parquet", "succeeded", 100, time.Second)
		}
	})
}
