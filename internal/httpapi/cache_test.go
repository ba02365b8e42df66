package httpapi

import (
	"context"
	"testing"
)

func TestGetOrComputeWithoutRedisRunsFnAndDecodes(t *testing.T) {
	c := newAnalyticsCache("", nil)

	calls := 0
	var dest map[string]int
	err := c.getOrCompute(context.Background(), "key1", &dest, func() (interface{}, error) {
		calls++
		return map[string]int{"a": 1}, nil
	})
	if err != nil {
		t.Fatalf("getOrCompute: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected fn called once, got %d", calls)
	}
	if dest["a"] != 1 {
		t.Errorf("expected decoded value, got %+v", dest)
	}
}

func TestGetOrComputePropagatesError(t *testing.T) {
	c := newAnalyticsCache("", nil)
	wantErr := errTest
	var dest map[string]int
	err := c.getOrCompute(context.Background(), "key2", &dest, func() (interface{}, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("expected propagated error, got %v", err)
	}
}

func TestAnalyticsCacheHealthyWithoutRedis(t *testing.T) {
	c := newAnalyticsCache("", nil)
	if !c.healthy(context.Background()) {
		t.Error("expected healthy() true when no redis is configured")
	}
}

var errTest = errorString("boom")

type errorString string

func (e errorString) Error() string { return string(e) }
