package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// trafficBucketCount is the width of the ring buffer of per-minute request
// counts served by GET /api/traffic.
const trafficBucketCount = 60

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourney_http_requests_total",
		Help: "Total HTTP requests served, by route pattern and status class.",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tourney_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

type trafficBucket struct {
	minute time.Time
	count  int
}

// trafficStats tracks request volume for the GET /api/traffic endpoint: a
// rolling ring of per-minute counts plus a tally of requests per client IP.
// It is process-wide, single-writer-via-lock like the epoch mapper and
// refresh state.
type trafficStats struct {
	mu      sync.RWMutex
	buckets [trafficBucketCount]trafficBucket
	ipCount map[string]int
	total   int
}

func newTrafficStats() *trafficStats {
	return &trafficStats{ipCount: make(map[string]int)}
}

func (t *trafficStats) record(ip string, now time.Time) {
	minute := now.Truncate(time.Minute)
	idx := int(minute.Unix()/60) % trafficBucketCount

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buckets[idx].minute != minute {
		t.buckets[idx] = trafficBucket{minute: minute, count: 0}
	}
	t.buckets[idx].count++
	t.total++
	if ip != "" {
		t.ipCount[ip]++
	}
}

// PerMinutePoint is one minute's request count in the traffic time series.
type PerMinutePoint struct {
	Minute string `json:"minute"`
	Count  int    `json:"count"`
}

// TopIP is one client IP's cumulative request count.
type TopIP struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// TrafficReport is the response body for GET /api/traffic.
type TrafficReport struct {
	TotalRequests int              `json:"total_requests"`
	PerMinute     []PerMinutePoint `json:"per_minute"`
	TopIPs        []TopIP          `json:"top_ips"`
}

func (t *trafficStats) snapshot() TrafficReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	points := make([]PerMinutePoint, 0, trafficBucketCount)
	for _, b := range t.buckets {
		if b.minute.IsZero() {
			continue
		}
		points = append(points, PerMinutePoint{Minute: b.minute.Format(time.RFC3339), Count: b.count})
	}

	tops := make([]TopIP, 0, len(t.ipCount))
	for ip, count := range t.ipCount {
		tops = append(tops, TopIP{IP: ip, Count: count})
	}
	sortTopIPs(tops)
	if len(tops) > 10 {
		tops = tops[:10]
	}

	return TrafficReport{TotalRequests: t.total, PerMinute: points, TopIPs: tops}
}

func sortTopIPs(tops []TopIP) {
	for i := 1; i < len(tops); i++ {
		for j := i; j > 0 && tops[j].Count > tops[j-1].Count; j-- {
			tops[j], tops[j-1] = tops[j-1], tops[j]
		}
	}
}

func clientIP(r *http.Request) string {
	if h := r.Header.Get("CF-Connecting-IP"); h != "" {
		return h
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// trafficMiddleware records every request in the traffic stats tracker and
// in the Prometheus request counters/histogram.
func (s *Server) trafficMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.traffic.record(clientIP(r), start)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routePattern(r)
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(route, statusClass(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleTraffic serves GET /api/traffic: the rolling per-minute request
// volume and top client IPs tracked by trafficMiddleware.
func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.traffic.snapshot())
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
