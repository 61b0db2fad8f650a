package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON response for the stats endpoint.
type Summary struct {
	HTTP          httpSummary   `json:"http"`
	Remote        remoteSummary `json:"remote"`
	Gestures      gestureInfo   `json:"gestures"`
	Notifications notifyInfo    `json:"notifications"`
	DB            dbInfo        `json:"db"`
	Server        serverInfo    `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
}

type remoteSummary struct {
	TotalCalls float64 `json:"totalCalls"`
	ErrorRate  float64 `json:"errorRate"`
	P50Latency float64 `json:"p50Latency"`
	P95Latency float64 `json:"p95Latency"`
}

type gestureInfo struct {
	Completed  float64 `json:"completed"`
	Rejections float64 `json:"rejections"`
	Throttled  float64 `json:"throttled"`
}

type notifyInfo struct {
	Unread      float64 `json:"unread"`
	DayBefore   float64 `json:"dayBeforeReminders"`
	SameDay     float64 `json:"sameDayReminders"`
	TripsLoaded float64 `json:"tripsLoaded"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

// Handler serves a JSON digest of the registry.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	start := gaugeValue(fam["tripboard_server_start_time_seconds"])
	return Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(fam["tripboard_http_requests_total"], nil),
			ErrorRate:     errorRate(fam["tripboard_http_requests_total"], '4'),
			P50Latency:    histogramPercentile(fam["tripboard_http_request_duration_seconds"], 0.50),
			P95Latency:    histogramPercentile(fam["tripboard_http_request_duration_seconds"], 0.95),
		},
		Remote: remoteSummary{
			TotalCalls: sumCounter(fam["tripboard_remote_calls_total"], nil),
			ErrorRate:  remoteErrorRate(fam["tripboard_remote_calls_total"]),
			P50Latency: histogramPercentile(fam["tripboard_remote_call_duration_seconds"], 0.50),
			P95Latency: histogramPercentile(fam["tripboard_remote_call_duration_seconds"], 0.95),
		},
		Gestures: gestureInfo{
			Completed:  sumCounter(fam["tripboard_gestures_total"], nil),
			Rejections: sumCounter(fam["tripboard_gesture_rejections_total"], nil),
			Throttled:  sumCounter(fam["tripboard_gesture_rejections_total"], withLabel("reason", "throttled")),
		},
		Notifications: notifyInfo{
			Unread:      gaugeValue(fam["tripboard_unread_count"]),
			DayBefore:   sumCounter(fam["tripboard_reminders_total"], withLabel("timing", "dayBefore")),
			SameDay:     sumCounter(fam["tripboard_reminders_total"], withLabel("timing", "sameDay")),
			TripsLoaded: gaugeValue(fam["tripboard_trips_loaded"]),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["tripboard_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["tripboard_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["tripboard_db_pool_acquired_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

// --- Prometheus metric helpers ---

type metricFilter func(*dto.Metric) bool

func withLabel(name, value string) metricFilter {
	return func(m *dto.Metric) bool {
		return labelValue(m, name) == value
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func sumCounter(f *dto.MetricFamily, keep metricFilter) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if keep != nil && !keep(m) {
			continue
		}
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetGauge() == nil {
		return 0
	}
	return ms[0].GetGauge().GetValue()
}

// errorRate is the share of requests whose status code starts at or
// above minClass.
func errorRate(f *dto.MetricFamily, minClass byte) float64 {
	if f == nil {
		return 0
	}
	var total, failed float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		if code := labelValue(m, "status_code"); len(code) > 0 && code[0] >= minClass {
			failed += v
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}

// remoteErrorRate also counts calls that got no response (status 0).
func remoteErrorRate(f *dto.MetricFamily) float64 {
	total := sumCounter(f, nil)
	if total == 0 {
		return 0
	}
	failed := sumCounter(f, func(m *dto.Metric) bool {
		code := labelValue(m, "status_code")
		return code == "0" || (len(code) > 0 && code[0] >= '4')
	})
	return failed / total
}

// histogramPercentile computes a percentile from aggregated histogram
// buckets using linear interpolation.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)

	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			bucketCount := b.cumulativeCount - prevCount
			if bucketCount == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(bucketCount)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	// Past the last finite bucket.
	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upperBound, 1) {
			return buckets[i].upperBound
		}
	}
	return 0
}
