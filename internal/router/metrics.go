package router

// BackendStats accumulates routing outcomes for one backend. The latency
// average rolls over total requests, failed ones included.
type BackendStats struct {
	TotalRequests      uint64  `json:"total_requests"`
	SuccessfulRequests uint64  `json:"successful_requests"`
	FailedRequests     uint64  `json:"failed_requests"`
	Characters         uint64  `json:"characters"`
	TotalCost          float64 `json:"total_cost"`
	AverageResponseMS  float64 `json:"average_response_time"`
}

// Metrics is a point-in-time copy of the router's counters.
type Metrics struct {
	Backends     map[Backend]BackendStats `json:"backends"`
	CacheHitRate float64                  `json:"cache_hit_rate"`
}

// Metrics returns a deep copy of the per-backend counters and the cache
// hit-rate moving average. Mutating the copy does not affect the router.
func (r *Router) Metrics() Metrics {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	out := Metrics{
		Backends:     make(map[Backend]BackendStats, len(r.stats)),
		CacheHitRate: r.cacheHitRate,
	}
	for backend, st := range r.stats {
		out.Backends[backend] = *st
	}
	return out
}

func (r *Router) noteRequest(backend Backend) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	r.statFor(backend).TotalRequests++
}

func (r *Router) noteSuccess(backend Backend, elapsedMS int64, chars int, cost float64) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	st := r.statFor(backend)
	st.SuccessfulRequests++
	st.Characters += uint64(chars)
	st.TotalCost += cost
	total := st.TotalRequests
	if total == 0 {
		total = 1
	}
	st.AverageResponseMS = (st.AverageResponseMS*float64(total-1) + float64(elapsedMS)) / float64(total)
}

func (r *Router) noteFailure(backend Backend) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	r.statFor(backend).FailedRequests++
}

// noteCacheLookup folds one lookup into the hit-rate moving average.
func (r *Router) noteCacheLookup(hit bool) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	v := 0.0
	if hit {
		v = 1.0
	}
	r.cacheHitRate = r.cacheHitRate*0.9 + v*0.1
}

// statFor returns the live counters for backend, creating them on first
// use. Callers hold metricsMu.
func (r *Router) statFor(backend Backend) *BackendStats {
	st, ok := r.stats[backend]
	if !ok {
		st = &BackendStats{}
		r.stats[backend] = st
	}
	return st
}
