package httpapi

import "net/http"

func (s *Server) handlePerfLatency(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"latencies":    []any{},
		})
		return
	}
	if r.URL.Query().Get("reset") == "1" {
		snap := s.metrics.LatencySnapshot()
		s.metrics.ResetLatency()
		respondJSON(w, http.StatusOK, snap)
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.LatencySnapshot())
}
