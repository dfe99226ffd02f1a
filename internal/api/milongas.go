package api

import "net/http"

type milongasResponse struct {
	MilongasNow int `json:"milongas_now"`
}

// getMilongas always answers 200; a failed refresh serves the previous count.
func (s *Server) getMilongas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, milongasResponse{MilongasNow: s.milongas.Count(r.Context())})
}

func (s *Server) getMilongasStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.milongas.Snapshot())
}
