package core

import "net/http"

type infoResponse struct {
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	BuildDate   string `json:"buildDate,omitempty"`
}

// HandleInfo reports build and deployment metadata.
func (s *Server) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, infoResponse{
		Service:     s.Config.Service,
		Environment: s.Config.Environment,
		Version:     s.Config.Build.Version,
		Commit:      s.Config.Build.Commit,
		BuildDate:   s.Config.Build.Date,
	})
}
