package server

import (
	"net/http"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

type pasteRequest struct {
	PlainText string `json:"plain_text"`
	HTML      string `json:"html"`
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	md := s.normalizer.Normalize(models.ClipboardPayload{PlainText: req.PlainText, HTML: req.HTML})
	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"markdown": md,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}
