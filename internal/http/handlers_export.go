package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/export"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

// handleExport renders the posted budget_data, or the stored budget when
// none is posted, as a CSV or PDF attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExport)

	req, err := readBudgetRequest(w, r)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid export request", log.FieldError, err, log.FieldOperation, log.OpParse)
		writeError(w, http.StatusBadRequest, msgInvalidBudget)
		return
	}

	format, err := exportFormat(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, export.MsgUnsupportedFormat)
		return
	}

	var doc core.Document
	if req.hasBudget() {
		if doc, err = req.document(); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidBudget)
			return
		}
	} else {
		rec, err := s.loadRecord(r, identity)
		if errors.Is(err, storage.ErrBudgetNotFound) {
			writeError(w, http.StatusNotFound, msgNoBudget)
			return
		}
		if err != nil {
			s.structured.LogError(r.Context(), "Budget load failed", err, log.ComponentStorage, log.OpLoad,
				log.NewFields().WithIdentity(identity))
			writeError(w, http.StatusInternalServerError, msgLoadFailed)
			return
		}
		if doc, err = core.DecodeDocument(rec.Data); err != nil {
			s.structured.LogError(r.Context(), "Stored budget is unreadable", err, log.ComponentBudget, log.OpParse,
				log.NewFields().WithIdentity(identity))
			writeError(w, http.StatusInternalServerError, msgLoadFailed)
			return
		}
	}

	now := s.now()
	body, err := export.Render(format, doc, s.evaluator.Evaluate(doc), now)
	if err != nil {
		s.structured.LogError(r.Context(), "Export failed", err, log.ComponentExport, log.OpExport,
			log.NewFields().WithIdentity(identity))
		writeError(w, http.StatusInternalServerError, msgExportFailed)
		return
	}

	logger.InfoContext(r.Context(), "Budget exported", log.FieldFormat, string(format), log.FieldBytes, len(body))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format, now)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
