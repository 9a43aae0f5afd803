package http

import (
	"errors"
	"net/http"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

// loadRecord returns the latest record of identity, consulting the record
// cache first.
func (s *Server) loadRecord(r *http.Request, identity string) (storage.BudgetRecord, error) {
	if rec, ok := s.records.Get(identity); ok {
		return rec, nil
	}
	rec, err := s.repo.GetBudget(r.Context(), identity)
	if err != nil {
		return storage.BudgetRecord{}, err
	}
	s.records.Set(identity, rec)
	return rec, nil
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	logger := log.FromContext(r.Context())

	rec, err := s.loadRecord(r, identity)
	if errors.Is(err, storage.ErrBudgetNotFound) {
		writeJSON(w, http.StatusOK, emptyBudgetResponse())
		return
	}
	if err != nil {
		s.structured.LogError(r.Context(), "Budget load failed", err, log.ComponentStorage, log.OpLoad,
			log.NewFields().WithIdentity(identity))
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	logger.DebugContext(r.Context(), "Budget loaded", log.FieldBytes, len(rec.Data))
	writeJSON(w, http.StatusOK, newBudgetResponse(rec))
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	logger := log.FromContext(r.Context())

	req, err := readBudgetRequest(w, r)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid save request", log.FieldError, err, log.FieldOperation, log.OpParse)
		writeError(w, http.StatusBadRequest, msgInvalidBudget)
		return
	}
	doc, err := req.document()
	if err != nil {
		logger.WarnContext(r.Context(), "Rejected budget document", log.FieldError, err, log.FieldOperation, log.OpValidate)
		writeError(w, http.StatusBadRequest, msgInvalidBudget)
		return
	}

	data, err := core.EncodeDocument(doc)
	if err != nil {
		s.structured.LogError(r.Context(), "Budget encode failed", err, log.ComponentBudget, log.OpSave,
			log.NewFields().WithIdentity(identity))
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	s.records.Delete(identity)
	rec, err := s.repo.UpsertBudget(r.Context(), identity, data)
	if err != nil {
		s.structured.LogError(r.Context(), "Budget save failed", err, log.ComponentStorage, log.OpSave,
			log.NewFields().WithIdentity(identity))
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	s.records.Set(identity, rec)

	f := analysis.DeriveCanonical(doc)
	s.structured.LogBudgetSaved(r.Context(), identity, len(doc.Income), doc.Expenses.Count(),
		f.TotalIncome.StringFixed(2), f.TotalExpense.StringFixed(2))

	if s.publisher != nil {
		if err := s.publisher.PublishBudgetSaved(r.Context(), identity, rec.UpdatedAt); err != nil {
			logger.WarnContext(r.Context(), "Failed to publish budget saved event",
				log.FieldError, err, log.FieldOperation, log.OpPublish)
		}
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgSaved})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

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

	doc, err := core.DecodeDocument(rec.Data)
	if err != nil {
		s.structured.LogError(r.Context(), "Stored budget is unreadable", err, log.ComponentBudget, log.OpParse,
			log.NewFields().WithIdentity(identity))
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	rep := s.evaluator.Evaluate(doc)
	writeJSON(w, http.StatusOK, analysisResponse{
		Success:     true,
		Data:        newAnalysisPayload(rep),
		LastUpdated: newBudgetResponse(rec).LastUpdated,
	})
}
