package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/export"
)

// maxBodyBytes bounds request bodies; a budget document is a few KB.
const maxBodyBytes = 1 << 20

var (
	errMissingBudget    = errors.New("missing budget_data")
	errIncompleteBudget = errors.New("budget_data must contain ingresos, gastos and distribucion")
)

type budgetRequest struct {
	BudgetData json.RawMessage `json:"budget_data"`
	Format     string          `json:"format,omitempty"`
}

// readBudgetRequest decodes a JSON body. An empty body yields an empty
// request so callers can decide whether budget_data is optional.
func readBudgetRequest(w http.ResponseWriter, r *http.Request) (budgetRequest, error) {
	var req budgetRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

// hasBudget reports whether budget_data was sent and is not null.
func (req budgetRequest) hasBudget() bool {
	raw := strings.TrimSpace(string(req.BudgetData))
	return raw != "" && raw != "null"
}

// document validates the structure of budget_data and decodes it.
func (req budgetRequest) document() (core.Document, error) {
	if !req.hasBudget() {
		return core.Document{}, errMissingBudget
	}
	if !core.HasRequiredSections(req.BudgetData) {
		return core.Document{}, errIncompleteBudget
	}
	return core.DecodeDocument(req.BudgetData)
}

// exportFormat takes the format from the query string, falling back to the
// JSON body.
func exportFormat(r *http.Request, req budgetRequest) (export.Format, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = req.Format
	}
	return export.ParseFormat(raw)
}
