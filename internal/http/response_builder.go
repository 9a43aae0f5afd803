package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

type budgetResponse struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	LastUpdated string          `json:"last_updated,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func newBudgetResponse(rec storage.BudgetRecord) budgetResponse {
	return budgetResponse{
		Success:     true,
		Data:        json.RawMessage(rec.Data),
		LastUpdated: rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func emptyBudgetResponse() budgetResponse {
	return budgetResponse{Success: true, Data: nil, Message: msgNoBudget}
}

type categoryPayload struct {
	Category    string `json:"category"`
	Label       string `json:"label"`
	Total       string `json:"total"`
	ActualPct   string `json:"actual_pct"`
	IdealPct    string `json:"ideal_pct"`
	Deviation   string `json:"deviation"`
	Status      string `json:"status"`
	IdealAmount string `json:"ideal_amount"`
	Delta       string `json:"delta"`
}

type advicePayload struct {
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Tip      string `json:"tip,omitempty"`
}

type adjustmentPayload struct {
	Category   string `json:"category"`
	TargetPct  string `json:"target_pct"`
	NewAmount  string `json:"new_amount"`
	Difference string `json:"difference"`
	Status     string `json:"status"`
}

type analysisPayload struct {
	TotalIncome   string              `json:"total_income"`
	TotalExpense  string              `json:"total_expense"`
	Balance       string              `json:"balance"`
	BalanceStatus string              `json:"balance_status"`
	Categories    []categoryPayload   `json:"categories"`
	Errors        []string            `json:"errors"`
	Warnings      []string            `json:"warnings"`
	Advice        []advicePayload     `json:"advice"`
	Basics        []advicePayload     `json:"basics"`
	Adjustments   []adjustmentPayload `json:"adjustments"`
}

type analysisResponse struct {
	Success     bool            `json:"success"`
	Data        analysisPayload `json:"data"`
	LastUpdated string          `json:"last_updated"`
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newAnalysisPayload(rep advice.Report) analysisPayload {
	f := rep.Figures
	p := analysisPayload{
		TotalIncome:   fixed(f.TotalIncome),
		TotalExpense:  fixed(f.TotalExpense),
		Balance:       fixed(f.Balance),
		BalanceStatus: string(f.BalanceStatus),
		Categories:    make([]categoryPayload, 0, 3),
		Errors:        rep.Validation.Errors,
		Warnings:      rep.Validation.Warnings,
		Advice:        advicePayloads(rep.Advice),
		Basics:        advicePayloads(rep.Basics),
		Adjustments:   make([]adjustmentPayload, 0, len(rep.Adjustments)),
	}
	if p.Errors == nil {
		p.Errors = []string{}
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	for _, cf := range f.Categories() {
		p.Categories = append(p.Categories, categoryPayload{
			Category:    cf.Category.Key(),
			Label:       cf.Category.Label(),
			Total:       fixed(cf.Total),
			ActualPct:   fixed(cf.ActualPct),
			IdealPct:    fixed(cf.IdealPct),
			Deviation:   fixed(cf.Deviation),
			Status:      cf.Status.String(),
			IdealAmount: fixed(cf.IdealAmount),
			Delta:       fixed(cf.Delta),
		})
	}
	for _, a := range rep.Adjustments {
		p.Adjustments = append(p.Adjustments, adjustmentPayload{
			Category:   a.Category.Key(),
			TargetPct:  fixed(a.TargetPct),
			NewAmount:  fixed(a.NewAmount),
			Difference: fixed(a.Difference),
			Status:     a.Status.String(),
		})
	}
	return p
}

func advicePayloads(list []advice.Advice) []advicePayload {
	out := make([]advicePayload, 0, len(list))
	for _, a := range list {
		out = append(out, advicePayload{Priority: a.Priority.String(), Message: a.Message, Tip: a.Tip})
	}
	return out
}
