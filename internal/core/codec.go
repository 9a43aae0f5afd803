package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// The persisted document keeps the field names used by the browser
// application so previously saved budgets remain readable:
//
//	{
//	  "ingresos": [{"id": "...", "concepto": "Nómina", "cantidad": 2000, "tipo": "mensual"}],
//	  "gastos": {"necesidades": [...], "deseos": [...], "ahorroInversion": [...]},
//	  "distribucion": {"necesidades": 50, "deseos": 30, "ahorroInversion": 20}
//	}

const wireCadenceMonthly = "mensual"

type wireEntry struct {
	ID       entryID `json:"id"`
	Concepto string  `json:"concepto"`
	Cantidad Amount  `json:"cantidad"`
	Tipo     string  `json:"tipo,omitempty"`
}

type wireExpenses struct {
	Necesidades     []wireEntry `json:"necesidades"`
	Deseos          []wireEntry `json:"deseos"`
	AhorroInversion []wireEntry `json:"ahorroInversion"`
}

type wireDistribution struct {
	Necesidades     Amount `json:"necesidades"`
	Deseos          Amount `json:"deseos"`
	AhorroInversion Amount `json:"ahorroInversion"`
}

type wireDocument struct {
	Ingresos     []wireEntry       `json:"ingresos"`
	Gastos       wireExpenses      `json:"gastos"`
	Distribucion *wireDistribution `json:"distribucion"`
}

// entryID accepts both string ids and the numeric timestamp ids written by
// older clients, and always writes a string.
type entryID string

func (id *entryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode entry id: %w", err)
		}
		*id = entryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode entry id: %w", err)
	}
	*id = entryID(n.String())
	return nil
}

func (e Expenses) wire() wireExpenses {
	return wireExpenses{
		Necesidades:     expensesToWire(e.Needs),
		Deseos:          expensesToWire(e.Wants),
		AhorroInversion: expensesToWire(e.Savings),
	}
}

func expensesToWire(entries []ExpenseEntry) []wireEntry {
	out := make([]wireEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, wireEntry{ID: entryID(e.ID), Concepto: e.Label, Cantidad: e.Amount})
	}
	return out
}

// expensesFromWire mints an id for entries stored without one, so only
// documents that already carry ids decode identically every time.
func expensesFromWire(c Category, entries []wireEntry) []ExpenseEntry {
	out := make([]ExpenseEntry, 0, len(entries))
	for _, w := range entries {
		id := string(w.ID)
		if id == "" {
			id = NewID()
		}
		out = append(out, ExpenseEntry{ID: id, Label: w.Concepto, Amount: w.Cantidad, Category: c})
	}
	return out
}

// MarshalJSON encodes the document in its persisted form.
func (d Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{
		Ingresos: make([]wireEntry, 0, len(d.Income)),
		Gastos:   d.Expenses.wire(),
		Distribucion: &wireDistribution{
			Necesidades:     NewAmount(d.Target.Needs),
			Deseos:          NewAmount(d.Target.Wants),
			AhorroInversion: NewAmount(d.Target.Savings),
		},
	}
	for _, in := range d.Income {
		w.Ingresos = append(w.Ingresos, wireEntry{
			ID:       entryID(in.ID),
			Concepto: in.Label,
			Cantidad: in.Amount,
			Tipo:     wireCadenceMonthly,
		})
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a persisted document. Missing sections default to
// empty sequences and a missing distribution defaults to 50/30/20. Entries
// without an id receive a fresh one.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode budget document: %w", err)
	}

	doc := NewDocument()
	for _, in := range w.Ingresos {
		id := string(in.ID)
		if id == "" {
			id = NewID()
		}
		doc.Income = append(doc.Income, IncomeEntry{
			ID:      id,
			Label:   in.Concepto,
			Amount:  in.Cantidad,
			Cadence: CadenceMonthly,
		})
	}
	doc.Expenses = Expenses{
		Needs:   expensesFromWire(Needs, w.Gastos.Necesidades),
		Wants:   expensesFromWire(Wants, w.Gastos.Deseos),
		Savings: expensesFromWire(Savings, w.Gastos.AhorroInversion),
	}
	if w.Distribucion != nil {
		doc.Target = TargetDistribution{
			Needs:   w.Distribucion.Necesidades.Decimal(),
			Wants:   w.Distribucion.Deseos.Decimal(),
			Savings: w.Distribucion.AhorroInversion.Decimal(),
		}
	}

	*d = doc
	return nil
}

// EncodeDocument returns the persisted JSON form of d.
func EncodeDocument(d Document) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode budget document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses the persisted JSON form.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// HasRequiredSections reports whether a raw persisted document carries the
// ingresos, gastos and distribucion keys.
func HasRequiredSections(raw json.RawMessage) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for _, key := range []string{"ingresos", "gastos", "distribucion"} {
		v, ok := fields[key]
		if !ok || strings.TrimSpace(string(v)) == "null" {
			return false
		}
	}
	return true
}
