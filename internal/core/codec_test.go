package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleDocument() Document {
	d := NewDocument()
	d.Income = []IncomeEntry{{ID: NewID(), Label: "Salary", Amount: AmountFromInt(2000), Cadence: CadenceMonthly}}
	d.Expenses.Needs = []ExpenseEntry{{ID: NewID(), Label: "Rent", Amount: AmountFromInt(1000), Category: Needs}}
	d.Expenses.Savings = []ExpenseEntry{{ID: NewID(), Label: "Fund", Amount: AmountFromFloat(200.5), Category: Savings}}
	d.Target = TargetDistribution{Needs: dec("55"), Wants: dec("25.5"), Savings: dec("19.5")}
	return d
}

func TestDocumentRoundTrip(t *testing.T) {
	d := sampleDocument()
	data, err := EncodeDocument(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("round trip mismatch\nwant %+v\ngot  %+v", d, got)
	}

	again, err := EncodeDocument(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(again) != string(data) {
		t.Fatalf("encoding not idempotent\n%s\n%s", data, again)
	}
}

func TestDocumentWireKeys(t *testing.T) {
	data, err := EncodeDocument(sampleDocument())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, key := range []string{`"ingresos"`, `"gastos"`, `"necesidades"`, `"deseos":[]`, `"ahorroInversion"`, `"distribucion"`, `"concepto":"Rent"`, `"cantidad":1000`, `"tipo":"mensual"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("encoded document missing %s: %s", key, data)
		}
	}
}

func TestDecodeLegacyDocument(t *testing.T) {
	legacy := `{
		"ingresos": [{"id": 1700000000000, "concepto": "Nómina", "cantidad": "1500,50", "tipo": "mensual"}],
		"gastos": {
			"necesidades": [{"id": 1700000000001, "concepto": "Alquiler", "cantidad": 700}],
			"deseos": [{"concepto": "Cine", "cantidad": "mucho"}]
		}
	}`
	d, err := DecodeDocument([]byte(legacy))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Income[0].ID != "1700000000000" {
		t.Fatalf("numeric id not preserved: %q", d.Income[0].ID)
	}
	if d.Income[0].Amount.String() != "1500.50" {
		t.Fatalf("string amount not parsed: %s", d.Income[0].Amount)
	}
	if d.Expenses.Wants[0].ID == "" {
		t.Fatalf("missing id should be generated")
	}
	if d.Expenses.Wants[0].Amount.Valid() {
		t.Fatalf("garbage amount should be invalid")
	}
	if d.Expenses.Savings == nil || len(d.Expenses.Savings) != 0 {
		t.Fatalf("missing category should decode as empty sequence")
	}
	if !d.Target.Equal(IdealDistribution()) {
		t.Fatalf("missing distribution should default to ideal")
	}
	if d.Expenses.Needs[0].Category != Needs {
		t.Fatalf("category not assigned from section key")
	}
}

func TestMissingIDsAreAssignedOnceThenStable(t *testing.T) {
	raw := []byte(`{"ingresos":[{"id":"","concepto":"Nómina","cantidad":1200}],"gastos":{"necesidades":[{"concepto":"Luz","cantidad":40}]},"distribucion":{"necesidades":50,"deseos":30,"ahorroInversion":20}}`)

	first, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, _ := DecodeDocument(raw)
	if first.Income[0].ID == "" || first.Expenses.Needs[0].ID == "" {
		t.Fatalf("empty ids should be replaced")
	}
	if first.Income[0].ID == second.Income[0].ID {
		t.Fatalf("each decode of an id-less entry should mint a new id")
	}

	data, err := EncodeDocument(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !again.Equal(first) {
		t.Fatalf("once assigned, ids should survive a round trip")
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	if _, err := DecodeDocument([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array payload")
	}
}

func TestHasRequiredSections(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{`{"ingresos":[],"gastos":{},"distribucion":{}}`, true},
		{`{"ingresos":[],"gastos":{}}`, false},
		{`{"ingresos":[],"gastos":null,"distribucion":{}}`, false},
		{`"text"`, false},
	}
	for _, tc := range cases {
		if got := HasRequiredSections(json.RawMessage(tc.raw)); got != tc.ok {
			t.Fatalf("%s: got %v, want %v", tc.raw, got, tc.ok)
		}
	}
}
