package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseStatement decodes a statement leniently. Numeric fields may be numbers,
// numeric strings ("$1,200", "(300)") or null; anything non-numeric becomes 0.
// Unknown keys are ignored.
func ParseStatement(data []byte) (*Statement, error) {
	var s Statement
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UnmarshalJSON implements the lenient decoding used for model output and
// persisted document data alike.
func (s *Statement) UnmarshalJSON(data []byte) error {
	var raw struct {
		CompanyName     json.RawMessage   `json:"company_name"`
		Period          json.RawMessage   `json:"period"`
		Currency        json.RawMessage   `json:"currency"`
		IncomeStatement json.RawMessage   `json:"income_statement"`
		BalanceSheet    json.RawMessage   `json:"balance_sheet"`
		CashFlow        json.RawMessage   `json:"cash_flow"`
		Adjustments     []json.RawMessage `json:"adjustments"`
		Notes           []json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("statement is not a JSON object: %w", err)
	}

	out := Statement{
		CompanyName: parseText(raw.CompanyName),
		Period:      parseText(raw.Period),
		Currency:    parseText(raw.Currency),
		Adjustments: []Adjustment{},
		Notes:       []string{},
	}

	fillSection(raw.IncomeStatement, &out.IncomeStatement, IncomeFields)
	fillSection(raw.BalanceSheet, &out.BalanceSheet, BalanceFields)
	fillSection(raw.CashFlow, &out.CashFlow, CashFlowFields)

	for _, item := range raw.Adjustments {
		var adj struct {
			Description json.RawMessage `json:"description"`
			Amount      json.RawMessage `json:"amount"`
			Category    json.RawMessage `json:"category"`
		}
		if err := json.Unmarshal(item, &adj); err != nil {
			continue
		}
		out.Adjustments = append(out.Adjustments, Adjustment{
			Description: parseText(adj.Description),
			Amount:      parseNumber(adj.Amount),
			Category:    NormalizeCategory(parseText(adj.Category)),
		})
	}

	for _, item := range raw.Notes {
		if note := parseNote(item); note != "" {
			out.Notes = append(out.Notes, note)
		}
	}

	*s = out
	return nil
}

func fillSection[T any](raw json.RawMessage, target *T, fields []Field[T]) {
	if len(raw) == 0 {
		return
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return
	}
	for _, f := range fields {
		if v, ok := values[f.Name]; ok {
			*f.Ref(target) = parseNumber(v)
		}
	}
}

var amountNoise = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "%", "")

// ParseAmount converts a formatted amount to a float. Parentheses denote a
// negative value. Returns 0 when the text is not a finite number.
func ParseAmount(text string) float64 {
	text = strings.TrimSpace(text)
	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}
	text = amountNoise.Replace(text)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

func parseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}
	return 0
}

func parseText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// Notes arrive either as plain strings or as {"note": "..."} objects.
func parseNote(raw json.RawMessage) string {
	if s := parseText(raw); s != "" {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return parseText(obj["note"])
}
