package models

// GuardrailCodeDepositRequired is the only guardrail code currently emitted
// by actions; the coordinator forwards it without interpreting it.
const GuardrailCodeDepositRequired = "DEPOSIT_REQUIRED"

// GuardrailPayload is the structured payload an action supplies when a
// pre-condition check suspends the run instead of failing it. The coordinator
// never interprets these fields; it forwards them verbatim on the event
// channel so the caller can react (e.g. prompt funding).
type GuardrailPayload struct {
	Code          string `json:"code"`
	TokenSymbol   string `json:"token_symbol"`
	TokenAddress  string `json:"token_address,omitempty"`
	IsNative      bool   `json:"is_native"`
	AmountRaw     string `json:"amount_raw"`
	AmountDecimal string `json:"amount_decimal"`
	Decimals      int    `json:"decimals"`
	Account       string `json:"account"`
	WorkflowID    string `json:"workflow_id"`
}

// PauseState is the durable snapshot of a suspended run, persisted under
// (workflowId, jobId) when a guardrail fails and consumed exactly once by a
// resume. The process may terminate entirely between pause and resume.
type PauseState struct {
	Context          map[string]any `json:"context"`
	RemainingActions []*Node        `json:"remaining_actions"`
	Globals          map[string]any `json:"globals,omitempty"`
	SpreadsheetID    string         `json:"spreadsheet_id,omitempty"`
}
