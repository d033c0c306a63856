// Package protocol defines shapes shared between the tool layer and
// the MCP runtime.
package protocol

// Tool call statuses recorded in audit events.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Summary counts per-item outcomes of a batch tool call. A batch call
// reports Total == Succeeded + Failed and never fails as a whole
// because of individual items.
type Summary struct {
	// Total is the number of inputs.
	Total int `json:"total"`
	// Succeeded counts items that produced a value.
	Succeeded int `json:"succeeded"`
	// Failed counts items recorded as failures.
	Failed int `json:"failed"`
}
