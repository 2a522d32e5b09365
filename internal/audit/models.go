package audit

import (
	"time"

	id "lineage/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	OwnerID   id.UserID `json:"owner_id"`
	Action    Action    `json:"action"`
	// Subject identifies what the action touched: a person id for analysis
	// runs, an access request id for the request workflow.
	Subject   string `json:"subject,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Action string

const (
	ActionAnalysisStarted     Action = "analysis_started"
	ActionAnalysisCompleted   Action = "analysis_completed"
	ActionAnalysisFailed      Action = "analysis_failed"
	ActionAccessRequested     Action = "access_requested"
	ActionAccessResponded     Action = "access_responded"
	ActionSuggestionProcessed Action = "suggestion_processed"
)
