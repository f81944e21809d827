package psp

import "time"

// ListDisputesRequest pages through disputes.
type ListDisputesRequest struct {
	PaymentID     string `json:"payment_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// SubmitEvidenceRequest uploads evidence for a dispute.
type SubmitEvidenceRequest struct {
	DisputeID string         `json:"dispute_id" validate:"required"`
	Evidence  map[string]any `json:"evidence" validate:"required"`
}

// DisputeResponse is a provider-independent view of a dispute.
type DisputeResponse struct {
	DisputeID     string     `json:"dispute_id"`
	PaymentID     string     `json:"payment_id"`
	Amount        Money      `json:"amount"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	EvidenceDueBy *time.Time `json:"evidence_due_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
