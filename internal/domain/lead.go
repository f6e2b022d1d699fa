/**
 * @description
 * This file defines the Lead model: a submitted quote plus the customer's
 * contact details, persisted for the sales team and announced downstream via
 * a lead.submitted event.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a quote request a customer chose to submit. The order and the
// server-computed breakdown are stored verbatim so the back office sees
// exactly what the customer was quoted.
type Lead struct {
	ID           uuid.UUID     `json:"id"`
	CustomerName string        `json:"customer_name"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email,omitempty"`
	Note         string        `json:"note,omitempty"`
	Order        OrderDetails  `json:"order"`
	Breakdown    CostBreakdown `json:"breakdown"`
	CreatedAt    time.Time     `json:"created_at"`
}

// LeadListOptions controls admin lead listing.
type LeadListOptions struct {
	Limit  int
	Offset int
}
