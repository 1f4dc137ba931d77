package model

import "time"

// Claim is a student's request to recover an item.
type Claim struct {
	ID           int64      `json:"id"`
	ItemID       int64      `json:"itemId"`
	StudentID    string     `json:"studentId"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	StaffNotes   *string    `json:"staffNotes,omitempty"`
	ReviewedByID *string    `json:"reviewedById,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Joined fields (not always populated).
	ItemName    string `json:"itemName,omitempty"`
	StudentName string `json:"studentName,omitempty"`
}

// Claim statuses.
const (
	ClaimStatusPending        = "pending"
	ClaimStatusApproved       = "approved"
	ClaimStatusRejected       = "rejected"
	ClaimStatusMoreInfoNeeded = "more_info_needed"
)

// ValidReviewStatus reports whether s is a status staff can set on review.
func ValidReviewStatus(s string) bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusRejected, ClaimStatusMoreInfoNeeded:
		return true
	}
	return false
}

// ValidClaimStatus reports whether s is any claim status.
func ValidClaimStatus(s string) bool {
	return s == ClaimStatusPending || ValidReviewStatus(s)
}

// Terminal reports whether the claim can no longer change.
func (c *Claim) Terminal() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}

// Open reports whether the claim is still awaiting a final decision.
func (c *Claim) Open() bool {
	return c.Status == ClaimStatusPending || c.Status == ClaimStatusMoreInfoNeeded
}

// ClaimFilter narrows ListClaims. Zero fields are ignored.
type ClaimFilter struct {
	Status    string
	ItemID    int64
	StudentID string
}
