package model

import "time"

// Item is a found object logged by staff.
type Item struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Location     string     `json:"location"`
	Photos       []string   `json:"photos"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	StaffNotes   *string    `json:"staffNotes,omitempty"`
	FoundByID    *string    `json:"foundById,omitempty"`
	ClaimedByID  *string    `json:"claimedById,omitempty"`
	DateFound    time.Time  `json:"dateFound"`
	DateArchived *time.Time `json:"dateArchived,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Item statuses. Items only move active→claimed or active→archived.
const (
	ItemStatusActive   = "active"
	ItemStatusClaimed  = "claimed"
	ItemStatusArchived = "archived"
)

// Item priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Categories lists every accepted item category.
var Categories = []string{
	"electronics",
	"clothing",
	"books",
	"accessories",
	"sports",
	"jewelry",
	"other",
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// MaxPhotos is the number of photos an item can carry.
const MaxPhotos = 3

// DefaultArchiveDays is the age after which the sweep archives active items.
const DefaultArchiveDays = 30

// ItemFilter narrows ListItems. Zero fields are ignored. DateFrom and DateTo
// are inclusive, DateBefore is exclusive.
type ItemFilter struct {
	Category   string
	Location   string
	Status     string
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
	DateBefore *time.Time
}

// ItemPatch carries the fields of an item update. Nil fields are untouched.
// Status is not part of it; see MarkItemClaimed and ArchiveItems.
type ItemPatch struct {
	Name        *string
	Description *string
	Category    *string
	Location    *string
	Priority    *string
	StaffNotes  *string
	DateFound   *time.Time
}
