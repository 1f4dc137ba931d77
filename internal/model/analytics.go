package model

import "time"

// Analytics summarises the office's inventory and claim load.
type Analytics struct {
	TotalItems    int             `json:"totalItems"`
	ItemsReturned int             `json:"itemsReturned"`
	PendingClaims int             `json:"pendingClaims"`
	RecoveryRate  float64         `json:"recoveryRate"`
	CategoryStats []CategoryCount `json:"categoryStats"`
	LocationStats []LocationCount `json:"locationStats"`
}

// CategoryCount is the number of items in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// LocationCount is the number of items found at one location.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// ReportRow is one line of the exported item report.
type ReportRow struct {
	ItemID        int64
	Name          string
	Category      string
	Location      string
	DateFound     time.Time
	Status        string
	Priority      string
	ClaimsCount   int
	LastClaimDate *time.Time
}
