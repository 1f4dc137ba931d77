package service

import (
	"context"
	"io"
	"math"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/report"
	"github.com/erazemk/najdeno/internal/store"
)

// Analytics summarises inventory and claims for staff dashboards.
func (s *Service) Analytics(ctx context.Context, caller model.Caller) (*model.Analytics, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	total, returned, err := store.ItemCounts(ctx, s.db)
	if err != nil {
		return nil, err
	}
	pending, err := store.CountClaimsByStatus(ctx, s.db, model.ClaimStatusPending)
	if err != nil {
		return nil, err
	}
	categories, err := store.CategoryStats(ctx, s.db)
	if err != nil {
		return nil, err
	}
	locations, err := store.LocationStats(ctx, s.db)
	if err != nil {
		return nil, err
	}

	return &model.Analytics{
		TotalItems:    total,
		ItemsReturned: returned,
		PendingClaims: pending,
		RecoveryRate:  recoveryRate(returned, total),
		CategoryStats: categories,
		LocationStats: locations,
	}, nil
}

// recoveryRate is returned/total as a percentage rounded to two decimals.
func recoveryRate(returned, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(returned)/float64(total)*100*100) / 100
}

// ItemReport returns the rows of the item report.
func (s *Service) ItemReport(ctx context.Context, caller model.Caller) ([]model.ReportRow, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return store.ListItemReport(ctx, s.db)
}

// WriteReport renders the item report as CSV to w. It skips the permission
// check and is meant for the command line.
func (s *Service) WriteReport(ctx context.Context, w io.Writer) error {
	rows, err := store.ListItemReport(ctx, s.db)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, rows)
}
