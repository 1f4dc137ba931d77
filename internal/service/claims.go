package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/validate"
)

// SubmitClaimRequest is a student's claim on an item.
type SubmitClaimRequest struct {
	ItemID      int64  `json:"itemId" validate:"required,gt=0"`
	Description string `json:"description" validate:"notblank,max=2000"`
}

// ReviewClaimRequest is a staff decision on a claim.
type ReviewClaimRequest struct {
	Status     string  `json:"status" validate:"required,oneof=approved rejected more_info_needed"`
	StaffNotes *string `json:"staffNotes,omitempty" validate:"omitempty,max=2000"`
}

// ReviseClaimRequest is the claimant's answer to a more_info_needed review.
type ReviseClaimRequest struct {
	Description string `json:"description" validate:"notblank,max=2000"`
}

// SubmitClaim files a pending claim for the calling student and tells staff.
func (s *Service) SubmitClaim(ctx context.Context, caller model.Caller, req SubmitClaimRequest) (*model.Claim, error) {
	if err := requireStudent(caller); err != nil {
		return nil, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var claim *model.Claim
	var ev notify.Event
	err := db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		item, err := store.GetItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return model.NotFound("item")
		}
		if item.Status != model.ItemStatusActive {
			return model.Conflict("item is no longer available for claims")
		}

		open, err := store.HasOpenClaim(ctx, tx, item.ID, caller.ID)
		if err != nil {
			return err
		}
		if open {
			return model.Conflict("you already have an open claim for this item")
		}

		claim, err = store.CreateClaim(ctx, tx, item.ID, caller.ID, req.Description, s.now())
		if err != nil {
			return err
		}

		ev, err = s.notifyStaff(ctx, tx, model.Notification{
			Title:          TitleClaimSubmitted,
			Message:        fmt.Sprintf("%s submitted a claim for %s", nameOr(claim.StudentName, "A student"), item.Name),
			Type:           model.NotificationInfo,
			RelatedItemID:  &item.ID,
			RelatedClaimID: &claim.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim submitted", "claim", claim.ID, "item", claim.ItemID, "user", caller.ID)
	s.publish(ev)
	return claim, nil
}

// ReviewClaim records a staff decision. Approving a claim hands the item to
// the claimant in the same transaction.
func (s *Service) ReviewClaim(ctx context.Context, caller model.Caller, id int64, req ReviewClaimRequest) (*model.Claim, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if req.StaffNotes != nil {
		notes := strings.TrimSpace(*req.StaffNotes)
		req.StaffNotes = &notes
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Status == model.ClaimStatusMoreInfoNeeded && (req.StaffNotes == nil || *req.StaffNotes == "") {
		return nil, model.Invalid("staffNotes", "is required when asking for more information")
	}

	var claim *model.Claim
	var ev notify.Event
	err := db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		var err error
		claim, err = store.GetClaim(ctx, tx, id)
		if err != nil {
			return err
		}
		if claim == nil {
			return model.NotFound("claim")
		}
		if claim.Terminal() {
			return model.Conflict(fmt.Sprintf("claim is already %s", claim.Status))
		}

		now := s.now()
		if req.Status == model.ClaimStatusApproved {
			ok, err := store.MarkItemClaimed(ctx, tx, claim.ItemID, &claim.StudentID, now)
			if err != nil {
				return err
			}
			if !ok {
				return model.Conflict("item is no longer available")
			}
		}

		if err := store.ReviewClaim(ctx, tx, id, req.Status, req.StaffNotes, caller.ID, now); err != nil {
			return err
		}
		claim, err = store.GetClaim(ctx, tx, id)
		if err != nil {
			return err
		}

		typ := model.NotificationInfo
		if req.Status == model.ClaimStatusApproved {
			typ = model.NotificationSuccess
		}
		ev, err = s.notifyUsers(ctx, tx, []string{claim.StudentID}, model.Notification{
			Title:          TitleClaimUpdated,
			Message:        reviewMessage(claim),
			Type:           typ,
			RelatedItemID:  &claim.ItemID,
			RelatedClaimID: &claim.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim reviewed", "claim", claim.ID, "status", claim.Status, "user", caller.ID)
	s.publish(ev)
	return claim, nil
}

// ReviseClaim lets the claimant answer a more_info_needed review. The claim
// goes back to pending and staff are told.
func (s *Service) ReviseClaim(ctx context.Context, caller model.Caller, id int64, req ReviseClaimRequest) (*model.Claim, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var claim *model.Claim
	var ev notify.Event
	err := db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		var err error
		claim, err = store.GetClaim(ctx, tx, id)
		if err != nil {
			return err
		}
		if claim == nil || claim.StudentID != caller.ID {
			return model.NotFound("claim")
		}
		if claim.Status != model.ClaimStatusMoreInfoNeeded {
			return model.Conflict("only claims waiting for more information can be revised")
		}

		if err := store.ReviseClaim(ctx, tx, id, req.Description, s.now()); err != nil {
			return err
		}
		claim, err = store.GetClaim(ctx, tx, id)
		if err != nil {
			return err
		}

		ev, err = s.notifyStaff(ctx, tx, model.Notification{
			Title:          TitleClaimSubmitted,
			Message:        fmt.Sprintf("%s added information to a claim for %s", nameOr(claim.StudentName, "A student"), claim.ItemName),
			Type:           model.NotificationInfo,
			RelatedItemID:  &claim.ItemID,
			RelatedClaimID: &claim.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim revised", "claim", claim.ID, "user", caller.ID)
	s.publish(ev)
	return claim, nil
}

// ListClaims returns claims matching f. Students only ever see their own.
func (s *Service) ListClaims(ctx context.Context, caller model.Caller, f model.ClaimFilter) ([]model.Claim, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if f.Status != "" && !model.ValidClaimStatus(f.Status) {
		return nil, model.Invalid("status", "must be one of: pending, approved, rejected, more_info_needed")
	}
	if !caller.IsStaff() {
		f.StudentID = caller.ID
	}
	return store.ListClaims(ctx, s.db, f)
}

// GetClaim returns a claim. Students cannot see other students' claims.
func (s *Service) GetClaim(ctx context.Context, caller model.Caller, id int64) (*model.Claim, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	claim, err := store.GetClaim(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if claim == nil || (!caller.IsStaff() && claim.StudentID != caller.ID) {
		return nil, model.NotFound("claim")
	}
	return claim, nil
}

func reviewMessage(c *model.Claim) string {
	switch c.Status {
	case model.ClaimStatusApproved:
		return fmt.Sprintf("Your claim for %s has been approved", c.ItemName)
	case model.ClaimStatusRejected:
		return fmt.Sprintf("Your claim for %s has been rejected", c.ItemName)
	default:
		return fmt.Sprintf("Your claim for %s needs more information", c.ItemName)
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
