package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/validate"
)

// CreateItemRequest is a newly logged found item.
type CreateItemRequest struct {
	Name        string  `json:"name" validate:"notblank,max=200"`
	Description string  `json:"description" validate:"notblank,max=2000"`
	Category    string  `json:"category" validate:"category"`
	Location    string  `json:"location" validate:"notblank,max=200"`
	DateFound   string  `json:"dateFound" validate:"required"`
	Priority    string  `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
	StaffNotes  *string `json:"staffNotes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateItemRequest is a partial item update. Absent fields are untouched.
type UpdateItemRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,notblank,max=2000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,category"`
	Location    *string `json:"location,omitempty" validate:"omitempty,notblank,max=200"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
	StaffNotes  *string `json:"staffNotes,omitempty" validate:"omitempty,max=2000"`
	DateFound   *string `json:"dateFound,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active claimed archived"`
	// ClaimedByID records who picked the item up when Status moves to claimed.
	ClaimedByID *string `json:"claimedById,omitempty" validate:"omitempty,uuid"`
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the instant in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDateTo parses the upper bound of a date range. A bare date covers
// the whole day, so it is returned as the next midnight with exclusive set.
func ParseDateTo(s string) (t time.Time, exclusive bool, err error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d.AddDate(0, 0, 1), true, nil
	}
	t, err = ParseDate(s)
	return t, false, err
}

// CreateItem logs a found item with up to three photos. Photos are
// normalised to JPEG before they are stored.
func (s *Service) CreateItem(ctx context.Context, caller model.Caller, req CreateItemRequest, uploads []io.Reader) (*model.Item, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	found, err := ParseDate(req.DateFound)
	if err != nil {
		return nil, model.Invalid("dateFound", "must be YYYY-MM-DD or RFC 3339")
	}
	if len(uploads) > model.MaxPhotos {
		return nil, model.Invalid("photos", fmt.Sprintf("at most %d photos allowed", model.MaxPhotos))
	}

	refs, err := s.storePhotos(ctx, uploads)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Location:    strings.TrimSpace(req.Location),
		Photos:      refs,
		Priority:    req.Priority,
		StaffNotes:  req.StaffNotes,
		FoundByID:   &caller.ID,
		DateFound:   found,
	}
	err = db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		return store.CreateItem(ctx, tx, item, s.now())
	})
	if err != nil {
		s.deletePhotos(refs)
		return nil, err
	}

	slog.Info("item logged", "item", item.ID, "category", item.Category, "photos", len(refs), "user", caller.ID)
	return item, nil
}

func (s *Service) storePhotos(ctx context.Context, uploads []io.Reader) ([]string, error) {
	refs := []string{}
	if len(uploads) == 0 {
		return refs, nil
	}
	if s.photos == nil {
		return nil, errors.New("photo storage is not configured")
	}

	for i, r := range uploads {
		p, err := imaging.Process(r)
		if err != nil {
			s.deletePhotos(refs)
			if errors.Is(err, imaging.ErrTooLarge) || errors.Is(err, imaging.ErrUnsupported) {
				return nil, model.Invalid(fmt.Sprintf("photo_%d", i), err.Error())
			}
			return nil, model.Invalid(fmt.Sprintf("photo_%d", i), "could not read image")
		}
		ref, err := s.photos.Put(ctx, p.Data, p.MIME)
		if err != nil {
			s.deletePhotos(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// deletePhotos removes photos stored for a request that later failed.
func (s *Service) deletePhotos(refs []string) {
	for _, ref := range refs {
		if err := s.photos.Delete(context.Background(), ref); err != nil {
			slog.Warn("failed to remove orphaned photo", "ref", ref, "error", err)
		}
	}
}

// OpenPhoto returns the stored photo for ref.
func (s *Service) OpenPhoto(ctx context.Context, ref string) (io.ReadCloser, error) {
	if s.photos == nil {
		return nil, model.NotFound("photo")
	}
	return s.photos.Open(ctx, ref)
}

// UpdateItem applies a staff edit. The only status move allowed here is
// active→claimed, optionally recording who picked the item up; archiving
// belongs to the sweep.
func (s *Service) UpdateItem(ctx context.Context, caller model.Caller, id int64, req UpdateItemRequest) (*model.Item, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	patch := model.ItemPatch{
		Name:        trimmed(req.Name),
		Description: trimmed(req.Description),
		Category:    req.Category,
		Location:    trimmed(req.Location),
		Priority:    req.Priority,
		StaffNotes:  req.StaffNotes,
	}
	if req.DateFound != nil {
		found, err := ParseDate(*req.DateFound)
		if err != nil {
			return nil, model.Invalid("dateFound", "must be YYYY-MM-DD or RFC 3339")
		}
		patch.DateFound = &found
	}

	var item *model.Item
	err := db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		current, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return model.NotFound("item")
		}

		claim := req.Status != nil && *req.Status != current.Status
		if claim && (current.Status != model.ItemStatusActive || *req.Status != model.ItemStatusClaimed) {
			return model.Conflict(fmt.Sprintf("item cannot move from %s to %s", current.Status, *req.Status))
		}
		if req.ClaimedByID != nil && !claim {
			return model.Invalid("claimedById", "only allowed when marking the item claimed")
		}
		if req.ClaimedByID != nil {
			u, err := store.GetUser(ctx, tx, *req.ClaimedByID)
			if err != nil {
				return err
			}
			if u == nil {
				return model.Invalid("claimedById", "unknown user")
			}
		}

		now := s.now()
		if err := store.UpdateItem(ctx, tx, id, patch, now); err != nil {
			return err
		}
		if claim {
			ok, err := store.MarkItemClaimed(ctx, tx, id, req.ClaimedByID, now)
			if err != nil {
				return err
			}
			if !ok {
				return model.Conflict("item is no longer active")
			}
		}
		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("item updated", "item", id, "user", caller.ID)
	return item, nil
}

// GetItem returns an item. Staff notes are only shown to staff.
func (s *Service) GetItem(ctx context.Context, caller model.Caller, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NotFound("item")
	}
	redact(caller, item)
	return item, nil
}

// ListItems returns items matching f, newest first.
func (s *Service) ListItems(ctx context.Context, caller model.Caller, f model.ItemFilter) ([]model.Item, error) {
	if f.Category != "" && !model.ValidCategory(f.Category) {
		return nil, model.Invalid("category", "must be one of: "+strings.Join(model.Categories, ", "))
	}
	if f.Status != "" && f.Status != model.ItemStatusActive && f.Status != model.ItemStatusClaimed && f.Status != model.ItemStatusArchived {
		return nil, model.Invalid("status", "must be one of: active, claimed, archived")
	}

	items, err := store.ListItems(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	for i := range items {
		redact(caller, &items[i])
	}
	return items, nil
}

// ArchiveOldItems archives active items found at least days ago and returns
// how many changed. Zero days means the default.
func (s *Service) ArchiveOldItems(ctx context.Context, caller model.Caller, days int) (int64, error) {
	if err := requireStaff(caller); err != nil {
		return 0, err
	}
	return s.archive(ctx, days, caller.ID)
}

// ArchiveSweep runs the archive without a caller, for scheduled jobs and the
// command line.
func (s *Service) ArchiveSweep(ctx context.Context, days int) (int64, error) {
	return s.archive(ctx, days, "system")
}

func (s *Service) archive(ctx context.Context, days int, by string) (int64, error) {
	if days == 0 {
		days = model.DefaultArchiveDays
	}
	if days < 1 {
		return 0, model.Invalid("daysOld", "must be at least 1")
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -days)
	n, err := store.ArchiveItems(ctx, s.db, cutoff, now)
	if err != nil {
		return 0, err
	}
	slog.Info("archived old items", "count", n, "days", days, "user", by)
	return n, nil
}

func redact(caller model.Caller, item *model.Item) {
	if !caller.IsStaff() {
		item.StaffNotes = nil
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
