package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// maxItemForm bounds a multipart item upload: every photo plus form fields.
const maxItemForm = model.MaxPhotos*imaging.MaxUploadSize + 1<<20

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Service *service.Service
}

type archiveRequest struct {
	DaysOld int `json:"daysOld"`
}

type archiveResponse struct {
	ArchivedCount int64 `json:"archivedCount"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ItemFilter{
		Category: q.Get("category"),
		Location: q.Get("location"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
	}
	if v := q.Get("dateFrom"); v != "" {
		t, err := service.ParseDate(v)
		if err != nil {
			writeError(w, r, model.Invalid("dateFrom", "must be YYYY-MM-DD or RFC 3339"))
			return
		}
		f.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, exclusive, err := service.ParseDateTo(v)
		if err != nil {
			writeError(w, r, model.Invalid("dateTo", "must be YYYY-MM-DD or RFC 3339"))
			return
		}
		if exclusive {
			f.DateBefore = &t
		} else {
			f.DateTo = &t
		}
	}

	items, err := h.Service.ListItems(r.Context(), callerFrom(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Service.GetItem(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items. It accepts a JSON body or a multipart
// form whose photos are sent as photo_0 through photo_2.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateItemRequest
	var uploads []io.Reader

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxItemForm)
		if err := r.ParseMultipartForm(maxItemForm); err != nil {
			jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		req = service.CreateItemRequest{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Location:    r.FormValue("location"),
			DateFound:   r.FormValue("dateFound"),
			Priority:    r.FormValue("priority"),
		}
		if notes := r.FormValue("staffNotes"); notes != "" {
			req.StaffNotes = &notes
		}

		for i := 0; i < model.MaxPhotos; i++ {
			file, _, err := r.FormFile(fmt.Sprintf("photo_%d", i))
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid photo upload")
				return
			}
			defer file.Close()
			uploads = append(uploads, file)
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.CreateItem(r.Context(), callerFrom(r), req, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.UpdateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), callerFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Archive handles POST /api/archive-old-items. An empty body uses the
// default age.
func (h *ItemsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	n, err := h.Service.ArchiveOldItems(r.Context(), callerFrom(r), req.DaysOld)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, archiveResponse{ArchivedCount: n})
}
