package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/lotmarket/internal/images"
	"github.com/atinyakov/lotmarket/internal/middleware"
	"github.com/atinyakov/lotmarket/internal/models"
)

// maxUploadMemory bounds the in-memory portion of a parsed multipart
// form; larger file parts spill to temporary files.
const maxUploadMemory = 32 << 20

// LotService defines the lot operations required by the HTTP handlers.
type LotService interface {
	Create(ctx context.Context, draft models.LotDraft, owner string, uploads []images.Upload) (models.Lot, error)
	Find(ctx context.Context, id string) (models.Lot, error)
	Update(ctx context.Context, id, requester string, patch models.LotPatch, uploads []images.Upload) (models.Lot, error)
	Delete(ctx context.Context, id, requester string) error
	List(ctx context.Context) ([]models.Lot, error)
}

// Authenticator verifies form credentials, for API clients that send
// username/password fields instead of a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, password string) (models.User, error)
}

// LotHandler handles HTTP requests for listing, creating, updating,
// and deleting lots.
type LotHandler struct {
	// Lots performs the underlying lot operations.
	Lots LotService
	// Auth resolves form credentials on create requests.
	Auth Authenticator
}

// List handles GET /api/lots and responds with all lots.
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Lots.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lots)
}

// Get handles GET /api/lots/{id}.
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	lot, err := h.Lots.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lot)
}

// Create handles POST /api/lots. The body is a multipart form with
// lot_name, lot_description, lot_start_price, and one or more
// lot_image files. The caller's identity comes from the bearer token
// or, failing that, from username/password form fields.
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	owner := middleware.GetUserFromContext(r.Context())
	if owner == "" {
		username, _ := formValue(r, "username")
		password, _ := formValue(r, "password")
		user, err := h.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		owner = user.Username
	}

	name, _ := formValue(r, "lot_name")
	description, _ := formValue(r, "lot_description")
	price := 0.0
	if raw, ok := formValue(r, "lot_start_price"); ok {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "start price must be a number", http.StatusBadRequest)
			return
		}
		price = parsed
	}

	uploads, err := readUploads(r)
	if err != nil {
		http.Error(w, "failed to read uploaded files", http.StatusBadRequest)
		return
	}

	draft := models.LotDraft{
		Name:        name,
		Description: description,
		StartPrice:  price,
		OriginIP:    remoteIP(r),
	}
	lot, err := h.Lots.Create(r.Context(), draft, owner, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(lot)
}

// Update handles PATCH /api/lots/{id}. Form fields that are present
// replace the stored values; clear_images=true drops the stored image
// references before any newly uploaded lot_image files are appended.
func (h *LotHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserFromContext(r.Context())
	if requester == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	var patch models.LotPatch
	if v, ok := formValue(r, "lot_name"); ok {
		patch.Name = &v
	}
	if v, ok := formValue(r, "lot_description"); ok {
		patch.Description = &v
	}
	if raw, ok := formValue(r, "lot_start_price"); ok {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "start price must be a number", http.StatusBadRequest)
			return
		}
		patch.StartPrice = &parsed
	}
	if raw, ok := formValue(r, "clear_images"); ok {
		clear, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "clear_images must be a boolean", http.StatusBadRequest)
			return
		}
		patch.ClearImages = clear
	}

	uploads, err := readUploads(r)
	if err != nil {
		http.Error(w, "failed to read uploaded files", http.StatusBadRequest)
		return
	}

	lot, err := h.Lots.Update(r.Context(), chi.URLParam(r, "id"), requester, patch, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lot)
}

// Delete handles DELETE /api/lots/{id}. Only the lot's owner may
// delete it; anyone else gets 403 rather than a silent no-op.
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserFromContext(r.Context())
	if requester == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Lots.Delete(r.Context(), chi.URLParam(r, "id"), requester); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// formValue reports a multipart form value and whether the field was
// present at all, which Update needs to distinguish "leave unchanged"
// from "set to empty".
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// readUploads reads every lot_image file part into memory.
func readUploads(r *http.Request) ([]images.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var uploads []images.Upload
	for _, fh := range r.MultipartForm.File["lot_image"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, images.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

// remoteIP extracts the caller's address without the port.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
