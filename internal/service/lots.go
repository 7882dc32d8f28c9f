package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/lotmarket/internal/common"
	"github.com/atinyakov/lotmarket/internal/images"
	"github.com/atinyakov/lotmarket/internal/models"
)

// LotRepository defines the persistence operations required by the lot
// service.
type LotRepository interface {
	Create(ctx context.Context, draft models.LotDraft, owner string, imageRefs []string) (models.Lot, error)
	Find(ctx context.Context, id string) (models.Lot, error)
	Update(ctx context.Context, id, requester string, patch models.LotPatch) (models.Lot, error)
	Delete(ctx context.Context, id, requester string) error
	List(ctx context.Context) ([]models.Lot, error)
}

// ImageStager validates and persists uploaded image blobs.
type ImageStager interface {
	// StageAll stages every upload or none of them.
	StageAll(uploads []images.Upload) ([]string, error)
	// Discard removes previously staged blobs.
	Discard(refs []string)
}

// LotService coordinates image staging with lot persistence so that a
// failed create or update never leaves orphan image files behind.
type LotService struct {
	repo  LotRepository
	store ImageStager
}

// NewLotService constructs a LotService from a repository and an image
// stager.
func NewLotService(repo LotRepository, store ImageStager) *LotService {
	return &LotService{repo: repo, store: store}
}

// Create validates the draft, stages the uploaded images, and creates
// the lot. At least one image is required. If the record cannot be
// created after staging, the staged blobs are discarded.
func (s *LotService) Create(ctx context.Context, draft models.LotDraft, owner string, uploads []images.Upload) (models.Lot, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return models.Lot{}, fmt.Errorf("%w: lot name is required", common.ErrValidation)
	}
	if draft.StartPrice < 0 {
		return models.Lot{}, fmt.Errorf("%w: start price must not be negative", common.ErrValidation)
	}
	if len(uploads) == 0 {
		return models.Lot{}, fmt.Errorf("%w: at least one image is required", common.ErrValidation)
	}

	refs, err := s.store.StageAll(uploads)
	if err != nil {
		return models.Lot{}, err
	}
	lot, err := s.repo.Create(ctx, draft, owner, refs)
	if err != nil {
		s.store.Discard(refs)
		return models.Lot{}, err
	}
	return lot, nil
}

// Find returns the lot with the given id.
func (s *LotService) Find(ctx context.Context, id string) (models.Lot, error) {
	return s.repo.Find(ctx, id)
}

// Update stages any newly uploaded images, appends their references to
// the patch, and applies it. Staged blobs are discarded if the update
// is rejected.
func (s *LotService) Update(ctx context.Context, id, requester string, patch models.LotPatch, uploads []images.Upload) (models.Lot, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Lot{}, fmt.Errorf("%w: lot name must not be empty", common.ErrValidation)
	}
	if patch.StartPrice != nil && *patch.StartPrice < 0 {
		return models.Lot{}, fmt.Errorf("%w: start price must not be negative", common.ErrValidation)
	}

	var staged []string
	if len(uploads) > 0 {
		refs, err := s.store.StageAll(uploads)
		if err != nil {
			return models.Lot{}, err
		}
		staged = refs
		patch.AddImageRefs = append(patch.AddImageRefs, refs...)
	}
	lot, err := s.repo.Update(ctx, id, requester, patch)
	if err != nil {
		s.store.Discard(staged)
		return models.Lot{}, err
	}
	return lot, nil
}

// Delete removes the lot with the given id on behalf of requester.
func (s *LotService) Delete(ctx context.Context, id, requester string) error {
	return s.repo.Delete(ctx, id, requester)
}

// List returns a snapshot of all lots.
func (s *LotService) List(ctx context.Context) ([]models.Lot, error) {
	return s.repo.List(ctx)
}
