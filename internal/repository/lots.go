package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/lotmarket/internal/common"
	"github.com/atinyakov/lotmarket/internal/models"
	"github.com/atinyakov/lotmarket/internal/storage"
)

// lotTable is the in-memory state of the lot collection: the ordered
// arena of records plus an id → index map for O(1) lookup. Only the
// arena is persisted (the backing file is a plain JSON array of lots);
// the index is rebuilt on load. Records are always addressed by id,
// never by position.
type lotTable struct {
	lots []models.Lot
	byID map[string]int
}

func (t lotTable) MarshalJSON() ([]byte, error) {
	if t.lots == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.lots)
}

func (t *lotTable) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.lots); err != nil {
		return err
	}
	t.reindex()
	return nil
}

func (t *lotTable) reindex() {
	t.byID = make(map[string]int, len(t.lots))
	for i, l := range t.lots {
		t.byID[l.ID] = i
	}
}

// clone returns a table that shares no mutable structure with the
// receiver, so speculative mutations never leak into the live state.
func (t lotTable) clone() lotTable {
	return lotTable{lots: slices.Clone(t.lots), byID: maps.Clone(t.byID)}
}

func cloneLot(l models.Lot) models.Lot {
	l.ImageRefs = slices.Clone(l.ImageRefs)
	return l
}

// OwnerResolver reports whether an identity names a registered user.
// Satisfied by *UserStore.
type OwnerResolver interface {
	Exists(ctx context.Context, username string) bool
}

// LotStore is the repository of lots. All mutations are owner-checked
// and persisted as a full atomic snapshot of the collection.
type LotStore struct {
	col   *storage.Collection[lotTable]
	users OwnerResolver
}

// NewLotStore opens the lots backing file at path. users resolves
// owner identities at creation time.
func NewLotStore(path string, users OwnerResolver) (*LotStore, error) {
	col, err := storage.Open(path,
		func() lotTable {
			return lotTable{byID: map[string]int{}}
		},
		nil)
	if err != nil {
		return nil, err
	}
	return &LotStore{col: col, users: users}, nil
}

// Create assigns a fresh unique id and creation timestamp to the draft
// and appends it to the collection. The owner must resolve to a
// registered user and at least one image reference is required.
func (s *LotStore) Create(ctx context.Context, draft models.LotDraft, owner string, imageRefs []string) (models.Lot, error) {
	if owner == "" || !s.users.Exists(ctx, owner) {
		return models.Lot{}, fmt.Errorf("%w: owner %q is not a registered user", common.ErrValidation, owner)
	}
	if len(imageRefs) == 0 {
		return models.Lot{}, fmt.Errorf("%w: a lot requires at least one image", common.ErrValidation)
	}
	lot := models.Lot{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		StartPrice:  draft.StartPrice,
		CreatedAt:   time.Now().UTC(),
		Owner:       owner,
		ImageRefs:   slices.Clone(imageRefs),
		OriginIP:    draft.OriginIP,
	}
	err := s.col.Update(func(t lotTable) (lotTable, error) {
		next := t.clone()
		next.lots = append(next.lots, lot)
		next.byID[lot.ID] = len(next.lots) - 1
		return next, nil
	})
	if err != nil {
		return models.Lot{}, err
	}
	return cloneLot(lot), nil
}

// Find returns the lot with the given id, or common.ErrNotFound.
func (s *LotStore) Find(ctx context.Context, id string) (models.Lot, error) {
	var (
		lot   models.Lot
		found bool
	)
	s.col.View(func(t lotTable) {
		if i, ok := t.byID[id]; ok {
			lot, found = cloneLot(t.lots[i]), true
		}
	})
	if !found {
		return models.Lot{}, common.ErrNotFound
	}
	return lot, nil
}

// Update applies the patch to the lot with the given id. Only the
// lot's owner may update it; anyone else gets common.ErrNotOwner and
// the record is left unchanged.
func (s *LotStore) Update(ctx context.Context, id, requester string, patch models.LotPatch) (models.Lot, error) {
	var updated models.Lot
	err := s.col.Update(func(t lotTable) (lotTable, error) {
		i, ok := t.byID[id]
		if !ok {
			return t, common.ErrNotFound
		}
		if t.lots[i].Owner != requester {
			return t, common.ErrNotOwner
		}
		next := t.clone()
		lot := &next.lots[i]
		if patch.Name != nil {
			lot.Name = *patch.Name
		}
		if patch.Description != nil {
			lot.Description = *patch.Description
		}
		if patch.StartPrice != nil {
			lot.StartPrice = *patch.StartPrice
		}
		if patch.ClearImages {
			lot.ImageRefs = nil
		}
		if len(patch.AddImageRefs) > 0 {
			lot.ImageRefs = append(slices.Clone(lot.ImageRefs), patch.AddImageRefs...)
		}
		updated = cloneLot(*lot)
		return next, nil
	})
	if err != nil {
		return models.Lot{}, err
	}
	return updated, nil
}

// Delete removes the lot with the given id. Only the owner may delete;
// removal is by identifier, never by position.
func (s *LotStore) Delete(ctx context.Context, id, requester string) error {
	return s.col.Update(func(t lotTable) (lotTable, error) {
		i, ok := t.byID[id]
		if !ok {
			return t, common.ErrNotFound
		}
		if t.lots[i].Owner != requester {
			return t, common.ErrNotOwner
		}
		next := lotTable{lots: slices.Delete(slices.Clone(t.lots), i, i+1)}
		next.reindex()
		return next, nil
	})
}

// List returns a snapshot of all lots in creation order. The snapshot
// shares nothing with the live collection and is safe to hold while
// other goroutines keep mutating the store.
func (s *LotStore) List(ctx context.Context) ([]models.Lot, error) {
	var out []models.Lot
	s.col.View(func(t lotTable) {
		out = make([]models.Lot, 0, len(t.lots))
		for _, l := range t.lots {
			out = append(out, cloneLot(l))
		}
	})
	return out, nil
}
