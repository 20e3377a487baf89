package catalog

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/shopcart-backend/pkg/errors"
)

// Service exposes catalog browsing.
type Service interface {
	ListItems(ctx context.Context, params ListParams) ([]ItemDTO, error)
}

type service struct {
	store Store
}

// NewService builds a catalog service backed by the provided store.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	return &service{store: store}, nil
}

// ListItems returns every item matching params, newest first. Invalid
// parameters are ignored rather than rejected.
func (s *service) ListItems(ctx context.Context, params ListParams) ([]ItemDTO, error) {
	items, err := s.store.List(ctx, NewListFilter(params))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list items")
	}
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemDTO(item))
	}
	return out, nil
}
