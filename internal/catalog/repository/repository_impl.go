package repository

import (
	"context"
	"fmt"

	"github.com/billgate/purchasegw/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.BundleRepository {
	return &repo{db: db}
}

func (r *repo) FindByBundleAndAddon(ctx context.Context, bundleID, addOnID string) (*domain.Bundle, error) {
	var item domain.Bundle
	err := r.db.WithContext(ctx).Raw(
		`SELECT bundle_id, add_on_id, add_on_type, is_active, updated_at
		 FROM bundles
		 WHERE bundle_id = ? AND add_on_id = ?
		 LIMIT 1`,
		bundleID,
		addOnID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.BundleID == "" {
		return nil, fmt.Errorf("%w: bundle %s addon %s", domain.ErrBundleNotFound, bundleID, addOnID)
	}
	return &item, nil
}

func (r *repo) FindByIds(ctx context.Context, bundleIDs, addOnIDs []string) (map[string]domain.Bundle, error) {
	out := make(map[string]domain.Bundle, len(bundleIDs))
	if len(bundleIDs) == 0 {
		return out, nil
	}

	// The id slices are parallel; match them as pairs so a bundle's other
	// add-ons never leak into the result.
	pairs := make([][]any, 0, len(bundleIDs))
	for i := range bundleIDs {
		pairs = append(pairs, []any{bundleIDs[i], addOnIDs[i]})
	}

	var items []domain.Bundle
	err := r.db.WithContext(ctx).Raw(
		`SELECT bundle_id, add_on_id, add_on_type, is_active, updated_at
		 FROM bundles
		 WHERE (bundle_id, add_on_id) IN ?`,
		pairs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		out[item.BundleID] = item
	}
	return out, nil
}
