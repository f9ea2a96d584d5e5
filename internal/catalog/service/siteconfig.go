package service

import (
	"context"
	"fmt"

	"github.com/billgate/purchasegw/internal/catalog/domain"
	"gorm.io/gorm"
)

type siteConfig struct {
	db *gorm.DB
}

// ProvideSiteConfig returns the site lookup backed by the replicated catalog.
func ProvideSiteConfig(db *gorm.DB) domain.ConfigService {
	return &siteConfig{db: db}
}

// GetSite resolves site metadata. A missing row and a connectivity failure
// both surface as ErrSiteConfig; a nil site is never returned with a nil error.
func (s *siteConfig) GetSite(ctx context.Context, siteID string) (*domain.Site, error) {
	var site domain.Site
	err := s.db.WithContext(ctx).Raw(
		`SELECT site_id, name, url, descriptor, support_email, support_phone,
			skype_account, mail_sender_name
		 FROM sites
		 WHERE site_id = ?
		 LIMIT 1`,
		siteID,
	).Scan(&site).Error
	if err != nil {
		return nil, fmt.Errorf("%w: site %s: %v", domain.ErrSiteConfig, siteID, err)
	}
	if site.SiteID == "" {
		return nil, fmt.Errorf("%w: site %s", domain.ErrSiteConfig, siteID)
	}
	return &site, nil
}
