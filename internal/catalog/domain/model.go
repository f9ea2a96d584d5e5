package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBundleNotFound = errors.New("bundle_not_found")

	// ErrSiteConfig covers both an absent site and a transient config outage.
	// The source of truth does not distinguish the two; callers treat every
	// miss as retriable. Flagged for product clarification.
	ErrSiteConfig = errors.New("site_configuration_unavailable")
)

// Bundle is a read-only catalog entity replicated from the bundle service.
type Bundle struct {
	BundleID  string    `json:"bundle_id" gorm:"column:bundle_id;primaryKey"`
	AddOnID   string    `json:"add_on_id" gorm:"column:add_on_id;primaryKey"`
	AddOnType string    `json:"add_on_type" gorm:"column:add_on_type"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Bundle) TableName() string { return "bundles" }

// Site is a read-only catalog entity with display and contact metadata.
type Site struct {
	SiteID         string `json:"site_id" gorm:"column:site_id;primaryKey"`
	Name           string `json:"name" gorm:"column:name"`
	URL            string `json:"url" gorm:"column:url"`
	Descriptor     string `json:"descriptor" gorm:"column:descriptor"`
	SupportEmail   string `json:"support_email" gorm:"column:support_email"`
	SupportPhone   string `json:"support_phone" gorm:"column:support_phone"`
	SkypeAccount   string `json:"skype_account" gorm:"column:skype_account"`
	MailSenderName string `json:"mail_sender_name" gorm:"column:mail_sender_name"`
}

func (Site) TableName() string { return "sites" }

// BundleRepository resolves bundles individually or as one batched read.
type BundleRepository interface {
	FindByBundleAndAddon(ctx context.Context, bundleID, addOnID string) (*Bundle, error)
	FindByIds(ctx context.Context, bundleIDs, addOnIDs []string) (map[string]Bundle, error)
}

// ConfigService resolves site metadata.
type ConfigService interface {
	GetSite(ctx context.Context, siteID string) (*Site, error)
}
