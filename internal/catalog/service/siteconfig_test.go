package service

import (
	"context"
	"testing"

	"github.com/billgate/purchasegw/internal/catalog/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Site{}))
	return db
}

func TestGetSite(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&domain.Site{
		SiteID:       "site-1",
		Name:         "Example Site",
		URL:          "https://example.com",
		SupportEmail: "support@example.com",
	}).Error)

	site, err := ProvideSiteConfig(db).GetSite(context.Background(), "site-1")
	require.NoError(t, err)
	require.Equal(t, "Example Site", site.Name)
}

func TestGetSiteMissingIsTransient(t *testing.T) {
	svc := ProvideSiteConfig(newTestDB(t))

	site, err := svc.GetSite(context.Background(), "site-unknown")
	require.ErrorIs(t, err, domain.ErrSiteConfig)
	require.Nil(t, site, "a nil site never comes back with a nil error")
}
