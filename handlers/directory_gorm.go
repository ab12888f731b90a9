package handlers

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/ownership"
)

// GormDirectory is the org-directory lookup backed by the users table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// FindActiveUser resolves one active user for the query. Company and role
// always scope the search; region, store and user id narrow it further.
// When several users match (e.g. two active S3 users) the earliest created
// one is picked deterministically.
func (d *GormDirectory) FindActiveUser(ctx context.Context, q ownership.Query) (*models.User, error) {
	query := d.db.WithContext(ctx).
		Where("company_id = ? AND role = ? AND is_active = ?", q.CompanyID, q.Role, true)

	if q.RegionID != nil {
		query = query.Where("region_id = ?", *q.RegionID)
	}
	if q.StoreID != nil {
		query = query.Where("store_id = ?", *q.StoreID)
	}
	if q.UserID != nil {
		query = query.Where("id = ?", *q.UserID)
	}

	var user models.User
	if err := query.Order("created_at ASC").First(&user).Error; err != nil {
		return nil, fmt.Errorf("%w: no active %s user", models.ErrNotFound, q.Role)
	}
	return &user, nil
}
