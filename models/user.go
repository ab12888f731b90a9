// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompanyKind distinguishes the internal retail organization from external
// maintenance vendors.
type CompanyKind string

const (
	CompanyInternal CompanyKind = "INTERNAL"
	CompanyVendor   CompanyKind = "VENDOR"
)

// Role codes used across the organization directory.
//
// Internal roles:
//
//	AMM: Area Maintenance Manager, owns tickets/work orders region-wide
//	SM:  Store Manager, raises tickets and issues check-in/out QR codes
//
// Vendor roles:
//
//	S1: service admin (dispatch)
//	S2: field technician
//	S3: finance / back-office
type Role string

const (
	RoleAreaMaintenanceManager Role = "AMM"
	RoleStoreManager           Role = "SM"
	RoleVendorServiceAdmin     Role = "S1"
	RoleVendorTechnician       Role = "S2"
	RoleVendorFinance          Role = "S3"
)

// IsVendorRole reports whether the role belongs to a vendor company user.
func (r Role) IsVendorRole() bool {
	return r == RoleVendorServiceAdmin || r == RoleVendorTechnician || r == RoleVendorFinance
}

// Company is either the internal retail organization or an external
// maintenance vendor.
type Company struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string      `gorm:"size:150;not null" json:"name"`
	Kind      CompanyKind `gorm:"size:20;not null;index" json:"kind"`
	IsActive  bool        `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// Region groups stores of the internal company; each region has one
// responsible AMM.
type Region struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Region) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// Store is a retail location belonging to a region. Geofence, when set,
// holds a JSON polygon used to verify technician check-in coordinates.
type Store struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	RegionID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"region_id"`
	Region    *Region        `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Name      string         `gorm:"size:150;not null" json:"name"`
	Address   string         `gorm:"size:255" json:"address,omitempty"`
	Geofence  datatypes.JSON `gorm:"type:jsonb" json:"geofence,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// User is a directory record for both internal staff and vendor users.
// RegionID is set for AMM users, StoreID for SM users; vendor users carry
// neither.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	Company      *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Role         Role       `gorm:"size:10;not null;index" json:"role"`
	RegionID     *uuid.UUID `gorm:"type:uuid;index" json:"region_id,omitempty"`
	StoreID      *uuid.UUID `gorm:"type:uuid;index" json:"store_id,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
