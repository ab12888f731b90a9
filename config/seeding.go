package config

import (
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

// RunAllSeeding runs all seeding operations in the correct order
func RunAllSeeding() error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("\n[1/3] Seeding Companies, Regions and Stores...")
	if err := SeedOrganization(DB); err != nil {
		return err
	}

	log.Println("\n[2/3] Seeding Directory Users...")
	if err := SeedUsers(DB); err != nil {
		return err
	}

	log.Println("\n[3/3] Seeding Vendor Price Lists...")
	if err := SeedPriceLists(DB); err != nil {
		return err
	}

	log.Println("\n=== Database Seeding Complete ===")
	return nil
}

// Fixed IDs keep seeding idempotent across restarts.
var (
	seedInternalCompanyID = uuid.MustParse("0a6f4c2e-0001-4000-8000-000000000001")
	seedVendorCompanyID   = uuid.MustParse("0a6f4c2e-0001-4000-8000-000000000002")
	seedRegionID          = uuid.MustParse("0a6f4c2e-0002-4000-8000-000000000001")
	seedStoreID           = uuid.MustParse("0a6f4c2e-0003-4000-8000-000000000001")
)

// SeedOrganization creates the demo internal company with one region and
// one store, plus one vendor company.
func SeedOrganization(db *gorm.DB) error {
	companies := []models.Company{
		{ID: seedInternalCompanyID, Name: "Northline Retail Group", Kind: models.CompanyInternal, IsActive: true},
		{ID: seedVendorCompanyID, Name: "FixPoint Technical Services", Kind: models.CompanyVendor, IsActive: true},
	}
	for _, c := range companies {
		if err := db.Where("id = ?", c.ID).FirstOrCreate(&c).Error; err != nil {
			return err
		}
	}

	region := models.Region{ID: seedRegionID, CompanyID: seedInternalCompanyID, Name: "North Region"}
	if err := db.Where("id = ?", region.ID).FirstOrCreate(&region).Error; err != nil {
		return err
	}

	store := models.Store{
		ID:        seedStoreID,
		CompanyID: seedInternalCompanyID,
		RegionID:  seedRegionID,
		Name:      "Store 014 Riverside",
		Address:   "14 Riverside Ave",
		Geofence: datatypes.JSON(`{"coordinates":[
			{"lat":42.690,"lng":23.310},
			{"lat":42.690,"lng":23.330},
			{"lat":42.700,"lng":23.330},
			{"lat":42.700,"lng":23.310}
		],"name":"Store 014 perimeter"}`),
		IsActive: true,
	}
	if err := db.Where("id = ?", store.ID).FirstOrCreate(&store).Error; err != nil {
		return err
	}

	log.Println("✅ Seeded 2 companies, 1 region, 1 store")
	return nil
}

// SeedUsers creates one user per directory role: AMM and SM on the
// internal side, S1/S2/S3 on the vendor side.
func SeedUsers(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	regionID := seedRegionID
	storeID := seedStoreID
	users := []models.User{
		{Name: "Ana Petrova", Email: "amm.north@northline.example", CompanyID: seedInternalCompanyID, Role: models.RoleAreaMaintenanceManager, RegionID: &regionID},
		{Name: "Stefan Iliev", Email: "sm.store014@northline.example", CompanyID: seedInternalCompanyID, Role: models.RoleStoreManager, StoreID: &storeID},
		{Name: "Maria Dineva", Email: "dispatch@fixpoint.example", CompanyID: seedVendorCompanyID, Role: models.RoleVendorServiceAdmin},
		{Name: "Georgi Kolev", Email: "tech1@fixpoint.example", CompanyID: seedVendorCompanyID, Role: models.RoleVendorTechnician},
		{Name: "Elena Staneva", Email: "finance@fixpoint.example", CompanyID: seedVendorCompanyID, Role: models.RoleVendorFinance},
	}

	for _, u := range users {
		u.PasswordHash = string(hash)
		u.IsActive = true
		if err := db.Where("email = ?", u.Email).FirstOrCreate(&u).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d directory users", len(users))
	return nil
}

// SeedPriceLists creates the vendor's default catalog: a manually
// selectable parts category plus the auto-applied arrival fee and a
// 15-minute banded service-time rule.
func SeedPriceLists(db *gorm.DB) error {
	fifteen := 15
	items := []models.VendorPriceListItem{
		{Category: models.PriceCategoryArrivalFee, Description: "Site visit arrival fee", Unit: "visit", PricePerUnit: 45, SelectableInUI: false},
		{Category: models.PriceCategoryServiceTime, Description: "Service time (15 min blocks)", Unit: "block", PricePerUnit: 18, SelectableInUI: false, UnitMinutes: &fifteen},
		{Category: models.PriceCategoryLabor, Description: "Technician labor", Unit: "hour", PricePerUnit: 60, SelectableInUI: true},
		{Category: "PARTS", Description: "Ball valve 1/2\"", Unit: "pcs", PricePerUnit: 12.5, SelectableInUI: true},
		{Category: "PARTS", Description: "Door closer, heavy duty", Unit: "pcs", PricePerUnit: 85, SelectableInUI: true},
	}

	for _, item := range items {
		item.VendorCompanyID = seedVendorCompanyID
		item.IsActive = true
		if err := db.Where("vendor_company_id = ? AND description = ?", item.VendorCompanyID, item.Description).
			FirstOrCreate(&item).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d price list items", len(items))
	return nil
}
