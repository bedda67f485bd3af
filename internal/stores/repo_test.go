package stores

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

func setupStoresTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	stores := `
CREATE TABLE IF NOT EXISTS stores (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  location TEXT NOT NULL,
  phone TEXT NOT NULL,
  store_owner_id INTEGER NOT NULL,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  deleted_on DATETIME,
  deleted_by INTEGER,
  created_on DATETIME,
  created_by INTEGER NOT NULL,
  updated_on DATETIME,
  updated_by INTEGER
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  description TEXT NOT NULL,
  available_quantity INTEGER NOT NULL DEFAULT 0,
  store_id INTEGER NOT NULL,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  deleted_on DATETIME,
  deleted_by INTEGER,
  created_on DATETIME,
  created_by INTEGER NOT NULL,
  updated_on DATETIME,
  updated_by INTEGER
);`
	users := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'subuser',
  store_id INTEGER,
  store_request_id INTEGER,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  deleted_on DATETIME,
  deleted_by INTEGER,
  created_on DATETIME,
  updated_on DATETIME,
  updated_by INTEGER
);`
	require.NoError(t, db.Exec(stores).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(users).Error)
	return db
}

func seedStore(t *testing.T, db *gorm.DB, id, ownerID int64, phone string, createdOn time.Time) *models.Store {
	t.Helper()

	store := &models.Store{
		ID:           id,
		Name:         "Seeded Store",
		Location:     "9 Dock Rd",
		Phone:        phone,
		StoreOwnerID: ownerID,
		CreatedOn:    createdOn,
		CreatedBy:    1,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

func seedOwner(t *testing.T, db *gorm.DB, id, storeID int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:           id,
		Name:         "Owner",
		Email:        fmt.Sprintf("owner-%d@test.local", id),
		PasswordHash: "x",
		Role:         enums.UserRoleSubUser,
		StoreID:      &storeID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, id, storeID int64) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:                id,
		Name:              "Widget",
		Category:          "hardware",
		Description:       "a seeded test product",
		AvailableQuantity: 3,
		StoreID:           storeID,
		CreatedBy:         1,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryActiveLookups(t *testing.T) {
	db := setupStoresTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	live := seedStore(t, db, 8101, 901, "4450000001", now)
	gone := seedStore(t, db, 8102, 902, "4450000002", now)
	require.NoError(t, db.Model(&models.Store{}).Where("id = ?", gone.ID).
		Update("is_deleted", true).Error)

	found, err := repo.FindActiveByOwner(context.Background(), 901)
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)

	// Deleted stores do not hold their owner or phone.
	_, err = repo.FindActiveByOwner(context.Background(), 902)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.FindActiveByPhone(context.Background(), "4450000002")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	byPhone, err := repo.FindActiveByPhone(context.Background(), "4450000001")
	require.NoError(t, err)
	assert.Equal(t, live.ID, byPhone.ID)
}

func TestRepositoryUpdateActiveScope(t *testing.T) {
	db := setupStoresTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	seedStore(t, db, 8111, 911, "4450000011", now)

	affected, err := repo.UpdateActive(context.Background(), 8111, map[string]any{
		"name": "Renamed", "updated_on": now, "updated_by": int64(1),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	require.NoError(t, db.Model(&models.Store{}).Where("id = ?", 8111).
		Update("is_deleted", true).Error)

	affected, err = repo.UpdateActive(context.Background(), 8111, map[string]any{"name": "Again"})
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepositoryDeleteCascade(t *testing.T) {
	db := setupStoresTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	store := seedStore(t, db, 8121, 921, "4450000021", now)
	owner := seedOwner(t, db, 921, store.ID)
	seedProduct(t, db, 9121, store.ID)
	seedProduct(t, db, 9122, store.ID)

	require.NoError(t, repo.DeleteCascade(context.Background(), store.ID, 1, now))

	_, err := repo.FindByID(context.Background(), store.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var liveProducts int64
	require.NoError(t, db.Model(&models.Product{}).
		Where("store_id = ? AND is_deleted = ?", store.ID, false).
		Count(&liveProducts).Error)
	assert.Zero(t, liveProducts)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", owner.ID).Error)
	assert.Nil(t, reloaded.StoreID, "owner back-reference must be cleared")

	err = repo.DeleteCascade(context.Background(), store.ID, 1, now)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListNewestFirst(t *testing.T) {
	db := setupStoresTestDB(t)
	repo := NewRepository(db)
	base := time.Date(2026, 6, 3, 8, 0, 0, 0, time.UTC)

	seedStore(t, db, 8131, 931, "4450000031", base)
	seedStore(t, db, 8132, 932, "4450000032", base.Add(time.Minute))

	rows, err := repo.List(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(8132), rows[0].ID)
	assert.Equal(t, int64(8131), rows[1].ID)
}
