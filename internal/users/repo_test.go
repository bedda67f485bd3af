package users

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

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

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
	storeRequests := `
CREATE TABLE IF NOT EXISTS store_requests (
  id INTEGER PRIMARY KEY,
  request_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  store_id INTEGER,
  store_owner_id INTEGER,
  name TEXT,
  location TEXT,
  phone TEXT,
  reject_reason TEXT,
  approved_on DATETIME,
  approved_by INTEGER,
  rejected_on DATETIME,
  rejected_by INTEGER,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  deleted_on DATETIME,
  deleted_by INTEGER,
  created_on DATETIME,
  created_by INTEGER NOT NULL,
  updated_on DATETIME,
  updated_by INTEGER
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(stores).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(storeRequests).Error)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:           id,
		Name:         "Seeded User",
		Email:        fmt.Sprintf("user-%d@test.local", id),
		PasswordHash: "x",
		Role:         enums.UserRoleSubUser,
		CreatedOn:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindByEmailSkipsDeleted(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	user := seedUser(t, db, 6101)

	found, err := repo.FindByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_deleted", true).Error)

	_, err = repo.FindByEmail(context.Background(), user.Email)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryStoreRequestRefLifecycle(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	user := seedUser(t, db, 6111)

	require.NoError(t, repo.SetStoreRequestRef(context.Background(), user.ID, 7201))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	require.NotNil(t, reloaded.StoreRequestID)
	assert.Equal(t, int64(7201), *reloaded.StoreRequestID)

	affected, err := repo.ClearStoreRequestRef(context.Background(), 7201)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Replaying the clear is a no-op, which is what lets the
	// reconciler retry it blindly.
	affected, err = repo.ClearStoreRequestRef(context.Background(), 7201)
	require.NoError(t, err)
	assert.Zero(t, affected)

	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Nil(t, reloaded.StoreRequestID)
}

func TestRepositoryDeleteCascade(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	user := seedUser(t, db, 6121)
	store := &models.Store{
		ID: 8301, Name: "Owned Store", Location: "1 Pier Rd", Phone: "4460000021",
		StoreOwnerID: user.ID, CreatedOn: now, CreatedBy: 1,
	}
	require.NoError(t, db.Create(store).Error)
	require.NoError(t, repo.SetStoreRef(context.Background(), user.ID, store.ID))

	product := &models.Product{
		ID: 9301, Name: "Widget", Category: "hardware", Description: "cascade target",
		AvailableQuantity: 2, StoreID: store.ID, CreatedBy: user.ID,
	}
	require.NoError(t, db.Create(product).Error)

	request := &models.StoreRequest{
		ID: 7301, Type: enums.StoreRequestTypeUpdate, Status: enums.StoreRequestStatusPending,
		Phone: stringPtr("4460000022"), CreatedOn: now, CreatedBy: user.ID,
	}
	require.NoError(t, db.Create(request).Error)

	require.NoError(t, repo.DeleteCascade(context.Background(), user.ID, 1, now))

	_, err := repo.FindByID(context.Background(), user.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var reloadedStore models.Store
	require.NoError(t, db.First(&reloadedStore, "id = ?", store.ID).Error)
	assert.True(t, reloadedStore.IsDeleted)

	var reloadedProduct models.Product
	require.NoError(t, db.First(&reloadedProduct, "id = ?", product.ID).Error)
	assert.True(t, reloadedProduct.IsDeleted)

	var reloadedRequest models.StoreRequest
	require.NoError(t, db.First(&reloadedRequest, "id = ?", request.ID).Error)
	assert.True(t, reloadedRequest.IsDeleted)

	err = repo.DeleteCascade(context.Background(), user.ID, 1, now)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
