// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

// OpenDB returns a migrated in-memory sqlite database. A single connection
// keeps every query on the same memory database and serializes transactions.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func OpenRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// Ctx carries a discard logger so handler logging stays quiet.
func Ctx() context.Context {
	return logging.IntoContext(context.Background(), slog.New(slog.DiscardHandler))
}

func SeedProduct(t testing.TB, db *gorm.DB, name string, price, stock int64) models.Product {
	t.Helper()
	p := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Image:       "/uploads/" + name + ".jpg",
		Category:    models.CategoryClothing,
		Stock:       stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func SeedUser(t testing.TB, db *gorm.DB, email, role string) models.User {
	t.Helper()
	u := models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
