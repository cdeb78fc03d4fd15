// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/creatormatch/creatormatch_be/internal/db"
	"github.com/creatormatch/creatormatch_be/internal/models"
)

// NewDB opens a private in-memory sqlite database with every table migrated.
// The pool is pinned to one connection so the memory database is never lost.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, gdb.AutoMigrate(db.Models()...))
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	u := &models.User{
		Name:     name,
		Lastname: "Tester",
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "x",
		Type:     role,
		Status:   models.UserActive,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateProject(t *testing.T, gdb *gorm.DB, creator *models.User, title, budget string) *models.Project {
	t.Helper()

	p := &models.Project{
		Title:       title,
		Category:    models.CategoryEditing,
		Description: "Long form edit for " + title,
		Budget:      budget,
		Experience:  models.ExperienceMid,
		Duration:    "1 week",
		CreatorID:   creator.ID,
		CreatorName: creator.FullName(),
		Status:      models.ProjectActive,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}
