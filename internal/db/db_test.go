package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

func TestModels_CoversEveryTable(t *testing.T) {
	assert.Len(t, Models(), 8)
	assert.IsType(t, &models.User{}, Models()[0])
}

func TestMigrate_WrapsDriverErrors(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// no expectations: the first statement migrate sends is refused
	err = Migrate(gdb, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}
