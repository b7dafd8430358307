package scheduler

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/entities"
)

func setupSchedulerTest(t *testing.T, schedule string) (*TokenSweepScheduler, *tokens.Repository, func()) {
	dbPath := "./test_scheduler_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.CapabilityToken{})
	require.NoError(t, err)

	repo := tokens.NewRepository(db)
	scheduler := NewTokenSweepScheduler(repo, schedule)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return scheduler, repo, cleanup
}

func TestTokenSweepScheduler_StartStop(t *testing.T) {
	scheduler, _, cleanup := setupSchedulerTest(t, "*/30 * * * *")
	defer cleanup()

	require.NoError(t, scheduler.Start())
	// Starting twice is a no-op.
	require.NoError(t, scheduler.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	scheduler.Stop(ctx)
}

func TestTokenSweepScheduler_InvalidSchedule(t *testing.T) {
	scheduler, _, cleanup := setupSchedulerTest(t, "not a schedule")
	defer cleanup()

	assert.Error(t, scheduler.Start())
}

func TestTokenSweepScheduler_Sweep(t *testing.T) {
	scheduler, repo, cleanup := setupSchedulerTest(t, "*/30 * * * *")
	defer cleanup()

	_, err := repo.Issue(tokens.BookResource("book-1"), "device-a", -time.Minute, 32)
	require.NoError(t, err)

	scheduler.runSweep()

	removed, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
