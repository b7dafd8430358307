package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiago-cos/prosa-kobo/internal/entities"
)

func TestNewDatabase(t *testing.T) {
	dbPath := "./test_database_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.DB.Migrator().HasTable(&entities.LinkedDevice{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.UnlinkedDevice{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.CapabilityToken{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.AnnotationTag{}))
}

func TestDatabase_Close(t *testing.T) {
	dbPath := "./test_database_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}
