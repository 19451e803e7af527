package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	database, err := Connect(&Config{Driver: "sqlite", SQLitePath: "file::memory:?cache=shared"})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Health())
	require.NoError(t, database.Migrate())
	assert.True(t, database.Migrator().HasTable("price_records"))
	assert.True(t, database.Migrator().HasTable("price_series"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := &Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
