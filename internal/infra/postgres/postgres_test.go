package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sifan077/ListingBank/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString_Defaults(t *testing.T) {
	got := ConnString(config.PostgresConfig{User: "bank", Database: "listings"})
	assert.Equal(t, "postgres://bank@localhost:5432/listings?sslmode=disable", got)
}

func TestConnString_EscapesCredentials(t *testing.T) {
	got := ConnString(config.PostgresConfig{
		Host:     "db",
		Port:     6543,
		User:     "bank",
		Password: "p@ss/word",
		Database: "listings",
		SSLMode:  "require",
	})
	assert.Equal(t, "postgres://bank:p@ss%2Fword@db:6543/listings?sslmode=require", got)
}

func TestApplyDurations(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig("postgres://bank@localhost:5432/listings")
	require.NoError(t, err)

	err = applyDurations(poolCfg, config.PostgresConfig{MaxConnLifetime: "30m", HealthCheckPeriod: "15s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 15*time.Second, poolCfg.HealthCheckPeriod)

	err = applyDurations(poolCfg, config.PostgresConfig{MaxConnIdleTime: "soon"})
	assert.Error(t, err)
}
