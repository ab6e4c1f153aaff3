package database

import (
	"net/url"
	"testing"

	"github.com/klokku/meetstats/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionURL(t *testing.T) {
	// given
	cfg := config.Database{
		Host:   "db.local",
		Port:   5433,
		User:   "meet",
		Pass:   "p@ss'word",
		Name:   "meetstats",
		Schema: "reports",
	}

	// when
	raw := connectionURL(cfg)

	// then
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "db.local:5433", parsed.Host)
	assert.Equal(t, "/meetstats", parsed.Path)
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss'word", password)
	assert.Equal(t, "reports", parsed.Query().Get("search_path"))
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}

func TestConnectionURL_NoSchema(t *testing.T) {
	raw := connectionURL(config.Database{Host: "localhost", Port: 5432, Name: "meetstats"})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.False(t, parsed.Query().Has("search_path"))
}

func TestFindMigrationsPath(t *testing.T) {
	path, err := findMigrationsPath()

	require.NoError(t, err)
	assert.DirExists(t, path)
}
