package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/RibasSu/zapnode/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		Database: "zapnode",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://postgres:pw@127.0.0.1:5432/zapnode?sslmode=disable", DSN(cfg))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain error")))
	assert.False(t, IsUniqueViolation(nil))
}
