package migrations

import (
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	_, err = src.Next(next)
	assert.ErrorIs(t, err, os.ErrNotExist)

	for _, version := range []uint{1, 2} {
		up, identifier, err := src.ReadUp(version)
		require.NoError(t, err)
		assert.NotEmpty(t, identifier)
		up.Close()

		down, _, err := src.ReadDown(version)
		require.NoError(t, err)
		down.Close()
	}
}
