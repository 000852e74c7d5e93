package challenge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namesilo-dns01/namesilo"
	"namesilo-dns01/namesilo/namesilotest"
)

func seeded(ids ...string) *namesilotest.Registrar {
	registrar := namesilotest.NewRegistrar()
	for _, id := range ids {
		registrar.Seed("example.com", namesilo.Record{ID: id, Type: namesilo.TypeTXT, Host: "_acme-challenge.example.com", Value: "v" + id})
	}
	return registrar
}

func TestDeleteAll(t *testing.T) {
	registrar := seeded("1", "2", "3")
	c := &Cleaner{Registrar: registrar}

	err := c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, registrar.Calls["delete"])
	assert.ElementsMatch(t, []string{"1", "2", "3"}, registrar.Deleted)
	assert.Empty(t, registrar.Records("example.com"))
}

func TestDeleteAllAttemptsEveryID(t *testing.T) {
	registrar := seeded("1", "2", "3", "4")
	failure := errors.New("boom")
	registrar.Errors["delete:2"] = failure
	c := &Cleaner{Registrar: registrar}

	err := c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1", "2", "3", "4"})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 4, registrar.Calls["delete"])
	assert.ElementsMatch(t, []string{"1", "3", "4"}, registrar.Deleted)
}

func TestDeleteAllDeduplicates(t *testing.T) {
	registrar := seeded("1001")
	c := &Cleaner{Registrar: registrar}

	err := c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1001", "1001"})
	require.NoError(t, err)
	assert.Equal(t, 1, registrar.Calls["delete"])
}

func TestDeleteAllEmpty(t *testing.T) {
	registrar := seeded()
	c := &Cleaner{Registrar: registrar}

	assert.NoError(t, c.DeleteAll(context.Background(), mustSplit(t, "example.com"), nil))
	assert.Equal(t, 0, registrar.Calls["delete"])
}

func TestDeleteAllToleratesMissingIDs(t *testing.T) {
	registrar := seeded("1002")
	c := &Cleaner{Registrar: registrar}

	// 1001 was replaced by an update and no longer exists
	err := c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1001", "1002"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1002"}, registrar.Deleted)
	assert.Equal(t, 1, registrar.Calls["list"])

	err = c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1001", "1002"})
	assert.NoError(t, err)
}

func TestDeleteAllFailsWhenListingFails(t *testing.T) {
	registrar := seeded()
	failure := errors.New("list down")
	registrar.Errors["list"] = failure
	c := &Cleaner{Registrar: registrar}

	err := c.DeleteAll(context.Background(), mustSplit(t, "example.com"), []string{"1001"})
	assert.ErrorContains(t, err, "delete record 1001")
	assert.NotErrorIs(t, err, failure)
}
