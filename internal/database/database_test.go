package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"players", "groups", "seasons", "match_outcomes", "streak_states"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_ActiveSeasonUniquePerGroup(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO groups (id, slug) VALUES ('g1', 'office')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO seasons (id, group_id, active) VALUES ('s1', 'g1', 1)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO seasons (id, group_id, active) VALUES ('s2', 'g1', 1)`)
	assert.Error(t, err, "a second active season for the same group should violate the unique index")

	_, err = db.Exec(`INSERT INTO seasons (id, group_id, active) VALUES ('s3', 'g1', 0)`)
	assert.NoError(t, err, "inactive seasons are unconstrained")
}
