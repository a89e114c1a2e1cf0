package postgres

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	upErr      error
	stepsErr   error
	version    uint
	versionErr error
	ups        int
}

func (f *fakeRunner) Up() error {
	f.ups++
	if f.ups > 1 {
		return migrate.ErrNoChange
	}
	return f.upErr
}

func (f *fakeRunner) Steps(int) error { return f.stepsErr }

func (f *fakeRunner) Version() (uint, bool, error) { return f.version, false, f.versionErr }

func (f *fakeRunner) Close() (error, error) { return nil, nil }

func TestMigratorUpIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	m := &Migrator{m: runner}

	require.NoError(t, m.Up())
	require.NoError(t, m.Up())
	assert.Equal(t, 2, runner.ups)
}

func TestMigratorUpPropagatesFailures(t *testing.T) {
	m := &Migrator{m: &fakeRunner{upErr: errors.New("syntax error")}}
	assert.ErrorContains(t, m.Up(), "syntax error")
}

func TestMigratorDownWithNothingApplied(t *testing.T) {
	m := &Migrator{m: &fakeRunner{stepsErr: migrate.ErrNoChange}}
	assert.NoError(t, m.Down())
}

func TestMigratorVersionWithoutMigrations(t *testing.T) {
	m := &Migrator{m: &fakeRunner{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)
}

// Each up migration must be safe to replay against an existing schema.
func TestMigrationFilesAreReplayable(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "..", "migrations", "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	create := regexp.MustCompile(`(?i)CREATE\s+(UNIQUE\s+)?(TABLE|INDEX|EXTENSION)\s+(\S+)`)
	for _, f := range files {
		body, err := os.ReadFile(f)
		require.NoError(t, err)

		for _, m := range create.FindAllStringSubmatch(string(body), -1) {
			assert.Equalf(t, "IF", m[3], "%s: %q lacks IF NOT EXISTS", filepath.Base(f), m[0])
		}
	}
}
