package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScanner struct {
	migrations []Migration
	err        error
}

func (s stubScanner) ScanMigrations() ([]Migration, error) { return s.migrations, s.err }

type recordingExecutor struct {
	applied  []AppliedMigration
	executed []string
	failOn   string
}

func (e *recordingExecutor) InitializeVersionTable(context.Context) error { return nil }

func (e *recordingExecutor) ExecuteMigration(_ context.Context, m Migration, appliedAt time.Time) error {
	if m.Version == e.failOn {
		return errors.New("boom")
	}
	e.executed = append(e.executed, m.Version)
	e.applied = append(e.applied, AppliedMigration{Version: m.Version, AppliedAt: appliedAt, Checksum: m.Checksum})
	return nil
}

func (e *recordingExecutor) GetAppliedVersions(context.Context) ([]AppliedMigration, error) {
	return append([]AppliedMigration(nil), e.applied...), nil
}

func migrations(versions ...string) []Migration {
	out := make([]Migration, 0, len(versions))
	for _, v := range versions {
		out = append(out, Migration{Version: v, SQL: "SELECT 1;", FilePath: v + "_m.sql", Checksum: "sum-" + v})
	}
	return out
}

func TestManager_RunMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only pending versions in order", func(t *testing.T) {
		exec := &recordingExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "sum-001"}}}
		m := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, exec, nil)

		require.NoError(t, m.RunMigrations(ctx))
		assert.Equal(t, []string{"002", "003"}, exec.executed)

		require.NoError(t, m.RunMigrations(ctx))
		assert.Equal(t, []string{"002", "003"}, exec.executed, "second run is a no-op")
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		exec := &recordingExecutor{failOn: "002"}
		m := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, exec, nil)

		err := m.RunMigrations(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMigrationFailed)
		assert.Equal(t, []string{"001"}, exec.executed)
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		m := NewManager(stubScanner{migrations: migrations("001", "003")}, &recordingExecutor{}, nil)
		assert.ErrorIs(t, m.RunMigrations(ctx), ErrVersionConflict)
	})

	t.Run("rejects applied versions without a file", func(t *testing.T) {
		exec := &recordingExecutor{applied: []AppliedMigration{{Version: "002"}}}
		m := NewManager(stubScanner{migrations: migrations("001")}, exec, nil)
		assert.ErrorIs(t, m.RunMigrations(ctx), ErrVersionConflict)
	})

	t.Run("rejects edited migrations", func(t *testing.T) {
		exec := &recordingExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "old"}}}
		m := NewManager(stubScanner{migrations: migrations("001")}, exec, nil)
		assert.ErrorIs(t, m.RunMigrations(ctx), ErrChecksumMismatch)
	})
}

func TestManager_Status(t *testing.T) {
	exec := &recordingExecutor{applied: []AppliedMigration{
		{Version: "001", Checksum: "sum-001"},
		{Version: "002", Checksum: "sum-002"},
	}}
	m := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, exec, nil)

	status, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "002", status.CurrentVersion)
	assert.Equal(t, 1, status.PendingCount)
	require.Len(t, status.PendingMigrations, 1)
	assert.Equal(t, "003", status.PendingMigrations[0].Version)
}
