package history

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)
	return s
}

func TestAppendThenRecent(t *testing.T) {
	s := newTestStore(t)

	for v := uint32(1); v <= 3; v++ {
		require.NoError(t, s.Append(Attempt{Version: v, Outcome: "applied", ErrorKind: "none"}))
	}

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, uint32(3), recent[0].Version)
	require.Equal(t, uint32(2), recent[1].Version)
}

func TestRecordApplySuccessAndFailure(t *testing.T) {
	s := newTestStore(t)

	s.RecordApply(5, true)
	s.RecordApply(6, false)

	attempts, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	require.Equal(t, uint32(6), attempts[0].Version)
	require.Equal(t, "error", attempts[0].Outcome)
	require.Equal(t, "mcu_download", attempts[0].ErrorKind)

	require.Equal(t, uint32(5), attempts[1].Version)
	require.Equal(t, "applied", attempts[1].Outcome)
}

func TestForVersionFiltersRows(t *testing.T) {
	s := newTestStore(t)
	s.RecordApply(1, true)
	s.RecordApply(2, true)
	s.RecordApply(1, false)

	rows, err := s.ForVersion(1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
