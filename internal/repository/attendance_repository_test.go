package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"hr-attendance/internal/model"
	"hr-attendance/internal/testutil"
)

// dryRunMySQL renders queries with the MySQL dialect without a server and
// records the SQL of every SELECT.
func dryRunMySQL(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "hr:hr@tcp(127.0.0.1:3306)/hr_attendance?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var captured []string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		captured = append(captured, tx.Statement.SQL.String())
	}))
	return db, &captured
}

func TestFindOpen_OnlyCheckOutLocksRows(t *testing.T) {
	db, captured := dryRunMySQL(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	_, err := repo.FindOpen(ctx, 7)
	require.NoError(t, err)
	_, err = repo.FindOpenForUpdate(ctx, 7)
	require.NoError(t, err)

	require.Len(t, *captured, 2)
	assert.NotContains(t, (*captured)[0], "FOR UPDATE")
	assert.Contains(t, (*captured)[1], "FOR UPDATE")
}

func TestCreate_ConcurrentOpenRecordsOneWins(t *testing.T) {
	const workers = 8
	db := testutil.NewFileDB(t, workers)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, workers)
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			slot := uint(42)
			errs <- repo.Create(ctx, &model.Attendance{UserID: 42, CheckIn: time.Now().UTC(), OpenSlot: &slot})
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var created, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicate):
			duplicates++
		default:
			assert.NoError(t, err, "unexpected create error")
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)

	open, err := repo.FindOpen(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestClose_ReleasesOpenSlot(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	in := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	slot := uint(5)
	record := &model.Attendance{UserID: 5, CheckIn: in, OpenSlot: &slot}
	require.NoError(t, repo.Create(ctx, record))

	out := in.Add(time.Hour)
	record.CheckOut = &out
	record.TotalHours = 1
	require.NoError(t, repo.Close(ctx, record))
	assert.Nil(t, record.OpenSlot)
	assert.Error(t, repo.Close(ctx, record))

	next := uint(5)
	require.NoError(t, repo.Create(ctx, &model.Attendance{UserID: 5, CheckIn: out, OpenSlot: &next}))
}
