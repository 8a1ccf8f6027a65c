package work_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/work"
	testutil "github.com/csbssync/portal/tests"
)

func newTestService(t *testing.T) (*work.Service, *testutil.MemoryStorage) {
	validate, _ := testutil.NewValidator()
	files := &testutil.MemoryStorage{}
	return work.NewService(testutil.OpenRepositories(t).Works, files, validate), files
}

func TestService_Create(t *testing.T) {
	svc, files := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		nw      work.NewWork
		wantErr bool
	}{
		{name: "blank subject", nw: work.NewWork{Subject: "  ", Description: "Homework 3", Deadline: "2025-01-10"}, wantErr: true},
		{name: "missing work", nw: work.NewWork{Subject: "Math", Deadline: "2025-01-10"}, wantErr: true},
		{name: "missing deadline", nw: work.NewWork{Subject: "Math", Description: "Homework 3"}, wantErr: true},
		{name: "bad deadline", nw: work.NewWork{Subject: "Math", Description: "Homework 3", Deadline: "10/01/2025"}, wantErr: true},
		{name: "valid", nw: work.NewWork{Subject: " Math ", Description: "Homework 3", Deadline: "2025-01-10", AddedBy: "Admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := svc.Create(ctx, tt.nw)
			if tt.wantErr {
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, w.ID)
			assert.Equal(t, "Math", w.Subject)
			assert.Equal(t, "2025-01-10", w.Deadline.String())
			assert.Equal(t, []work.StatusEntry{}, w.Status)

			got, err := svc.GetByID(ctx, w.ID)
			require.NoError(t, err)
			assert.Equal(t, w.ID, got.ID)
			assert.Equal(t, "Homework 3", got.Description)
			assert.Equal(t, "Admin", got.AddedBy)
		})
	}

	works, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, works, 1, "invalid works are not persisted")
	assert.Empty(t, files.Files())
}

func TestService_Create_fileBase64(t *testing.T) {
	svc, files := newTestService(t)
	ctx := context.Background()
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))

	w, err := svc.Create(ctx, work.NewWork{
		Subject:     "Math",
		Description: "Homework 3",
		Deadline:    "2025-01-10",
		FileBase64:  "data:application/pdf;base64," + payload,
	})
	require.NoError(t, err)

	uploaded := files.Files()
	require.Len(t, uploaded, 1)
	assert.Equal(t, core.FolderWorks, uploaded[0].Folder)
	assert.Equal(t, "application/pdf", uploaded[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), uploaded[0].Content)
	assert.Equal(t, "https://files.test/works/"+uploaded[0].Name, w.FileURL)

	_, err = svc.Create(ctx, work.NewWork{Subject: "Math", Description: "Homework 4", Deadline: "2025-01-10", FileBase64: "%%%"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fileBase64", verr.Fields[0].Field)
}

func TestService_ListAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	works, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, works)
	assert.Empty(t, works)

	base := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	defer func(now func() time.Time) { core.NowFunc = now }(core.NowFunc)
	for i, subject := range []string{"A", "B", "C"} {
		core.NowFunc = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := svc.Create(ctx, work.NewWork{Subject: subject, Description: "x", Deadline: "2025-01-10"})
		require.NoError(t, err)
	}

	works, err = svc.ListAll(ctx)
	require.NoError(t, err)
	var subjects []string
	for _, w := range works {
		subjects = append(subjects, w.Subject)
	}
	assert.Equal(t, []string{"C", "B", "A"}, subjects)
}

func TestService_DeleteByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, work.NewWork{Subject: "Math", Description: "Homework 3", Deadline: "2025-01-10"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, w.ID))
	assert.Equal(t, work.ErrNotFound, svc.DeleteByID(ctx, w.ID))
	assert.Equal(t, work.ErrNotFound, svc.DeleteByID(ctx, ""))

	_, err = svc.GetByID(ctx, w.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_UpsertStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, work.NewWork{Subject: "Math", Description: "Homework 3", Deadline: "2025-01-10"})
	require.NoError(t, err)

	t.Run("invalid state", func(t *testing.T) {
		_, err := svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "u1", State: "finished"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "state", verrs[0].Field())
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{State: work.StateDoing})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("unknown work", func(t *testing.T) {
		_, err := svc.UpsertStatus(ctx, "missing", work.UpdateStatus{UserID: "u1", State: work.StateDoing})
		assert.Equal(t, work.ErrNotFound, err)
	})

	t.Run("same user twice", func(t *testing.T) {
		_, err := svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "u1", Username: "Alice", Email: "alice@test.test", State: "Doing"})
		require.NoError(t, err)
		got, err := svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "u1", Username: "Alice", Email: "alice@test.test", State: work.StateCompleted})
		require.NoError(t, err)
		assert.Equal(t, []work.StatusEntry{
			{UserID: "u1", Username: "Alice", Email: "alice@test.test", State: work.StateCompleted},
		}, got.Status)
	})
}

func TestService_UpsertStatus_concurrentUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, work.NewWork{Subject: "Math", Description: "Homework 3", Deadline: "2025-01-10"})
	require.NoError(t, err)

	const users = 8
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: uid, State: work.StateDoing})
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	got, err := svc.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Status, users)
	for i := 0; i < users; i++ {
		entry, ok := got.StatusOf(fmt.Sprintf("u%d", i))
		assert.True(t, ok)
		assert.Equal(t, work.StateDoing, entry.State)
	}
}

func TestService_scenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, work.NewWork{Subject: "Math", Description: "Homework 3", Deadline: "2025-01-10"})
	require.NoError(t, err)

	_, err = svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "alice", Username: "Alice", State: work.StateDoing})
	require.NoError(t, err)
	_, err = svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "bob", Username: "Bob", State: work.StateNotStarted})
	require.NoError(t, err)
	_, err = svc.UpsertStatus(ctx, w.ID, work.UpdateStatus{UserID: "alice", Username: "Alice", State: work.StateCompleted})
	require.NoError(t, err)

	works, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "Math", works[0].Subject)
	assert.Equal(t, "2025-01-10", works[0].Deadline.String())
	assert.Equal(t, []work.StatusEntry{
		{UserID: "alice", Username: "Alice", State: work.StateCompleted},
		{UserID: "bob", Username: "Bob", State: work.StateNotStarted},
	}, works[0].Status)

	require.NoError(t, svc.DeleteByID(ctx, w.ID))
	works, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, works)
}
