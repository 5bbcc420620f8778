package history

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	benchxerrors "kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/types"
)

func TestStoreList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "c", "a"} {
		report := &types.Report{
			ID:       id,
			Started:  base.Add(time.Duration(i) * time.Hour),
			Finished: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Status:   types.StatusSucceeded,
			Results:  []types.ModelResult{{Name: "resnet50", Status: types.StatusSucceeded}},
		}
		if err := store.Publish(ctx, report); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all newest first", limit: 0, want: []string{"a", "c", "b"}},
		{name: "limited", limit: 2, want: []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.List(ctx, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			ids := []string{}
			for _, record := range records {
				ids = append(ids, record.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("List() ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestStoreGet(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	record := types.RunRecord{ID: "run-1", Started: time.Now(), Status: types.StatusSucceeded}
	if err := store.Put(ctx, record); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "run-1" || got.Status != types.StatusSucceeded {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := store.Get(ctx, "run"); !benchxerrors.IsErrCode(err, benchxerrors.ErrCodeRunNotFound) {
		t.Errorf("Get() on prefix id error = %v, want not found", err)
	}
}

func TestReportRecord(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := types.Report{
		ID:        "run-1",
		Started:   started,
		Finished:  started.Add(1500 * time.Millisecond),
		Mode:      "cpu_config",
		Inference: "True",
		Backend:   "tensorflow",
		Status:    types.StatusFailed,
		Results: []types.ModelResult{
			{Name: "resnet50", Status: types.StatusSucceeded},
			{Name: "vgg16", Status: types.StatusFailed, ExitCode: 1},
		},
		Skipped: []string{"lstm", "mobilenet"},
	}
	want := types.RunRecord{
		ID:        "run-1",
		Started:   started,
		Mode:      "cpu_config",
		Inference: "True",
		Backend:   "tensorflow",
		Status:    types.StatusFailed,
		Models:    4,
		Failed:    "vgg16",
		Duration:  "1.5s",
	}
	if got := report.Record(); !reflect.DeepEqual(got, want) {
		t.Errorf("Record() = %+v, want %+v", got, want)
	}
}
