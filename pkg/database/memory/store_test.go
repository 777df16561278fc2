package memory

import (
	"Tracks_Transfer/internal/models"
	"context"
	"fmt"
	"math"
	"testing"
)

func TestTransferStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	rec := &models.TransferRecord{TaskID: "task-1", SourceDir: "/a", TargetDir: "/b", Status: models.TransferCompleted, Applied: 2}
	if err := s.Transfers().Create(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID.IsZero() || rec.CreatedAt.IsZero() {
		t.Errorf("Create did not fill ID/CreatedAt: %+v", rec)
	}

	got, err := s.Transfers().GetByTaskID(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Applied != 2 || got.TargetDir != "/b" {
		t.Errorf("GetByTaskID() = %+v", got)
	}

	missing, err := s.Transfers().GetByTaskID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByTaskID(nope) = %+v, %v; want nil, nil", missing, err)
	}

	if err := s.Transfers().Create(ctx, &models.TransferRecord{TaskID: "task-1"}); err == nil {
		t.Error("duplicate TaskID accepted")
	}
}

func TestTransferStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 1; i <= 5; i++ {
		if err := s.Transfers().Create(ctx, &models.TransferRecord{TaskID: fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		page, limit int
		want        []string
	}{
		{1, 2, []string{"t5", "t4"}},
		{2, 2, []string{"t3", "t2"}},
		{3, 2, []string{"t1"}},
		{4, 2, nil},
		{1, 10, []string{"t5", "t4", "t3", "t2", "t1"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page%d_limit%d", tt.page, tt.limit), func(t *testing.T) {
			got, total, err := s.Transfers().List(ctx, tt.page, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if total != 5 {
				t.Errorf("total = %d, want 5", total)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.TaskID != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, r.TaskID, tt.want[i])
				}
			}
		})
	}
}

func TestTransferStore_ListHugePage(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 1; i <= 2; i++ {
		if err := s.Transfers().Create(ctx, &models.TransferRecord{TaskID: fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	for _, page := range []int{math.MaxInt64/20 + 1, math.MaxInt64/20 + 2, math.MaxInt64} {
		got, total, err := s.Transfers().List(ctx, page, 20)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 || total != 2 {
			t.Errorf("List(page=%d) = %d records, total %d; want 0, 2", page, len(got), total)
		}
	}
}
