package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTrackFileUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	f := TrackedFile{Target: "/home/sapein/.bashrc", Package: "bash", Slot: "bashrc", Hash: "aaa"}
	if err := store.TrackFile(ctx, f); err != nil {
		t.Fatalf("track: %v", err)
	}
	f.Hash = "bbb"
	if err := store.TrackFile(ctx, f); err != nil {
		t.Fatalf("re-track: %v", err)
	}

	files, err := store.TrackedFiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %v, want one entry", files)
	}
	if files["/home/sapein/.bashrc"] != "bbb" {
		t.Errorf("hash = %q, want the updated one", files["/home/sapein/.bashrc"])
	}
}

func TestForgetFile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.TrackFile(ctx, TrackedFile{Target: "/etc/motd", Hash: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := store.ForgetFile(ctx, "/etc/motd"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	files, err := store.TrackedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
	// Forgetting an unknown target is not an error.
	if err := store.ForgetFile(ctx, "/never/tracked"); err != nil {
		t.Errorf("forget unknown: %v", err)
	}
}

func TestTrackRepo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.TrackRepo(ctx, "github.com/void-linux/void-packages"); err != nil {
		t.Fatalf("track: %v", err)
	}
	// Re-adding after another successful run is not an error.
	if err := store.TrackRepo(ctx, "github.com/void-linux/void-packages"); err != nil {
		t.Fatalf("re-track: %v", err)
	}

	repos, err := store.Repos(ctx)
	if err != nil {
		t.Fatalf("repos: %v", err)
	}
	if _, ok := repos["github.com/void-linux/void-packages"]; !ok || len(repos) != 1 {
		t.Errorf("repos = %v, want just the tracked display", repos)
	}

	if err := store.ForgetRepo(ctx, "github.com/void-linux/void-packages"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	repos, err = store.Repos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) != 0 {
		t.Errorf("repos = %v, want none after forget", repos)
	}
}

func TestPins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddPin(ctx, "vim", "hand-installed"); err != nil {
		t.Fatalf("add pin: %v", err)
	}
	// Re-pinning updates the reason instead of failing.
	if err := store.AddPin(ctx, "vim", "still wanted"); err != nil {
		t.Fatalf("re-pin: %v", err)
	}

	pins, err := store.Pins(ctx)
	if err != nil {
		t.Fatalf("pins: %v", err)
	}
	if _, ok := pins["vim"]; !ok || len(pins) != 1 {
		t.Errorf("pins = %v, want just vim", pins)
	}

	listed, err := store.ListPins(ctx)
	if err != nil {
		t.Fatalf("list pins: %v", err)
	}
	if len(listed) != 1 || listed[0].Reason != "still wanted" {
		t.Errorf("listed = %+v", listed)
	}

	if err := store.RemovePin(ctx, "vim"); err != nil {
		t.Fatalf("remove pin: %v", err)
	}
	pins, err = store.Pins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pins) != 0 {
		t.Errorf("pins = %v, want none after removal", pins)
	}
}

func TestRecordRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:         "run-1",
		PlanID:     "plan-1",
		Status:     RunStatusCompleted,
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		DurationMS: 1500,
		Succeeded:  2,
		Failed:     0,
		Skipped:    1,
	}
	actions := []RunAction{
		{RunID: "run-1", Seq: 0, Kind: "install", Package: "bash", Status: "succeeded"},
		{RunID: "run-1", Seq: 1, Kind: "configure", Package: "bash", Target: "~/.bashrc", Status: "succeeded"},
		{RunID: "run-1", Seq: 2, Kind: "install", Package: "discord", Status: "skipped", Reason: "dependency failed: repository add"},
	}
	if err := store.RecordRun(ctx, run, actions); err != nil {
		t.Fatalf("record: %v", err)
	}

	recent, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %+v, want one run", recent)
	}
	got := recent[0]
	if got.ID != "run-1" || got.Status != RunStatusCompleted || got.Succeeded != 2 || got.Skipped != 1 {
		t.Errorf("run = %+v", got)
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := Run{
			ID:        id,
			PlanID:    "plan-" + id,
			Status:    RunStatusFailed,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	recent, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d runs, want 2", len(recent))
	}
	if recent[0].ID != "run-c" || recent[1].ID != "run-b" {
		t.Errorf("order = %s, %s; want newest first", recent[0].ID, recent[1].ID)
	}
}
