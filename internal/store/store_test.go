package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCapsule(t *testing.T, when time.Time) *capsule.Capsule {
	t.Helper()
	return &capsule.Capsule{
		Project: capsule.ProjectInfo{Name: "demo", RootPath: "/tmp/demo", Branch: "main", Repo: "demo"},
		Context: capsule.ContextData{
			FileDiffs: []capsule.FileDiff{{Path: "main.go", Diff: "+x := 1\n", Additions: 1}},
			Summary:   "Added x to main.go.",
			WorkSession: &capsule.WorkSession{
				WorkType:      "development",
				ActivityScore: 40,
			},
		},
		Metadata: capsule.Metadata{
			Timestamp: when,
			Version:   capsule.SchemaVersion,
			SessionID: ulid.Make().String(),
		},
	}
}

func TestInitSetsSchemaVersion(t *testing.T) {
	db := testDB(t)
	version, err := GetUserVersion(db)
	if err != nil {
		t.Fatal(err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := testDB(t)
	c := testCapsule(t, time.Now().UTC().Truncate(time.Second))

	if err := Save(db, c); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(db, c.Metadata.SessionID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Project.Name != c.Project.Name {
		t.Errorf("Project.Name = %q, want %q", got.Project.Name, c.Project.Name)
	}
	if got.Metadata.Version != capsule.SchemaVersion {
		t.Errorf("Version = %q, want %q", got.Metadata.Version, capsule.SchemaVersion)
	}
	if !got.Metadata.Timestamp.Equal(c.Metadata.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Metadata.Timestamp, c.Metadata.Timestamp)
	}
	if got.Context.Summary != c.Context.Summary {
		t.Errorf("Summary = %q, want %q", got.Context.Summary, c.Context.Summary)
	}
}

func TestLoadMissing(t *testing.T) {
	db := testDB(t)
	_, err := Load(db, "nope")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Load() error = %v, want NOT_FOUND", err)
	}
}

func TestLatestAndListOrder(t *testing.T) {
	db := testDB(t)
	base := time.Now().UTC().Add(-time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		c := testCapsule(t, base.Add(time.Duration(i)*time.Minute))
		if err := Save(db, c); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, c.Metadata.SessionID)
	}

	latest, err := Latest(db)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Metadata.SessionID != ids[2] {
		t.Errorf("Latest() = %s, want %s", latest.Metadata.SessionID, ids[2])
	}

	entries, err := List(db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != ids[2] || entries[1].ID != ids[1] {
		t.Errorf("entries not newest-first: %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[0].WorkType != "development" {
		t.Errorf("WorkType = %q", entries[0].WorkType)
	}
}

func TestLatestEmpty(t *testing.T) {
	db := testDB(t)
	_, err := Latest(db)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Latest() error = %v, want NOT_FOUND", err)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	db := testDB(t)

	old := testCapsule(t, time.Now().UTC().Add(-10*24*time.Hour))
	fresh := testCapsule(t, time.Now().UTC())
	for _, c := range []*capsule.Capsule{old, fresh} {
		if err := Save(db, c); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := CleanupOlderThan(db, 7*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := Load(db, old.Metadata.SessionID); !errors.Is(err, errors.ErrNotFound) {
		t.Error("old capsule should be gone")
	}
	if _, err := Load(db, fresh.Metadata.SessionID); err != nil {
		t.Errorf("fresh capsule should survive: %v", err)
	}
}
