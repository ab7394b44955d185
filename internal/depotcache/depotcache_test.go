package depotcache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("manifest"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocateIgnoresUnknownDepots(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "100_abc.manifest", "999_zzz.manifest")

	found, err := Locate(dir, Known{100: ""})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found = %+v, want exactly one match", found)
	}
	if found[0].DepotID != 100 || filepath.Base(found[0].Path) != "100_abc.manifest" {
		t.Fatalf("match = %+v", found[0])
	}
}

func TestLocateAttachesDLCName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "201_g1.manifest", "202_g2.manifest")

	found, err := Locate(dir, Known{201: "", 202: "Soundtrack"})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found = %+v", found)
	}
	if found[0].DLCName != "" || found[1].DLCName != "Soundtrack" {
		t.Fatalf("dlc names = %q, %q", found[0].DLCName, found[1].DLCName)
	}
}

func TestLocateSkipsMalformedNames(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"100_abc.manifest",
		"100.manifest",        // no gid separator
		"100_.manifest",       // empty gid
		"_abc.manifest",       // empty depot id
		"abc_def.manifest",    // non-numeric depot id
		"100_abc.manifest.bak", // wrong suffix
		"notes.txt",
	)
	if err := os.Mkdir(filepath.Join(dir, "101_dir.manifest"), 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := Locate(dir, Known{100: "", 101: ""})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(found) != 1 || found[0].DepotID != 100 {
		t.Fatalf("found = %+v, want only 100_abc.manifest", found)
	}
}

func TestLocateSortsByDepotID(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "300_b.manifest", "102_a.manifest", "205_c.manifest")

	found, err := Locate(dir, Known{102: "", 205: "", 300: ""})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	for i := 1; i < len(found); i++ {
		if found[i-1].DepotID > found[i].DepotID {
			t.Fatalf("not sorted: %+v", found)
		}
	}
}

func TestLocateMissingDirectory(t *testing.T) {
	if _, err := Locate(filepath.Join(t.TempDir(), "missing"), Known{1: ""}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
