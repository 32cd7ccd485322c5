package imports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knowns/knowns/internal/history"
	"github.com/knowns/knowns/internal/paths"
)

// localImport materializes a local source directory into a fresh project
// and returns the project root, the source dir, and the first result.
func localImport(t *testing.T, files map[string]string, opts Options) (string, string, ImportResult) {
	t.Helper()
	projectRoot := t.TempDir()
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, files)

	result := ImportSource(context.Background(), projectRoot, sourceDir, opts)
	return projectRoot, sourceDir, result
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestImportSourceLocal(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{
		"a.md":       "# A",
		"sub/b.md":   "# B",
		"notes.txt":  "n",
		".git/state": "ignored",
	}, Options{})

	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}
	if result.Type != SourceLocal {
		t.Errorf("type = %s, want local", result.Type)
	}
	wantName := filepath.Base(sourceDir)
	if result.Name != wantName {
		t.Errorf("name = %s, want %s", result.Name, wantName)
	}

	adds, updates, skips := result.Counts()
	if adds != 3 || updates != 0 || skips != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", adds, updates, skips)
	}

	dest := paths.ImportDir(projectRoot, result.Name)
	if got := readFile(t, filepath.Join(dest, "a.md")); got != "# A" {
		t.Errorf("a.md content = %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "sub", "b.md")); got != "# B" {
		t.Errorf("sub/b.md content = %q", got)
	}

	// Every materialized file has exactly one record with the fetched hash.
	meta, err := LoadMetadata(projectRoot, result.Name)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if meta == nil || len(meta.Files) != 3 {
		t.Fatalf("expected 3 file records, got %+v", meta)
	}
	rec, ok := meta.Record("a.md")
	if !ok {
		t.Fatal("no record for a.md")
	}
	if rec.ContentHash != hashBytes([]byte("# A")) {
		t.Error("record hash does not match fetched content")
	}
}

func TestSyncIdempotence(t *testing.T) {
	projectRoot, _, result := localImport(t, map[string]string{"a.md": "v1", "b.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	metaPath := paths.MetadataPath(projectRoot, result.Name)
	before := readFile(t, metaPath)

	second := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !second.Success {
		t.Fatalf("second sync failed: %s", second.Error)
	}
	adds, updates, skips := second.Counts()
	if adds != 0 || updates != 0 || skips != 2 {
		t.Errorf("second sync counts = %d/%d/%d, want 0/0/2", adds, updates, skips)
	}
	for _, c := range second.Changes {
		if c.SkipReason != SkipReasonUnchanged {
			t.Errorf("%s skip reason = %q, want unchanged", c.Path, c.SkipReason)
		}
	}

	// Zero manifest churn on the second run.
	if after := readFile(t, metaPath); after != before {
		t.Error("metadata changed on a no-op sync")
	}
}

func TestSyncUpdateAfterSourceChange(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}
	writeTree(t, sourceDir, map[string]string{"a.md": "v2"})

	second := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !second.Success {
		t.Fatalf("sync failed: %s", second.Error)
	}
	if len(second.Changes) != 1 || second.Changes[0].Action != ActionUpdate {
		t.Fatalf("expected one update, got %+v", second.Changes)
	}

	dest := filepath.Join(paths.ImportDir(projectRoot, result.Name), "a.md")
	if got := readFile(t, dest); got != "v2" {
		t.Errorf("destination content = %q, want v2", got)
	}

	// Post-sync record hash equals the fetched hash.
	meta, err := LoadMetadata(projectRoot, result.Name)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	rec, _ := meta.Record("a.md")
	if rec.ContentHash != hashBytes([]byte("v2")) {
		t.Error("record hash not updated to fetched hash")
	}
}

func TestSyncPreservesLocalModifications(t *testing.T) {
	projectRoot, _, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	// Edit the imported copy directly.
	dest := filepath.Join(paths.ImportDir(projectRoot, result.Name), "a.md")
	if err := os.WriteFile(dest, []byte("my local edit"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !second.Success {
		t.Fatalf("sync failed: %s", second.Error)
	}
	if len(second.Changes) != 1 {
		t.Fatalf("expected one change, got %d", len(second.Changes))
	}
	c := second.Changes[0]
	if c.Action != ActionSkip || c.SkipReason != SkipReasonLocalModifications {
		t.Errorf("change = %+v, want skip with local-modification reason", c)
	}
	if got := readFile(t, dest); got != "my local edit" {
		t.Errorf("local edit was clobbered, content = %q", got)
	}

	// force overwrites the local edit.
	forced := SyncImport(context.Background(), projectRoot, result.Name, Options{Force: true})
	if !forced.Success {
		t.Fatalf("forced sync failed: %s", forced.Error)
	}
	if got := readFile(t, dest); got != "v1" {
		t.Errorf("forced sync content = %q, want v1", got)
	}
}

func TestDryRunMutatesNothing(t *testing.T) {
	projectRoot := t.TempDir()
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{"a.md": "v1"})

	result := ImportSource(context.Background(), projectRoot, sourceDir, Options{DryRun: true})
	if !result.Success {
		t.Fatalf("dry-run import failed: %s", result.Error)
	}
	if len(result.Changes) != 1 || result.Changes[0].Action != ActionAdd {
		t.Errorf("expected one reported add, got %+v", result.Changes)
	}

	// No registry, no metadata, no materialized content.
	if _, err := os.Stat(paths.ProjectDir(projectRoot)); !os.IsNotExist(err) {
		t.Error("dry run created project state")
	}
}

func TestDryRunOnExistingImport(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}
	writeTree(t, sourceDir, map[string]string{"a.md": "v2"})

	metaPath := paths.MetadataPath(projectRoot, result.Name)
	before := readFile(t, metaPath)

	dry := SyncImport(context.Background(), projectRoot, result.Name, Options{DryRun: true})
	if !dry.Success {
		t.Fatalf("dry-run sync failed: %s", dry.Error)
	}
	if len(dry.Changes) != 1 || dry.Changes[0].Action != ActionUpdate {
		t.Errorf("expected one reported update, got %+v", dry.Changes)
	}

	// The classification ran, but nothing was written.
	dest := filepath.Join(paths.ImportDir(projectRoot, result.Name), "a.md")
	if got := readFile(t, dest); got != "v1" {
		t.Errorf("dry run wrote to destination, content = %q", got)
	}
	if after := readFile(t, metaPath); after != before {
		t.Error("dry run rewrote metadata")
	}
}

func TestImportSourceDuplicateName(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	second := ImportSource(context.Background(), projectRoot, sourceDir, Options{})
	if second.Success {
		t.Fatal("expected duplicate import to fail")
	}
	if !strings.Contains(second.Error, "already exists") {
		t.Errorf("error = %q, want duplicate-name message", second.Error)
	}
	if !strings.Contains(second.Hint, "--force") {
		t.Errorf("hint = %q, want the --force suggestion", second.Hint)
	}

	forced := ImportSource(context.Background(), projectRoot, sourceDir, Options{Force: true})
	if !forced.Success {
		t.Errorf("forced re-import failed: %s", forced.Error)
	}
}

func TestSyncAllPartialFailure(t *testing.T) {
	projectRoot := t.TempDir()

	var names []string
	var dirs []string
	for _, n := range []string{"one", "two", "three"} {
		dir := filepath.Join(t.TempDir(), n)
		writeTree(t, dir, map[string]string{"f.md": n})
		res := ImportSource(context.Background(), projectRoot, dir, Options{Name: n})
		if !res.Success {
			t.Fatalf("import %s failed: %s", n, res.Error)
		}
		names = append(names, n)
		dirs = append(dirs, dir)
	}

	// Import #2's source becomes unreachable.
	if err := os.RemoveAll(dirs[1]); err != nil {
		t.Fatal(err)
	}

	results, err := SyncAllImports(context.Background(), projectRoot, Options{})
	if err != nil {
		t.Fatalf("SyncAllImports: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("imports 1 and 3 should succeed: %+v", results)
	}
	if results[1].Success {
		t.Error("import 2 should fail")
	}
	if !strings.Contains(results[1].Error, "source") {
		t.Errorf("import 2 error = %q, want source-resolution message", results[1].Error)
	}
	for i, res := range results {
		if res.Name != names[i] {
			t.Errorf("results[%d].Name = %s, want %s (registry order)", i, res.Name, names[i])
		}
	}
}

func TestRemoveImportKeepsFiles(t *testing.T) {
	projectRoot, _, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}
	dest := filepath.Join(paths.ImportDir(projectRoot, result.Name), "a.md")

	deleted, err := RemoveImport(projectRoot, result.Name, false)
	if err != nil {
		t.Fatalf("RemoveImport: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true")
	}

	// Files survive; the registry entry does not.
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("materialized file should remain: %v", err)
	}
	entries, err := GetImportsWithMetadata(projectRoot)
	if err != nil {
		t.Fatalf("GetImportsWithMetadata: %v", err)
	}
	for _, e := range entries {
		if e.Config.Name == result.Name {
			t.Error("registry still lists removed import")
		}
	}
}

func TestRemoveImportDeleteFiles(t *testing.T) {
	projectRoot, _, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	if _, err := RemoveImport(projectRoot, result.Name, true); err != nil {
		t.Fatalf("RemoveImport: %v", err)
	}
	if _, err := os.Stat(paths.ImportDir(projectRoot, result.Name)); !os.IsNotExist(err) {
		t.Error("materialized content should be deleted")
	}
	meta, err := LoadMetadata(projectRoot, result.Name)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if meta != nil {
		t.Error("metadata should be deleted")
	}
}

func TestLinkedImport(t *testing.T) {
	projectRoot := t.TempDir()
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{"a.md": "live"})

	result := ImportSource(context.Background(), projectRoot, sourceDir, Options{Name: "linked", Link: true})
	if !result.Success {
		t.Fatalf("linked import failed: %s", result.Error)
	}

	dest := paths.ImportDir(projectRoot, "linked")
	info, err := os.Lstat(dest)
	if err != nil {
		t.Fatalf("lstat destination: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("destination is not a symlink")
	}

	// Content is live: edits to the source show through immediately.
	writeTree(t, sourceDir, map[string]string{"a.md": "updated live"})
	if got := readFile(t, filepath.Join(dest, "a.md")); got != "updated live" {
		t.Errorf("linked content = %q, want updated live", got)
	}

	// Symlinked imports carry no file records.
	meta, err := LoadMetadata(projectRoot, "linked")
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if meta == nil {
		t.Fatal("expected metadata for linked import")
	}
	if len(meta.Files) != 0 {
		t.Errorf("linked import has %d file records, want 0", len(meta.Files))
	}

	// Re-linking is idempotent.
	again := SyncImport(context.Background(), projectRoot, "linked", Options{})
	if !again.Success {
		t.Errorf("re-link failed: %s", again.Error)
	}

	// Removal unlinks without touching the source.
	if _, err := RemoveImport(projectRoot, "linked", true); err != nil {
		t.Fatalf("RemoveImport: %v", err)
	}
	if _, err := os.Lstat(dest); !os.IsNotExist(err) {
		t.Error("symlink should be removed")
	}
	if got := readFile(t, filepath.Join(sourceDir, "a.md")); got != "updated live" {
		t.Error("original source was destroyed by removal")
	}
}

func TestLinkedImportConflict(t *testing.T) {
	projectRoot := t.TempDir()
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{"a.md": "live"})

	// A real directory already occupies the destination.
	writeTree(t, filepath.Join(paths.ImportDir(projectRoot, "linked")), map[string]string{"old.md": "old"})

	result := ImportSource(context.Background(), projectRoot, sourceDir, Options{Name: "linked", Link: true})
	if result.Success {
		t.Fatal("expected conflict for existing real directory")
	}
	if !strings.Contains(result.Error, "incompatible") && !strings.Contains(result.Error, "conflict") {
		t.Errorf("error = %q, want conflict message", result.Error)
	}

	forced := ImportSource(context.Background(), projectRoot, sourceDir, Options{Name: "linked", Link: true, Force: true})
	if !forced.Success {
		t.Fatalf("forced link failed: %s", forced.Error)
	}
	info, err := os.Lstat(paths.ImportDir(projectRoot, "linked"))
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Error("force did not replace the directory with a symlink")
	}
}

func TestIncludeExcludeFlowThroughSync(t *testing.T) {
	projectRoot := t.TempDir()
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{
		"docs/a.md":    "a",
		"docs/b.md":    "b",
		"docs/skip.md": "s",
		"src/c.go":     "c",
	})

	result := ImportSource(context.Background(), projectRoot, sourceDir, Options{
		Name:    "docs",
		Include: []string{"docs/**"},
		Exclude: []string{"**/skip.md"},
	})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	var got []string
	for _, c := range result.Changes {
		got = append(got, c.Path)
	}
	want := []string{"docs/a.md", "docs/b.md"}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("changes[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSyncUnknownImport(t *testing.T) {
	result := SyncImport(context.Background(), t.TempDir(), "ghost", Options{})
	if result.Success {
		t.Fatal("expected failure for unknown import")
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("error = %q, want not-found message", result.Error)
	}
	if result.Hint == "" {
		t.Error("expected a hint on the not-found result")
	}
}

func TestSyncKeepsRecordForDroppedSourceFile(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{
		"a.md": "# A",
		"b.md": "v1",
	}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}
	dest := paths.ImportDir(projectRoot, result.Name)

	// The source drops b.md; the materialized copy stays.
	if err := os.Remove(filepath.Join(sourceDir, "b.md")); err != nil {
		t.Fatal(err)
	}
	second := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !second.Success {
		t.Fatalf("second sync failed: %s", second.Error)
	}
	if _, err := os.Stat(filepath.Join(dest, "b.md")); err != nil {
		t.Fatalf("materialized b.md should survive a source drop: %v", err)
	}
	meta, err := LoadMetadata(projectRoot, result.Name)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if _, ok := meta.Record("b.md"); !ok {
		t.Fatal("b.md is still materialized but lost its record")
	}

	// A local edit followed by the source re-adding b.md must not clobber.
	if err := os.WriteFile(filepath.Join(dest, "b.md"), []byte("local edit"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeTree(t, sourceDir, map[string]string{"b.md": "v2"})

	third := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !third.Success {
		t.Fatalf("third sync failed: %s", third.Error)
	}
	for _, c := range third.Changes {
		if c.Path == "b.md" {
			if c.Action != ActionSkip || c.SkipReason != SkipReasonLocalModifications {
				t.Errorf("b.md change = %s/%q, want skip with local-modification reason", c.Action, c.SkipReason)
			}
		}
	}
	if got := readFile(t, filepath.Join(dest, "b.md")); got != "local edit" {
		t.Errorf("b.md = %q, local edit was clobbered", got)
	}

	// Force restores the re-added source content.
	forced := SyncImport(context.Background(), projectRoot, result.Name, Options{Force: true})
	if !forced.Success {
		t.Fatalf("forced sync failed: %s", forced.Error)
	}
	if got := readFile(t, filepath.Join(dest, "b.md")); got != "v2" {
		t.Errorf("b.md after force = %q, want v2", got)
	}
}

func TestSyncDropsRecordForLocallyDeletedOrphan(t *testing.T) {
	projectRoot, sourceDir, result := localImport(t, map[string]string{
		"a.md": "# A",
		"b.md": "v1",
	}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	// Both the source file and the materialized copy are gone.
	if err := os.Remove(filepath.Join(sourceDir, "b.md")); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(paths.ImportDir(projectRoot, result.Name), "b.md")); err != nil {
		t.Fatal(err)
	}

	second := SyncImport(context.Background(), projectRoot, result.Name, Options{})
	if !second.Success {
		t.Fatalf("second sync failed: %s", second.Error)
	}
	meta, err := LoadMetadata(projectRoot, result.Name)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if _, ok := meta.Record("b.md"); ok {
		t.Error("record for a fully deleted file should be dropped")
	}
	if len(meta.Files) != 1 {
		t.Errorf("expected 1 record, got %d", len(meta.Files))
	}
}

func TestSyncRecordsHistory(t *testing.T) {
	projectRoot, _, result := localImport(t, map[string]string{"a.md": "v1"}, Options{})
	if !result.Success {
		t.Fatalf("import failed: %s", result.Error)
	}

	journal, err := history.Open(paths.HistoryDBPath(projectRoot))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer func() { _ = journal.Close() }()

	runs, err := journal.List(result.Name, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if !runs[0].Success || runs[0].Added != 1 {
		t.Errorf("run = %+v, want success with 1 add", runs[0])
	}

	// Dry runs leave no journal entry.
	dry := SyncImport(context.Background(), projectRoot, result.Name, Options{DryRun: true})
	if !dry.Success {
		t.Fatalf("dry sync failed: %s", dry.Error)
	}
	runs, err = journal.List(result.Name, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("dry run was journaled: got %d runs", len(runs))
	}
}
