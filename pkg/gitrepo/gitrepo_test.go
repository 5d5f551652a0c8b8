package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func gitDir(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v (%s)", err, out)
	}
	return dir
}

func testRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(gitDir(t), "portsync", "portsync@localhost")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return repo
}

func writeFile(t *testing.T, repo *Repo, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(repo.Root(), name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestOpenWithoutGitDisablesCommits(t *testing.T) {
	repo, err := Open(t.TempDir(), "portsync", "portsync@localhost")
	if err != nil {
		t.Fatalf("Open should tolerate a git-less root: %v", err)
	}
	if repo.Enabled() {
		t.Error("repo without .git should have commits disabled")
	}

	ctx := context.Background()
	writeFile(t, repo, "backups-sw-access-01.set", "set vlans corp vlan-id 100\n")

	hash, err := repo.CommitPaths(ctx, "backup: sw-access-01", "backups-sw-access-01.set")
	if err != nil {
		t.Fatalf("CommitPaths should skip, not fail: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash from skipped commit, got %q", hash)
	}
	if err := repo.Push(ctx); err != nil {
		t.Errorf("Push should be a no-op: %v", err)
	}
	if head, err := repo.Head(ctx); err != nil || head != "" {
		t.Errorf("Head = %q, %v; want empty, nil", head, err)
	}
}

func TestOpenRejectsMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), "portsync", "portsync@localhost")
	if err == nil {
		t.Fatal("expected error for missing root directory")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnabledRepo(t *testing.T) {
	repo := testRepo(t)
	if !repo.Enabled() {
		t.Error("initialized repo should have commits enabled")
	}
}

func TestCommitPaths(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	writeFile(t, repo, "backups-sw-access-01.set", "set vlans corp vlan-id 100\n")

	hash, err := repo.CommitPaths(ctx, "backup: sw-access-01", "backups-sw-access-01.set")
	if err != nil {
		t.Fatalf("CommitPaths failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected a commit hash")
	}

	// Unchanged content commits nothing
	hash2, err := repo.CommitPaths(ctx, "backup: sw-access-01", "backups-sw-access-01.set")
	if err != nil {
		t.Fatalf("second CommitPaths failed: %v", err)
	}
	if hash2 != "" {
		t.Errorf("expected no commit for unchanged file, got %s", hash2)
	}

	// Changed content commits again
	writeFile(t, repo, "backups-sw-access-01.set", "set vlans corp vlan-id 300\n")
	hash3, err := repo.CommitPaths(ctx, "backup: sw-access-01", "backups-sw-access-01.set")
	if err != nil {
		t.Fatalf("third CommitPaths failed: %v", err)
	}
	if hash3 == "" || hash3 == hash {
		t.Errorf("expected a new commit hash, got %q", hash3)
	}
}

func TestCommitAuthor(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	writeFile(t, repo, "intended-sw-access-01.conf", "set vlans corp vlan-id 100\n")
	if _, err := repo.CommitPaths(ctx, "intended: sw-access-01", "intended-sw-access-01.conf"); err != nil {
		t.Fatalf("CommitPaths failed: %v", err)
	}

	out, err := repo.git(ctx, "log", "-1", "--format=%an <%ae>")
	if err != nil {
		t.Fatalf("git log: %v", err)
	}
	if out != "portsync <portsync@localhost>" {
		t.Errorf("unexpected author: %s", out)
	}
}

func TestHeadAndLogOnEmptyRepo(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	head, err := repo.Head(ctx)
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != "" {
		t.Errorf("expected empty head in fresh repo, got %s", head)
	}

	entries, err := repo.Log(ctx, 5, "")
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no log entries, got %v", entries)
	}
}

func TestLog(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	writeFile(t, repo, "a.set", "one\n")
	if _, err := repo.CommitPaths(ctx, "first", "a.set"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	writeFile(t, repo, "a.set", "two\n")
	if _, err := repo.CommitPaths(ctx, "second", "a.set"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	entries, err := repo.Log(ctx, 10, "a.set")
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	if !strings.Contains(entries[0], "second") {
		t.Errorf("newest entry should be first: %v", entries)
	}
}
