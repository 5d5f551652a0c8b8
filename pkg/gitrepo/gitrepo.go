// Package gitrepo maintains the audit trail: backups and intended configs
// are committed to a git repository via the git binary.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/portsync-network/portsync/pkg/util"
)

// Repo is a working tree holding the audit artifacts. Commits are
// attributed to the configured author without touching the repository's
// own config. A tree without a .git directory still accepts artifacts;
// commit operations are skipped with a warning.
type Repo struct {
	root        string
	authorName  string
	authorEmail string
	enabled     bool
}

// Open returns a handle on the working tree at root. The directory must
// exist; a missing .git directory disables commits rather than failing, so
// artifacts are still written.
func Open(root, authorName, authorEmail string) (*Repo, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("repository root %s does not exist: %w",
				root, util.ErrDependencyMissing)
		}
		return nil, err
	}

	repo := &Repo{root: root, authorName: authorName, authorEmail: authorEmail}

	info, err := os.Stat(filepath.Join(root, ".git"))
	switch {
	case err == nil && info.IsDir():
		repo.enabled = true
	case err == nil:
		return nil, fmt.Errorf("%s/.git is not a directory", root)
	case os.IsNotExist(err):
		util.Warnf("%s is not a git repository (no .git directory), skipping git commits", root)
	default:
		return nil, err
	}
	return repo, nil
}

// Root returns the working tree root.
func (r *Repo) Root() string {
	return r.root
}

// Enabled reports whether the tree is a git repository and commits will be
// recorded.
func (r *Repo) Enabled() bool {
	return r.enabled
}

// git runs a git subcommand in the working tree and returns trimmed output.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("git %s: %v (%s)", args[0], err, output)
	}
	return output, nil
}

// Add stages the given paths (relative to the repo root).
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := r.git(ctx, args...)
	return err
}

// HasStagedChanges returns true if the index differs from HEAD. Works in a
// repository with no commits yet.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = r.root
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		// Exit 1 means differences; anything else (including a missing
		// HEAD on a fresh repo) falls through to the status check.
		if exitErr.ExitCode() == 1 {
			return true, nil
		}
	}
	out, serr := r.git(ctx, "status", "--porcelain")
	if serr != nil {
		return false, serr
	}
	return out != "", nil
}

// Commit creates a commit with the configured author. Returns the short
// hash of the new commit.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	args := []string{
		"-c", "user.name=" + r.authorName,
		"-c", "user.email=" + r.authorEmail,
		"commit", "-m", message,
	}
	if _, err := r.git(ctx, args...); err != nil {
		return "", err
	}
	return r.Head(ctx)
}

// CommitPaths stages paths and commits them if anything changed. Returns
// the short commit hash, or "" when there was nothing to commit or the
// tree is not a git repository.
func (r *Repo) CommitPaths(ctx context.Context, message string, paths ...string) (string, error) {
	if !r.enabled {
		util.Warnf("git: skipping commit of %v (%s is not a repository)", paths, r.root)
		return "", nil
	}
	if err := r.Add(ctx, paths...); err != nil {
		return "", err
	}
	changed, err := r.HasStagedChanges(ctx)
	if err != nil {
		return "", err
	}
	if !changed {
		util.Debugf("git: nothing to commit for %v", paths)
		return "", nil
	}
	return r.Commit(ctx, message)
}

// Push pushes the current branch to its upstream. A no-op when the tree is
// not a git repository.
func (r *Repo) Push(ctx context.Context) error {
	if !r.enabled {
		return nil
	}
	out, err := r.git(ctx, "push")
	if err != nil {
		return err
	}
	if out != "" {
		util.Debugf("git push: %s", out)
	}
	return nil
}

// Head returns the short hash of HEAD, or "" in a repo with no commits.
func (r *Repo) Head(ctx context.Context) (string, error) {
	if !r.enabled {
		return "", nil
	}
	out, err := r.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		if strings.Contains(out, "unknown revision") || strings.Contains(out, "ambiguous argument") || strings.Contains(out, "Needed a single revision") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Log returns the last n one-line log entries for a path ("" for the whole
// tree).
func (r *Repo) Log(ctx context.Context, n int, path string) ([]string, error) {
	if !r.enabled {
		return nil, nil
	}
	args := []string{"log", fmt.Sprintf("-%d", n), "--oneline"}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := r.git(ctx, args...)
	if err != nil {
		if strings.Contains(out, "does not have any commits yet") {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
