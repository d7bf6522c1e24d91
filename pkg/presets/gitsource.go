package presets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"mercator-hq/europa/pkg/config"
)

// gitOperationTimeout bounds individual clone and fetch operations so a
// stuck remote never wedges the poll loop.
const gitOperationTimeout = 2 * time.Minute

// PullResult reports the outcome of a repository sync.
type PullResult struct {
	FromSHA    string
	ToSHA      string
	HadChanges bool
}

// Repository manages the local clone of a git-backed preset library.
type Repository struct {
	config   *config.GitPresetsConfig
	cacheDir string
	auth     AuthProvider
	repo     *gogit.Repository
	mu       sync.Mutex
}

// NewRepository creates a repository manager for the configured preset
// repo. The clone happens lazily on the first Sync call.
func NewRepository(cfg *config.GitPresetsConfig) (*Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("git config cannot be nil")
	}
	if cfg.Repo == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}

	branch := cfg.Branch
	if branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}

	auth, err := NewAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "europa-presets")
	}

	return &Repository{
		config:   cfg,
		cacheDir: cacheDir,
		auth:     auth,
	}, nil
}

// Sync brings the local clone up to date with the remote branch. The
// first call clones (or opens an existing clone); later calls pull.
func (r *Repository) Sync(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		if err := r.open(ctx); err != nil {
			return nil, err
		}
		head, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD: %w", err)
		}
		sha := head.Hash().String()
		return &PullResult{FromSHA: sha, ToSHA: sha, HadChanges: true}, nil
	}

	return r.pull(ctx)
}

// open opens an existing clone under the cache directory, or clones the
// remote when none exists.
func (r *Repository) open(ctx context.Context) error {
	gitDir := filepath.Join(r.cacheDir, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		repo, err := gogit.PlainOpen(r.cacheDir)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	auth, err := r.auth.GetAuth()
	if err != nil {
		return fmt.Errorf("failed to get auth: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, gitOperationTimeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.cacheDir, false, &gogit.CloneOptions{
		URL:           r.config.Repo,
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	r.repo = repo
	return nil
}

// pull fetches the tracked branch and reports whether HEAD moved.
func (r *Repository) pull(ctx context.Context) (*PullResult, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := ref.Hash().String()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	auth, err := r.auth.GetAuth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, gitOperationTimeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	newRef, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	toSHA := newRef.Hash().String()

	return &PullResult{
		FromSHA:    fromSHA,
		ToSHA:      toSHA,
		HadChanges: fromSHA != toSHA,
	}, nil
}

// HeadSHA returns the current HEAD commit SHA of the local clone.
func (r *Repository) HeadSHA() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return "", fmt.Errorf("repository not initialized, call Sync() first")
	}
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// PresetDir returns the directory presets are loaded from: the
// configured subdirectory within the local clone.
func (r *Repository) PresetDir(subdir string) string {
	return filepath.Join(r.cacheDir, subdir)
}

// CacheDir returns the local clone location.
func (r *Repository) CacheDir() string {
	return r.cacheDir
}
