package presets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"mercator-hq/europa/pkg/config"
)

// initPresetRepo creates a local git repository holding one preset under
// the presets/ subdirectory.
func initPresetRepo(t *testing.T, dir string) *gogit.Repository {
	t.Helper()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	sub := filepath.Join(dir, "presets")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create presets dir: %v", err)
	}
	writePreset(t, sub, "quartz.yaml", validPresetYAML)

	commitAll(t, repo, "add quartz preset")
	return repo
}

func commitAll(t *testing.T, repo *gogit.Repository, message string) string {
	t.Helper()

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		t.Fatalf("failed to add files: %v", err)
	}
	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

func gitLibraryConfig(sourceDir, cacheDir string) *config.PresetsConfig {
	return &config.PresetsConfig{
		Enabled: true,
		Source:  "git",
		Path:    "presets",
		Git: config.GitPresetsConfig{
			Repo:     sourceDir,
			Branch:   "master", // go-git init defaults to master
			CacheDir: cacheDir,
		},
	}
}

func TestNewRepositoryValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.GitPresetsConfig
	}{
		{"nil config", nil},
		{"empty repo URL", &config.GitPresetsConfig{Branch: "main"}},
		{"empty branch", &config.GitPresetsConfig{Repo: "https://example.com/r.git"}},
		{"bad auth", &config.GitPresetsConfig{
			Repo:   "https://example.com/r.git",
			Branch: "main",
			Auth:   config.GitAuthConfig{Method: "carrier-pigeon"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRepository(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRepositorySyncClonesAndPulls(t *testing.T) {
	sourceDir := t.TempDir()
	source := initPresetRepo(t, sourceDir)

	cfg := &config.GitPresetsConfig{
		Repo:     sourceDir,
		Branch:   "master",
		CacheDir: t.TempDir(),
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	// First sync clones and always reports changes.
	result, err := repo.Sync(context.Background())
	if err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if !result.HadChanges {
		t.Error("first Sync() should report changes")
	}

	// Second sync without remote changes is a no-op.
	result, err = repo.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.HadChanges {
		t.Error("Sync() without remote changes reported changes")
	}

	// Push a new commit to the source and sync again.
	sub := filepath.Join(sourceDir, "presets")
	second := strings.Replace(validPresetYAML, "quartz-survey", "feldspar-survey", 1)
	writePreset(t, sub, "feldspar.yaml", second)
	wantSHA := commitAll(t, source, "add feldspar preset")

	result, err = repo.Sync(context.Background())
	if err != nil {
		t.Fatalf("third Sync() error = %v", err)
	}
	if !result.HadChanges {
		t.Error("Sync() after remote commit should report changes")
	}
	if result.ToSHA != wantSHA {
		t.Errorf("ToSHA = %s, want %s", result.ToSHA, wantSHA)
	}

	head, err := repo.HeadSHA()
	if err != nil {
		t.Fatalf("HeadSHA() error = %v", err)
	}
	if head != wantSHA {
		t.Errorf("HeadSHA() = %s, want %s", head, wantSHA)
	}
}

func TestRepositorySyncReusesExistingClone(t *testing.T) {
	sourceDir := t.TempDir()
	initPresetRepo(t, sourceDir)
	cacheDir := t.TempDir()

	cfg := &config.GitPresetsConfig{Repo: sourceDir, Branch: "master", CacheDir: cacheDir}

	first, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := first.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// A new manager over the same cache dir opens instead of cloning.
	second, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := second.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() over existing clone error = %v", err)
	}
}

func TestRepositoryHeadBeforeSync(t *testing.T) {
	cfg := &config.GitPresetsConfig{
		Repo:     "https://example.com/r.git",
		Branch:   "main",
		CacheDir: t.TempDir(),
	}
	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := repo.HeadSHA(); err == nil {
		t.Error("HeadSHA() before Sync should error")
	}
}

func TestRepositorySyncNonexistentRemote(t *testing.T) {
	cfg := &config.GitPresetsConfig{
		Repo:     filepath.Join(t.TempDir(), "missing"),
		Branch:   "master",
		CacheDir: t.TempDir(),
	}
	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := repo.Sync(context.Background()); err == nil {
		t.Error("Sync() against missing remote should error")
	}
}

func TestLibraryGitSource(t *testing.T) {
	sourceDir := t.TempDir()
	source := initPresetRepo(t, sourceDir)

	lib, err := NewLibrary(gitLibraryConfig(sourceDir, t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	defer lib.Close()

	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := lib.Get("quartz-survey"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// New commit in the source repo shows up after an explicit reload.
	sub := filepath.Join(sourceDir, "presets")
	second := strings.Replace(validPresetYAML, "quartz-survey", "feldspar-survey", 1)
	writePreset(t, sub, "feldspar.yaml", second)
	commitAll(t, source, "add feldspar preset")

	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if _, err := lib.Get("feldspar-survey"); err != nil {
		t.Errorf("Get(feldspar-survey) after reload error = %v", err)
	}
}

func TestRepositoryPresetDir(t *testing.T) {
	cacheDir := t.TempDir()
	cfg := &config.GitPresetsConfig{
		Repo:     "https://example.com/r.git",
		Branch:   "main",
		CacheDir: cacheDir,
	}
	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	want := filepath.Join(cacheDir, "presets")
	if got := repo.PresetDir("presets"); got != want {
		t.Errorf("PresetDir() = %s, want %s", got, want)
	}
	if repo.CacheDir() != cacheDir {
		t.Errorf("CacheDir() = %s, want %s", repo.CacheDir(), cacheDir)
	}
}
