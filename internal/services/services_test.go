// filepath: internal/services/services_test.go
package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mediashelf/internal/config"
	"mediashelf/internal/db/migrations"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"
	"mediashelf/internal/storage"

	"github.com/pressly/goose/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRoot = "/lib"

// nopAuditor discards audit events.
type nopAuditor struct{}

func (nopAuditor) Log(context.Context, string, string, string, map[string]interface{}) {}

// mockThumbnailer records thumbnail requests.
type mockThumbnailer struct {
	mock.Mock
}

func (m *mockThumbnailer) Generate(ctx context.Context, req models.ThumbnailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type testEnv struct {
	Repo    *repository.Repository
	Fs      afero.Fs
	Storage *StorageService
	Cfg     *config.Config
}

// setupIntegrationTest creates a real Repo on a temp database and a StorageService on an in-memory filesystem.
func setupIntegrationTest(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Library.Root = testRoot
	cfg.Library.PageSize = 4
	require.NoError(t, cfg.ParseAndValidate())

	repo, err := repository.NewRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.Up(repo.DB, "."); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRoot, 0755))
	return &testEnv{
		Repo:    repo,
		Fs:      fs,
		Storage: NewStorageService(cfg, fs),
		Cfg:     cfg,
	}
}

// writeFile creates a library file with the given content.
func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	p, err := storage.Resolve(testRoot, rel)
	require.NoError(t, err)
	_, err = storage.SaveFile(e.Fs, strings.NewReader(content), p)
	require.NoError(t, err)
}

// exists reports whether a library relative path exists.
func (e *testEnv) exists(t *testing.T, rel string) bool {
	t.Helper()
	ok, err := afero.Exists(e.Fs, filepath.Join(testRoot, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return ok
}

// insert stores an item row for rel, creating its file when it is not a folder.
func (e *testEnv) insert(t *testing.T, rel string, fileType models.FileType, createdAt int64) *models.Item {
	t.Helper()
	ctx := context.Background()
	item := &models.Item{
		Name:        filepath.Base(rel),
		Path:        rel,
		FileType:    fileType,
		CreatedAt:   createdAt,
		ContentHash: "hash-" + rel,
	}
	if parent := storage.ParentRel(rel); parent != "" {
		p, err := e.Repo.GetItemByPath(ctx, parent)
		require.NoError(t, err)
		item.ParentID = &p.ID
	}
	if fileType == models.FileTypeFolder {
		require.NoError(t, e.Fs.MkdirAll(filepath.Join(testRoot, filepath.FromSlash(rel)), 0755))
	} else {
		e.writeFile(t, rel, rel)
	}
	created, err := e.Repo.InsertItem(ctx, item)
	require.NoError(t, err)
	return created
}

// mockAuditor records audit events.
type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{}) {
	m.Called(ctx, action, actor, resource, details)
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = mock.Anything
	}
	return args
}
