package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/yuqueback-go/internal/app"
	"github.com/quantmind-br/yuqueback-go/internal/archive"
	"github.com/quantmind-br/yuqueback-go/internal/config"
	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/output"
	"github.com/quantmind-br/yuqueback-go/internal/plan"
	"github.com/quantmind-br/yuqueback-go/internal/state"
	"github.com/quantmind-br/yuqueback-go/tests/testutil"
)

func strPtr(s string) *string { return &s }

func pipelineConfig(host, dir string) *config.Config {
	cfg := config.Default()
	cfg.Host = host
	cfg.Token = "secret"
	cfg.Target = config.TargetConfig{Type: "groups", Login: "acme"}
	cfg.Limit = 100
	cfg.Output.Dir = dir
	cfg.Assets.Enabled = false
	cfg.Assets.Cache = false
	cfg.Logging = config.LoggingConfig{Level: "error", Format: "json"}
	return cfg
}

func runDirs(t *testing.T, baseDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(baseDir, entry.Name()))
		}
	}
	return dirs
}

func loadMetadata(t *testing.T, baseDir string) *state.Metadata {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(baseDir, state.MetadataFileName))
	require.NoError(t, err)
	meta := state.NewMetadata()
	require.NoError(t, json.Unmarshal(raw, meta))
	return meta
}

// TestBackupArchiveCycle walks the full lifecycle: initial backup,
// remote edit, incremental re-backup, then compaction of the old run.
func TestBackupArchiveCycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}

	rev1 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	cat := testutil.NewCatalog("secret")
	cat.AddBook(domain.Book{ID: 7, Slug: "guides", Name: "Guides", UpdatedAt: rev1})
	cat.AddDocument(7, domain.Document{
		ID:        101,
		Slug:      "intro",
		Title:     "Intro",
		Format:    "lake",
		CreatedAt: rev1,
		UpdatedAt: rev1,
		Body:      strPtr("first draft"),
	})
	srv := testutil.NewYuqueServer(t, "groups", "acme", cat)

	baseDir := t.TempDir()
	cfg := pipelineConfig(srv.URL, baseDir)

	orch, err := app.NewOrchestrator(app.OrchestratorOptions{Config: cfg})
	require.NoError(t, err)
	defer orch.Close()

	ctx := context.Background()
	require.NoError(t, orch.Run(ctx))

	runs := runDirs(t, baseDir)
	require.Len(t, runs, 1)
	require.FileExists(t, filepath.Join(runs[0], "doc101.json"))
	assert.Equal(t, 1, cat.Hits("/api/v2/repos/7/docs/101"))

	// The document changes remotely; the previous run ages past the
	// retention window.
	rev2 := rev1.Add(2 * time.Hour)
	cat.Touch(7, 101, rev2)

	agedName := time.Now().Add(-45 * 24 * time.Hour).Format(output.RunDirLayout)
	agedDir := filepath.Join(baseDir, agedName)
	require.NoError(t, os.Rename(runs[0], agedDir))

	require.NoError(t, orch.Run(ctx))

	runs = runDirs(t, baseDir)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, cat.Hits("/api/v2/repos/7/docs/101"))

	meta := loadMetadata(t, baseDir)
	require.Contains(t, meta.Items, int64(101))
	assert.True(t, meta.Items[101].LastUpdated.Equal(rev2))
	assert.Len(t, meta.Items[101].Backups, 2)

	archiver := archive.New(archive.Options{
		BaseDir: baseDir,
		Logger:  testutil.NewTestLogger(t),
	})
	archived, err := archiver.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	assert.FileExists(t, agedDir+archive.Suffix)
	assert.NoDirExists(t, agedDir)

	// The fresh run and the metadata survive compaction.
	assert.Len(t, runDirs(t, baseDir), 1)
	assert.FileExists(t, filepath.Join(baseDir, state.MetadataFileName))
}

// TestPlanBacksUpSeparateHosts drives two targets on different hosts
// from a plan file on disk.
func TestPlanBacksUpSeparateHosts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}

	rev := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	groupCat := testutil.NewCatalog("secret")
	groupCat.AddBook(domain.Book{ID: 7, Slug: "guides", Name: "Guides", UpdatedAt: rev})
	groupCat.AddDocument(7, domain.Document{
		ID: 101, Slug: "intro", Title: "Intro",
		CreatedAt: rev, UpdatedAt: rev,
		Body: strPtr("group doc"),
	})
	groupSrv := testutil.NewYuqueServer(t, "groups", "acme", groupCat)

	userCat := testutil.NewCatalog("secret")
	userCat.AddBook(domain.Book{ID: 31, Slug: "journal", Name: "Journal", UpdatedAt: rev})
	userCat.AddDocument(31, domain.Document{
		ID: 202, Slug: "notes", Title: "Notes",
		CreatedAt: rev, UpdatedAt: rev,
		Body: strPtr("user doc"),
	})
	userSrv := testutil.NewYuqueServer(t, "users", "somebody", userCat)

	baseDir := t.TempDir()
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	planYAML := fmt.Sprintf(`targets:
  - login: acme
    host: %s
  - login: somebody
    type: users
    host: %s
options:
  continue_on_error: true
`, groupSrv.URL, userSrv.URL)
	require.NoError(t, os.WriteFile(planPath, []byte(planYAML), 0644))

	planCfg, err := plan.NewLoader().Load(planPath)
	require.NoError(t, err)

	cfg := pipelineConfig(groupSrv.URL, baseDir)

	orch, err := app.NewOrchestrator(app.OrchestratorOptions{Config: cfg})
	require.NoError(t, err)
	defer orch.Close()

	require.NoError(t, orch.RunPlan(context.Background(), planCfg))

	groupMeta := loadMetadata(t, filepath.Join(baseDir, "acme"))
	assert.Contains(t, groupMeta.Items, int64(101))

	userMeta := loadMetadata(t, filepath.Join(baseDir, "somebody"))
	assert.Contains(t, userMeta.Items, int64(202))

	assert.Equal(t, 1, groupCat.Hits("/api/v2/groups/acme/repos"))
	assert.Equal(t, 1, userCat.Hits("/api/v2/users/somebody/repos"))
}
