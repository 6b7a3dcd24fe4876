package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

const recipeFile = `recipes:
  - title: Tomato Soup
    description: A quick weeknight soup.
    preparation_duration: 25
    servings: 4
    skill_level: low
    category: Dinner
    ingredients:
      - {name: Tomatoes, quantity: "6"}
      - {name: Basil, quantity: a handful}
    instructions:
      - Roast the tomatoes.
      - Blend with basil.
`

// useTempDB points SPICE_DB_URL at a fresh sqlite file
func useTempDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPICE_DB_DRIVER", "sqlite")
	t.Setenv("SPICE_DB_URL", "file:"+filepath.Join(dir, "spice.db")+"?_foreign_keys=on")
	t.Setenv("SPICE_S3_BUCKET", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied ")
	assert.NotContains(t, out, "Applied 0 migrations")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 0 migrations")
}

func TestSeed(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Skill level 1: low")
	assert.Contains(t, out, "Skill level 3: high")

	// Seeding twice reuses the existing rows
	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Skill level 1: low")
	assert.NotContains(t, out, "Skill level 4")
}

func TestImportAndExport(t *testing.T) {
	dir := useTempDB(t)
	recipes := filepath.Join(dir, "recipes")
	require.NoError(t, os.Mkdir(recipes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(recipes, "soup.yaml"), []byte(recipeFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(recipes, "notes.txt"), []byte("ignored"), 0o644))

	out, err := run(t, "import", "--dir", recipes)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 recipes from 1 files (0 unchanged, 0 failed)")

	snapshotPath := filepath.Join(dir, "out", "snapshot.json")
	out, err = run(t, "export", "--out", snapshotPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot written to "+snapshotPath)

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	var snap catalog.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	require.Len(t, snap.Recipes, 1)
	assert.Equal(t, "Tomato Soup", snap.Recipes[0].Title)
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Dinner", snap.Categories[0].Name)
	require.Len(t, snap.SkillLevels, 1)
	assert.Equal(t, "low", snap.SkillLevels[0].Level)
}

func TestImport_Errors(t *testing.T) {
	t.Run("missing dir flag", func(t *testing.T) {
		useTempDB(t)
		_, err := run(t, "import")
		require.Error(t, err)
	})

	t.Run("invalid recipe", func(t *testing.T) {
		dir := useTempDB(t)
		bad := "recipes:\n  - title: No Description\n    preparation_duration: 5\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(bad), 0o644))

		out, err := run(t, "import", "--dir", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 recipes failed to import")
		assert.Contains(t, out, "0 unchanged, 1 failed")
	})

	t.Run("directory does not exist", func(t *testing.T) {
		dir := useTempDB(t)
		_, err := run(t, "import", "--dir", filepath.Join(dir, "missing"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read directory")
	})
}

func TestExport_RequiresDestination(t *testing.T) {
	useTempDB(t)

	_, err := run(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out")
}

func TestPurgeTokens(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "purge-tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "Purged 0 expired revocations")
}

func TestStorageFlags(t *testing.T) {
	useTempDB(t)

	_, err := run(t, "--db-driver", "mysql", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database driver")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := useTempDB(t)

	_, err := run(t, "--log-level", "loud", "import", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
