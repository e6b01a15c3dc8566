package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = `brand,model,processor,ram_gb,storage_gb,battery_capacity_mah,back_camera_mp,screen_size_inches,launched_price_rs
Samsung,Galaxy M34,Exynos 1280,6,128,6000,50,6.5,16999
Xiaomi,Redmi Note 13 Pro,Snapdragon 7s Gen 2,8,256,5100,200,6.67,24999
Apple,iPhone 15,A16 Bionic,6,128,3349,48,6.1,79900
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phones.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, "", "--no-color", "--csv", path, "search", "phone", "under", "30000")
	require.NoError(t, err)
	assert.Contains(t, out, "under ₹30000")
	assert.Contains(t, out, "Samsung Galaxy M34")
	assert.Contains(t, out, "Xiaomi Redmi Note 13 Pro")
	assert.NotContains(t, out, "iPhone 15")
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := run(t, "", "--csv", writeCatalog(t), "search")
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, "I want a phone\n20k\nexit\n", "--no-color", "--csv", path, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Phone Advisor")
	assert.Contains(t, out, "What's your budget for the phone?")
	assert.Contains(t, out, "Galaxy M34")
	assert.Contains(t, out, "Goodbye!")
}

func TestImportCommand_CSVCatalogIsReadOnly(t *testing.T) {
	path := writeCatalog(t)

	_, err := run(t, "", "--no-color", "--csv", path, "import", path)
	assert.Error(t, err)
}
