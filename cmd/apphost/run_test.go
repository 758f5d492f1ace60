package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand("1.2.3", "abc", "today")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunRendersPage(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.toml": `
root = "pages/home"
page = "index.html"
resources = ["apphost/upper", "widgets/badge"]
pluginPaths = ["modules"]

[[plugins]]
module = "greeter"
config = { greeting = "hello" }

[log]
level = "error"
`,
		"index.html": `<html><body><main id="applicationHost">loading</main></body></html>`,
		"modules/greeter.lua": `
return { install = function(config)
  if config.greeting ~= "hello" then return nil, "bad greeting" end
end }
`,
		"modules/widgets/badge.lua": `
return { kind = "attribute", apply = function(value) return { class = "badge-" .. value } end }
`,
		"modules/pages/home/init.lua": `
return {
  template = "<h1 badge=\"big\">{{convert \"upper\" .title}}</h1>",
  model = { title = "welcome" },
}
`,
	})

	out, err := execute(t, "run", "--config", filepath.Join(dir, "app.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, `<main id="applicationHost"><h1 badge="big" class="badge-big">WELCOME</h1></main>`)
	assert.NotContains(t, out, "loading")
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.yaml": "root: pages/missing\nlog:\n  level: error\n",
		"other.lua": `return { template = "<p>other</p>" }`,
	})

	out, err := execute(t, "run", "-c", filepath.Join(dir, "app.yaml"), "--root", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "<body><p>other</p></body>")
}

func TestRunWithoutRoot(t *testing.T) {
	t.Setenv("APPHOST_ROOT", "")
	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "no root element")
}

func TestRunPluginFailure(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.toml": "root = \"x\"\n[log]\nlevel = \"error\"\n[[plugins]]\nmodule = \"absent\"\n",
		"x.lua":    `return { template = "<i></i>" }`,
	})
	_, err := execute(t, "run", "--config", filepath.Join(dir, "app.toml"))
	assert.ErrorContains(t, err, "plugin absent")
}

func TestRunEmptyEnvKeepsConfiguredRoot(t *testing.T) {
	t.Setenv("APPHOST_ROOT", "")
	dir := writeTree(t, map[string]string{
		"app.toml": "root = \"x\"\n[log]\nlevel = \"error\"\n",
		"x.lua":    `return { template = "<i>x</i>" }`,
	})
	out, err := execute(t, "run", "--config", filepath.Join(dir, "app.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "<body><i>x</i></body>")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "apphost 1.2.3 (commit: abc, built: today)\n", out)
}
