// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/invowk/nakoload/internal/config"
	"github.com/invowk/nakoload/internal/issue"

	"github.com/spf13/afero"
)

const (
	testLibDir    = "/lib/nako"
	testCacheDir  = "/cache"
	testRequester = "/work/app/main.nako3"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type stubConfig struct {
	cfg *config.Config
	err error
}

func (s stubConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

type testEnv struct {
	app    *App
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LibDir = testLibDir
	cfg.Remote.CacheDir = testCacheDir

	env := &testEnv{
		fs:     afero.NewMemMapFs(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.app = NewApp(Dependencies{
		Config: stubConfig{cfg: cfg},
		FS:     env.fs,
		Getenv: func(string) string { return "" },
		Stdout: env.stdout,
		Stderr: env.stderr,
	})
	return env
}

func (e *testEnv) write(t *testing.T, path, content string) {
	t.Helper()
	if err := afero.WriteFile(e.fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (e *testEnv) run(args ...string) error {
	root := NewRootCommand(e.app)
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	return root.ExecuteContext(context.Background())
}

func TestResolveCommandFindsLibraryPlugin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, testLibDir+"/plugin_csv.lua", `return { parse = function(s) return s end }`)

	if err := env.run("resolve", "plugin_csv.lua", "--from", testRequester, "--load"); err != nil {
		t.Fatalf("resolve: %v\nstderr: %s", err, env.stderr)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "plugin "+testLibDir+"/plugin_csv.lua") {
		t.Errorf("stdout = %q, want the NAKO_LIB location", out)
	}
	if !strings.Contains(out, "plugin exporting parse") {
		t.Errorf("stdout = %q, want the export summary", out)
	}
}

func TestResolveCommandTrace(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, "/work/app/helper.nako3", "")

	if err := env.run("resolve", "helper.nako3", "--from", testRequester, "--trace"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "[ok] requesting file directory") {
		t.Errorf("stdout = %q, want a trace with the hit", out)
	}
	if !strings.Contains(out, "sourceModule /work/app/helper.nako3") {
		t.Errorf("stdout = %q, want the source module", out)
	}
}

func TestResolveCommandRoots(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("resolve", "plugin_csv.js", "--from", testRequester, "--roots"); err != nil {
		t.Fatalf("resolve --roots: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("roots = %q, want requesting directory and NAKO_LIB", lines)
	}
	if !strings.Contains(lines[0], "requesting file directory") || !strings.Contains(lines[1], "NAKO_LIB directory") {
		t.Errorf("roots = %q", lines)
	}
}

func TestResolveCommandNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := env.run("resolve", "plugin_missing.go", "--from", testRequester)
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d (%v), want 1", exitCode(err), err)
	}
	stderr := env.stderr.String()
	for _, want := range []string{
		"failed to resolve module: plugin_missing.go",
		"[--] requesting file directory: /work/app/plugin_missing.go",
		"[--] NAKO_LIB directory: /lib/nako/plugin_missing.go",
		"NAKO_LIB or NAKO_HOME",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q, got:\n%s", want, stderr)
		}
	}
}

func TestResolveCommandDescriptorInvalid(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, testLibDir+"/broken/package.json", `{"name": "broken"}`)

	err := env.run("resolve", "broken", "--from", testRequester)
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(err))
	}
	if !strings.Contains(env.stderr.String(), `"main" field`) {
		t.Errorf("stderr = %q, want the descriptor suggestion", env.stderr.String())
	}
}

func TestDepsCommandReportsEveryFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, testLibDir+"/plugin_a.lua", `return { a = 1 }`)
	env.write(t, "/work/app/lib.nako3", "")
	env.write(t, testRequester, strings.Join([]string{
		`!「plugin_a.lua」を取り込む`,
		`!「plugin_missing.lua」を取り込む`,
		`!「lib.nako3」を取り込む`,
		`!「plugin_system」を取り込む`,
	}, "\n"))

	err := env.run("deps", testRequester)
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d (%v), want 1", exitCode(err), err)
	}

	out := env.stdout.String()
	for _, want := range []string{
		"plugin plugin_a " + testLibDir + "/plugin_a.lua",
		"plugin plugin_system builtin:plugin_system",
		"source /work/app/lib.nako3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout should contain %q, got:\n%s", want, out)
		}
	}
	stderr := env.stderr.String()
	if !strings.Contains(stderr, "main.nako3:2 plugin_missing.lua") {
		t.Errorf("stderr should attribute the failure to line 2, got:\n%s", stderr)
	}
	if !strings.Contains(stderr, "1 dependency failure(s)") {
		t.Errorf("stderr should count one failure, got:\n%s", stderr)
	}
}

func TestDepsCommandPrefix(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, testLibDir+"/plugin_a.lua", `return { a = 1 }`)
	env.write(t, testRequester, "表示する\n")
	env.write(t, "/work/prefix.nako3", `!「plugin_a.lua」を取り込む`)

	if err := env.run("deps", testRequester, "--prefix", "/work/prefix.nako3", "-j", "1"); err != nil {
		t.Fatalf("deps: %v\nstderr: %s", err, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "plugin plugin_a") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestDepsCommandGraph(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.write(t, testLibDir+"/plugin_a.lua", `return { a = 1 }`)
	env.write(t, "/work/app/lib.nako3", `!「plugin_a.lua」を取り込む`)
	env.write(t, testRequester, `!「lib.nako3」を取り込む`)

	if err := env.run("deps", testRequester, "--graph"); err != nil {
		t.Fatalf("deps --graph: %v\nstderr: %s", err, env.stderr)
	}
	out := env.stdout.String()
	plugin := strings.Index(out, " 1. "+testLibDir+"/plugin_a.lua")
	lib := strings.Index(out, " 2. /work/app/lib.nako3")
	main := strings.Index(out, " 3. "+testRequester)
	if plugin < 0 || lib < 0 || main < 0 {
		t.Errorf("load order missing entries:\n%s", out)
	}
}

func TestDepsCommandMissingFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := env.run("deps", "/work/none.nako3")
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(err))
	}
	if !strings.Contains(env.stderr.String(), "failed to load dependencies") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestCacheCommands(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("cache", "list"); err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "(cache is empty)") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	env.write(t, testCacheDir+"/https___example_com_p_lua.lua", "return {}")
	env.stdout.Reset()
	if err := env.run("cache", "list"); err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "https___example_com_p_lua.lua") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	env.stdout.Reset()
	if err := env.run("cache", "clean"); err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "removed 1 file(s)") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	env.stdout.Reset()
	if err := env.run("cache", "dir"); err != nil {
		t.Fatalf("cache dir: %v", err)
	}
	if strings.TrimSpace(env.stdout.String()) != testCacheDir {
		t.Errorf("cache dir = %q", env.stdout.String())
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(env.stdout.String(), `lib_dir: "/lib/nako"`) {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestConfigReadFromAppFilesystem(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.app.Config = config.NewProvider()
	env.write(t, "/etc/nakoload.cue", `lib_dir: "/mem/lib"`)

	if err := env.run("config", "show", "--config", "/etc/nakoload.cue"); err != nil {
		t.Fatalf("config show: %v\nstderr: %s", err, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), `lib_dir: "/mem/lib"`) {
		t.Errorf("stdout = %q, want the value from the in-memory file", env.stdout.String())
	}
}

func TestConfigLoadFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.app.Config = stubConfig{err: errors.New("boom")}

	err := env.run("resolve", "x")
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(err))
	}
	if !strings.Contains(env.stderr.String(), "failed to load configuration") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestVerboseRendersCatalogEntry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := env.run("resolve", "plugin_missing.go", "--from", testRequester, "--verbose")
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(err))
	}
	stderr := ansi.ReplaceAllString(env.stderr.String(), "")
	if !strings.Contains(stderr, "Error chain:") {
		t.Errorf("verbose output should include the error chain:\n%s", stderr)
	}
	if !strings.Contains(stderr, "Module not found") {
		t.Errorf("verbose output should include the catalog entry:\n%s", stderr)
	}
}

func TestDescribeErrorKeepsActionableErrors(t *testing.T) {
	t.Parallel()

	orig := issue.NewErrorContext().WithOperation("load configuration").WithIssue(issue.ConfigLoadFailedId).Build()
	if got := describeError("resolve module", "x", orig); got != orig {
		t.Errorf("describeError() = %v, want the original ActionableError", got)
	}
}
