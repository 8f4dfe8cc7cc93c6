// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		ModuleNotFoundId,
		DescriptorInvalidId,
		MissingRequesterId,
		TransportFailedId,
		LibraryMissingId,
		CacheWriteFailedId,
		PluginLoadFailedId,
		NoPluginBackendId,
		ConfigLoadFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil; every ID needs a catalog entry", id)
		}
	}

	if ModuleNotFoundId != 1 {
		t.Errorf("ModuleNotFoundId = %d, want 1", ModuleNotFoundId)
	}
	if got := len(Values()); got != len(ids) {
		t.Errorf("len(Values()) = %d, want %d", got, len(ids))
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ModuleNotFoundId, false, "Module not found"},
		{DescriptorInvalidId, false, `"main" entry`},
		{MissingRequesterId, false, "--from"},
		{TransportFailedId, false, "Remote fetch failed"},
		{LibraryMissingId, false, "failure_marker"},
		{CacheWriteFailedId, false, "NAKOLOAD_CACHE_DIR"},
		{PluginLoadFailedId, false, "Plugin failed to load"},
		{NoPluginBackendId, false, ".go and .lua"},
		{ConfigLoadFailedId, false, "nakoload config path"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)
			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestIssue_ExtLinks(t *testing.T) {
	issue := Get(PluginLoadFailedId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("ExtLinks() is empty")
	}
	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, _ string) (string, error) {
		return in, nil
	}

	rendered, err := Get(DescriptorInvalidId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "package.json") {
		t.Error("Render() output should contain the descriptor guidance")
	}
	if !strings.Contains(rendered, "## See also") || !strings.Contains(rendered, "docs.npmjs.com") {
		t.Errorf("Render() should append external links, got:\n%s", rendered)
	}

	rendered, err = Get(MissingRequesterId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() should not add a links section when there are no links")
	}
}
