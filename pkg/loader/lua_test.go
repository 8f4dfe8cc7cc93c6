// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"testing"
)

const greetPlugin = `
local prefix = "hello "
return {
  name = "greet",
  tags = { "text", "demo" },
  limits = { max = 3 },
  hello = function(who) return prefix .. who end,
  pair = function(a, b) return b, a end,
}
`

func TestLuaBackendExports(t *testing.T) {
	t.Parallel()

	export, closer, err := NewLuaBackend().Evaluate(context.Background(), "plugin_greet.lua", []byte(greetPlugin))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	t.Cleanup(func() { _ = closer.Close() })

	m, ok := export.(map[string]any)
	if !ok {
		t.Fatalf("export type = %T, want map[string]any", export)
	}
	if m["name"] != "greet" {
		t.Errorf("name = %v", m["name"])
	}
	if tags, ok := m["tags"].([]any); !ok || len(tags) != 2 || tags[0] != "text" {
		t.Errorf("tags = %#v", m["tags"])
	}
	if limits, ok := m["limits"].(map[string]any); !ok || limits["max"] != int64(3) {
		t.Errorf("limits = %#v", m["limits"])
	}

	hello, ok := m["hello"].(*Command)
	if !ok {
		t.Fatalf("hello type = %T, want *Command", m["hello"])
	}
	out, err := hello.Call(context.Background(), "nako")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(out) != 1 || out[0] != "hello nako" {
		t.Errorf("Call() = %#v", out)
	}

	pair := m["pair"].(*Command)
	out, err = pair.Call(context.Background(), 1, "b")
	if err != nil {
		t.Fatalf("pair Call() error = %v", err)
	}
	if len(out) != 2 || out[0] != "b" || out[1] != int64(1) {
		t.Errorf("pair Call() = %#v", out)
	}
}

func TestLuaBackendErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		wantExport bool
	}{
		{name: "syntax error", src: "return {"},
		{name: "runtime error", src: "error('boom')"},
		{name: "sandboxed os library", src: "return { t = os.time() }"},
		{name: "sandboxed io library", src: "io.write('x') return {}"},
		{name: "non-table result", src: "return 42", wantExport: true},
		{name: "no result", src: "local x = 1", wantExport: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := NewLuaBackend().Evaluate(context.Background(), "plugin_bad.lua", []byte(tt.src))
			if err == nil {
				t.Fatal("Evaluate() error = nil")
			}
			if got := errors.Is(err, ErrNoExport); got != tt.wantExport {
				t.Errorf("errors.Is(ErrNoExport) = %v, want %v (err: %v)", got, tt.wantExport, err)
			}
		})
	}
}

func TestLuaCommandAfterClose(t *testing.T) {
	t.Parallel()

	export, closer, err := NewLuaBackend().Evaluate(context.Background(), "plugin_greet.lua", []byte(greetPlugin))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	hello := export.(map[string]any)["hello"].(*Command)
	if _, err := hello.Call(context.Background(), "nako"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close error = %v, want ErrStateClosed", err)
	}
}
