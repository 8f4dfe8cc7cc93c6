// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ErrStateClosed is returned when a Command runs after its module was closed.
var ErrStateClosed = errors.New("lua state is closed")

type (
	// LuaBackend runs Lua plugins in a state with only the base, table,
	// string and math libraries opened. The chunk must return a table; its
	// fields become the export map and its functions become Commands.
	LuaBackend struct{}

	// Command is a plugin function bound to the Lua state that defined it.
	Command struct {
		Name  string
		fn    *lua.LFunction
		state *luaState
	}

	luaState struct {
		mu     sync.Mutex
		L      *lua.LState
		closed bool
	}
)

// NewLuaBackend returns a LuaBackend.
func NewLuaBackend() *LuaBackend { return &LuaBackend{} }

// Evaluate implements Backend.
func (LuaBackend) Evaluate(ctx context.Context, location string, src []byte) (any, io.Closer, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	s := &luaState{L: L}
	ret, err := s.run(ctx, func() (lua.LValue, error) {
		fn, err := L.Load(bytes.NewReader(src), location)
		if err != nil {
			return nil, err
		}
		L.Push(fn)
		if err := L.PCall(0, 1, nil); err != nil {
			return nil, err
		}
		v := L.Get(-1)
		L.Pop(1)
		return v, nil
	})
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		_ = s.Close()
		return nil, nil, fmt.Errorf("%w: %s returned %s, want a table", ErrNoExport, location, ret.Type())
	}
	export := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		name := k.String()
		export[name] = s.toGo(name, v, make(map[*lua.LTable]bool))
	})
	return export, s, nil
}

// Call runs the command with Go arguments and returns its results as Go values.
func (c *Command) Call(ctx context.Context, args ...any) ([]any, error) {
	s := c.state
	var out []any
	_, err := s.run(ctx, func() (lua.LValue, error) {
		L := s.L
		top := L.GetTop()
		L.Push(c.fn)
		for _, a := range args {
			L.Push(toLua(L, a))
		}
		if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
			return nil, err
		}
		n := L.GetTop() - top
		out = make([]any, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, s.toGo(c.Name, L.Get(top+i), make(map[*lua.LTable]bool)))
		}
		L.Pop(n)
		return lua.LNil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", c.Name, err)
	}
	return out, nil
}

// run executes fn under the state lock with ctx attached, converting Lua
// panics into errors.
func (s *luaState) run(ctx context.Context, fn func() (lua.LValue, error)) (v lua.LValue, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state. It is safe to call more than once.
func (s *luaState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

func (s *luaState) toGo(name string, lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LFunction:
		return &Command{Name: name, fn: v, state: s}
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return s.tableToGo(name, v, visited)
	default:
		return nil
	}
}

// tableToGo converts sequences to []any and everything else to map[string]any.
func (s *luaState) tableToGo(name string, t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = s.toGo(name, t.RawGetInt(i), visited)
		}
		return arr
	}
	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		key := k.String()
		m[key] = s.toGo(name+"."+key, v, visited)
	})
	return m
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for _, e := range val {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range val {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := L.NewUserData()
		ud.Value = val
		return ud
	}
}
