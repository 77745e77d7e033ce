// Package lua runs actions written as Lua scripts.
//
// Scripts operate on map-shaped states. A script defines global
// functions of the form
//
//	function increment(state, payload)
//	    state.count = state.count + (payload or 1)
//	    return state
//	end
//
// and each function becomes a dispatchable action. An LState is not
// safe for concurrent use, so the engine serializes all calls behind a
// mutex; dispatch already serializes actions, making the mutex only
// relevant when one engine backs several apps.
package lua

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
)

// State is the state shape Lua actions operate on.
type State = map[string]any

// Engine hosts a Lua interpreter whose global functions act as actions.
type Engine struct {
	mu     sync.Mutex
	vm     *lua.LState
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report script failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine with an empty script environment.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		vm:     lua.NewState(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load evaluates Lua source, registering whatever global functions it
// defines. The name labels the chunk in error messages.
func (e *Engine) Load(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, err := e.vm.Load(strings.NewReader(source), name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("evaluate %s: %w", name, err)
	}
	return nil
}

// LoadFile evaluates a Lua script from disk.
func (e *Engine) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return e.Load(path, string(src))
}

// Has reports whether a global function with the given name exists.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Action wraps a script function as an action. The Lua function
// receives the state table and the payload and returns the next state
// table. A script error leaves the state unchanged and is logged; the
// dispatch itself still succeeds, matching how a host treats renderer
// failures.
func (e *Engine) Action(name string) domain.Action[State] {
	return func(state State, payload any) (State, []domain.Effect[State]) {
		next, err := e.call(name, state, payload)
		if err != nil {
			e.logger.Error("lua action failed", "action", name, "err", err)
			return state, nil
		}
		return next, nil
	}
}

// Bind registers every currently defined global function into the
// registry under its Lua name.
func (e *Engine) Bind(r *registry.Registry[State]) {
	for _, name := range e.globals() {
		r.Register(name, e.Action(name))
	}
}

// Close releases the interpreter.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

func (e *Engine) call(name string, state State, payload any) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("no lua function %q", name)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, toLua(e.vm, state), toLua(e.vm, payload)); err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	if _, ok := ret.(*lua.LTable); !ok {
		return nil, fmt.Errorf("%s returned %s, want table", name, ret.Type())
	}
	next, ok := fromLua(ret).(State)
	if !ok {
		return nil, fmt.Errorf("%s returned an array, want map", name)
	}
	return next, nil
}

func (e *Engine) globals() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var names []string
	e.vm.G.Global.ForEach(func(k, v lua.LValue) {
		if _, ok := v.(*lua.LFunction); !ok {
			return
		}
		if key, ok := k.(lua.LString); ok && !isBuiltin(string(key)) {
			names = append(names, string(key))
		}
	})
	return names
}

func isBuiltin(name string) bool {
	switch name {
	case "print", "type", "tostring", "tonumber", "pairs", "ipairs",
		"next", "select", "error", "assert", "pcall", "xpcall",
		"rawget", "rawset", "rawequal", "rawlen", "setmetatable",
		"getmetatable", "require", "collectgarbage", "dofile",
		"loadfile", "load", "loadstring", "unpack", "newproxy",
		"getfenv", "setfenv", "module", "_printregs":
		return true
	}
	return false
}
