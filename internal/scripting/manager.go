package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no template VM is found.
const globalKey = "__global__"

// ChooseAttackHook is the Lua global consulted by ChooseAttack.
const ChooseAttackHook = "choose_attack"

// vm is one sandboxed state. LStates are single-threaded, so every call holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

// Manager owns one sandboxed LState per enemy template plus an optional
// global state, and dispatches hooks into them.
//
// Manager is safe for concurrent use. Calls into the same VM are serialized;
// different VMs run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadBehavior creates a sandboxed VM for the named enemy template,
// registers the engine.* modules, then executes every *.lua file in
// scriptDir in lexicographic order.
//
// Precondition: template must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM replaces any previous one for template; returns error on Lua load failure.
func (m *Manager) LoadBehavior(template, scriptDir string, instLimit int) error {
	return m.loadInto(template, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM consulted when a template has no VM of its own.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalKey, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		old.close()
	}
	m.vms[key] = &vm{L: L, cancel: cancel, limit: instLimit}
	m.mu.Unlock()

	m.logger.Debug("scripting: behavior loaded", zap.String("key", key), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadContent loads the global behavior scripts directly in scriptDir and,
// for every template with a subdirectory named by BehaviorDir, that
// template's own behavior. Templates without a subdirectory use the global VM.
//
// Postcondition: returns the number of template-specific behaviors loaded.
func (m *Manager) LoadContent(scriptDir string, templates []string, instLimit int) (int, error) {
	if err := m.LoadGlobal(scriptDir, instLimit); err != nil {
		return 0, err
	}
	loaded := 0
	for _, name := range templates {
		dir := filepath.Join(scriptDir, BehaviorDir(name))
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := m.LoadBehavior(name, dir, instLimit); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// BehaviorDir returns the script subdirectory name for a template: the
// lowercased name with spaces replaced by underscores.
func BehaviorDir(template string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(template)), " ", "_")
}

// CallHook calls the named Lua global function in key's VM. If key has no
// VM, the global VM is tried as a fallback. Returns (LNil, nil) if the hook
// is not defined or no VM exists. Lua runtime errors, including an exhausted
// instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[key]
	if !ok {
		v = m.vms[globalKey]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Debug("scripting: no VM for key",
			zap.String("key", key),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := arm(v.L, v.limit)
	defer cancel()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// ChooseAttack asks the enemy's behavior script which attack to use.
// The hook receives enemy and player tables and returns a 1-based attack index.
//
// Postcondition: ok is false when no script answers with a number; index is zero-based.
func (m *Manager) ChooseAttack(enemy *npc.Instance, player *character.Character) (int, bool) {
	m.mu.RLock()
	v, ok := m.vms[enemy.TemplateName]
	if !ok {
		v = m.vms[globalKey]
	}
	m.mu.RUnlock()
	if v == nil {
		return 0, false
	}

	v.mu.Lock()
	et, pt := enemyTable(v.L, enemy), playerTable(v.L, player)
	v.mu.Unlock()

	ret, err := m.CallHook(enemy.TemplateName, ChooseAttackHook, et, pt)
	if err != nil {
		return 0, false
	}
	n, isNum := ret.(lua.LNumber)
	if !isNum {
		return 0, false
	}
	return int(n) - 1, true
}

// Close releases every VM.
//
// Postcondition: subsequent CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		v.close()
		delete(m.vms, key)
	}
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}

func enemyTable(L *lua.LState, e *npc.Instance) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("name", lua.LString(e.Name))
	t.RawSetString("level", lua.LNumber(e.Level))
	t.RawSetString("hp", lua.LNumber(e.CurrentHP))
	t.RawSetString("max_hp", lua.LNumber(e.MaxHP))
	attacks := L.NewTable()
	for _, a := range e.Attacks {
		at := L.NewTable()
		at.RawSetString("name", lua.LString(a.Name))
		at.RawSetString("sub_type", lua.LString(a.SubType))
		attacks.Append(at)
	}
	t.RawSetString("attacks", attacks)
	return t
}

func playerTable(L *lua.LState, p *character.Character) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(p.Name))
	t.RawSetString("level", lua.LNumber(p.Level))
	t.RawSetString("hp", lua.LNumber(p.CurrentHP))
	t.RawSetString("max_hp", lua.LNumber(p.MaxHP))
	t.RawSetString("mana", lua.LNumber(p.ManaAvailable()))
	return t
}
