package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Manager must satisfy the combat engine's decision hook.
var _ combat.AttackChooser = (*scripting.Manager)(nil)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func goblin() *npc.Instance {
	return &npc.Instance{
		Character:    &character.Character{Name: "Goblin", Level: 1, CurrentHP: 3, MaxHP: 7},
		ID:           "goblin-1",
		TemplateName: "Goblin",
		Attacks:      []npc.Attack{{Name: "Stab"}, {Name: "Desperate Bite"}},
	}
}

func hero() *character.Character {
	return &character.Character{Name: "Aria", Level: 2, CurrentHP: 20, MaxHP: 30}
}

func TestManager_LoadBehavior_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))
	ret, err := mgr.CallHook("Goblin", "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "empty.lua", `-- no functions`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))
	ret, err := mgr.CallHook("Goblin", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))
	ret, err := mgr.CallHook("Goblin", "bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_BudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "loop.lua", `
		function count(n)
			local s = 0
			for i = 1, n do s = s + i end
			return s
		end
	`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 500))
	for i := 0; i < 20; i++ {
		ret, err := mgr.CallHook("Goblin", "count", lua.LNumber(10))
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(55), ret, "call %d", i)
	}
	ret, err := mgr.CallHook("Goblin", "count", lua.LNumber(100000))
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret, "a runaway call is cut off")
}

func TestManager_LoadGlobal_CallHookFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "global.lua", `
		function global_hook()
			return 42
		end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))
	ret, err := mgr.CallHook("Orc", "global_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(42), ret)
}

func TestManager_LoadBehavior_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadBehavior("Goblin", dir, 0))
	assert.Error(t, mgr.LoadBehavior("Goblin", filepath.Join(dir, "missing"), 0))
}

func TestManager_LoadBehavior_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.LoadBehavior("ordered", dir, 0))
	ret, err := mgr.CallHook("ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_ChooseAttack(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "goblin.lua", `
		function choose_attack(enemy, player)
			if enemy.hp * 2 < enemy.max_hp and #enemy.attacks > 1 then
				return 2
			end
			return 1
		end
	`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))

	g := goblin()
	idx, ok := mgr.ChooseAttack(g, hero())
	require.True(t, ok)
	assert.Equal(t, 1, idx, "wounded goblins bite")

	g.CurrentHP = 7
	idx, ok = mgr.ChooseAttack(g, hero())
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestManager_LoadContent(t *testing.T) {
	mgr, _ := newTestManager(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "default.lua"),
		[]byte(`function choose_attack(enemy, player) return 1 end`), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "cave_troll"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cave_troll", "troll.lua"),
		[]byte(`function choose_attack(enemy, player) return 2 end`), 0644))

	n, err := mgr.LoadContent(root, []string{"Goblin", "Cave Troll"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	idx, ok := mgr.ChooseAttack(goblin(), hero())
	require.True(t, ok)
	assert.Equal(t, 0, idx, "goblin uses the global behavior")

	troll := goblin()
	troll.TemplateName = "Cave Troll"
	idx, ok = mgr.ChooseAttack(troll, hero())
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestBehaviorDir(t *testing.T) {
	assert.Equal(t, "cave_troll", scripting.BehaviorDir(" Cave Troll "))
}

func TestManager_ChooseAttack_NoScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, ok := mgr.ChooseAttack(goblin(), hero())
	assert.False(t, ok)

	dir := writeTempLua(t, "other.lua", `function choose_attack() return "claw" end`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))
	_, ok = mgr.ChooseAttack(goblin(), hero())
	assert.False(t, ok, "non-numeric answers are ignored")
}

func TestManager_ScriptedPolicyFallsBack(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "goblin.lua", `function choose_attack() return 9 end`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))

	p := combat.ScriptedPolicy{Chooser: mgr, Fallback: combat.UniformPolicy{Src: dice.NewSeededSource(3)}, Logger: zap.NewNop()}
	idx := p.Choose(goblin(), hero())
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 2)
}

func TestEngineModules(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "mods.lua", `
		function roll_fixed()
			engine.log.info("rolling")
			return engine.dice.roll("3")
		end
		function roll_die()
			return engine.dice.roll("1d6")
		end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))

	ret, err := mgr.CallHook("any", "roll_die")
	require.NoError(t, err)
	n, ok := ret.(lua.LNumber)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)

	ret, err = mgr.CallHook("any", "roll_fixed")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(0), ret, "non-dice input evaluates to zero")
	assert.Equal(t, 1, logs.FilterMessage("rolling").Len())
}

func TestProperty_CallHookMissingKeyNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "key")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := mgr.CallHook(key, hook)
		if err != nil || ret != lua.LNil {
			rt.Fatalf("CallHook(%q, %q) = %v, %v", key, hook, ret, err)
		}
	})
}

func TestManager_ConcurrentCalls(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function concurrent_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				ret, err := mgr.CallHook("Goblin", "concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestNewManager_PanicsOnNil(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop())
	assert.Panics(t, func() { scripting.NewManager(nil, zap.NewNop()) })
	assert.Panics(t, func() { scripting.NewManager(roller, nil) })
}

func TestManager_Close_ReleasesVMs(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "init.lua", `function get_x() return 1 end`)
	require.NoError(t, mgr.LoadBehavior("Goblin", dir, 0))
	mgr.Close()
	ret, err := mgr.CallHook("Goblin", "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
