package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.dice and engine.log Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	diceMod := L.NewTable()
	L.SetField(diceMod, "roll", L.NewFunction(func(L *lua.LState) int {
		res := m.roller.Evaluate(L.CheckString(1))
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))
	L.SetField(engine, "dice", diceMod)

	logMod := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
	} {
		L.SetField(logMod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logMod)

	L.SetGlobal("engine", engine)
}
