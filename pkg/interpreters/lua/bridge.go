package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go value into its Lua representation. Maps and
// slices become tables; anything unrepresentable becomes its string
// form so scripts always see a value.
func toLua(vm *lua.LState, v any) lua.LValue {
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
	case []byte:
		return lua.LString(val)
	case []any:
		t := vm.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLua(vm, item))
		}
		return t
	case []string:
		t := vm.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case map[string]any:
		t := vm.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(vm, item))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// fromLua converts a Lua value back to Go. Tables with contiguous
// integer keys starting at 1 become []any, all other tables become
// map[string]any.
func fromLua(lv lua.LValue) any {
	return fromLuaVisited(lv, make(map[*lua.LTable]bool))
}

func fromLuaVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
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
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableFromLua(v, visited)
	default:
		return nil
	}
}

func tableFromLua(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	count, maxN := 0, 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != float64(int(kn)) || int(kn) < 1 {
			isArray = false
			return
		}
		if int(kn) > maxN {
			maxN = int(kn)
		}
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = fromLuaVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = fromLuaVisited(v, visited)
	})
	return m
}
