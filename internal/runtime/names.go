package runtime

import (
	"reflect"
	"runtime"
	"strings"
)

// funcName resolves a short human-readable name for a function value,
// used in logs and lifecycle events. Falls back to "anonymous" when the
// symbol cannot be resolved.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "anonymous"
	}
	name := rf.Name()
	// Trim the package path: "github.com/x/y/pkg.Action" -> "pkg.Action"
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	// Method values carry a "-fm" suffix.
	name = strings.TrimSuffix(name, "-fm")
	return name
}
