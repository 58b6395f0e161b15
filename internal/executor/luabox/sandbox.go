// Package luabox runs untrusted Lua snippets inside an embedded interpreter
// with a capability denylist. Each execution gets a brand-new interpreter
// state, so no global ever leaks between runs.
package luabox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"codelab/internal/sandbox"
)

// ChunkName is the name compiled snippets carry in diagnostics.
const ChunkName = "exercise"

// maxDelayMs clamps the single-shot deferred-call primitive.
const maxDelayMs = 5000

// blockedCapabilities maps denied global names to the capability each one
// would expose. Accessing or calling any of them raises a catchable error
// naming the capability; none is a silent no-op.
var blockedCapabilities = map[string]string{
	"socket":     "network access",
	"http":       "network access",
	"fetch":      "network access",
	"subscribe":  "realtime channels",
	"io":         "file and storage access",
	"os":         "file and storage access",
	"storage":    "persistent storage",
	"require":    "module loading",
	"package":    "module loading",
	"dofile":     "module loading",
	"loadfile":   "module loading",
	"load":       "dynamic code evaluation",
	"loadstring": "dynamic code evaluation",
	"coroutine":  "background workers",
	"debug":      "debug facilities",
	"getfenv":    "host environment access",
	"setfenv":    "host environment access",
	"alert":      "blocking UI calls",
	"prompt":     "blocking UI calls",
}

// newState builds a restricted interpreter bound to the conduit. Only the
// base, table, string and math libraries are opened; every denylisted name
// is replaced by a violation trap, and unknown globals raise a
// "not defined" error instead of silently reading nil.
func newState(ctx context.Context, conduit *sandbox.Conduit, input string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open %s library: %w", lib.name, err)
		}
	}

	installDenylist(L)
	installIO(L, conduit, input)
	installDelay(ctx, L)
	installStrictGlobals(L)

	return L, nil
}

func installDenylist(L *lua.LState) {
	for name, capability := range blockedCapabilities {
		L.SetGlobal(name, blockedValue(L, capability))
	}
}

// blockedValue builds a trap that raises on call, index or assignment,
// so both `os.time()` and `require("x")` fail loudly.
func blockedValue(L *lua.LState, capability string) lua.LValue {
	raise := func(L *lua.LState) int {
		L.RaiseError("blocked capability: %s", capability)
		return 0
	}
	trap := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(raise))
	L.SetField(mt, "__newindex", L.NewFunction(raise))
	L.SetField(mt, "__call", L.NewFunction(raise))
	L.SetField(mt, "__metatable", lua.LString("blocked"))
	L.SetMetatable(trap, mt)
	return trap
}

// installIO wires the protocol's I/O bindings: print/eprint proxy writes to
// the host line by line, read() consumes the input one line at a time, and
// `input` holds the whole stdin text.
func installIO(L *lua.LState, conduit *sandbox.Conduit, input string) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		conduit.Emit(sandbox.Message{Type: sandbox.MsgStdout, Data: renderArgs(L) + "\n"})
		return 0
	}))
	L.SetGlobal("eprint", L.NewFunction(func(L *lua.LState) int {
		conduit.Emit(sandbox.Message{Type: sandbox.MsgStderr, Data: renderArgs(L) + "\n"})
		return 0
	}))

	lines := splitLines(input)
	next := 0
	L.SetGlobal("read", L.NewFunction(func(L *lua.LState) int {
		if next >= len(lines) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(lines[next]))
		next++
		return 1
	}))
	L.SetGlobal("input", lua.LString(input))
}

// installDelay provides the single-shot deferred-call primitive. The
// requested delay is clamped to maxDelayMs no matter what the code asks for.
func installDelay(ctx context.Context, L *lua.LState) {
	L.SetGlobal("delay", L.NewFunction(func(L *lua.LState) int {
		ms := L.CheckInt(1)
		fn := L.CheckFunction(2)
		if ms < 0 {
			ms = 0
		}
		if ms > maxDelayMs {
			ms = maxDelayMs
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
		L.Push(fn)
		L.Call(0, 0)
		return 0
	}))
}

// installStrictGlobals makes reads of undeclared globals raise instead of
// yielding nil. Assignments still work, so `x = 1` declares as usual.
func installStrictGlobals(L *lua.LState) {
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		L.RaiseError("'%s' is not defined", name)
		return 0
	}))
	L.SetMetatable(L.G.Global, mt)
}

func renderArgs(L *lua.LState) string {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, stringify(L.Get(i), 0))
	}
	return strings.Join(parts, "\t")
}

// stringify renders a value for output. Tables get a best-effort structured
// rendering with a depth guard; everything else falls back to the plain
// string conversion.
func stringify(v lua.LValue, depth int) string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return v.String()
	}
	if depth >= 3 {
		return "{...}"
	}

	var b strings.Builder
	b.WriteByte('{')
	first := true
	if n := tbl.Len(); n > 0 {
		for i := 1; i <= n; i++ {
			if !first {
				b.WriteString(", ")
			}
			b.WriteString(stringify(tbl.RawGetInt(i), depth+1))
			first = false
		}
	} else {
		tbl.ForEach(func(k, val lua.LValue) {
			if !first {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
			b.WriteString("=")
			b.WriteString(stringify(val, depth+1))
			first = false
		})
	}
	b.WriteByte('}')
	return b.String()
}

func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}

// runWorker is the sandbox half of the protocol: it waits for the execute
// message, runs the snippet in a fresh restricted state and reports the
// outcome through the conduit.
func runWorker(ctx context.Context, conduit *sandbox.Conduit) {
	select {
	case <-ctx.Done():
		return
	case msg := <-conduit.SandboxRecv():
		if msg.Type != sandbox.MsgExecute {
			conduit.Emit(sandbox.Message{Type: sandbox.MsgError, Data: "protocol error: expected execute message"})
			return
		}
		execute(ctx, conduit, msg.Code, msg.Input)
	}
}

func execute(ctx context.Context, conduit *sandbox.Conduit, code, input string) {
	L, err := newState(ctx, conduit, input)
	if err != nil {
		conduit.Emit(sandbox.Message{Type: sandbox.MsgError, Data: err.Error()})
		return
	}
	defer L.Close()

	fn, err := L.Load(strings.NewReader(code), ChunkName)
	if err != nil {
		conduit.Emit(sandbox.Message{Type: sandbox.MsgError, Data: err.Error()})
		return
	}

	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if ctx.Err() != nil {
			// The host already resolved this run (timeout or truncation);
			// whatever the aborted VM reports is noise.
			return
		}
		var apiErr *lua.ApiError
		msg := sandbox.Message{Type: sandbox.MsgError, Data: err.Error()}
		if errors.As(err, &apiErr) {
			msg.Data = apiErr.Object.String()
			msg.Stack = apiErr.StackTrace
		}
		conduit.Emit(msg)
		return
	}

	conduit.Emit(sandbox.Message{Type: sandbox.MsgComplete, ExitCode: 0})
}
