package wasmslave

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/fmu-runtime/errors"
	"github.com/wippyai/fmu-runtime/logging"
	"github.com/wippyai/fmu-runtime/memory"
	"github.com/wippyai/fmu-runtime/slave"
)

// HostModule is the import namespace the runtime provides to guests.
const HostModule = "env"

// Loader holds a compiled guest module. Each slave instance is a fresh
// instantiation of it sharing one wazero runtime.
type Loader struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	exports  ExportNames
	guid     string
}

// Load compiles wasm and checks its exports against cfg.Exports.
func Load(ctx context.Context, wasm []byte, cfg Config) (*Loader, error) {
	rtCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)

	_, err := rt.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostLog), []api.ValueType{i32, i32, i32}, nil).
		WithParameterNames("level", "ptr", "len").
		Export("log").
		Instantiate(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("instantiate host module", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("compile module", err)
	}

	exports := cfg.Exports.withDefaults()
	if err := checkExports(compiled, exports); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	Logger().Debug("wasm module loaded",
		zap.Int("size", len(wasm)),
		zap.Int("exports", len(compiled.ExportedFunctions())),
	)

	return &Loader{
		runtime:  rt,
		compiled: compiled,
		exports:  exports,
		guid:     cfg.GUID,
	}, nil
}

// LoadFile reads and loads a guest module from path.
func LoadFile(ctx context.Context, path string, cfg Config) (*Loader, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("read %s", path), err)
	}
	return Load(ctx, wasm, cfg)
}

func checkExports(compiled wazero.CompiledModule, names ExportNames) error {
	defs := compiled.ExportedFunctions()
	for name, sig := range names.signatures() {
		def, ok := defs[name]
		if !ok {
			if sig.required {
				return errors.New(errors.PhaseLoad, errors.KindNotFound).
					Value(name).
					Detail("required export %q not found", name).
					Build()
			}
			continue
		}
		if !slices.Equal(def.ParamTypes(), sig.params) || !slices.Equal(def.ResultTypes(), sig.results) {
			return errors.TypeMismatch(errors.PhaseLoad,
				fmt.Sprintf("export %q has signature %s, want %s", name,
					formatSignature(def.ParamTypes(), def.ResultTypes()),
					formatSignature(sig.params, sig.results)))
		}
	}
	if _, ok := compiled.ExportedMemories()[names.Memory]; !ok {
		return errors.NotFound(errors.PhaseLoad, "memory export", names.Memory)
	}
	return nil
}

func formatSignature(params, results []api.ValueType) string {
	return fmt.Sprintf("(%s) -> (%s)", valueTypes(params), valueTypes(results))
}

func valueTypes(vts []api.ValueType) string {
	s := ""
	for i, vt := range vts {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(vt)
	}
	return s
}

// Close releases the runtime and every instance created from it.
func (l *Loader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// Factory adapts the loader to a slave factory. Instances run with a
// background context.
func (l *Loader) Factory() slave.Factory {
	return func(info slave.InstanceInfo, _ memory.Memory, log *logging.Logger) (slave.Instance, error) {
		return l.Instantiate(context.Background(), info, log)
	}
}

// Instantiate creates a new slave instance.
func (l *Loader) Instantiate(ctx context.Context, info slave.InstanceInfo, log *logging.Logger) (*Slave, error) {
	if l.guid != "" && info.GUID != l.guid {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindInvalidInput).
			Value(info.GUID).
			Detail("GUID mismatch: got %q, want %q", info.GUID, l.guid).
			Build()
	}

	ctx = withGuestLogger(ctx, log.Zap().Named(logging.CategoryEvents))
	mod, err := l.runtime.InstantiateModule(ctx, l.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.NewFatal(errors.PhaseInstantiate, "instantiate wasm module", err)
	}

	s, err := newSlave(ctx, mod, l.exports)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	Logger().Debug("wasm slave instantiated",
		zap.String("instance", info.InstanceName),
		zap.Int("reals", s.counts.reals),
		zap.Int("integers", s.counts.integers),
		zap.Int("booleans", s.counts.booleans),
	)
	return s, nil
}

type guestLoggerKey struct{}

func withGuestLogger(ctx context.Context, z *zap.Logger) context.Context {
	return context.WithValue(ctx, guestLoggerKey{}, z)
}

// hostLog implements env.log(level, ptr, len). Levels 0..3 are debug, info,
// warning and error; the message is read from guest memory.
func hostLog(ctx context.Context, mod api.Module, stack []uint64) {
	z, _ := ctx.Value(guestLoggerKey{}).(*zap.Logger)
	if z == nil {
		return
	}
	level := zapcore.Level(int32(api.DecodeI32(stack[0])) - 1)
	if level < zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}
	if level > zapcore.ErrorLevel {
		level = zapcore.ErrorLevel
	}
	ptr, n := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	msg, ok := mod.Memory().Read(ptr, n)
	if !ok {
		z.Error("guest log message out of bounds", zap.Uint32("ptr", ptr), zap.Uint32("len", n))
		return
	}
	if ce := z.Check(level, string(msg)); ce != nil {
		ce.Write()
	}
}
