package shading

import (
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"

	backend "tsl/internal/backend/llvm"
)

// the fixed optimization pipeline of a resolve, in order
const optPipeline = "instcombine,reassociate,gvn,simplifycfg"

var (
	jitOnce sync.Once
	jitErr  error
	jitTM   llvm.TargetMachine

	// cloneMu serializes resolves when the startup probe found that
	// cross-context module cloning does not work on this build; every
	// resolve then shares one context.
	cloneSupported bool
	cloneMu        sync.Mutex
	sharedCtx      llvm.Context
)

// jitInit prepares the native JIT once per process and probes that
// modules can be cloned across contexts.
func jitInit() error {
	jitOnce.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			jitErr = fmt.Errorf("%v: %w", err, ErrEngineFailed)
			return
		}
		if err := llvm.InitializeNativeAsmPrinter(); err != nil {
			jitErr = fmt.Errorf("%v: %w", err, ErrEngineFailed)
			return
		}

		triple := llvm.DefaultTargetTriple()
		target, err := llvm.GetTargetFromTriple(triple)
		if err != nil {
			jitErr = fmt.Errorf("%v: %w", err, ErrEngineFailed)
			return
		}
		jitTM = target.CreateTargetMachine(triple, "", "",
			llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)

		cloneSupported = probeCrossContextClone()
		if !cloneSupported {
			sharedCtx = llvm.NewContext()
		}
	})
	return jitErr
}

// probeCrossContextClone round-trips a trivial module between two fresh
// contexts.
func probeCrossContextClone() bool {
	src := llvm.NewContext()
	defer src.Dispose()
	dst := llvm.NewContext()
	defer dst.Dispose()

	m := src.NewModule("clone_probe")
	fnTy := llvm.FunctionType(src.VoidType(), nil, false)
	fn := llvm.AddFunction(m, "probe", fnTy)
	b := src.NewBuilder()
	defer b.Dispose()
	bb := src.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(bb)
	b.CreateRetVoid()

	cloned, err := backend.CloneModule(m, dst)
	m.Dispose()
	if err != nil {
		return false
	}
	ok := !cloned.NamedFunction("probe").IsNil()
	cloned.Dispose()
	return ok
}

// newInstanceContext returns the context a resolve builds into. When
// cross-context cloning is unavailable everything shares one context and
// resolves serialize.
func newInstanceContext() (llvm.Context, func()) {
	if cloneSupported {
		return llvm.NewContext(), func() {}
	}
	cloneMu.Lock()
	return sharedCtx, cloneMu.Unlock
}

// resolveModule clones the template module, optimizes and verifies the
// root function, builds an execution engine, links the dependency module
// clones, and resolves the function address. No half-built instance ever
// escapes: every failure path disposes what it built.
func resolveModule(mod llvm.Module, rootName string, deps []depModule, optimize, verify bool) (*ShaderInstance, error) {
	if mod.IsNil() || rootName == "" {
		return nil, ErrInvalidTemplate
	}
	if err := jitInit(); err != nil {
		return nil, err
	}

	llctx, unlock := newInstanceContext()
	defer unlock()
	ctxOwned := cloneSupported
	fail := func(err error) (*ShaderInstance, error) {
		if ctxOwned {
			llctx.Dispose()
		}
		return nil, err
	}

	cloned, err := backend.CloneModule(mod, llctx)
	if err != nil {
		return fail(fmt.Errorf("module clone: %v: %w", err, ErrInvalidTemplate))
	}
	failMod := func(err error) (*ShaderInstance, error) {
		cloned.Dispose()
		return fail(err)
	}

	fn := cloned.NamedFunction(rootName)
	if fn.IsNil() {
		return failMod(fmt.Errorf("root function %q missing: %w", rootName, ErrInvalidTemplate))
	}

	if optimize {
		pbo := llvm.NewPassBuilderOptions()
		if err := cloned.RunPasses(optPipeline, jitTM, pbo); err != nil {
			pbo.Dispose()
			return failMod(fmt.Errorf("optimization: %v: %w", err, ErrInvalidTemplate))
		}
		pbo.Dispose()
		// passes may have replaced the function body; re-resolve
		fn = cloned.NamedFunction(rootName)
	}

	if verify {
		if err := llvm.VerifyFunction(fn, llvm.ReturnStatusAction); err != nil {
			return failMod(fmt.Errorf("%v: %w", err, ErrVerificationFailed))
		}
	}

	engineOpts := llvm.NewMCJITCompilerOptions()
	engine, err := llvm.NewMCJITCompiler(cloned, engineOpts)
	if err != nil {
		return failMod(fmt.Errorf("%v: %w", err, ErrEngineFailed))
	}
	// from here the engine owns cloned
	failEngine := func(err error) (*ShaderInstance, error) {
		engine.Dispose()
		if ctxOwned {
			llctx.Dispose()
		}
		return nil, err
	}

	for _, dep := range deps {
		var depClone llvm.Module
		var cloneErr error
		if dep.reg != nil {
			cloneErr = dep.reg.WithModuleLock(func(m llvm.Module) error {
				var err error
				depClone, err = backend.CloneModule(m, llctx)
				return err
			})
		} else {
			depClone, cloneErr = backend.CloneModule(dep.mod, llctx)
		}
		if cloneErr != nil {
			return failEngine(fmt.Errorf("dependency clone: %v: %w", cloneErr, ErrInvalidTemplate))
		}
		engine.AddModule(depClone)
	}

	fptr := engine.PointerToGlobal(fn)
	if fptr == nil {
		return failEngine(fmt.Errorf("symbol %q did not resolve: %w", rootName, ErrEngineFailed))
	}

	return &ShaderInstance{
		llctx:   llctx,
		ownsCtx: ctxOwned,
		engine:  engine,
		fn:      fn,
		name:    rootName,
		fptr:    fptr,
	}, nil
}
