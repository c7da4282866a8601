package shading

import (
	"fmt"
	"sort"

	"tinygo.org/x/go-llvm"

	"tsl/internal/ast"
	backend "tsl/internal/backend/llvm"
	"tsl/internal/diag"
	"tsl/internal/lexer"
	"tsl/internal/parser"
	"tsl/internal/source"
	"tsl/internal/types"
)

// Compiler is the per-thread compile driver: it feeds the parser, catches
// its callbacks, and lowers the resulting AST into a template's module.
// A Compiler must not be used from two goroutines at once; the shading
// context pools them so each caller gets its own.
type Compiler struct {
	ctx     *ShadingContext
	regions *ast.RegionStack
	fs      *source.FileSet
	strings *source.Interner

	// per-compile state, cleared by reset()
	astRoot    ast.FuncID
	functions  []ast.FuncID
	structures []ast.StructID
	globals    []ast.GlobalID
	closures   map[string]struct{}
	typeCache  types.DataType
}

func newCompiler(ctx *ShadingContext) *Compiler {
	return &Compiler{
		ctx:     ctx,
		regions: ast.NewRegionStack(),
		fs:      source.NewFileSet(),
		strings: source.NewInterner(),
	}
}

// reset nukes the per-compile state so the driver can run another pass.
func (c *Compiler) reset() {
	c.astRoot = ast.NoFuncID
	c.functions = c.functions[:0]
	c.structures = c.structures[:0]
	c.globals = c.globals[:0]
	c.closures = make(map[string]struct{})
	c.typeCache = types.Void
	c.strings = source.NewInterner()
}

// PushFunction implements parser.Sink. The shader entry becomes the AST
// root; plain functions are stashed for lowering before it.
func (c *Compiler) PushFunction(fn ast.FuncID, isShader bool) {
	if isShader {
		c.astRoot = fn
		return
	}
	c.functions = append(c.functions, fn)
}

// PushStructure implements parser.Sink.
func (c *Compiler) PushStructure(st ast.StructID) {
	c.structures = append(c.structures, st)
}

// PushGlobalParameter implements parser.Sink.
func (c *Compiler) PushGlobalParameter(g ast.GlobalID) {
	c.globals = append(c.globals, g)
}

// ClosureTouched implements parser.Sink.
func (c *Compiler) ClosureTouched(name string) {
	c.closures[name] = struct{}{}
}

// CacheDataType implements parser.Sink.
func (c *Compiler) CacheDataType(t types.DataType) {
	c.typeCache = t
}

// DataTypeCache implements parser.Sink.
func (c *Compiler) DataTypeCache() types.DataType {
	return c.typeCache
}

// ClaimPermanentAddress implements parser.Sink: every equal identifier
// string collapses to one canonical instance for the compile's lifetime.
func (c *Compiler) ClaimPermanentAddress(s string) string {
	return c.strings.Canonical(s)
}

// Compile parses source and lowers it into tpl. The whole run happens
// inside one compile region; on success the region's AST is released to
// the template, on failure the template is left untouched.
func (c *Compiler) Compile(src string, tpl *ShaderUnitTemplate) error {
	if tpl == nil {
		return ErrInvalidInput
	}
	if tpl.compiled {
		return fmt.Errorf("template %q: %w", tpl.name, ErrInvalidInput)
	}
	c.reset()

	region := c.regions.Enter()
	defer c.regions.Leave()

	fileID := c.fs.AddVirtual(tpl.name+".tsl", src)
	file := c.fs.Get(fileID)

	reporter := diag.NewBagReporter(64)
	lx := lexer.New(file, lexer.Options{
		Verbose:  tpl.verboseParser,
		Reporter: reporter,
	})
	ok := parser.ParseSource(lx, region.Builder(), c, parser.Options{
		Trace:     tpl.verboseParser,
		MaxErrors: 32,
		Reporter:  reporter,
	})
	if !ok || reporter.Bag.HasErrors() {
		return c.failWith(ErrParseFailed, reporter.Bag)
	}

	// every touched closure must be registered before it is declared
	touched := make([]string, 0, len(c.closures))
	for name := range c.closures {
		if _, registered := c.ctx.registry.Lookup(name); !registered {
			return fmt.Errorf("closure %q: %w", name, ErrUnregisteredClosure)
		}
		touched = append(touched, name)
	}
	sort.Strings(touched)

	llctx := llvm.NewContext()
	module := llctx.NewModule(tpl.name)
	cg := backend.NewContext(llctx, module, region.Builder(), reporter, c.ctx.registry)
	defer cg.Dispose()

	cg.DeclareGlobalModule()
	if !cg.DeclareTouchedClosures(touched) {
		module.Dispose()
		llctx.Dispose()
		return fmt.Errorf("%w", ErrUnregisteredClosure)
	}

	// lowering order: globals, structures, free functions, shader root
	cg.PushVarSymbolLayer()
	for _, g := range c.globals {
		cg.EmitGlobalVar(g)
	}
	for _, st := range c.structures {
		cg.EmitStruct(st)
	}
	for _, fn := range c.functions {
		cg.EmitFunction(fn)
	}

	rootName := ""
	var args []types.ShaderArgument
	if c.astRoot.IsValid() {
		cg.EmitShader(c.astRoot)
		root := region.Builder().Func(c.astRoot)
		rootName = root.Name
		args = cg.ExtractArguments(root)
	}
	cg.PopVarSymbolLayer()

	if cg.Failed() || reporter.Bag.HasErrors() {
		module.Dispose()
		llctx.Dispose()
		return c.failWith(ErrCodegenFailed, reporter.Bag)
	}

	// success: the template takes the module and the AST region
	tpl.llctx = llctx
	tpl.module = module
	tpl.rootFuncName = rootName
	tpl.args = args
	tpl.deps = []depModule{{mod: c.ctx.registry.Module(), reg: c.ctx.registry}}
	tpl.astRoot = c.astRoot
	tpl.astBuilder = region.Release()
	tpl.compiled = true
	return nil
}

// failWith collapses the bag into a single wrapped status carrying the
// first error's location and message.
func (c *Compiler) failWith(sentinel error, bag *diag.Bag) error {
	if d, ok := bag.FirstError(); ok {
		if lc, ok := c.fs.Resolve(d.Primary); ok {
			return fmt.Errorf("%d:%d: %s [%s]: %w", lc.Line, lc.Col, d.Message, d.Code, sentinel)
		}
		return fmt.Errorf("%s [%s]: %w", d.Message, d.Code, sentinel)
	}
	return sentinel
}
