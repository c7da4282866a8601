package shading

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"tsl/internal/types"
)

// connectionSrc names the producing side of one wiring edge.
type connectionSrc struct {
	inst string
	arg  string
}

// unitInstance is one node of the group DAG. A template may appear under
// several instance names; each name is an independent node.
type unitInstance struct {
	name string
	tpl  *ShaderUnitTemplate
}

// groupExposure maps a wrapper argument index onto a unit argument.
type groupExposure struct {
	inst   string
	arg    string
	output bool
}

// ShaderGroupTemplate is a DAG of shader-unit instances plus the wiring
// between their arguments. Linking lowers it to a single wrapper function
// in the group's own module.
type ShaderGroupTemplate struct {
	name string

	units       map[string]*unitInstance
	connections map[string]map[string]connectionSrc
	defaults    map[string]map[string]types.Value
	exposed     map[int]groupExposure
	root        string

	// linked product, populated by link()
	llctx       llvm.Context
	module      llvm.Module
	wrapperName string
	groupArgs   []types.ShaderArgument
	deps        []depModule
	linked      bool

	allowOptimization bool
	allowVerification bool
}

func newShaderGroupTemplate(name string) *ShaderGroupTemplate {
	return &ShaderGroupTemplate{
		name:              name,
		units:             make(map[string]*unitInstance),
		connections:       make(map[string]map[string]connectionSrc),
		defaults:          make(map[string]map[string]types.Value),
		exposed:           make(map[int]groupExposure),
		allowOptimization: true,
		allowVerification: true,
	}
}

func (g *ShaderGroupTemplate) Name() string {
	return g.name
}

// AddUnit registers a compiled template under an instance name.
func (g *ShaderGroupTemplate) AddUnit(instanceName string, tpl *ShaderUnitTemplate) error {
	if instanceName == "" || tpl == nil {
		return ErrInvalidInput
	}
	if !tpl.compiled || tpl.rootFuncName == "" {
		return fmt.Errorf("unit %q: %w", instanceName, ErrInvalidTemplate)
	}
	if _, dup := g.units[instanceName]; dup {
		return fmt.Errorf("instance %q added twice: %w", instanceName, ErrInvalidInput)
	}
	g.units[instanceName] = &unitInstance{name: instanceName, tpl: tpl}
	return nil
}

// argument resolves an instance's argument, enforcing its existence.
func (g *ShaderGroupTemplate) argument(inst, arg string) (types.ShaderArgument, error) {
	u, ok := g.units[inst]
	if !ok {
		return types.ShaderArgument{}, fmt.Errorf("instance %q: %w", inst, ErrUndefinedShaderUnit)
	}
	a, ok := types.FindArgument(u.tpl.args, arg)
	if !ok {
		return types.ShaderArgument{}, fmt.Errorf("instance %q has no argument %q: %w",
			inst, arg, ErrInvalidInput)
	}
	return a, nil
}

// Connect wires srcInst.srcArg (an output) into dstInst.dstArg (an
// input). Types must match exactly.
func (g *ShaderGroupTemplate) Connect(srcInst, srcArg, dstInst, dstArg string) error {
	src, err := g.argument(srcInst, srcArg)
	if err != nil {
		return err
	}
	dst, err := g.argument(dstInst, dstArg)
	if err != nil {
		return err
	}
	if !src.Output {
		return fmt.Errorf("%s.%s is not an output: %w", srcInst, srcArg, ErrInvalidArgType)
	}
	if dst.Output {
		return fmt.Errorf("%s.%s is not an input: %w", dstInst, dstArg, ErrInvalidArgType)
	}
	if !src.Type.ArgumentSupported() || !dst.Type.ArgumentSupported() {
		return fmt.Errorf("%s cannot cross a unit boundary: %w", src.Type, ErrInvalidArgType)
	}
	if src.Type != dst.Type {
		return fmt.Errorf("%s.%s is %s but %s.%s is %s: %w",
			srcInst, srcArg, src.Type, dstInst, dstArg, dst.Type, ErrInvalidArgType)
	}
	if g.connections[dstInst] == nil {
		g.connections[dstInst] = make(map[string]connectionSrc)
	}
	g.connections[dstInst][dstArg] = connectionSrc{inst: srcInst, arg: srcArg}
	return nil
}

// SetDefault supplies a literal for an unconnected input.
func (g *ShaderGroupTemplate) SetDefault(inst, arg string, v types.Value) error {
	a, err := g.argument(inst, arg)
	if err != nil {
		return err
	}
	if a.Output {
		return fmt.Errorf("%s.%s is not an input: %w", inst, arg, ErrInvalidArgType)
	}
	if a.Type != v.Type {
		return fmt.Errorf("%s.%s is %s, default is %s: %w",
			inst, arg, a.Type, v.Type, ErrInvalidArgType)
	}
	if g.defaults[inst] == nil {
		g.defaults[inst] = make(map[string]types.Value)
	}
	g.defaults[inst][arg] = v
	return nil
}

// ExposeInput forwards wrapper argument groupIdx into inst.arg.
func (g *ShaderGroupTemplate) ExposeInput(inst, arg string, groupIdx int) error {
	return g.expose(inst, arg, groupIdx, false)
}

// ExposeOutput forwards inst.arg out through wrapper argument groupIdx.
func (g *ShaderGroupTemplate) ExposeOutput(inst, arg string, groupIdx int) error {
	return g.expose(inst, arg, groupIdx, true)
}

func (g *ShaderGroupTemplate) expose(inst, arg string, groupIdx int, output bool) error {
	a, err := g.argument(inst, arg)
	if err != nil {
		return err
	}
	if a.Output != output {
		dir := "an input"
		if output {
			dir = "an output"
		}
		return fmt.Errorf("%s.%s is not %s: %w", inst, arg, dir, ErrInvalidArgType)
	}
	if !a.Type.ArgumentSupported() {
		return fmt.Errorf("%s cannot be exposed: %w", a.Type, ErrInvalidArgType)
	}
	if groupIdx < 0 {
		return fmt.Errorf("group argument index %d: %w", groupIdx, ErrInvalidInput)
	}
	if prev, dup := g.exposed[groupIdx]; dup {
		return fmt.Errorf("group argument %d already bound to %s.%s: %w",
			groupIdx, prev.inst, prev.arg, ErrInvalidInput)
	}
	g.exposed[groupIdx] = groupExposure{inst: inst, arg: arg, output: output}
	return nil
}

// SetRoot names the instance whose outputs define the group's results.
func (g *ShaderGroupTemplate) SetRoot(inst string) {
	g.root = inst
}

// ExposedArguments returns the wrapper's argument list once linked.
func (g *ShaderGroupTemplate) ExposedArguments() []types.ShaderArgument {
	return append([]types.ShaderArgument(nil), g.groupArgs...)
}

// WrapperName returns the linked wrapper function's symbol.
func (g *ShaderGroupTemplate) WrapperName() string {
	return g.wrapperName
}

func (g *ShaderGroupTemplate) AllowOptimization() bool     { return g.allowOptimization }
func (g *ShaderGroupTemplate) SetAllowOptimization(v bool) { g.allowOptimization = v }
func (g *ShaderGroupTemplate) AllowVerification() bool     { return g.allowVerification }
func (g *ShaderGroupTemplate) SetAllowVerification(v bool) { g.allowVerification = v }

// Dispose drops the linked module, if any.
func (g *ShaderGroupTemplate) Dispose() {
	if !g.linked {
		return
	}
	g.module.Dispose()
	g.llctx.Dispose()
	g.linked = false
}
