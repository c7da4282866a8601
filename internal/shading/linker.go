package shading

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	backend "tsl/internal/backend/llvm"
	"tsl/internal/diag"
	"tsl/internal/types"
)

// linkState carries the traversal bookkeeping of one group link.
type linkState struct {
	group   *ShaderGroupTemplate
	cg      *backend.Context
	wrapper llvm.Value

	protos map[*ShaderUnitTemplate]proto

	visited      map[string]bool
	beingVisited map[string]bool

	// outSlots[inst][arg] is the stack slot (or forwarded wrapper
	// pointer) holding that output after the instance's call
	outSlots map[string]map[string]llvm.Value

	// exposureIdx[inst][arg] is the wrapper argument bound to inst.arg
	exposureIdx map[string]map[string]int
}

type proto struct {
	fn   llvm.Value
	fnTy llvm.Type
}

// link topologically orders the group's instances and generates the
// wrapper function that routes arguments and calls each unit in order.
// On any failure the partially built module is dropped.
func (g *ShaderGroupTemplate) link(ctx *ShadingContext) error {
	if g.linked {
		return nil
	}
	if g.root == "" {
		return fmt.Errorf("group %q: %w", g.name, ErrGroupWithoutRoot)
	}
	if _, ok := g.units[g.root]; !ok {
		return fmt.Errorf("group %q root %q: %w", g.name, g.root, ErrGroupWithoutRoot)
	}

	groupArgs, err := g.wrapperArguments()
	if err != nil {
		return err
	}

	llctx := llvm.NewContext()
	module := llctx.NewModule(g.name)
	cg := backend.NewContext(llctx, module, nil, diag.NopReporter{}, ctx.registry)
	defer cg.Dispose()
	cg.DeclareGlobalModule()

	fail := func(err error) error {
		module.Dispose()
		llctx.Dispose()
		return err
	}

	st := &linkState{
		group:        g,
		cg:           cg,
		protos:       make(map[*ShaderUnitTemplate]proto),
		visited:      make(map[string]bool),
		beingVisited: make(map[string]bool),
		outSlots:     make(map[string]map[string]llvm.Value),
		exposureIdx:  make(map[string]map[string]int),
	}
	for idx, exp := range g.exposed {
		if st.exposureIdx[exp.inst] == nil {
			st.exposureIdx[exp.inst] = make(map[string]int)
		}
		st.exposureIdx[exp.inst][exp.arg] = idx
	}

	// one prototype per distinct template, shared by all its instances
	deps := []depModule{{mod: ctx.registry.Module(), reg: ctx.registry}}
	seenTpl := make(map[*ShaderUnitTemplate]bool)
	for _, u := range g.units {
		if seenTpl[u.tpl] {
			continue
		}
		seenTpl[u.tpl] = true
		fn, fnTy := cg.DeclareShader(u.tpl.rootFuncName, u.tpl.args)
		st.protos[u.tpl] = proto{fn: fn, fnTy: fnTy}
		deps = append(deps, depModule{mod: u.tpl.module})
	}

	wrapperName := g.name + "_shader_wrapper"
	wrapper, _ := cg.DeclareShader(wrapperName, groupArgs)
	st.wrapper = wrapper

	entry := llctx.AddBasicBlock(wrapper, "entry")
	cg.Builder.SetInsertPointAtEnd(entry)

	if err := st.generate(g.root); err != nil {
		return fail(err)
	}

	// every exposed output must have been produced on the way to the root
	for idx, exp := range g.exposed {
		if exp.output && !st.visited[exp.inst] {
			return fail(fmt.Errorf("group argument %d: unit %q does not feed the root: %w",
				idx, exp.inst, ErrInvalidInput))
		}
	}

	cg.Builder.CreateRetVoid()

	g.llctx = llctx
	g.module = module
	g.wrapperName = wrapperName
	g.groupArgs = groupArgs
	g.deps = deps
	g.linked = true
	return nil
}

// wrapperArguments assembles the group's own argument list from its
// exposures; indices must be dense from zero.
func (g *ShaderGroupTemplate) wrapperArguments() ([]types.ShaderArgument, error) {
	args := make([]types.ShaderArgument, len(g.exposed))
	for idx, exp := range g.exposed {
		if idx >= len(args) {
			return nil, fmt.Errorf("group argument indices are not dense at %d: %w",
				idx, ErrInvalidInput)
		}
		a, err := g.argument(exp.inst, exp.arg)
		if err != nil {
			return nil, err
		}
		args[idx] = types.ShaderArgument{
			Name:   fmt.Sprintf("%s_%s", exp.inst, exp.arg),
			Type:   a.Type,
			Output: exp.output,
		}
	}
	return args, nil
}

// generate emits the call for inst, visiting its dependencies first.
// Depth-first with an explicit being-visited set for cycle detection.
func (st *linkState) generate(inst string) error {
	if st.beingVisited[inst] {
		return fmt.Errorf("instance %q: %w", inst, ErrGroupCycle)
	}
	if st.visited[inst] {
		return nil
	}
	st.beingVisited[inst] = true
	defer delete(st.beingVisited, inst)

	u, ok := st.group.units[inst]
	if !ok {
		return fmt.Errorf("instance %q: %w", inst, ErrUndefinedShaderUnit)
	}

	for _, src := range st.group.connections[inst] {
		if _, ok := st.group.units[src.inst]; !ok {
			return fmt.Errorf("instance %q: %w", src.inst, ErrUndefinedShaderUnit)
		}
		if err := st.generate(src.inst); err != nil {
			return err
		}
	}

	args, err := st.assembleArgs(u)
	if err != nil {
		return err
	}
	// trailing tsl_global comes straight from the wrapper's own
	args = append(args, st.wrapper.Param(st.wrapper.ParamsCount()-1))

	p := st.protos[u.tpl]
	st.cg.Builder.CreateCall(p.fnTy, p.fn, args, "")

	st.visited[inst] = true
	return nil
}

// assembleArgs builds the call operands for one instance in its
// template's argument order.
func (st *linkState) assembleArgs(u *unitInstance) ([]llvm.Value, error) {
	g := st.group
	cg := st.cg
	args := make([]llvm.Value, 0, len(u.tpl.args)+1)

	for _, a := range u.tpl.args {
		if !a.Type.ArgumentSupported() {
			return nil, fmt.Errorf("%s.%s has type %s: %w", u.name, a.Name, a.Type, ErrInvalidArgType)
		}
		vt := cg.LowerType(a.Type, "")

		if a.Output {
			var slot llvm.Value
			if idx, ok := st.exposureIndex(u.name, a.Name); ok {
				// forwarded straight into the wrapper's output pointer
				slot = st.wrapper.Param(idx)
			} else {
				slot = cg.Builder.CreateAlloca(vt, u.name+"."+a.Name)
			}
			if st.outSlots[u.name] == nil {
				st.outSlots[u.name] = make(map[string]llvm.Value)
			}
			st.outSlots[u.name][a.Name] = slot
			args = append(args, slot)
			continue
		}

		// input: connection, exposure, group default, argument default
		if src, ok := g.connections[u.name][a.Name]; ok {
			slot := st.outSlots[src.inst][src.arg]
			if a.Type.IsAggregate() {
				args = append(args, slot)
			} else {
				args = append(args, cg.Builder.CreateLoad(vt, slot, a.Name))
			}
			continue
		}
		if idx, ok := st.exposureIndex(u.name, a.Name); ok {
			args = append(args, st.wrapper.Param(idx))
			continue
		}
		def, ok := g.defaults[u.name][a.Name]
		if !ok && a.Default != nil {
			def, ok = *a.Default, true
		}
		if ok {
			cv, valid := cg.ConstValue(def)
			if !valid {
				return nil, fmt.Errorf("%s.%s default of type %s: %w",
					u.name, a.Name, def.Type, ErrInvalidArgType)
			}
			if a.Type.IsAggregate() {
				tmp := cg.Builder.CreateAlloca(vt, u.name+"."+a.Name+".def")
				cg.Builder.CreateStore(cv, tmp)
				args = append(args, tmp)
			} else {
				args = append(args, cv)
			}
			continue
		}
		return nil, &ArgumentError{Group: g.name, Instance: u.name, Arg: a.Name}
	}
	return args, nil
}

func (st *linkState) exposureIndex(inst, arg string) (int, bool) {
	idx, ok := st.exposureIdx[inst][arg]
	return idx, ok
}
