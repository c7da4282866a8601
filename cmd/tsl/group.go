package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"tsl/internal/driver"
	"tsl/internal/shading"
	"tsl/internal/types"
)

var groupCmd = &cobra.Command{
	Use:   "group <group.toml>",
	Short: "Link a shader group definition and JIT-resolve its wrapper",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroup,
}

// groupFile is the TOML surface of a shader group definition.
type groupFile struct {
	Name string `toml:"name"`
	Root string `toml:"root"`

	Units []struct {
		Instance string `toml:"instance"`
		Source   string `toml:"source"`
	} `toml:"unit"`

	Connections []struct {
		From string `toml:"from"` // "instance.arg"
		To   string `toml:"to"`
	} `toml:"connection"`

	Defaults []struct {
		Unit  string  `toml:"unit"`
		Arg   string  `toml:"arg"`
		Type  string  `toml:"type"`
		Value float64 `toml:"value"`
	} `toml:"default"`

	Inputs []struct {
		Unit  string `toml:"unit"`
		Arg   string `toml:"arg"`
		Index int    `toml:"index"`
	} `toml:"input"`

	Outputs []struct {
		Unit  string `toml:"unit"`
		Arg   string `toml:"arg"`
		Index int    `toml:"index"`
	} `toml:"output"`
}

func runGroup(cmd *cobra.Command, args []string) error {
	var def groupFile
	if _, err := toml.DecodeFile(args[0], &def); err != nil {
		return err
	}
	if def.Name == "" {
		def.Name = driver.JobName(args[0])
	}
	baseDir := filepath.Dir(args[0])

	sctx, err := shading.NewShadingContext()
	if err != nil {
		return err
	}

	// compile one template per distinct source; instances share them
	jobsBySource := make(map[string]int)
	var jobs []driver.CompileJob
	for _, u := range def.Units {
		path := u.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if _, seen := jobsBySource[path]; seen {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		jobsBySource[path] = len(jobs)
		jobs = append(jobs, driver.CompileJob{
			Name:   driver.JobName(path),
			Path:   path,
			Source: string(src),
		})
	}
	results, err := driver.CompileAll(context.Background(), sctx, jobs, 0)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.Path, res.Err)
		}
	}

	group := sctx.NewShaderGroupTemplate(def.Name)
	for _, u := range def.Units {
		path := u.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		tpl := results[jobsBySource[path]].Template
		if err := group.AddUnit(u.Instance, tpl); err != nil {
			return err
		}
	}
	for _, conn := range def.Connections {
		srcInst, srcArg, err := splitRef(conn.From)
		if err != nil {
			return err
		}
		dstInst, dstArg, err := splitRef(conn.To)
		if err != nil {
			return err
		}
		if err := group.Connect(srcInst, srcArg, dstInst, dstArg); err != nil {
			return err
		}
	}
	for _, d := range def.Defaults {
		v, err := defaultValue(d.Type, d.Value)
		if err != nil {
			return err
		}
		if err := group.SetDefault(d.Unit, d.Arg, v); err != nil {
			return err
		}
	}
	for _, in := range def.Inputs {
		if err := group.ExposeInput(in.Unit, in.Arg, in.Index); err != nil {
			return err
		}
	}
	for _, out := range def.Outputs {
		if err := group.ExposeOutput(out.Unit, out.Arg, out.Index); err != nil {
			return err
		}
	}
	group.SetRoot(def.Root)

	inst, err := sctx.ResolveShaderGroup(group)
	if err != nil {
		return err
	}
	defer inst.Dispose()

	fmt.Printf("%s: ok (%s)\n", def.Name, inst.FunctionName())
	for i, a := range group.ExposedArguments() {
		dir := "in"
		if a.Output {
			dir = "out"
		}
		fmt.Printf("  arg %d: %-3s %-7s %s\n", i, dir, a.Type, a.Name)
	}
	return nil
}

// splitRef parses "instance.arg".
func splitRef(ref string) (string, string, error) {
	inst, arg, ok := strings.Cut(ref, ".")
	if !ok || inst == "" || arg == "" {
		return "", "", fmt.Errorf("connection reference %q is not instance.arg", ref)
	}
	return inst, arg, nil
}

func defaultValue(typeName string, v float64) (types.Value, error) {
	t, ok := types.ParseDataType(typeName)
	if !ok {
		return types.Value{}, fmt.Errorf("unknown default type %q", typeName)
	}
	switch t {
	case types.Int:
		return types.IntValue(int64(v)), nil
	case types.Float:
		return types.FloatValue(v), nil
	case types.Double:
		return types.DoubleValue(v), nil
	case types.Bool:
		return types.BoolValue(v != 0), nil
	}
	return types.Value{}, fmt.Errorf("type %q cannot be defaulted from a number", typeName)
}
