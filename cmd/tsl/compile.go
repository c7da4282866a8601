package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsl/internal/driver"
	"tsl/internal/observ"
	"tsl/internal/shading"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file.tsl>...",
	Short: "Compile shader sources and JIT-resolve them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().Bool("no-opt", false, "disable the optimization pipeline")
	compileCmd.Flags().Bool("no-verify", false, "disable IR verification")
	compileCmd.Flags().Bool("verbose-parser", false, "trace tokens and productions")
	compileCmd.Flags().Bool("no-cache", false, "skip the template metadata cache")
	compileCmd.Flags().Int("jobs", 0, "parallel compile workers (0 = NumCPU)")
}

func runCompile(cmd *cobra.Command, paths []string) error {
	timer := observ.NewTimer()
	noOpt, _ := cmd.Flags().GetBool("no-opt")
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	verbose, _ := cmd.Flags().GetBool("verbose-parser")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	jobs, _ := cmd.Flags().GetInt("jobs")

	sctx, err := shading.NewShadingContext()
	if err != nil {
		return err
	}

	var cache *driver.MetadataCache
	if !noCache {
		if c, err := driver.OpenMetadataCache("tsl"); err == nil {
			cache = c
		}
	}

	phase := timer.Begin("read")
	var jobList []driver.CompileJob
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		jobList = append(jobList, driver.CompileJob{
			Name:   driver.JobName(path),
			Path:   path,
			Source: string(src),
		})
	}
	timer.End(phase, fmt.Sprintf("%d files", len(jobList)))

	phase = timer.Begin("compile")
	results, err := driver.CompileAll(context.Background(), sctx, jobList, jobs)
	if err != nil {
		return err
	}
	timer.End(phase, "")

	failed := 0
	phase = timer.Begin("resolve")
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
			continue
		}
		if noOpt {
			res.Template.SetAllowOptimization(false)
		}
		if noVerify {
			res.Template.SetAllowVerification(false)
		}
		if verbose {
			res.Template.SetVerboseParser(true)
		}

		inst, err := sctx.ResolveShaderUnit(res.Template)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, err)
			continue
		}
		fmt.Printf("%s: ok (%s, %d arguments)\n",
			res.Path, inst.FunctionName(), len(res.Template.ExposedArguments()))
		inst.Dispose()

		if cache != nil {
			md := &driver.CachedTemplate{
				Name:         res.Name,
				RootFunction: res.Template.RootFunctionName(),
				SourceHash:   driver.HashSource(jobSource(jobList, res.Name)),
				Arguments:    driver.FromArguments(res.Template.ExposedArguments()),
			}
			if err := cache.Store(md); err != nil {
				fmt.Fprintf(os.Stderr, "cache: %v\n", err)
			}
		}
	}
	timer.End(phase, "")

	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d shaders failed", failed, len(results))
	}
	return nil
}

func jobSource(jobs []driver.CompileJob, name string) string {
	for _, j := range jobs {
		if j.Name == name {
			return j.Source
		}
	}
	return ""
}
