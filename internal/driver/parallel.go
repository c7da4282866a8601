// Package driver orchestrates compilation for callers that hold many
// sources: parallel compiles across worker goroutines and a disk cache of
// template metadata keyed by source hash.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tsl/internal/shading"
)

// CompileJob is one named shader source awaiting compilation.
type CompileJob struct {
	Name   string
	Path   string
	Source string
}

// CompileResult pairs a job with its compiled template or failure.
type CompileResult struct {
	Name     string
	Path     string
	Template *shading.ShaderUnitTemplate
	Err      error
}

// CompileAll compiles every job, spreading the work over min(workers,
// NumCPU) goroutines. Each worker compiles through the shading context,
// which hands it a driver of its own; results keep job order. Individual
// failures land in the result, not in the returned error, so one bad
// shader does not sink the batch.
func CompileAll(ctx context.Context, sctx *shading.ShadingContext, jobs []CompileJob, workers int) ([]CompileResult, error) {
	if workers <= 0 || workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}
	results := make([]CompileResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tpl := sctx.NewShaderUnitTemplate(job.Name)
			err := sctx.Compile(tpl, job.Source)
			results[i] = CompileResult{
				Name:     job.Name,
				Path:     job.Path,
				Template: tpl,
				Err:      err,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListShaderFiles returns the sorted *.tsl files under dir.
func ListShaderFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tsl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// JobName derives a shader job name from its file path.
func JobName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
