//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const (
	shaderSrcDir = "assets/shaders"
	shaderGenDir = "assets/gen/shaders"
)

type Build mg.Namespace

// Compiles every GLSL stage under assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the engine binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/anima-frames", "."), withStream())
	return err
}

func buildShaders() error {
	if err := os.MkdirAll(shaderGenDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", shaderGenDir, err)
	}
	var sources []string
	for _, stage := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderSrcDir, stage))
		if err != nil {
			return err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shaders found in %s", shaderSrcDir)
	}
	for _, src := range sources {
		out := filepath.Join(shaderGenDir, filepath.Base(src)+".spv")
		if fresh, err := upToDate(src, out); err == nil && fresh {
			continue
		}
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
