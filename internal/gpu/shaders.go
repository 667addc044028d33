//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources. common.wgsl holds the winding functions
// and quad helpers; it is prepended to every stage shader since WGSL has
// no include mechanism.

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/preprocess.wgsl
var preprocessShaderSource string

//go:embed shaders/quad.wgsl
var quadShaderSource string

//go:embed shaders/shard.wgsl
var shardShaderSource string

// Shader names accepted by ShaderSource.
const (
	ShaderPreprocess = "preprocess"
	ShaderQuad       = "quad"
	ShaderShard      = "shard"
)

// ShaderNames lists every shader in dispatch order.
var ShaderNames = []string{ShaderPreprocess, ShaderQuad, ShaderShard}

// ShaderSource returns the complete WGSL module for the named shader.
func ShaderSource(name string) (string, error) {
	var src string
	switch name {
	case ShaderPreprocess:
		src = preprocessShaderSource
	case ShaderQuad:
		src = quadShaderSource
	case ShaderShard:
		src = shardShaderSource
	default:
		return "", fmt.Errorf("unknown shader %q", name)
	}
	if src == "" || commonShaderSource == "" {
		return "", fmt.Errorf("%s shader source is empty", name)
	}
	return commonShaderSource + "\n" + src, nil
}

// CompileShader translates the named shader to SPIR-V with naga. Backends
// accept WGSL directly; this is used to check shaders ahead of time.
func CompileShader(name string) ([]byte, error) {
	src, err := ShaderSource(name)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", name, err)
	}
	return spirv, nil
}
