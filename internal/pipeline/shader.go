//go:build !nogpu

package pipeline

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/pixbuf"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// Blit shader entry points.
const (
	blitVertexEntry   = "vs_main"
	blitFragmentEntry = "fs_main"
)

// validateShader parses, lowers and validates WGSL source with naga.
// Validation diagnostics are logged at debug level and returned as an error.
func validateShader(label, source string) error {
	if source == "" {
		return fmt.Errorf("%s shader source is empty", label)
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("parse %s shader: %w", label, err)
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("lower %s shader: %w", label, err)
	}
	diags, err := naga.Validate(mod)
	if err != nil {
		return fmt.Errorf("validate %s shader: %w", label, err)
	}
	for _, d := range diags {
		pixbuf.Logger().Debug("pixbuf: shader validation", "shader", label,
			"function", d.Function, "message", d.Message)
	}
	if len(diags) > 0 {
		return fmt.Errorf("validate %s shader: %d diagnostics, first: %s", label, len(diags), diags[0].Message)
	}
	return nil
}
