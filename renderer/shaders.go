package renderer

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/pthm-cable/fluidbg/fluid"
)

//go:embed shaders/*.fs shaders/common.glsl
var shaderFS embed.FS

const glslVersion = "#version 330\n"

// fragmentSource assembles the fragment shader for a stage: version line, one
// #define per keyword, the shared coordinate prelude, then the stage body.
func fragmentSource(stage fluid.Stage, keywords []string) (string, error) {
	common, err := shaderFS.ReadFile("shaders/common.glsl")
	if err != nil {
		return "", err
	}
	body, err := shaderFS.ReadFile("shaders/" + stage.String() + ".fs")
	if err != nil {
		return "", fmt.Errorf("no shader for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(glslVersion)
	for _, kw := range keywords {
		fmt.Fprintf(&sb, "#define %s\n", kw)
	}
	sb.Write(common)
	sb.WriteByte('\n')
	sb.Write(body)
	return sb.String(), nil
}

// programKey identifies a compiled variant independent of keyword order.
func programKey(stage fluid.Stage, keywords []string) string {
	kw := append([]string(nil), keywords...)
	sort.Strings(kw)
	return stage.String() + "|" + strings.Join(kw, ",")
}
