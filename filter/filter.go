// Package filter compiles user-supplied expressions for narrowing stream and
// movie listings, e.g. `Archive and Name contains "HD"`.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tabarek/iptvctl/xtream"
)

// Filter is a compiled boolean expression evaluated per item.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles a filter expression. The expression must evaluate to a
// boolean.
func Compile(expression string) (*Filter, error) {
	program, err := expr.Compile(expression,
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// Expression returns the source expression.
func (f *Filter) Expression() string {
	return f.expression
}

// Match evaluates the filter against an environment.
func (f *Filter) Match(env map[string]any) (bool, error) {
	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.expression, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not evaluate to a boolean", f.expression)
	}
	return matched, nil
}

// StreamEnv builds the evaluation environment for a live stream.
func StreamEnv(s xtream.Stream) map[string]any {
	return map[string]any{
		"Name":       s.Name,
		"NameLower":  strings.ToLower(s.Name),
		"StreamID":   s.StreamID,
		"CategoryID": s.CategoryID,
		"EPGChannel": s.EPGChannelID,
		"Archive":    s.TVArchive == 1,
	}
}

// VODEnv builds the evaluation environment for a movie listing entry.
func VODEnv(v xtream.VODStream) map[string]any {
	return map[string]any{
		"Name":       v.Name,
		"NameLower":  strings.ToLower(v.Name),
		"StreamID":   v.StreamID,
		"CategoryID": v.CategoryID,
		"Rating":     v.Rating5Based,
		"Extension":  v.ContainerExtension,
	}
}
