package scoring

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
)

// ReviewRule is an extra manual-review predicate written as a CEL
// expression. The expression sees these variables:
//
//	confidence     double  final score
//	severity       string  lowercase severity
//	vuln_type      string  normalised vulnerability class
//	checks_passed  int     rule checks passed
//	checks_failed  int     rule checks failed
//	ml_score       double  classifier P(true positive)
//
// Example: `vuln_type == "ssrf" && confidence < 0.95`.
type ReviewRule struct {
	Name       string
	Expression string
	program    cel.Program
}

func reviewEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("severity", cel.StringType),
		cel.Variable("vuln_type", cel.StringType),
		cel.Variable("checks_passed", cel.IntType),
		cel.Variable("checks_failed", cel.IntType),
		cel.Variable("ml_score", cel.DoubleType),
	)
}

// CompileReviewRule parses and type-checks expr. The expression must
// evaluate to a bool.
func CompileReviewRule(name, expr string) (*ReviewRule, error) {
	env, err := reviewEnv()
	if err != nil {
		return nil, fmt.Errorf("review rule environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("review rule %q: %w", name, iss.Err())
	}
	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, fmt.Errorf("review rule %q: expression must be bool, got %v", name, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("review rule %q: %w", name, err)
	}
	return &ReviewRule{Name: name, Expression: expr, program: prg}, nil
}

// Eval reports whether the rule requires review for the given variables.
func (r *ReviewRule) Eval(vars map[string]any) (bool, error) {
	out, _, err := r.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("review rule %q: %w", r.Name, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("review rule %q: non-bool result %v", r.Name, out.Value())
	}
	return b, nil
}
