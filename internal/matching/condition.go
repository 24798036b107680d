package matching

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEnv is the environment a condition expression is evaluated in.
type ConditionEnv struct {
	Method  string            `expr:"method"`
	Host    string            `expr:"host"`
	Path    string            `expr:"path"`
	Query   map[string]string `expr:"query"`
	Headers map[string]string `expr:"headers"`
	Body    string            `expr:"body"`
	JSON    any               `expr:"json"`
}

// Condition is a compiled boolean expression over the request, for example
//
//	method == "post" && headers["content-type"] startsWith "application/json"
type Condition struct {
	source  string
	program *vm.Program
}

// CompileCondition compiles expression. The expression must evaluate to a bool.
func CompileCondition(expression string) (*Condition, error) {
	program, err := expr.Compile(expression, expr.Env(ConditionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: condition %q: %v", ErrInvalidExpression, expression, err)
	}
	return &Condition{source: expression, program: program}, nil
}

// String returns the source expression.
func (c *Condition) String() string { return c.source }

// Check evaluates the condition and returns an error when it does not hold.
func (c *Condition) Check(env ConditionEnv) error {
	out, err := expr.Run(c.program, env)
	if err != nil {
		return fmt.Errorf("condition %q failed: %w", c.source, err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("condition %q not satisfied by request", c.source)
	}
	return nil
}
