package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/getmockd/interaptor/pkg/intercept"
	"github.com/getmockd/interaptor/pkg/logging"
)

// Apply registers the rules on reg in file order. A rule that fails to
// configure is disabled and its error returned; the other rules stay.
func (f *File) Apply(reg *intercept.Registry) ([]*intercept.Rule, error) {
	rules := make([]*intercept.Rule, 0, len(f.Rules))
	var errs []error
	for i := range f.Rules {
		rule := f.Rules[i].register(reg)
		if err := rule.Err(); err != nil {
			rule.Disable()
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("rules[%d]", i), Message: err.Error()})
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errors.Join(errs...)
}

// Logger returns the logger configured by the log section, or a no-op
// logger when there is none.
func (f *File) Logger() *slog.Logger {
	if f.Log == nil {
		return logging.Nop()
	}
	return logging.New(logging.Config{
		Level:     logging.ParseLevel(f.Log.Level),
		Format:    logging.ParseFormat(f.Log.Format),
		AddSource: f.Log.AddSource,
	})
}

func (r *RuleConfig) register(reg *intercept.Registry) *intercept.Rule {
	rule := reg.Intercept(r.Host)

	if r.Method != "" || r.Path != "" {
		var path any
		if r.Path != "" {
			path = r.Path
		}
		rule.Method(r.Method, path)
	}
	if r.Times > 0 {
		rule.Times(r.Times)
	}

	if res := r.Response; res != nil {
		for _, name := range slices.Sorted(maps.Keys(res.Headers)) {
			rule.Set(intercept.Header(name, res.Headers[name]))
		}
		if res.Status != 0 {
			rule.Set(intercept.Status(res.Status))
		}
		switch {
		case res.Body != nil:
			rule.Set(intercept.Text(*res.Body))
		case res.JSON != nil:
			rule.Set(intercept.JSON(res.JSON))
		}
	}

	if exp := r.Expect; exp != nil {
		for _, name := range slices.Sorted(maps.Keys(exp.Headers)) {
			rule.Expect(intercept.Header(name, exp.Headers[name]))
		}
		if exp.Status != 0 {
			rule.Expect(intercept.Status(exp.Status))
		}
		switch {
		case exp.Body != nil:
			rule.Expect(intercept.Text(*exp.Body))
		case exp.JSON != nil:
			rule.Expect(intercept.JSON(exp.JSON))
		}
		for _, path := range slices.Sorted(maps.Keys(exp.JSONPath)) {
			rule.Expect(intercept.JSONPath(path, exp.JSONPath[path]))
		}
		if exp.Schema != nil {
			rule.Expect(intercept.Schema(exp.Schema))
		}
		if exp.Condition != "" {
			rule.Expect(intercept.Condition(exp.Condition))
		}
	}
	return rule
}
