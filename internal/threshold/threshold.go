// Package threshold evaluates pass/fail assertions against an aggregated
// run summary, turning a benchmark into a CI-style gate.
package threshold

import (
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"

	"github.com/calibench/calibench/internal/metrics"
)

// Result is the outcome of evaluating one threshold expression.
type Result struct {
	Expression string
	Actual     map[string]interface{}
	Pass       bool
}

func (r Result) String() string {
	status := "✓"
	if !r.Pass {
		status = "✗"
	}
	return fmt.Sprintf("%s %s", status, r.Expression)
}

// Evaluate checks each expression against the aggregate's metric fields.
// Available identifiers: throughput_rps, min_ms, mean_ms, p50_ms, p90_ms,
// p99_ms, max_ms, errors, runs. Expressions must evaluate to a boolean.
func Evaluate(agg metrics.Aggregate, expressions []string) ([]Result, error) {
	params := map[string]interface{}{
		"throughput_rps": agg.Throughput,
		"min_ms":         agg.MinMs,
		"mean_ms":        agg.MeanMs,
		"p50_ms":         agg.P50Ms,
		"p90_ms":         agg.P90Ms,
		"p99_ms":         agg.P99Ms,
		"max_ms":         agg.MaxMs,
		"errors":         agg.MeanErrors,
		"runs":           float64(agg.Runs),
	}

	results := make([]Result, 0, len(expressions))
	for _, expr := range expressions {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		value, err := gval.Evaluate(expr, params)
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", expr, err)
		}
		pass, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("threshold %q: expression must be boolean, got %T", expr, value)
		}
		results = append(results, Result{Expression: expr, Actual: params, Pass: pass})
	}
	return results, nil
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}
