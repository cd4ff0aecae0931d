package engine

import (
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// traceRewrite logs a unified diff of the serialised forms when debug
// logging is enabled; rendering the diff is skipped otherwise.
func (en *Engine) traceRewrite(ruleID string, before, after *Expr) {
	if !en.log.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		text = "(diff error: " + err.Error() + ")"
	}
	en.log.Debug("rule fired",
		zap.String("engine", en.id),
		zap.String("rule", ruleID),
		zap.String("diff", text))
}
