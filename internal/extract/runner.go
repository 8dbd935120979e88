package extract

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub the PDF tooling in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner shells out and logs every invocation through the extractor's
// logger. Tool stderr is echoed into logs up to maxLogStderr bytes.
type execRunner struct {
	logger       *slog.Logger
	maxLogStderr int
}

func newExecRunner(logger *slog.Logger, maxLogStderr int) execRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if maxLogStderr <= 0 {
		maxLogStderr = 8 << 10
	}
	return execRunner{logger: logger, maxLogStderr: maxLogStderr}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), r.maxLogStderr),
		)
		return out.Bytes(), errb.Bytes(), err
	}

	r.logger.Debug("exec ok",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
