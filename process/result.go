package process

import "time"

// Result holds the status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output. Empty when output was streamed.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
	// BytesOut is the number of stdout bytes delivered.
	BytesOut int64
}

// StderrTail returns at most the last n bytes of stderr.
func (r *Result) StderrTail(n int) string {
	if len(r.Stderr) <= n {
		return string(r.Stderr)
	}
	return string(r.Stderr[len(r.Stderr)-n:])
}
