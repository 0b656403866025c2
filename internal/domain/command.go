package domain

// CommandRecord is one executed (or rejected) shell command inside an
// adaptive executor run. Records are append-only log entries; they are never
// mutated after creation.
type CommandRecord struct {
	Command string
	Output  string
	Success bool
}

// ExecutorConfig holds the immutable bounds for one adaptive executor run.
type ExecutorConfig struct {
	MaxIterations        int
	MaxConsecutiveErrors int
}

const (
	DefaultMaxIterations        = 10
	DefaultMaxConsecutiveErrors = 2
)

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxIterations:        DefaultMaxIterations,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErrors,
	}
}

// ExecutorResult is the final report of an adaptive executor run. Iterations
// never exceeds the configured MaxIterations.
type ExecutorResult struct {
	Success       bool
	Output        string
	Iterations    int
	Commands      []CommandRecord
	FinalCwd      string
	FailureReason string
}
