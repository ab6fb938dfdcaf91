package mirror

import (
	"sync"
	"time"

	"favsync/internal/library"
)

// Operation names the action that produced a failure.
type Operation string

const (
	OpFetch     Operation = "fetch"
	OpTranscode Operation = "transcode"
	OpTag       Operation = "tag"
	OpWrite     Operation = "write"
	OpDelete    Operation = "delete"
	OpArtwork   Operation = "artwork"
	OpVerify    Operation = "verify"
)

// Failure records one isolated per-key error.
type Failure struct {
	Key    library.Key
	Op     Operation
	Reason string
}

// Summary is the structured report of one run.
type Summary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Remote    int
	Created   int
	Deleted   int
	Unchanged int
	Failures  []Failure
	DryRun    bool
	Converged bool
}

// Failed returns the number of failed actions.
func (s *Summary) Failed() int { return len(s.Failures) }

// failureLog is the concurrency-safe failure collector shared by workers.
type failureLog struct {
	mu       sync.Mutex
	failures []Failure
}

func (l *failureLog) add(key library.Key, op Operation, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, Failure{Key: key, Op: op, Reason: err.Error()})
}

func (l *failureLog) list() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Failure, len(l.failures))
	copy(out, l.failures)
	return out
}

func (l *failureLog) failedKeys() map[library.Key]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make(map[library.Key]struct{}, len(l.failures))
	for _, f := range l.failures {
		if f.Key != "" {
			keys[f.Key] = struct{}{}
		}
	}
	return keys
}
