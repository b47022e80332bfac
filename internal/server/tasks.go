package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/pngopt-mcp/internal/bridge"
)

// taskTTL is how long an uncollected result is kept.
const taskTTL = time.Hour

// pendingTask is a scheduled optimization waiting for its result to be
// collected.
type pendingTask struct {
	task       *bridge.Task
	inputBytes int
	outputPath string
	warnings   []string
	created    time.Time
}

// TaskRegistry tracks deferred optimizations by id until their result is
// delivered.
//
// TaskRegistry is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// A finished task holds its output until png_optimize_result collects it.
// Sweep drops finished results older than a cutoff; the server sweeps
// with taskTTL whenever it schedules new work. Running tasks are never
// swept.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*pendingTask
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]*pendingTask),
	}
}

// Add stores t under a new random id and returns the id.
func (r *TaskRegistry) Add(t *pendingTask) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.tasks[id] = t
	r.mu.Unlock()
	return id
}

// Get returns the task stored under id.
func (r *TaskRegistry) Get(id string) (*pendingTask, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Evict removes the task stored under id. Unknown ids are ignored.
func (r *TaskRegistry) Evict(id string) {
	r.mu.Lock()
	delete(r.tasks, id)
	r.mu.Unlock()
}

// Len returns the number of tracked tasks.
func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Sweep evicts finished tasks created more than ttl before now and
// returns how many were removed.
func (r *TaskRegistry) Sweep(ttl time.Duration, now time.Time) int {
	cutoff := now.Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.tasks {
		if t.created.Before(cutoff) && t.finished() {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}

func (t *pendingTask) finished() bool {
	if t.task == nil {
		return true
	}
	select {
	case <-t.task.Done():
		return true
	default:
		return false
	}
}
