package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/schedkit/schedkit/pkg/scheduler"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// Memory implements every repository interface of the engine in process
// memory. It backs tests, examples, and single-process deployments that do
// not need a database.
type Memory struct {
	mu sync.RWMutex

	jobsByID   map[uuid.UUID]*scheduler.JobRecord
	jobsByName map[string]uuid.UUID
	executions map[uuid.UUID]*scheduler.Execution

	targetUsers map[uuid.UUID]map[targeting.Mode][]int64
	targetPacks map[uuid.UUID][]string

	users       []int64
	packMembers map[string][]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobsByID:    make(map[uuid.UUID]*scheduler.JobRecord),
		jobsByName:  make(map[string]uuid.UUID),
		executions:  make(map[uuid.UUID]*scheduler.Execution),
		targetUsers: make(map[uuid.UUID]map[targeting.Mode][]int64),
		targetPacks: make(map[uuid.UUID][]string),
		packMembers: make(map[string][]int64),
	}
}

// --- scheduler.Repository ---

func (m *Memory) CreateJob(ctx context.Context, rec *scheduler.JobRecord) error {
	if rec == nil {
		return fmt.Errorf("job record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobsByName[rec.Name]; exists {
		return fmt.Errorf("job %q: %w", rec.Name, ErrDuplicateName)
	}
	clone := *rec
	m.jobsByID[rec.ID] = &clone
	m.jobsByName[rec.Name] = rec.ID
	return nil
}

func (m *Memory) GetJobByName(ctx context.Context, name string) (*scheduler.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.jobsByName[name]
	if !ok {
		return nil, fmt.Errorf("job %q: %w", name, scheduler.ErrJobNotFound)
	}
	clone := *m.jobsByID[id]
	return &clone, nil
}

func (m *Memory) ListJobs(ctx context.Context) ([]*scheduler.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*scheduler.JobRecord, 0, len(m.jobsByID))
	for _, rec := range m.jobsByID {
		clone := *rec
		jobs = append(jobs, &clone)
	}
	slices.SortFunc(jobs, func(a, b *scheduler.JobRecord) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return jobs, nil
}

func (m *Memory) UpdateJob(ctx context.Context, rec *scheduler.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobsByID[rec.ID]; !ok {
		return fmt.Errorf("job %q: %w", rec.Name, scheduler.ErrJobNotFound)
	}
	clone := *rec
	m.jobsByID[rec.ID] = &clone
	return nil
}

func (m *Memory) CreateExecution(ctx context.Context, exec *scheduler.Execution) error {
	if exec == nil {
		return fmt.Errorf("execution cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *exec
	m.executions[exec.ID] = &clone
	return nil
}

func (m *Memory) GetExecution(ctx context.Context, id uuid.UUID) (*scheduler.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exec, ok := m.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, scheduler.ErrExecutionNotFound)
	}
	clone := *exec
	return &clone, nil
}

func (m *Memory) UpdateExecution(ctx context.Context, exec *scheduler.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.executions[exec.ID]; !ok {
		return fmt.Errorf("execution %s: %w", exec.ID, scheduler.ErrExecutionNotFound)
	}
	clone := *exec
	m.executions[exec.ID] = &clone
	return nil
}

// ListExecutionsByJob returns all executions of a job, unordered.
func (m *Memory) ListExecutionsByJob(ctx context.Context, jobID uuid.UUID) ([]*scheduler.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*scheduler.Execution
	for _, exec := range m.executions {
		if exec.JobID == jobID {
			clone := *exec
			out = append(out, &clone)
		}
	}
	return out, nil
}

// --- targeting.RuleRepository ---

func (m *Memory) ListTargetUsers(ctx context.Context, jobID uuid.UUID, mode targeting.Mode) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.targetUsers[jobID][mode]), nil
}

func (m *Memory) ListTargetPacks(ctx context.Context, jobID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.targetPacks[jobID]), nil
}

// AddTargetUser adds an include or exclude row for a job.
func (m *Memory) AddTargetUser(jobID uuid.UUID, mode targeting.Mode, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.targetUsers[jobID] == nil {
		m.targetUsers[jobID] = make(map[targeting.Mode][]int64)
	}
	m.targetUsers[jobID][mode] = append(m.targetUsers[jobID][mode], userID)
}

// AddTargetPack adds an include-pack row for a job.
func (m *Memory) AddTargetPack(jobID uuid.UUID, packID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targetPacks[jobID] = append(m.targetPacks[jobID], packID)
}

// --- targeting.Directory ---

func (m *Memory) ListUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.users), nil
}

func (m *Memory) ListPackMembers(ctx context.Context, packID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.packMembers[packID]), nil
}

// AddUser seeds a known user.
func (m *Memory) AddUser(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.users, userID) {
		m.users = append(m.users, userID)
	}
}

// AddPackMember seeds a pack membership. The user is also added to the
// directory.
func (m *Memory) AddPackMember(packID string, userID int64) {
	m.mu.Lock()
	if !slices.Contains(m.packMembers[packID], userID) {
		m.packMembers[packID] = append(m.packMembers[packID], userID)
	}
	m.mu.Unlock()
	m.AddUser(userID)
}
