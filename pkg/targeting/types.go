package targeting

import (
	"context"

	"github.com/google/uuid"
)

// Mode says whether a target-user row includes or excludes the user.
type Mode string

const (
	ModeInclude Mode = "include"
	ModeExclude Mode = "exclude"
)

// RuleSet is the per-job targeting configuration loaded from storage.
type RuleSet struct {
	IncludeUserIDs []int64
	ExcludeUserIDs []int64
	PackIDs        []string
}

// Empty reports whether no explicit targeting was configured. An empty rule
// set means the job applies to every known user.
func (r RuleSet) Empty() bool {
	return len(r.IncludeUserIDs) == 0 && len(r.ExcludeUserIDs) == 0 && len(r.PackIDs) == 0
}

// Snapshot is the live user population the rules are evaluated against.
type Snapshot struct {
	AllUserIDs []int64
	// PackMembers maps pack id to member user ids. Only packs referenced by
	// the rule set need to be present.
	PackMembers map[string][]int64
}

// Targets is the resolved recipient set for one execution. It is computed
// fresh at submission time and never persisted.
type Targets struct {
	IncludeUserIDs []int64  `json:"include_user_ids"`
	ExcludeUserIDs []int64  `json:"exclude_user_ids"`
	PackIDs        []string `json:"pack_ids"`
	FinalUserIDs   []int64  `json:"final_user_ids"`
}

// RuleRepository lists the persisted targeting rows of a job.
type RuleRepository interface {
	// ListTargetUsers returns the user ids of all rows with the given mode.
	ListTargetUsers(ctx context.Context, jobID uuid.UUID, mode Mode) ([]int64, error)

	// ListTargetPacks returns the pack ids included for the job.
	ListTargetPacks(ctx context.Context, jobID uuid.UUID) ([]string, error)
}

// Directory supplies the live user snapshot.
type Directory interface {
	// ListUserIDs returns every known user id.
	ListUserIDs(ctx context.Context) ([]int64, error)

	// ListPackMembers returns the user ids belonging to a pack. Unknown packs
	// resolve to an empty membership, not an error.
	ListPackMembers(ctx context.Context, packID string) ([]int64, error)
}
