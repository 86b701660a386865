package targeting

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Resolve evaluates a rule set against a user snapshot and returns the final
// recipient set. It is a pure function; both inputs are read only.
//
// The policy, in order:
//  1. start from the include-user ids, if any;
//  2. union in the members of every included pack, deduplicated;
//  3. if the base is still empty, fall back to all known users — an empty
//     targeting configuration broadcasts to everyone, not to no one;
//  4. subtract the exclude-user set. Exclude always wins over include.
func Resolve(rules RuleSet, snap Snapshot) Targets {
	base := make([]int64, 0, len(rules.IncludeUserIDs))
	seen := make(map[int64]struct{}, len(rules.IncludeUserIDs))

	add := func(ids []int64) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			base = append(base, id)
		}
	}

	add(rules.IncludeUserIDs)
	for _, packID := range rules.PackIDs {
		add(snap.PackMembers[packID])
	}

	if len(base) == 0 {
		add(snap.AllUserIDs)
	}

	excluded := make(map[int64]struct{}, len(rules.ExcludeUserIDs))
	for _, id := range rules.ExcludeUserIDs {
		excluded[id] = struct{}{}
	}

	final := make([]int64, 0, len(base))
	for _, id := range base {
		if _, ok := excluded[id]; ok {
			continue
		}
		final = append(final, id)
	}

	return Targets{
		IncludeUserIDs: slices.Clone(rules.IncludeUserIDs),
		ExcludeUserIDs: slices.Clone(rules.ExcludeUserIDs),
		PackIDs:        slices.Clone(rules.PackIDs),
		FinalUserIDs:   final,
	}
}

// Resolver loads a job's rules and the user snapshot from storage and applies
// Resolve. It holds no state beyond its dependencies and is safe for
// concurrent use.
type Resolver struct {
	rules RuleRepository
	dir   Directory
}

// NewResolver creates a Resolver backed by the given repositories.
func NewResolver(rules RuleRepository, dir Directory) (*Resolver, error) {
	if rules == nil || dir == nil {
		return nil, ErrRepositoryNil
	}
	return &Resolver{rules: rules, dir: dir}, nil
}

// Resolve computes the recipient set for one job.
func (r *Resolver) Resolve(ctx context.Context, jobID uuid.UUID) (Targets, error) {
	include, err := r.rules.ListTargetUsers(ctx, jobID, ModeInclude)
	if err != nil {
		return Targets{}, fmt.Errorf("list include users: %w", err)
	}
	exclude, err := r.rules.ListTargetUsers(ctx, jobID, ModeExclude)
	if err != nil {
		return Targets{}, fmt.Errorf("list exclude users: %w", err)
	}
	packs, err := r.rules.ListTargetPacks(ctx, jobID)
	if err != nil {
		return Targets{}, fmt.Errorf("list target packs: %w", err)
	}

	snap := Snapshot{}
	memberTotal := 0
	if len(packs) > 0 {
		snap.PackMembers = make(map[string][]int64, len(packs))
		for _, packID := range packs {
			members, err := r.dir.ListPackMembers(ctx, packID)
			if err != nil {
				return Targets{}, fmt.Errorf("list pack %q members: %w", packID, err)
			}
			snap.PackMembers[packID] = members
			memberTotal += len(members)
		}
	}

	// The all-users fallback only applies when the include set ends up empty
	// (no include rows and no pack members), so the full snapshot is fetched
	// lazily.
	if len(include) == 0 && memberTotal == 0 {
		all, err := r.dir.ListUserIDs(ctx)
		if err != nil {
			return Targets{}, fmt.Errorf("list all users: %w", err)
		}
		snap.AllUserIDs = all
	}

	return Resolve(RuleSet{
		IncludeUserIDs: include,
		ExcludeUserIDs: exclude,
		PackIDs:        packs,
	}, snap), nil
}
