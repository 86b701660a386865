package targeting_test

import (
	"fmt"

	"github.com/schedkit/schedkit/pkg/targeting"
)

func ExampleResolve() {
	rules := targeting.RuleSet{
		IncludeUserIDs: []int64{10},
		ExcludeUserIDs: []int64{30},
		PackIDs:        []string{"beta-testers"},
	}
	snap := targeting.Snapshot{
		PackMembers: map[string][]int64{
			"beta-testers": {20, 30},
		},
	}

	targets := targeting.Resolve(rules, snap)
	fmt.Println(targets.FinalUserIDs)
	// Output: [10 20]
}

func ExampleResolve_broadcast() {
	// No rules at all means the job applies to every known user.
	snap := targeting.Snapshot{AllUserIDs: []int64{1, 2, 3}}

	targets := targeting.Resolve(targeting.RuleSet{}, snap)
	fmt.Println(targets.FinalUserIDs)
	// Output: [1 2 3]
}
