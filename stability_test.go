package dbscan

import (
	"math"
	"testing"
)

func TestComputeStability_TwoGroups(t *testing.T) {
	tree := condenseTree(twoGroupDendrogram(), 2)
	stab := computeStability(tree)

	// Root births at lambda 0 and loses both size-3 clusters at 1/10.
	if got := stab[6]; !almostEqual(got, 0.6, floatTol) {
		t.Errorf("root stability = %v, want 0.6", got)
	}
	// Each child cluster births at 0.1 and sheds 3 points at lambda 1.
	for _, c := range []int{7, 8} {
		if got := stab[c]; !almostEqual(got, 2.7, floatTol) {
			t.Errorf("stability[%d] = %v, want 2.7", c, got)
		}
	}
}

func TestComputeStability_NonNegative(t *testing.T) {
	tree := condenseTree(twoGroupDendrogram(), 2)
	for c, s := range computeStability(tree) {
		if s < 0 {
			t.Errorf("stability[%d] = %v, want >= 0", c, s)
		}
	}
}

func TestComputeStability_SkipsInfiniteLambda(t *testing.T) {
	tree := []CondensedTreeEntry{
		{Parent: 3, Child: 0, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 1, LambdaVal: math.Inf(1), ChildSize: 1},
		{Parent: 3, Child: 2, LambdaVal: 2.0, ChildSize: 1},
	}
	stab := computeStability(tree)
	if math.IsInf(stab[3], 1) {
		t.Fatal("infinite lambda entries must not produce infinite stability")
	}
	if !almostEqual(stab[3], 2.0, floatTol) {
		t.Errorf("stability[3] = %v, want 2 from the finite entry alone", stab[3])
	}
}

func TestComputeStability_Empty(t *testing.T) {
	if stab := computeStability(nil); stab != nil {
		t.Errorf("expected nil stability map, got %v", stab)
	}
}

func TestTreeRoot_And_ClusterEntries(t *testing.T) {
	tree := condenseTree(twoGroupDendrogram(), 2)
	if root := treeRoot(tree); root != 6 {
		t.Errorf("treeRoot = %d, want 6", root)
	}

	entries := clusterEntries(tree)
	if len(entries) != 2 {
		t.Fatalf("got %d cluster entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ChildSize <= 1 {
			t.Errorf("cluster entry %+v has point-sized child", e)
		}
	}
}

func TestBFSDescendants_IncludesSelfAndChildren(t *testing.T) {
	childrenOf := map[int][]int{
		6: {7, 8},
		8: {9, 10},
	}
	got := bfsDescendants(childrenOf, 6)
	want := map[int]bool{6: true, 7: true, 8: true, 9: true, 10: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want the 5 nodes %v", got, want)
	}
	for _, x := range got {
		if !want[x] {
			t.Errorf("unexpected node %d in descendants", x)
		}
	}
	if got[0] != 6 {
		t.Errorf("first descendant = %d, want the root itself", got[0])
	}
}

func TestComputeMaxLambdas_DirectChildrenOnly(t *testing.T) {
	tree := []CondensedTreeEntry{
		{Parent: 4, Child: 5, LambdaVal: 0.5, ChildSize: 2},
		{Parent: 4, Child: 0, LambdaVal: 1.0, ChildSize: 1},
		{Parent: 5, Child: 1, LambdaVal: 3.0, ChildSize: 1},
		{Parent: 5, Child: 2, LambdaVal: 2.0, ChildSize: 1},
	}
	deaths := computeMaxLambdas(tree)

	// The root's max lambda covers only its direct children, not the
	// deeper point at lambda 3.
	if !almostEqual(deaths[4], 1.0, floatTol) {
		t.Errorf("deaths[4] = %v, want 1", deaths[4])
	}
	if !almostEqual(deaths[5], 3.0, floatTol) {
		t.Errorf("deaths[5] = %v, want 3", deaths[5])
	}
}
