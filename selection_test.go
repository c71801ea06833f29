package dbscan

import "testing"

// nestedCondensedTree builds a hand-crafted condensed tree:
//
//	root 100 -> 101 (lambda 1, size 4) -> 103 (lambda 2, size 2) -> points 0,1 at lambda 3
//	         |                         -> 104 (lambda 2, size 2) -> points 2,3 at lambda 3
//	         -> 102 (lambda 1, size 2) -> points 4,5 at lambda 3
//
// Stabilities: 101 = 4, 103 = 104 = 2, 102 = 4. The children of 101 sum to
// exactly its own stability, exercising the tie rule.
func nestedCondensedTree() []CondensedTreeEntry {
	return []CondensedTreeEntry{
		{Parent: 100, Child: 101, LambdaVal: 1, ChildSize: 4},
		{Parent: 100, Child: 102, LambdaVal: 1, ChildSize: 2},
		{Parent: 101, Child: 103, LambdaVal: 2, ChildSize: 2},
		{Parent: 101, Child: 104, LambdaVal: 2, ChildSize: 2},
		{Parent: 103, Child: 0, LambdaVal: 3, ChildSize: 1},
		{Parent: 103, Child: 1, LambdaVal: 3, ChildSize: 1},
		{Parent: 104, Child: 2, LambdaVal: 3, ChildSize: 1},
		{Parent: 104, Child: 3, LambdaVal: 3, ChildSize: 1},
		{Parent: 102, Child: 4, LambdaVal: 3, ChildSize: 1},
		{Parent: 102, Child: 5, LambdaVal: 3, ChildSize: 1},
	}
}

func TestSelectClustersEOM_TwoGroups(t *testing.T) {
	tree := condenseTree(twoGroupDendrogram(), 2)
	stab := computeStability(tree)
	selected, _ := selectClustersEOM(tree, stab, false)

	if len(selected) != 2 || !selected[7] || !selected[8] {
		t.Errorf("selected = %v, want {7, 8}", selected)
	}
}

func TestSelectClustersEOM_TieFavorsParent(t *testing.T) {
	tree := nestedCondensedTree()
	stab := computeStability(tree)

	if !almostEqual(stab[101], stab[103]+stab[104], floatTol) {
		t.Fatalf("test premise broken: stab[101]=%v, children sum=%v",
			stab[101], stab[103]+stab[104])
	}

	selected, propagated := selectClustersEOM(tree, stab, false)
	if !selected[101] {
		t.Error("101 should win the tie against its children")
	}
	if selected[103] || selected[104] {
		t.Errorf("children of a winning parent must be deselected, got %v", selected)
	}
	if !selected[102] {
		t.Error("childless cluster 102 should stay selected")
	}
	if !almostEqual(propagated[101], 4, floatTol) {
		t.Errorf("propagated stability of 101 = %v, want its own 4", propagated[101])
	}
}

func TestSelectClustersEOM_SingleCluster(t *testing.T) {
	// Root stability 6 beats its lone child's 1; with allowSingleCluster the
	// root absorbs it, without it the child is the only candidate.
	tree := []CondensedTreeEntry{
		{Parent: 4, Child: 5, LambdaVal: 1, ChildSize: 2},
		{Parent: 4, Child: 0, LambdaVal: 2, ChildSize: 1},
		{Parent: 4, Child: 1, LambdaVal: 2, ChildSize: 1},
		{Parent: 5, Child: 2, LambdaVal: 1.5, ChildSize: 1},
		{Parent: 5, Child: 3, LambdaVal: 1.5, ChildSize: 1},
	}
	stab := computeStability(tree)

	selected, _ := selectClustersEOM(tree, stab, true)
	if len(selected) != 1 || !selected[4] {
		t.Errorf("with allowSingleCluster, selected = %v, want {4}", selected)
	}

	selected, _ = selectClustersEOM(tree, stab, false)
	if len(selected) != 1 || !selected[5] {
		t.Errorf("without allowSingleCluster, selected = %v, want {5}", selected)
	}
}

func TestSelectClustersLeaf_PicksLeaves(t *testing.T) {
	selected := selectClustersLeaf(nestedCondensedTree(), 0)
	want := map[int]bool{102: true, 103: true, 104: true}
	if len(selected) != len(want) {
		t.Fatalf("selected = %v, want %v", selected, want)
	}
	for c := range want {
		if !selected[c] {
			t.Errorf("leaf %d not selected", c)
		}
	}
}

func TestSelectClustersLeaf_NoClusterEntriesFallsBackToRoot(t *testing.T) {
	// All splits collapsed: only point entries remain.
	tree := condenseTree(twoGroupDendrogram(), 4)
	selected := selectClustersLeaf(tree, 0)
	if len(selected) != 1 || !selected[6] {
		t.Errorf("selected = %v, want just the root {6}", selected)
	}
}

func TestEpsilonSearch_MergesShallowLeavesUpward(t *testing.T) {
	tree := nestedCondensedTree()
	leaves := clusterTreeLeaves(clusterEntries(tree))

	// 103 and 104 birth at lambda 2 (epsilon 0.5 < 0.8) and merge into 101;
	// 102 births at lambda 1 (epsilon 1 >= 0.8) and survives.
	selected := epsilonSearch(tree, leaves, 0.8, false)
	if len(selected) != 2 || !selected[101] || !selected[102] {
		t.Errorf("selected = %v, want {101, 102}", selected)
	}
}

func TestEpsilonSearch_NoChangeAboveThreshold(t *testing.T) {
	tree := nestedCondensedTree()
	leaves := clusterTreeLeaves(clusterEntries(tree))

	selected := epsilonSearch(tree, leaves, 0.3, false)
	if len(selected) != len(leaves) {
		t.Fatalf("selected = %v, want the original leaves %v", selected, leaves)
	}
	for c := range leaves {
		if !selected[c] {
			t.Errorf("leaf %d dropped by a threshold it satisfies", c)
		}
	}
}

func TestClusterTreeLeaves(t *testing.T) {
	leaves := clusterTreeLeaves(clusterEntries(nestedCondensedTree()))
	want := map[int]bool{102: true, 103: true, 104: true}
	if len(leaves) != len(want) {
		t.Fatalf("leaves = %v, want %v", leaves, want)
	}
	for c := range want {
		if !leaves[c] {
			t.Errorf("expected %d among leaves", c)
		}
	}
}
