package dbscan

import "testing"

func TestBuildDendrogram_ThreePointChain(t *testing.T) {
	edges := [][3]float64{
		{0, 1, 1.0},
		{1, 2, 2.0},
	}
	dend := buildDendrogram(edges, 3)

	want := [][4]float64{
		{0, 1, 1.0, 2},
		{3, 2, 2.0, 3},
	}
	if len(dend) != len(want) {
		t.Fatalf("got %d rows, want %d", len(dend), len(want))
	}
	for i := range want {
		if dend[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, dend[i], want[i])
		}
	}
}

func TestBuildDendrogram_SortsEdgesByWeight(t *testing.T) {
	// Same chain, edges supplied out of order.
	edges := [][3]float64{
		{1, 2, 2.0},
		{0, 1, 1.0},
	}
	dend := buildDendrogram(edges, 3)

	if len(dend) != 2 {
		t.Fatalf("got %d rows, want 2", len(dend))
	}
	for i := 1; i < len(dend); i++ {
		if dend[i][2] < dend[i-1][2] {
			t.Errorf("row %d distance %v < previous %v", i, dend[i][2], dend[i-1][2])
		}
	}
	if dend[len(dend)-1][3] != 3 {
		t.Errorf("final merged size = %v, want 3", dend[len(dend)-1][3])
	}
}

func TestBuildDendrogram_TwoGroups(t *testing.T) {
	// Two tight 3-point chains joined by one long edge.
	edges := [][3]float64{
		{0, 1, 1.0},
		{1, 2, 1.0},
		{3, 4, 1.0},
		{4, 5, 1.0},
		{2, 3, 10.0},
	}
	n := 6
	dend := buildDendrogram(edges, n)

	if len(dend) != n-1 {
		t.Fatalf("got %d rows, want %d", len(dend), n-1)
	}
	for i := 1; i < len(dend); i++ {
		if dend[i][2] < dend[i-1][2] {
			t.Errorf("row %d distance %v < previous %v", i, dend[i][2], dend[i-1][2])
		}
	}

	last := dend[len(dend)-1]
	if last[2] != 10.0 {
		t.Errorf("final merge distance = %v, want 10", last[2])
	}
	if last[3] != float64(n) {
		t.Errorf("final merged size = %v, want %d", last[3], n)
	}
	// The final merge joins the two size-3 group roots.
	leftSize := int(dend[int(last[0])-n][3])
	rightSize := int(dend[int(last[1])-n][3])
	if leftSize != 3 || rightSize != 3 {
		t.Errorf("final merge joins sizes %d and %d, want 3 and 3", leftSize, rightSize)
	}
}

func TestBuildDendrogram_Empty(t *testing.T) {
	if dend := buildDendrogram(nil, 1); dend != nil {
		t.Errorf("expected nil dendrogram for no edges, got %v", dend)
	}
}
