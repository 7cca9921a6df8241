package clustering

import "testing"

func TestDefaultK(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{40, 5},
		{200, 10},
	}
	for _, c := range cases {
		if got := DefaultK(c.n); got != c.want {
			t.Errorf("DefaultK(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestClusterSeparatesDistinctBlobs(t *testing.T) {
	vectors := [][]float32{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}
	labels := Cluster(vectors, 2)
	if len(labels) != len(vectors) {
		t.Fatalf("expected %d labels, got %d", len(vectors), len(labels))
	}
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("first blob did not share a label: %v", labels[:3])
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("second blob did not share a label: %v", labels[3:])
	}
	if labels[0] == labels[3] {
		t.Errorf("distinct blobs collapsed to one label: %v", labels)
	}
	if got := CountClusters(labels); got != 2 {
		t.Errorf("CountClusters = %d, want 2", got)
	}
}

func TestClusterClampsKToUniquePoints(t *testing.T) {
	vectors := [][]float32{{1, 1}, {1, 1}, {1, 1}}
	labels := Cluster(vectors, 5)
	if got := CountClusters(labels); got != 1 {
		t.Errorf("CountClusters = %d, want 1 (only one unique point)", got)
	}
}

func TestClusterEmpty(t *testing.T) {
	if got := Cluster(nil, 3); got != nil {
		t.Errorf("Cluster(nil, 3) = %v, want nil", got)
	}
	if got := Cluster([][]float32{{1}}, 0); got != nil {
		t.Errorf("Cluster(v, 0) = %v, want nil", got)
	}
}
