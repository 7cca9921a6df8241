// Package clustering groups candidate-note embeddings into thematic
// clusters during candidate selection, reporting how many clusters a job
// actually used. Grounded on
// original_source/src/eureka_rag/clusterer.py's Clusterer.cluster_chunks:
// same fixed-seed Lloyd's-algorithm shape (assign, update, reinitialize
// empty clusters, stop on a stable assignment or max_iter), translated
// from NumPy array ops into plain []float32 loops.
package clustering

import (
	"math"
	"math/rand"
)

const (
	defaultMaxIter  = 50
	defaultSeed     = 42
	minClusters     = 5
	notesPerCluster = 20
)

// DefaultK picks a cluster count the way the original sizes clusters when
// the caller has no opinion: at least minClusters, roughly one cluster per
// notesPerCluster candidates, never more than n.
func DefaultK(n int) int {
	if n <= 0 {
		return 0
	}
	k := n / notesPerCluster
	if k < minClusters {
		k = minClusters
	}
	if k > n {
		k = n
	}
	return k
}

// Cluster runs k-means over vectors (assumed uniform, non-empty dimension)
// and returns one label per vector. k is clamped to the number of distinct
// points present, matching the original's unique-points guard. Returns nil
// if there is nothing to cluster.
func Cluster(vectors [][]float32, k int) []int {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil
	}
	if unique := countUnique(vectors); k > unique {
		k = unique
	}
	if k <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(defaultSeed))
	centroids := initCentroids(vectors, k, rng)

	var labels []int
	for iter := 0; iter < defaultMaxIter; iter++ {
		next := assign(vectors, centroids)
		if labels != nil && sameLabels(next, labels) {
			labels = next
			break
		}
		labels = next
		centroids = update(vectors, labels, k, rng)
	}
	return labels
}

// CountClusters reports the number of distinct labels actually used by
// labels, i.e. how many of the k requested clusters ended up non-empty.
func CountClusters(labels []int) int {
	seen := make(map[int]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}

func initCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	idx := rng.Perm(len(vectors))[:k]
	out := make([][]float32, k)
	for i, v := range idx {
		out[i] = append([]float32(nil), vectors[v]...)
	}
	return out
}

func assign(vectors [][]float32, centroids [][]float32) []int {
	labels := make([]int, len(vectors))
	for i, v := range vectors {
		best, bestDist := 0, sqDist(v, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sqDist(v, centroids[c]); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
	}
	return labels
}

func update(vectors [][]float32, labels []int, k int, rng *rand.Rand) [][]float32 {
	dim := len(vectors[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := labels[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += float64(x)
		}
	}

	out := make([][]float32, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			out[c] = append([]float32(nil), vectors[rng.Intn(len(vectors))]...)
			continue
		}
		centroid := make([]float32, dim)
		for d := range centroid {
			centroid[d] = float32(sums[c][d] / float64(counts[c]))
		}
		out[c] = centroid
	}
	return out
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func sameLabels(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func countUnique(vectors [][]float32) int {
	seen := make(map[string]bool, len(vectors))
	for _, v := range vectors {
		key := make([]byte, 0, len(v)*4)
		for _, x := range v {
			bits := math.Float32bits(x)
			key = append(key, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
		}
		seen[string(key)] = true
	}
	return len(seen)
}
