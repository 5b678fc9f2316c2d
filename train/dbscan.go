package train

import "sort"

// dbscan1D runs DBSCAN over a 1-dimensional sample set, returning only the
// indices of points assigned to some cluster (core or border point); noise
// points are dropped. Samples need not be sorted; this implementation
// sorts internally so neighbor lookups are a single binary search per
// point rather than an O(n^2) scan, since the density check along a
// single axis reduces to a windowed range query.
func dbscan1D(samples []float64, eps float64, minPoints int) []int {
	n := len(samples)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return samples[order[i]] < samples[order[j]] })
	sorted := make([]float64, n)
	for i, idx := range order {
		sorted[i] = samples[idx]
	}

	neighbors := func(i int) []int {
		lo := sort.SearchFloat64s(sorted, sorted[i]-eps)
		hi := sort.Search(n, func(j int) bool { return sorted[j] > sorted[i]+eps })
		out := make([]int, 0, hi-lo)
		for j := lo; j < hi; j++ {
			out = append(out, j)
		}
		return out
	}

	const unvisited, noise = -2, -1
	label := make([]int, n)
	for i := range label {
		label[i] = unvisited
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if label[i] != unvisited {
			continue
		}
		nbrs := neighbors(i)
		if len(nbrs) < minPoints {
			label[i] = noise
			continue
		}
		label[i] = clusterID
		seeds := append([]int(nil), nbrs...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if label[j] == noise {
				label[j] = clusterID
			}
			if label[j] != unvisited {
				continue
			}
			label[j] = clusterID
			jNbrs := neighbors(j)
			if len(jNbrs) >= minPoints {
				seeds = append(seeds, jNbrs...)
			}
		}
		clusterID++
	}

	var keptSorted []int
	for i, l := range label {
		if l >= 0 {
			keptSorted = append(keptSorted, i)
		}
	}
	out := make([]int, len(keptSorted))
	for i, sortedIdx := range keptSorted {
		out[i] = order[sortedIdx]
	}
	return out
}
