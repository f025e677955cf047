package forecast

import (
	"math/rand"
	"sort"
)

// Forest is a random forest regressor: CART trees trained on bootstrap
// samples with a random feature subset considered at each split. Training
// is fully deterministic for a fixed seed. Fields are exported so the
// fitted model survives gob round trips.
type Forest struct {
	Trees []*TreeNode
}

// TreeNode is one node of a regression tree. Leaves carry the mean target
// of their samples; internal nodes split on Feature <= Threshold.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Value     float64
	Leaf      bool
}

type forestParams struct {
	numTrees   int
	maxDepth   int
	minSamples int
	seed       int64
}

// trainForest fits numTrees trees on X/y. Each tree sees a bootstrap sample
// of the rows and considers max(1, p/3) random features per split.
func trainForest(X [][]float64, y []float64, p forestParams) *Forest {
	rng := rand.New(rand.NewSource(p.seed))

	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}
	mtry := numFeatures / 3
	if mtry < 1 {
		mtry = 1
	}

	forest := &Forest{Trees: make([]*TreeNode, 0, p.numTrees)}
	for t := 0; t < p.numTrees; t++ {
		indices := make([]int, len(X))
		for i := range indices {
			indices[i] = rng.Intn(len(X))
		}
		tree := growTree(X, y, indices, 0, p.maxDepth, p.minSamples, mtry, rng)
		forest.Trees = append(forest.Trees, tree)
	}
	return forest
}

// Predict returns the mean prediction over all trees.
func (f *Forest) Predict(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.predict(features)
	}
	return sum / float64(len(f.Trees))
}

func (n *TreeNode) predict(features []float64) float64 {
	node := n
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func growTree(X [][]float64, y []float64, indices []int, depth, maxDepth, minSamples, mtry int, rng *rand.Rand) *TreeNode {
	if depth >= maxDepth || len(indices) < minSamples {
		return leaf(y, indices)
	}

	feature, threshold, ok := bestSplit(X, y, indices, mtry, rng)
	if !ok {
		return leaf(y, indices)
	}

	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf(y, indices)
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, y, left, depth+1, maxDepth, minSamples, mtry, rng),
		Right:     growTree(X, y, right, depth+1, maxDepth, minSamples, mtry, rng),
	}
}

func leaf(y []float64, indices []int) *TreeNode {
	var sum float64
	for _, idx := range indices {
		sum += y[idx]
	}
	value := 0.0
	if len(indices) > 0 {
		value = sum / float64(len(indices))
	}
	return &TreeNode{Leaf: true, Value: value}
}

// bestSplit picks the variance-minimizing (feature, threshold) pair over a
// random subset of mtry features. Thresholds are midpoints between adjacent
// distinct sample values.
func bestSplit(X [][]float64, y []float64, indices []int, mtry int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(X[0])
	candidates := rng.Perm(numFeatures)
	if mtry < len(candidates) {
		candidates = candidates[:mtry]
	}

	bestScore := parentImpurity(y, indices)
	bestFeature, bestThreshold := -1, 0.0
	found := false

	values := make([]float64, 0, len(indices))
	for _, feature := range candidates {
		values = values[:0]
		for _, idx := range indices {
			values = append(values, X[idx][feature])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			score := splitImpurity(X, y, indices, feature, threshold)
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func parentImpurity(y []float64, indices []int) float64 {
	return variance(y, indices) * float64(len(indices))
}

// splitImpurity is the size-weighted sum of child variances.
func splitImpurity(X [][]float64, y []float64, indices []int, feature int, threshold float64) float64 {
	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return variance(y, left)*float64(len(left)) + variance(y, right)*float64(len(right))
}

func variance(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, idx := range indices {
		sum += y[idx]
	}
	mean := sum / float64(len(indices))

	var sq float64
	for _, idx := range indices {
		d := y[idx] - mean
		sq += d * d
	}
	return sq / float64(len(indices))
}
