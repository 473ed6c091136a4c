package csm

import "github.com/crystalkit/chemenv/pkg/geom"

// heuristicSearch finds a good (not guaranteed optimal) correspondence
// for coordination numbers whose factorial search space is intractable.
// The correspondence is seeded by greedy nearest-direction assignment on
// the unit sphere, then refined by alternately re-solving the alignment
// and re-assigning vertices, and finally polished with pairwise swaps.
// Every step is deterministic: ties break on the lowest index.
func (s *Solver) heuristicSearch(x, y []geom.Vec3, xNorm2, yNorm2 float64) (alignment, []int) {
	k := len(x)

	// Seed: match directions, ignoring radii.
	xu := make([]geom.Vec3, k)
	yu := make([]geom.Vec3, k)
	for i := range x {
		xu[i] = x[i].Unit()
		yu[i] = y[i].Unit()
	}
	perm := greedyAssign(xu, yu, identity(), 1)
	best := alignPoints(x, y, perm, xNorm2, yNorm2)

	// Realign and reassign until the correspondence is stable.
	for iter := 0; iter < s.opts.HeuristicMaxRealign; iter++ {
		next := greedyAssign(x, y, best.rotation, best.scale)
		if samePerm(next, perm) {
			break
		}
		a := alignPoints(x, y, next, xNorm2, yNorm2)
		if a.csm >= best.csm {
			break
		}
		perm = next
		best = a
	}

	// Pairwise swap refinement.
	for pass := 0; pass < s.opts.HeuristicMaxSwapPasses; pass++ {
		improved := false
		for i := 0; i < k-1; i++ {
			for j := i + 1; j < k; j++ {
				perm[i], perm[j] = perm[j], perm[i]
				a := alignPoints(x, y, perm, xNorm2, yNorm2)
				if a.csm < best.csm {
					best = a
					improved = true
				} else {
					perm[i], perm[j] = perm[j], perm[i]
				}
			}
		}
		if !improved {
			break
		}
	}

	out := make([]int, k)
	copy(out, perm)
	return best, out
}

// greedyAssign pairs each observed point with a distinct model vertex,
// transformed by the current rotation and scale, repeatedly taking the
// globally closest unmatched pair.
func greedyAssign(x, y []geom.Vec3, rot geom.Mat3, scale float64) []int {
	k := len(x)
	ty := make([]geom.Vec3, k)
	for j, v := range y {
		ty[j] = rot.MulVec(v).Scale(scale)
	}

	perm := make([]int, k)
	usedX := make([]bool, k)
	usedY := make([]bool, k)
	for n := 0; n < k; n++ {
		bestI, bestJ := -1, -1
		bestD := 0.0
		for i := 0; i < k; i++ {
			if usedX[i] {
				continue
			}
			for j := 0; j < k; j++ {
				if usedY[j] {
					continue
				}
				d := x[i].Sub(ty[j]).NormSq()
				if bestI < 0 || d < bestD {
					bestI, bestJ, bestD = i, j, d
				}
			}
		}
		perm[bestI] = bestJ
		usedX[bestI] = true
		usedY[bestJ] = true
	}
	return perm
}

func samePerm(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
