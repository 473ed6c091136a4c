package csm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/crystalkit/chemenv/pkg/geom"
)

// alignment is the closed-form result of fitting a model vertex set onto
// an observed point set under one fixed correspondence.
type alignment struct {
	csm      float64   // in [0,100]
	rotation geom.Mat3 // applied to model vertices
	scale    float64
}

// sumNormSq returns the sum of squared norms of the points.
func sumNormSq(points []geom.Vec3) float64 {
	var norm2 float64
	for _, p := range points {
		norm2 += p.NormSq()
	}
	return norm2
}

// alignPoints finds the rotation R and isotropic scale s minimizing
// Σ|xᵢ − s·R·yᵢ|² for the fixed pairing xᵢ ↔ y[perm[i]]. Both point sets
// are expressed relative to the central site, which anchors the frame;
// no translation is optimized, so a bent and a linear two-vertex model
// remain distinguishable. xNorm2 and yNorm2 are the squared norms of the
// sets.
// The minimum residual has the closed form Σ|x|² − T²/Σ|y|² where T is
// the sign-corrected trace of the singular values of the covariance
// Σ y·xᵀ (the Kabsch/Umeyama solution); the csm is the residual relative
// to Σ|x|², scaled to [0,100].
func alignPoints(x, y []geom.Vec3, perm []int, xNorm2, yNorm2 float64) alignment {
	if xNorm2 <= 0 || yNorm2 <= 0 {
		// Degenerate sets collapse onto the central site; treat as exact.
		return alignment{csm: 0, rotation: identity(), scale: 1}
	}

	// Covariance H = Σ y[perm[i]]·x[i]ᵀ.
	var h [9]float64
	for i, xi := range x {
		yi := y[perm[i]]
		h[0] += yi.X * xi.X
		h[1] += yi.X * xi.Y
		h[2] += yi.X * xi.Z
		h[3] += yi.Y * xi.X
		h[4] += yi.Y * xi.Y
		h[5] += yi.Y * xi.Z
		h[6] += yi.Z * xi.X
		h[7] += yi.Z * xi.Y
		h[8] += yi.Z * xi.Z
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, h[:]), mat.SVDFull); !ok {
		return alignment{csm: 100, rotation: identity(), scale: 1}
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// Proper rotation: flip the smallest singular direction when the
	// unconstrained optimum is a reflection.
	d := 1.0
	if mat.Det(&u)*mat.Det(&v) < 0 {
		d = -1.0
	}
	trace := sigma[0] + sigma[1] + d*sigma[2]
	if trace <= 0 {
		// No orientation fits at all; the measure saturates.
		return alignment{csm: 100, rotation: identity(), scale: 1}
	}

	scale := trace / yNorm2
	residual := xNorm2 - trace*trace/yNorm2
	csm := 100 * residual / xNorm2
	if csm < 0 {
		csm = 0
	}
	if csm > 100 {
		csm = 100
	}

	// R = V·D·Uᵀ maps model space onto the observed orientation.
	var rot geom.Mat3
	dd := [3]float64{1, 1, d}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += v.At(r, k) * dd[k] * u.At(c, k)
			}
			rot[r][c] = sum
		}
	}
	return alignment{csm: csm, rotation: rot, scale: scale}
}

func identity() geom.Mat3 {
	return geom.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}
