package diag

import (
	"math"

	"github.com/pkg/errors"
)

// ErrorSuite represents the loss/error functions we use to compare an
// estimated composition against a reference composition (usually the known
// mixture in a simulation study). Both inputs are treated as unnormalized
// positive vectors over the same categories.
type ErrorSuite struct {
	MeanAbsError float64
	MaxAbsError  float64
	Hellinger    float64
	JSDiverge    float64
}

// NewErrorSuite returns an ErrorSuite with all calculated error functions
func NewErrorSuite(est []float64, ref []float64) (*ErrorSuite, error) {
	if len(est) != len(ref) {
		return nil, errors.Errorf("Composition length mismatch %d != %d", len(est), len(ref))
	}
	if len(est) < 1 {
		return nil, errors.Errorf("No categories to score")
	}

	return &ErrorSuite{
		MeanAbsError: MeanAbsDiff(est, ref),
		MaxAbsError:  MaxAbsDiff(est, ref),
		Hellinger:    HellingerDiff(est, ref),
		JSDiverge:    JSDivergence(est, ref),
	}, nil
}

const eps = 1e-12

func totals(p []float64, q []float64) (float64, float64) {
	tot1, tot2 := 0.0, 0.0
	for i := range p {
		tot1 += p[i]
		tot2 += q[i]
	}
	if tot1 < eps {
		tot1 = eps
	}
	if tot2 < eps {
		tot2 = eps
	}
	return tot1, tot2
}

// MaxAbsDiff returns the maximum difference found between the two prob dists
func MaxAbsDiff(p []float64, q []float64) float64 {
	tot1, tot2 := totals(p, q)

	maxErr := 0.0
	for i := range p {
		err := math.Abs(p[i]/tot1 - q[i]/tot2)
		if i == 0 || err > maxErr {
			maxErr = err
		}
	}

	return maxErr
}

// MeanAbsDiff returns the mean of the differences found between the two prob
// dists
func MeanAbsDiff(p []float64, q []float64) float64 {
	if len(p) < 1 {
		return 0
	}

	tot1, tot2 := totals(p, q)

	errSum := 0.0
	for i := range p {
		errSum += math.Abs(p[i]/tot1 - q[i]/tot2)
	}

	return errSum / float64(len(p))
}

// HellingerDiff returns the Hellinger error between the two compositions.
// Hellinger distance is similar to the Euclidean L2:
// sum((sqrt(p) - sqrt(q))**2) / sqrt(2)
func HellingerDiff(p []float64, q []float64) float64 {
	tot1, tot2 := totals(p, q)

	errSum := 0.0
	for i := range p {
		a := math.Sqrt(p[i] / tot1)
		b := math.Sqrt(q[i] / tot2)
		errSum += math.Pow(a-b, 2) // squared, so always positive
	}
	return errSum / math.Sqrt2
}

// klDivergence returns the Kullback-Leibler divergence, which is
// non-symmetric! This is strictly a subroutine for JS Divergence, so there
// is no error checking and the arrays are assumed normalized
// (so sum(p1) == sum(p2) == 1.0)
func klDivergence(v1 []float64, v2 []float64) float64 {
	diverge := 0.0
	for i, p1 := range v1 {
		if p1 <= 0 {
			continue // 0*log(0) term contributes nothing
		}
		p2 := v2[i]
		diverge += p1 * math.Log2(p1/p2)
	}

	return diverge
}

// JSDivergence returns the Jensen-Shannon divergence, which is a symmetric
// generalization of the KL divergence
func JSDivergence(p []float64, q []float64) float64 {
	tot1, tot2 := totals(p, q)

	pNorm := make([]float64, len(p))
	qNorm := make([]float64, len(q))
	mid := make([]float64, len(p))
	for i := range p {
		pNorm[i] = p[i] / tot1
		qNorm[i] = q[i] / tot2
		mid[i] = (pNorm[i] + qNorm[i]) * 0.5
	}

	return 0.5 * (klDivergence(pNorm, mid) + klDivergence(qNorm, mid))
}
