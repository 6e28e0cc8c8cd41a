package nmfascii

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Divergence selects the beta-divergence minimized by the solver.
type Divergence int

const (
	// KLD is the generalized Kullback-Leibler divergence (beta = 1).
	KLD Divergence = 1
	// SED is the squared Euclidean distance (beta = 2).
	SED Divergence = 2
)

func (d Divergence) String() string {
	switch d {
	case KLD:
		return "KLD"
	case SED:
		return "SED"
	}
	return "beta=" + strconv.Itoa(int(d))
}

// Validate returns ErrUnsupportedBetaDivergence unless d is KLD or SED.
// The update rule is only derived for these two values.
func (d Divergence) Validate() error {
	if d != KLD && d != SED {
		return fmt.Errorf("%w: beta=%d, supported values are 1 (KLD) and 2 (SED)",
			ErrUnsupportedBetaDivergence, int(d))
	}
	return nil
}

// ParseDivergence accepts "1", "2", "kld" or "sed" (case-insensitive).
func ParseDivergence(s string) (Divergence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kld":
		return KLD, nil
	case "sed":
		return SED, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBetaDivergence, s)
	}
	d := Divergence(n)
	return d, d.Validate()
}

// Loss returns the beta-divergence D(V | WH) summed over all entries,
// using 0·log(0) = 0 for KLD. It is only used for reporting; the solver
// never stops early.
func (d Divergence) Loss(v, wh mat.Matrix) float64 {
	rows, cols := v.Dims()
	var loss float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x, y := v.At(i, j), wh.At(i, j)
			switch d {
			case SED:
				loss += 0.5 * (x - y) * (x - y)
			case KLD:
				if x > 0 {
					loss += x * math.Log(x/y)
				}
				loss += y - x
			}
		}
	}
	return loss
}

// RandomActivations returns a glyphs x blocks matrix with entries drawn
// uniformly from [0, 1) using rng.
func RandomActivations(glyphs, blocks int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, glyphs*blocks)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(glyphs, blocks, data)
}

// Solver runs the multiplicative beta-divergence update for H in V ≈ W·H
// with W held fixed.
type Solver struct {
	// Iterations is the exact number of updates performed. Zero leaves H
	// unchanged.
	Iterations int

	// Beta selects the divergence.
	Beta Divergence

	// Progress, when set, receives one update per iteration.
	Progress Progressor
}

// validate checks parameters and shapes: V is pixels x blocks, W is
// pixels x glyphs and H is glyphs x blocks.
func (s Solver) validate(v, w mat.Matrix, h *mat.Dense) error {
	if s.Iterations < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterationCount, s.Iterations)
	}
	if err := s.Beta.Validate(); err != nil {
		return err
	}
	vr, vc := v.Dims()
	wr, wc := w.Dims()
	hr, hc := h.Dims()
	if vr != wr || hr != wc || hc != vc {
		return fmt.Errorf("%w: V is %dx%d, W is %dx%d, H is %dx%d",
			ErrDimensionMismatch, vr, vc, wr, wc, hr, hc)
	}
	return nil
}

// finiteOrZero maps NaN and ±Inf to 0.
func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Solve updates h in place for exactly s.Iterations iterations of
//
//	H ← H ⊙ (Wᵀ·(V ⊘ (WH)^(2-β))) ⊘ (Wᵀ·(WH)^(β-1))
//
// Ratio entries that come out NaN or infinite, such as a glyph with no
// weight anywhere, are replaced by 0, so such activations drop to 0 and
// stay there. With non-negative V, W and H every entry of h stays
// non-negative.
func (s Solver) Solve(v, w mat.Matrix, h *mat.Dense) error {
	if err := s.validate(v, w, h); err != nil {
		return err
	}

	pixels, blocks := v.Dims()
	_, glyphs := w.Dims()
	wt := w.T()

	var (
		wh    = mat.NewDense(pixels, blocks, nil)
		numer = mat.NewDense(glyphs, blocks, nil)
		denom = mat.NewDense(glyphs, blocks, nil)
		ratio = mat.NewDense(pixels, blocks, nil)
	)

	// One side of the ratio does not depend on H: (WH)^0 is all ones.
	switch s.Beta {
	case SED:
		numer.Mul(wt, v)
	case KLD:
		ones := mat.NewDense(pixels, blocks, nil)
		ones.Apply(func(_, _ int, _ float64) float64 { return 1 }, ones)
		denom.Mul(wt, ones)
	}

	Logger().Debug("solving",
		"beta", s.Beta.String(),
		"iterations", s.Iterations,
		"pixels", pixels, "glyphs", glyphs, "blocks", blocks)

	prog := NewProgress(s.Progress, s.Iterations)

	update := func(g, b int, x float64) float64 {
		return x * finiteOrZero(numer.At(g, b)/denom.At(g, b))
	}

	for i := 0; i < s.Iterations; i++ {
		wh.Mul(w, h)
		switch s.Beta {
		case SED:
			denom.Mul(wt, wh)
		case KLD:
			ratio.DivElem(v, wh)
			numer.Mul(wt, ratio)
		}
		h.Apply(update, h)
		prog.Indicate()
	}
	// The reporter must be finished before anything else is logged.
	prog.Close()

	if Logger().Enabled(context.Background(), slog.LevelDebug) {
		wh.Mul(w, h)
		Logger().Debug("solved", "loss", s.Beta.Loss(v, wh))
	}
	return nil
}
