package nmfascii

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// randomNonNegative fills a rows x cols matrix with uniform values in
// [0, scale), zeroing roughly a fifth of the entries.
func randomNonNegative(rows, cols int, scale float64, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.IntN(5) == 0 {
				continue
			}
			m.Set(i, j, rng.Float64()*scale)
		}
	}
	return m
}

func checkNonNegativeFinite(t *testing.T, h mat.Matrix) {
	t.Helper()
	rows, cols := h.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := h.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				t.Fatalf("H[%d,%d] = %v, expected finite and non-negative", i, j, v)
			}
		}
	}
}

func TestSolveSingleStep(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	v := mat.NewDense(2, 1, []float64{5, 6})

	tests := []struct {
		beta Divergence
		want []float64
	}{
		// WH = (3, 7); numer = Wᵀ·V; denom = Wᵀ·WH
		{SED, []float64{23.0 / 24.0, 34.0 / 34.0}},
		// numer = Wᵀ·(V/WH); denom = Wᵀ·1
		{KLD, []float64{(5.0/3 + 3*6.0/7) / 4, (2*5.0/3 + 4*6.0/7) / 6}},
	}
	for _, tt := range tests {
		t.Run(tt.beta.String(), func(t *testing.T) {
			h := mat.NewDense(2, 1, []float64{1, 1})
			if err := (Solver{Iterations: 1, Beta: tt.beta}).Solve(v, w, h); err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			for g, want := range tt.want {
				if got := h.At(g, 0); math.Abs(got-want) > 1e-12 {
					t.Errorf("H[%d]: expected %v, got %v", g, want, got)
				}
			}
		})
	}
}

func TestSolveZeroIterations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	v := randomNonNegative(6, 4, 255, rng)
	w := randomNonNegative(6, 3, 1, rng)
	h := RandomActivations(3, 4, rng)
	before := mat.DenseCopyOf(h)

	if err := (Solver{Iterations: 0, Beta: SED}).Solve(v, w, h); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !mat.Equal(before, h) {
		t.Error("Zero iterations should leave H unchanged")
	}
}

func TestSolveNonNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 43))
	for _, beta := range []Divergence{SED, KLD} {
		for _, iterations := range []int{0, 1, 5, 50} {
			for trial := 0; trial < 5; trial++ {
				v := randomNonNegative(12, 9, 255, rng)
				w := randomNonNegative(12, 4, 3, rng)
				h := RandomActivations(4, 9, rng)

				solver := Solver{Iterations: iterations, Beta: beta}
				if err := solver.Solve(v, w, h); err != nil {
					t.Fatalf("%v/%d: Solve failed: %v", beta, iterations, err)
				}
				checkNonNegativeFinite(t, h)
			}
		}
	}
}

func TestSolveZeroDenominator(t *testing.T) {
	// Glyph 1 has no weight anywhere, so its denominator row is zero
	w := mat.NewDense(3, 3, []float64{
		1, 0, 0.5,
		0, 0, 0.5,
		2, 0, 0,
	})
	v := mat.NewDense(3, 2, []float64{
		10, 0,
		20, 30,
		40, 50,
	})

	for _, beta := range []Divergence{SED, KLD} {
		t.Run(beta.String(), func(t *testing.T) {
			h := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
			if err := (Solver{Iterations: 1, Beta: beta}).Solve(v, w, h); err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			checkNonNegativeFinite(t, h)
			for b := 0; b < 2; b++ {
				if h.At(1, b) != 0 {
					t.Errorf("H[1,%d] should be driven to 0, got %v", b, h.At(1, b))
				}
			}

			if err := (Solver{Iterations: 25, Beta: beta}).Solve(v, w, h); err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			checkNonNegativeFinite(t, h)
			for b := 0; b < 2; b++ {
				if h.At(1, b) != 0 {
					t.Errorf("H[1,%d] should stay 0, got %v", b, h.At(1, b))
				}
			}
		})
	}
}

func TestSolveLossNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for _, beta := range []Divergence{SED, KLD} {
		t.Run(beta.String(), func(t *testing.T) {
			// Strictly positive data keeps KLD well defined
			v := mat.NewDense(10, 6, nil)
			v.Apply(func(_, _ int, _ float64) float64 { return 1 + rng.Float64()*254 }, v)
			w := mat.NewDense(10, 4, nil)
			w.Apply(func(_, _ int, _ float64) float64 { return 0.1 + rng.Float64() }, w)
			h := RandomActivations(4, 6, rng)

			var wh mat.Dense
			wh.Mul(w, h)
			prev := beta.Loss(v, &wh)
			for i := 0; i < 30; i++ {
				if err := (Solver{Iterations: 1, Beta: beta}).Solve(v, w, h); err != nil {
					t.Fatal(err)
				}
				wh.Mul(w, h)
				loss := beta.Loss(v, &wh)
				if loss > prev*(1+1e-9) {
					t.Fatalf("Iteration %d: loss increased from %v to %v", i, prev, loss)
				}
				prev = loss
			}
		})
	}
}

func TestSolveRecoversExactFactorization(t *testing.T) {
	// Orthogonal glyphs: each block is an exact multiple of one glyph
	w := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		0, 1,
		0, 1,
	})
	v := mat.NewDense(4, 2, []float64{
		10, 0,
		10, 0,
		0, 20,
		0, 20,
	})
	h := mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5})
	if err := (Solver{Iterations: 200, Beta: SED}).Solve(v, w, h); err != nil {
		t.Fatal(err)
	}

	want := mat.NewDense(2, 2, []float64{10, 0, 0, 20})
	if !mat.EqualApprox(h, want, 1e-6) {
		t.Errorf("Expected H ≈\n%v\ngot\n%v", mat.Formatted(want), mat.Formatted(h))
	}
}

func TestSolveErrors(t *testing.T) {
	v := mat.NewDense(4, 3, nil)
	w := mat.NewDense(4, 2, nil)
	h := mat.NewDense(2, 3, nil)

	if err := (Solver{Iterations: -1, Beta: SED}).Solve(v, w, h); !errors.Is(err, ErrInvalidIterationCount) {
		t.Errorf("Expected ErrInvalidIterationCount, got %v", err)
	}
	for _, beta := range []Divergence{0, 3, -1} {
		err := (Solver{Iterations: 1, Beta: beta}).Solve(v, w, h)
		if !errors.Is(err, ErrUnsupportedBetaDivergence) {
			t.Errorf("beta=%d: expected ErrUnsupportedBetaDivergence, got %v", int(beta), err)
		}
	}

	badH := mat.NewDense(3, 3, nil)
	if err := (Solver{Iterations: 1, Beta: SED}).Solve(v, w, badH); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
	badW := mat.NewDense(5, 2, nil)
	if err := (Solver{Iterations: 1, Beta: SED}).Solve(v, badW, h); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRandomActivationsDeterministic(t *testing.T) {
	a := RandomActivations(5, 7, rand.New(rand.NewPCG(9, 9)))
	b := RandomActivations(5, 7, rand.New(rand.NewPCG(9, 9)))
	if !mat.Equal(a, b) {
		t.Error("Same seed should produce identical activations")
	}
	c := RandomActivations(5, 7, rand.New(rand.NewPCG(10, 10)))
	if mat.Equal(a, c) {
		t.Error("Different seeds should produce different activations")
	}
	for _, x := range a.RawMatrix().Data {
		if x < 0 || x >= 1 {
			t.Fatalf("Activation %v outside [0, 1)", x)
		}
	}
}

func TestParseDivergence(t *testing.T) {
	tests := []struct {
		in      string
		want    Divergence
		wantErr bool
	}{
		{"2", SED, false},
		{"1", KLD, false},
		{"sed", SED, false},
		{"KLD", KLD, false},
		{" 2 ", SED, false},
		{"3", 3, true},
		{"0", 0, true},
		{"euclid", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDivergence(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDivergence(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedBetaDivergence) {
			t.Errorf("ParseDivergence(%q): expected ErrUnsupportedBetaDivergence, got %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDivergence(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestDivergenceLoss(t *testing.T) {
	v := mat.NewDense(1, 3, []float64{1, 0, 4})
	wh := mat.NewDense(1, 3, []float64{2, 1, 4})

	if got := SED.Loss(v, wh); got != 1 {
		t.Errorf("SED loss: expected 1, got %v", got)
	}
	// 1·log(1/2) - 1 + 2, plus 0 + 1, plus 0
	want := math.Log(0.5) + 2
	if got := KLD.Loss(v, wh); math.Abs(got-want) > 1e-12 {
		t.Errorf("KLD loss: expected %v, got %v", want, got)
	}
}

// recordingProgress records every update it receives.
type recordingProgress struct {
	mu      sync.Mutex
	shown   []float32
	stopped int
}

func (p *recordingProgress) Show(percent float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, percent)
}

func (p *recordingProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

func TestSolveReportsProgress(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	v := randomNonNegative(6, 4, 255, rng)
	w := randomNonNegative(6, 3, 1, rng)
	h := RandomActivations(3, 4, rng)

	prog := &recordingProgress{}
	if err := (Solver{Iterations: 10, Beta: SED, Progress: prog}).Solve(v, w, h); err != nil {
		t.Fatal(err)
	}

	prog.mu.Lock()
	defer prog.mu.Unlock()
	if prog.stopped != 1 {
		t.Errorf("Expected Stop once, got %d", prog.stopped)
	}
	if len(prog.shown) != 11 {
		t.Errorf("Expected 11 updates, got %d", len(prog.shown))
	}
	if last := prog.shown[len(prog.shown)-1]; last != 100 {
		t.Errorf("Expected final update of 100, got %v", last)
	}
}

// sharedWriterProgress writes to the same unsynchronized buffer as the
// logger in TestSolveProgressDoneBeforeLog.
type sharedWriterProgress struct {
	buf *bytes.Buffer
}

func (p *sharedWriterProgress) Show(float32) {}

func (p *sharedWriterProgress) Stop() {
	p.buf.WriteString("progress stopped\n")
}

func TestSolveProgressDoneBeforeLog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	rng := rand.New(rand.NewPCG(8, 8))
	v := randomNonNegative(6, 4, 255, rng)
	w := randomNonNegative(6, 3, 1, rng)
	h := RandomActivations(3, 4, rng)

	solver := Solver{Iterations: 3, Beta: KLD, Progress: &sharedWriterProgress{buf: &buf}}
	if err := solver.Solve(v, w, h); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	stopped := strings.Index(out, "progress stopped")
	solved := strings.Index(out, "msg=solved")
	if stopped < 0 || solved < 0 {
		t.Fatalf("Expected both progress and log output, got %q", out)
	}
	if stopped > solved {
		t.Errorf("Progress should stop before the solved log line, got %q", out)
	}
}
