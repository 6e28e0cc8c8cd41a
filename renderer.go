package nmfascii

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/wbrown/nmfascii/imageutil"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultIterations is the number of solver updates per render.
	DefaultIterations = 1000
	// DefaultBeta is the divergence used when none is configured.
	DefaultBeta = SED
	// DefaultSeed seeds the initial activations when no generator is set.
	DefaultSeed uint64 = 1
)

// Renderer turns grayscale images into glyph art using one GlyphLibrary.
// A Renderer without WithRand is deterministic: every Render call seeds a
// fresh generator from the configured seed.
type Renderer struct {
	// Configuration options
	Iterations int
	Beta       Divergence
	Columns    int // target glyph columns, 0 keeps the source size
	Seed       uint64
	RGB        bool // write 3-channel output files

	lib      *GlyphLibrary
	rng      *rand.Rand
	progress Progressor
}

// RendererOption is a functional option for configuring a Renderer.
type RendererOption func(*Renderer)

// NewRenderer creates a new Renderer for lib with the given options.
// Default values: Iterations=1000, Beta=SED, Seed=1, Columns=0.
func NewRenderer(lib *GlyphLibrary, opts ...RendererOption) *Renderer {
	r := &Renderer{
		Iterations: DefaultIterations,
		Beta:       DefaultBeta,
		Seed:       DefaultSeed,
		lib:        lib,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithIterations sets the exact number of solver updates.
func WithIterations(n int) RendererOption {
	return func(r *Renderer) {
		r.Iterations = n
	}
}

// WithBeta sets the divergence minimized by the solver.
func WithBeta(beta Divergence) RendererOption {
	return func(r *Renderer) {
		r.Beta = beta
	}
}

// WithSeed sets the seed of the generator used for the initial
// activations.
func WithSeed(seed uint64) RendererOption {
	return func(r *Renderer) {
		r.Seed = seed
	}
}

// WithRand makes the Renderer draw initial activations from rng instead
// of a per-call seeded generator. Successive renders then differ.
func WithRand(rng *rand.Rand) RendererOption {
	return func(r *Renderer) {
		r.rng = rng
	}
}

// WithColumns resizes the source so that it spans n glyph columns before
// padding, keeping its aspect ratio. Zero disables resizing.
func WithColumns(n int) RendererOption {
	return func(r *Renderer) {
		r.Columns = n
	}
}

// WithProgress reports solver progress to p.
func WithProgress(p Progressor) RendererOption {
	return func(r *Renderer) {
		r.progress = p
	}
}

// WithRGB makes RenderFile write 3-channel images.
func WithRGB(rgb bool) RendererOption {
	return func(r *Renderer) {
		r.RGB = rgb
	}
}

// Library returns the glyph library used by the Renderer.
func (r *Renderer) Library() *GlyphLibrary {
	return r.lib
}

// Result holds every stage of one render.
type Result struct {
	Padded      *image.Gray // grayscale source after resizing and padding
	Padding     imageutil.Padding
	Grid        BlockGrid
	Activations *mat.Dense // final H, glyphs x blocks
	Assignment  Assignment
	Output      *image.Gray // glyph art, same size as Padded
}

// Text returns the glyph art as lines of characters.
func (res *Result) Text(lib *GlyphLibrary) string {
	return res.Assignment.Text(lib)
}

func (r *Renderer) validate() error {
	if r.lib == nil || r.lib.Len() == 0 {
		return fmt.Errorf("%w: no glyph library", ErrInvalidGlyphSet)
	}
	if r.Iterations < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterationCount, r.Iterations)
	}
	if err := r.Beta.Validate(); err != nil {
		return err
	}
	if r.Columns < 0 {
		return fmt.Errorf("%w: column count %d", ErrDimensionMismatch, r.Columns)
	}
	return nil
}

func (r *Renderer) random() *rand.Rand {
	if r.rng != nil {
		return r.rng
	}
	return rand.New(rand.NewPCG(r.Seed, r.Seed))
}

// Render converts src to glyph art. All parameters are validated before
// any work is done.
func (r *Renderer) Render(src image.Image) (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrDimensionMismatch)
	}
	log := Logger()
	gw, gh := r.lib.Size()

	gray := imageutil.ToGray(src)
	if r.Columns > 0 {
		gray = imageutil.ResizeGrayToWidth(gray, r.Columns*gw, imageutil.InterpolationArea)
	}
	log.Info("converted to grayscale",
		"width", gray.Bounds().Dx(), "height", gray.Bounds().Dy(),
		"glyph_width", gw, "glyph_height", gh)

	padded, pad := imageutil.PadGray(gray, gw, gh, imageutil.White)
	log.Info("padded image",
		"top", pad.Top, "bottom", pad.Bottom, "left", pad.Left, "right", pad.Right,
		"width", padded.Bounds().Dx(), "height", padded.Bounds().Dy())

	grid, err := NewBlockGrid(padded, gw, gh)
	if err != nil {
		return nil, err
	}
	log.Info("created blocks", "cols", grid.Cols, "rows", grid.Rows, "blocks", grid.Len())

	v := Partition(padded, grid)
	w := r.lib.Weights()
	h := RandomActivations(r.lib.Len(), grid.Len(), r.random())
	log.Info("built matrices",
		"V", shape(v), "W", shape(w), "H", shape(h))

	solver := Solver{Iterations: r.Iterations, Beta: r.Beta, Progress: r.progress}
	if err := solver.Solve(v, w, h); err != nil {
		return nil, err
	}

	assignment := SelectGlyphs(h, grid)
	output := Reconstruct(assignment, r.lib)
	log.Info("reconstructed image",
		"width", output.Bounds().Dx(), "height", output.Bounds().Dy())

	return &Result{
		Padded:      padded,
		Padding:     pad,
		Grid:        grid,
		Activations: h,
		Assignment:  assignment,
		Output:      output,
	}, nil
}

// RenderFile renders the image at inPath and writes the glyph art to
// outPath, choosing the format from its extension.
func (r *Renderer) RenderFile(inPath, outPath string) (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	src, err := imageutil.LoadImage(inPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	res, err := r.Render(src)
	if err != nil {
		return nil, err
	}

	var out image.Image = res.Output
	if r.RGB {
		out = imageutil.GrayToRGBA(res.Output)
	}
	if err := imageutil.SaveImage(out, outPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	Logger().Info("wrote output", "path", outPath)
	return res, nil
}

func shape(m mat.Matrix) string {
	rows, cols := m.Dims()
	return fmt.Sprintf("%dx%d", rows, cols)
}
