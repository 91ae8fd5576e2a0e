// Package outlineaux provides helpers to get started with outline rendering quickly:
// box scenes loaded from TOML or YAML, one call rendering to PNG or WebP and an
// interactive viewer. Applications with their own scene graph should drive
// [glpass.Pass] directly.
package outlineaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/golang/freetype/truetype"
	"github.com/soypat/outline/glpass"
	"github.com/soypat/outline/glrender"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by this package. A nil logger restores [slog.Default].
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

type RenderConfig struct {
	PNGOutput  io.Writer
	WebPOutput io.Writer
	// Overlay draws the pass statistics in the top left corner of the image.
	Overlay bool
	Silent  bool
}

// Render is an auxiliary function that renders the scene with the CPU backend, outlines
// its selection and encodes the result to the configured outputs.
func Render(s *Scene, cfg RenderConfig) (stats glpass.Stats, err error) {
	if cfg.PNGOutput == nil && cfg.WebPOutput == nil {
		return stats, errors.New("Render requires output parameter in config")
	}
	info := func(msg string, args ...any) {
		if !cfg.Silent {
			log().Info(msg, args...)
		}
	}
	watch := stopwatch()
	img, stats, err := RenderImage(s)
	if err != nil {
		return stats, err
	}
	info("rendered scene", "objects", len(s.Boxes), "selected", stats.Objects, "batches", stats.Batches, "strategy", stats.Strategy, "elapsed", watch())
	if cfg.Overlay {
		DrawStats(img, stats)
	}
	if cfg.PNGOutput != nil {
		watch = stopwatch()
		err = png.Encode(cfg.PNGOutput, img)
		if err != nil {
			return stats, fmt.Errorf("encoding PNG: %w", err)
		}
		info("wrote PNG", "file", outputName(cfg.PNGOutput, "PNG"), "elapsed", watch())
	}
	if cfg.WebPOutput != nil {
		watch = stopwatch()
		err = nativewebp.Encode(cfg.WebPOutput, img, nil)
		if err != nil {
			return stats, fmt.Errorf("encoding WebP: %w", err)
		}
		info("wrote WebP", "file", outputName(cfg.WebPOutput, "WebP"), "elapsed", watch())
	}
	return stats, nil
}

// RenderImage draws the scene shaded by depth and composites the selection outline over it.
func RenderImage(s *Scene) (*image.RGBA, glpass.Stats, error) {
	if err := s.Validate(); err != nil {
		return nil, glpass.Stats{}, err
	}
	r, err := glrender.NewImageRenderer(s.Width, s.Height)
	if err != nil {
		return nil, glpass.Stats{}, err
	}
	bg, _ := ParseHexColor(s.Background)
	r.SetClearColor(glpass.ClearColor{
		R: float32(bg.R) / 255, G: float32(bg.G) / 255, B: float32(bg.B) / 255, A: float32(bg.A) / 255,
	})
	objs := s.Objects()
	cam := s.OrthoCamera()
	r.Draw(objs, cam, glpass.DrawParams{Colors: s.DepthShades(objs)})

	p, err := glpass.NewPass(s.Pass)
	if err != nil {
		return nil, glpass.Stats{}, err
	}
	defer p.Dispose()
	p.SetCamera(cam)
	p.SetSelection(s.Selection())
	screen := r.Screen()
	p.Render(r, nil, screen, 0, false)
	return screen.Image(), p.Stats(), nil
}

// statsFace is the Go Regular face used for the stats overlay. The bitmap face is
// used if the embedded font fails to parse.
var statsFace = sync.OnceValue(func() font.Face {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		log().Error("parsing overlay font", "err", err)
		return basicfont.Face7x13
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: 12, DPI: 72, Hinting: font.HintingFull})
})

// DrawStats writes the pass statistics onto img.
func DrawStats(img *image.RGBA, stats glpass.Stats) {
	lines := []string{
		fmt.Sprintf("%s: %d objects, %d batches", stats.Strategy, stats.Objects, stats.Batches),
		fmt.Sprintf("scale %.2f, cache age %d", stats.RenderScale, stats.CacheAge),
	}
	if stats.Skipped {
		lines = append(lines, "outline skipped")
	}
	face := statsFace()
	metrics := face.Metrics()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	margin := fixed.I(4)
	for i, line := range lines {
		d.Dot = fixed.Point26_6{X: margin, Y: margin + metrics.Ascent + fixed.Int26_6(i)*metrics.Height}
		d.DrawString(line)
	}
}

// UIConfig configures the interactive viewer.
type UIConfig struct {
	Width, Height int
	// Context cancels the viewer when done.
	Context context.Context
}

// UI opens a window showing the scene with the GPU backend. Left click toggles the
// selection of the box under the cursor, right drag pans and scroll zooms. The B key
// toggles batch debug colors and the I key toggles id-texture rendering.
// UI must be called from the main OS thread.
func UI(s *Scene, cfg UIConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = s.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = s.Height
	}
	if err := s.Validate(); err != nil {
		return err
	}
	return ui(s, cfg)
}

func outputName(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
