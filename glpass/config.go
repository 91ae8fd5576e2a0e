package glpass

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/soypat/outline"
)

// ScaleStep reduces the internal render resolution to Scale when more than Above objects are visible.
type ScaleStep struct {
	Above int     `toml:"above" yaml:"above"`
	Scale float32 `toml:"scale" yaml:"scale"`
}

// Config configures a [Pass]. Use [DefaultConfig] as a starting point.
type Config struct {
	// MaxBatches caps the number of batches per frame. Zero means unlimited.
	MaxBatches int `toml:"max_batches" yaml:"max_batches"`
	// RiskThreshold is the conflict risk above which objects are kept in separate batches.
	RiskThreshold float32 `toml:"risk_threshold" yaml:"risk_threshold"`
	// CullThreshold is the selection size from which objects outside the camera frustum are dropped.
	CullThreshold int `toml:"cull_threshold" yaml:"cull_threshold"`
	// MaxObjects is the visible object count above which no outline is drawn for the frame.
	MaxObjects int `toml:"max_objects" yaml:"max_objects"`
	// CacheMaxAge is the number of frames a partition is reused for an unchanged selection.
	CacheMaxAge int `toml:"cache_max_age" yaml:"cache_max_age"`
	// IDRendering enables the id-texture strategy when more than IDThreshold objects are visible.
	IDRendering bool `toml:"id_rendering" yaml:"id_rendering"`
	IDThreshold int  `toml:"id_threshold" yaml:"id_threshold"`
	// SurfaceIDs makes the id-texture strategy separate surfaces instead of objects.
	SurfaceIDs bool `toml:"surface_ids" yaml:"surface_ids"`
	// SplitSurfaces assigns one surface id per connected vertex island instead of one per mesh.
	SplitSurfaces bool `toml:"split_surfaces" yaml:"split_surfaces"`
	// ScaleSteps lowers internal render resolution for large selections.
	ScaleSteps []ScaleStep `toml:"scale_steps" yaml:"scale_steps"`
	// EdgeColor and EdgeThickness style the outline.
	EdgeColor     color.NRGBA `toml:"-" yaml:"-"`
	EdgeThickness int         `toml:"edge_thickness" yaml:"edge_thickness"`
	// DebugBatches colors each batch differently.
	DebugBatches bool `toml:"debug_batches" yaml:"debug_batches"`
	// RenderToScreen copies the composited read buffer to the screen after the pass.
	RenderToScreen bool `toml:"render_to_screen" yaml:"render_to_screen"`
}

// DefaultConfig returns the default pass configuration.
func DefaultConfig() Config {
	return Config{
		MaxBatches:    outline.DefaultMaxBatches,
		RiskThreshold: outline.RiskThreshold,
		CullThreshold: 10,
		MaxObjects:    50,
		CacheMaxAge:   outline.CacheMaxAge,
		IDThreshold:   3,
		ScaleSteps:    []ScaleStep{{Above: 10, Scale: 0.75}, {Above: 20, Scale: 0.5}},
		EdgeColor:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		EdgeThickness: 1,
	}
}

// Validate reports every invalid field of cfg.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.MaxBatches < 0 {
		errs = append(errs, errors.New("negative MaxBatches"))
	}
	if cfg.RiskThreshold < 0 || cfg.RiskThreshold >= 1 {
		errs = append(errs, fmt.Errorf("RiskThreshold %v outside [0,1)", cfg.RiskThreshold))
	}
	if cfg.MaxObjects <= 0 {
		errs = append(errs, errors.New("MaxObjects must be positive"))
	}
	if cfg.CacheMaxAge <= 0 {
		errs = append(errs, errors.New("CacheMaxAge must be positive"))
	}
	if cfg.CullThreshold < 0 || cfg.IDThreshold < 0 {
		errs = append(errs, errors.New("negative threshold"))
	}
	if cfg.EdgeThickness <= 0 {
		errs = append(errs, errors.New("EdgeThickness must be positive"))
	}
	for _, s := range cfg.ScaleSteps {
		if s.Scale <= 0 || s.Scale > 1 {
			errs = append(errs, fmt.Errorf("scale step above %d: scale %v outside (0,1]", s.Above, s.Scale))
		}
	}
	return errors.Join(errs...)
}

// renderScale returns the render scale for n visible objects.
func (cfg *Config) renderScale(n int) float32 {
	scale := float32(1)
	for _, s := range cfg.ScaleSteps {
		if n > s.Above && s.Scale < scale {
			scale = s.Scale
		}
	}
	return scale
}

func (cfg *Config) style() Style {
	return Style{Color: cfg.EdgeColor, Thickness: cfg.EdgeThickness}
}

func (cfg Config) clone() Config {
	cfg.ScaleSteps = slices.Clone(cfg.ScaleSteps)
	return cfg
}
