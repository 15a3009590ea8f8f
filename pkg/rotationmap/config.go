package rotationmap

import (
	"go.uber.org/zap"

	"github.com/joshcalcino/eddy/pkg/config"
	"github.com/joshcalcino/eddy/pkg/geometry"
	"github.com/joshcalcino/eddy/pkg/resample"
)

// OptionsFromConfig converts a loaded configuration into map attachment
// options. The shadowed surface method falls back to nearest neighbour
// when unrecognised.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) Options {
	method, err := resample.ParseMethod(cfg.Surface.ShadowedMethod)
	if err != nil && log != nil {
		log.Warn("unknown resampling method, using nearest",
			zap.String("method", cfg.Surface.ShadowedMethod))
	}
	return Options{
		FOV:               cfg.Data.FOV,
		Downsample:        cfg.Data.Downsample,
		UncertaintyFrac:   cfg.Data.UncertaintyFrac,
		SurfaceIterations: cfg.Surface.Iterations,
		Shadow: geometry.ShadowOptions{
			Extend:     cfg.Surface.ShadowedExtend,
			Oversample: cfg.Surface.ShadowedOversample,
			Interp:     resample.Interpolator{Method: method},
		},
		Logger: log,
	}
}

// FitOptionsFromConfig converts a loaded configuration into fit options.
func FitOptionsFromConfig(cfg *config.Config) FitOptions {
	return FitOptions{
		Optimize: cfg.Sampling.Optimize,
		NWalkers: cfg.Sampling.Walkers,
		NBurnIn:  cfg.Sampling.BurnIn,
		NSteps:   cfg.Sampling.Steps,
		Scatter:  cfg.Sampling.Scatter,
		NIter:    cfg.Sampling.Iterations,
		Workers:  cfg.Sampling.NumWorkers,
		Seed:     cfg.Sampling.Seed,
		Returns:  cfg.Sampling.Returns,
	}
}
