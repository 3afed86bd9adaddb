package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Upper bounds on the work of a single curve fit.
const (
	MaxSolverDegree = 20
	MaxSolverSteps  = 1000
)

type Config struct {
	HTTP struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Planner struct {
		Margin          float64 `env:"PLANNER_MARGIN" envDefault:"0.02"`
		SimplifyEpsilon float64 `env:"PLANNER_SIMPLIFY_EPSILON" envDefault:"0"`
		Search          string  `env:"PLANNER_SEARCH" envDefault:"astar"`
		// PolygonVertices also samples polygon vertices as waypoints.
		PolygonVertices bool `env:"PLANNER_POLYGON_VERTICES" envDefault:"false"`
	}
	Solver struct {
		Degree int    `env:"SOLVER_DEGREE" envDefault:"5"`
		Basis  string `env:"SOLVER_BASIS" envDefault:"polynomial"`
		Steps  int    `env:"SOLVER_STEPS" envDefault:"50"`
		Method string `env:"SOLVER_METHOD" envDefault:"gradient"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Planner.Search {
	case "astar", "bfs":
	default:
		return fmt.Errorf("PLANNER_SEARCH: unknown search %q", c.Planner.Search)
	}
	switch c.Solver.Method {
	case "gradient", "svd":
	default:
		return fmt.Errorf("SOLVER_METHOD: unknown method %q", c.Solver.Method)
	}
	switch c.Solver.Basis {
	case "polynomial", "bump":
	default:
		return fmt.Errorf("SOLVER_BASIS: unknown basis %q", c.Solver.Basis)
	}
	if c.Planner.Margin < 0 {
		return fmt.Errorf("PLANNER_MARGIN must not be negative, got %g", c.Planner.Margin)
	}
	if c.Solver.Degree < 0 || c.Solver.Degree > MaxSolverDegree {
		return fmt.Errorf("SOLVER_DEGREE must be between 0 and %d, got %d", MaxSolverDegree, c.Solver.Degree)
	}
	if c.Solver.Steps < 0 || c.Solver.Steps > MaxSolverSteps {
		return fmt.Errorf("SOLVER_STEPS must be between 0 and %d, got %d", MaxSolverSteps, c.Solver.Steps)
	}
	return nil
}
