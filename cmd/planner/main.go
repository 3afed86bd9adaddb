package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"curve-planner/curve"
	"curve-planner/internal/config"
	"curve-planner/internal/logging"
	"curve-planner/internal/server"
	"curve-planner/planner"
	"curve-planner/sampler"
	"curve-planner/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "", "plan once for a GeoJSON obstacle file and print the result instead of serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *scenarioPath != "" {
		if err := planOnce(ctx, cfg, logger, *scenarioPath, os.Stdout); err != nil {
			logger.Error("planning failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	srv := server.NewServer(cfg, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	// Create a deadline to wait for
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info("server exited properly")
	return <-errc
}

type report struct {
	Obstacles  int                 `json:"obstacles"`
	Route      planner.Route       `json:"route"`
	Fit        planner.Result      `json:"fit"`
	Comparison *planner.Comparison `json:"comparison,omitempty"`
}

// planOnce runs both pipelines over the scenario at path and writes a JSON
// report to w.
func planOnce(ctx context.Context, cfg *config.Config, logger *zap.Logger, path string, w io.Writer) error {
	obstacles, err := scenario.LoadFile(path, scenario.Options{SimplifyEpsilon: cfg.Planner.SimplifyEpsilon})
	if err != nil {
		return err
	}

	search, err := planner.ParseSearch(cfg.Planner.Search)
	if err != nil {
		return err
	}
	route := planner.PlanDiscrete(obstacles, planner.DiscreteOptions{
		Margin:  cfg.Planner.Margin,
		Search:  search,
		Sampler: sampler.Options{PolygonVertices: cfg.Planner.PolygonVertices},
	})

	c, err := curve.New(curve.Basis(cfg.Solver.Basis), cfg.Solver.Degree)
	if err != nil {
		return err
	}
	method, err := planner.ParseMethod(cfg.Solver.Method)
	if err != nil {
		return err
	}
	opts := planner.DefaultSessionOptions()
	opts.Method = method

	session := planner.NewSession(curve.NewSolver(c, curve.WithLogger(logger)), obstacles, opts,
		planner.WithLogger(logger))
	result, err := session.Run(ctx, cfg.Solver.Steps)
	if err != nil {
		return fmt.Errorf("failed to fit curve: %w", err)
	}

	out := report{Obstacles: len(obstacles), Route: route, Fit: result}
	if result.Converged {
		cmp := planner.Compare(c, route)
		out.Comparison = &cmp
	}
	if result.Diverged {
		out.Fit.Weights = nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
