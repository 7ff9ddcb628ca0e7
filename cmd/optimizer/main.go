/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloudarb/allocation-optimizer/internal/actuator"
	"github.com/cloudarb/allocation-optimizer/internal/engines/executor"
	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/internal/metrics"
	"github.com/cloudarb/allocation-optimizer/internal/optimizer"
	"github.com/cloudarb/allocation-optimizer/internal/store"
	"github.com/cloudarb/allocation-optimizer/internal/utils"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/solver"
)

func main() {
	var (
		problemPaths string
		configPath   string
		dbPath       string
		metricsAddr  string
		outPath      string
		execute      bool
		interval     time.Duration
	)
	flag.StringVar(&problemPaths, "problem", "", "Comma separated problem files (YAML or JSON). Several files are solved concurrently.")
	flag.StringVar(&configPath, "config", "", "Optimizer settings file (YAML or JSON). Defaults are used when empty.")
	flag.StringVar(&dbPath, "db", "", "SQLite database recording results. Results are not persisted when empty.")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "The address the metrics endpoint binds to, e.g. :8080. "+
		"When set the process keeps serving metrics after solving until interrupted.")
	flag.StringVar(&outPath, "out", "", "File receiving the JSON results. Standard output when empty.")
	flag.BoolVar(&execute, "execute", false, "Hand completed plans to the actuator.")
	flag.DurationVar(&interval, "interval", 0, "Re-optimize at this interval until interrupted. Solves once when zero.")
	flag.Parse()

	if _, err := logger.InitLogger(); err != nil {
		panic(err)
	}
	defer logger.SyncLogger()
	setupLog := logger.Log.Desugar().Named("setup")

	if problemPaths == "" {
		setupLog.Error("no problem file given, use -problem")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec, err := utils.LoadOptimizerSpec(configPath)
	if err != nil {
		setupLog.Error("unable to load optimizer settings", zap.Error(err))
		os.Exit(1)
	}
	if err := spec.ApplyEnv(); err != nil {
		setupLog.Error("invalid environment override", zap.Error(err))
		os.Exit(1)
	}
	if err := spec.Validate(); err != nil {
		setupLog.Error("invalid optimizer settings", zap.Error(err))
		os.Exit(1)
	}
	opt := solver.NewOptimizer(spec)

	var problems []*core.OptimizationProblem
	for _, path := range strings.Split(problemPaths, ",") {
		problemSpec, err := utils.LoadProblemSpec(strings.TrimSpace(path))
		if err != nil {
			setupLog.Error("unable to load problem", zap.String("path", path), zap.Error(err))
			os.Exit(1)
		}
		problems = append(problems, opt.ProblemFromSpec(problemSpec))
	}

	registry := prometheus.NewRegistry()
	emitter := metrics.InitMetricsAndEmitter(registry)
	opts := []optimizer.ServiceOption{optimizer.WithMetricsEmitter(emitter)}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			setupLog.Error("unable to open result store", zap.String("db", dbPath), zap.Error(err))
			os.Exit(1)
		}
		defer func() { _ = st.Close() }()
		opts = append(opts, optimizer.WithStore(st))
	}
	if execute {
		opts = append(opts, optimizer.WithExecutor(actuator.NewActuator()))
	}

	var server *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: utils.DefaultReadHeaderTimeout}
		go func() {
			setupLog.Info("serving metrics", zap.String("addr", metricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				setupLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	svc := optimizer.NewService(opt, opts...)
	solveAll := func(ctx context.Context) ([]*core.OptimizationResult, error) {
		if len(problems) == 1 {
			r, err := svc.Optimize(ctx, problems[0])
			return []*core.OptimizationResult{r}, err
		}
		return svc.OptimizeBatch(ctx, problems)
	}

	if interval > 0 {
		setupLog.Info("re-optimizing periodically", zap.Duration("interval", interval))
		ids := make([]string, len(problems))
		for i, p := range problems {
			ids[i] = p.ID
		}
		executor.NewPollingExecutor(executor.PollingConfig{
			Config: executor.Config{
				ProblemIDs: ids,
				OptimizeFunc: func(ctx context.Context, cycle *executor.Cycle) error {
					results, err := solveAll(ctx)
					for _, r := range results {
						if r == nil || !r.Succeeded() {
							cycle.Unsolved++
						}
					}
					if werr := writeResults(outPath, results); werr != nil {
						return werr
					}
					return err
				},
				OnCycle: func(ctx context.Context, cycle executor.Cycle) {
					emitter.EmitCycleMetrics(ctx, cycle.Err)
				},
			},
			Interval:     interval,
			RetryBackoff: time.Second,
		}).Start(ctx)
		shutdown(server)
		return
	}

	results, runErr := solveAll(ctx)
	if runErr != nil {
		setupLog.Error("executing plan failed", zap.Error(runErr))
	}
	if err := writeResults(outPath, results); err != nil {
		setupLog.Error("unable to write results", zap.Error(err))
		os.Exit(1)
	}

	if server != nil {
		<-ctx.Done()
		shutdown(server)
	}

	for _, r := range results {
		if !r.Succeeded() {
			os.Exit(1)
		}
	}
}

// writeResults writes the results as JSON to path, or standard output when
// path is empty. A single result is written as an object.
func writeResults(path string, results []*core.OptimizationResult) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	var payload any = results
	if len(results) == 1 {
		payload = results[0]
	}
	return utils.WriteJSON(out, payload)
}

func shutdown(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), utils.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(ctx)
}
