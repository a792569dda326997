package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geovista/orbitcam/core"
	"github.com/geovista/orbitcam/framectrl"
	"github.com/geovista/orbitcam/internal/admin"
	"github.com/geovista/orbitcam/internal/config"
	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/internal/observability"
	"github.com/geovista/orbitcam/internal/tour"
)

func main() {
	adminAddr := flag.String("admin-addr", ":8080", "HTTP address the admin API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	scenarioPath := flag.String("scenario", "configs/scenario.yaml", "Path to the YAML scenario file")
	runTour := flag.Bool("tour", false, "Loop the scenario's point-of-interest tour")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	scenario, err := config.Load(*scenarioPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *scenarioPath), logging.Any("error", err))
		os.Exit(1)
	}

	collector, err := observability.NewOrbitCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Any("error", err))
		os.Exit(1)
	}

	terrain := core.ProceduralTerrain{
		BaseHeightM:   scenario.Location.HeightM,
		ReliefM:       40,
		WavelengthDeg: 0.01,
	}

	rig, err := core.NewSimRig(terrain, scenario.StartLocation(), scenario.StartPose(),
		core.WithRigLogger(log.With(logging.String("component", "rig"))))
	if err != nil {
		log.Error(ctx, "failed to build camera rig", logging.Any("error", err))
		os.Exit(1)
	}

	ticker := framectrl.NewFrameTicker(scenario.Frame.FPS)
	ticker.Schedule(rig.Step)

	ctrl := core.NewOrbitController(rig, ticker,
		core.WithLogger(log.With(logging.String("component", "orbit"))),
		core.WithMetrics(collector),
		core.WithTerrain(terrain),
		core.WithSettings(core.OrbitSettings{
			SpeedRPM: scenario.Orbit.SpeedRPM,
			Profile:  scenario.Profile(),
		}),
	)
	ctrl.Subscribe(func(ev core.Event) {
		log.Info(ctx, "orbit state changed",
			logging.String("event", ev.Type.String()),
			logging.Float64("speed_rpm", ev.Settings.SpeedRPM),
			logging.String("profile", ev.Settings.Profile.String()),
		)
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		ticker.Run(gctx)
		return nil
	})

	adminSrv := admin.NewServer(ctrl,
		admin.WithLogger(log.With(logging.String("component", "admin"))),
		admin.WithMiddleware(collector.Middleware),
	)
	g.Go(func() error {
		log.Info(gctx, "serving admin API", logging.String("addr", *adminAddr))
		return adminSrv.Serve(gctx, *adminAddr)
	})

	metricsSrv := serveMetrics(*metricsAddr, collector, log)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if scenario.Orbit.Enabled {
		ctrl.Start()
	}

	if *runTour && len(scenario.Tour.POIs) > 0 {
		runner, err := tour.NewRunner(ctrl, scenario.POIs(), scenario.StartPose(),
			scenario.FlyDuration(), scenario.Dwell(),
			tour.WithLogger(log.With(logging.String("component", "tour"))))
		if err != nil {
			log.Error(ctx, "failed to build tour", logging.Any("error", err))
			os.Exit(1)
		}
		g.Go(func() error {
			err := runner.RunForever(gctx)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	<-runCtx.Done()
	log.Info(ctx, "shutting down")

	if err := g.Wait(); err != nil {
		log.Error(ctx, "shutdown error", logging.Any("error", err))
	}
	observability.ShutdownWithTimeout(ctx, shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.OrbitCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Any("error", err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
