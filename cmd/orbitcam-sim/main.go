package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/geovista/orbitcam/core"
	"github.com/geovista/orbitcam/framectrl"
	"github.com/geovista/orbitcam/internal/config"
	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/internal/tour"
	"github.com/geovista/orbitcam/model"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/scenario.yaml", "Path to the YAML scenario file")
	duration := flag.Duration("duration", 60*time.Second, "total run duration (0 = run the tour once)")
	sampleEvery := flag.Duration("sample", time.Second, "interval between camera pose samples")
	flag.Parse()

	log := logging.NewFromEnv()

	scenario, err := config.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load scenario %q: %v\n", *scenarioPath, err)
		os.Exit(1)
	}

	terrain := core.ProceduralTerrain{
		BaseHeightM:   scenario.Location.HeightM,
		ReliefM:       40,
		WavelengthDeg: 0.01,
	}

	rig, err := core.NewSimRig(terrain, scenario.StartLocation(), scenario.StartPose())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build camera rig: %v\n", err)
		os.Exit(1)
	}

	ticker := framectrl.NewFrameTicker(scenario.Frame.FPS)
	ticker.Schedule(rig.Step)

	ctrl := core.NewOrbitController(rig, ticker,
		core.WithLogger(log),
		core.WithTerrain(terrain),
		core.WithSettings(core.OrbitSettings{
			SpeedRPM: scenario.Orbit.SpeedRPM,
			Profile:  scenario.Profile(),
		}),
	)

	// Sample the camera pose at a coarse interval so the run stays readable.
	lastSample := time.Time{}
	ticker.Schedule(func(now time.Time) {
		if now.Sub(lastSample) < *sampleEvery {
			return
		}
		lastSample = now
		printPose(rig)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	go ticker.Run(ctx)

	if scenario.Orbit.Enabled {
		ctrl.Start()
	}

	fmt.Printf("Starting camera run: location=%s, orbit=%v, profile=%s, rpm=%.1f\n",
		scenario.Location.Name, scenario.Orbit.Enabled, scenario.Orbit.Profile, scenario.Orbit.SpeedRPM)

	if len(scenario.Tour.POIs) > 0 {
		runner, err := tour.NewRunner(ctrl, scenario.POIs(), scenario.StartPose(),
			scenario.FlyDuration(), scenario.Dwell(),
			tour.WithArrivalHook(func(p model.PointOfInterest) {
				fmt.Printf("↳ Arrived at %-24s (%s)\n", p.Name, p.Category)
			}))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build tour: %v\n", err)
			os.Exit(1)
		}
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "tour failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
	}

	fmt.Println("Run complete.")
}

func printPose(rig *core.SimRig) {
	center := rig.Center()
	pose := rig.Pose()
	fmt.Printf("[%s] center=(%.4f, %.4f, %.0fm) heading=%6.1f° pitch=%5.1f° range=%5.0fm\n",
		time.Now().Format(time.RFC3339),
		center.LatDeg, center.LonDeg, center.HeightM,
		model.Degrees(pose.HeadingRad), model.Degrees(pose.PitchRad), pose.RangeM,
	)
}
