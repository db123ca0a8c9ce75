package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/orionyard/jumpnet-simulator/core"
	"github.com/orionyard/jumpnet-simulator/internal/logging"
	"github.com/orionyard/jumpnet-simulator/internal/observability"
	"github.com/orionyard/jumpnet-simulator/model"
	"github.com/orionyard/jumpnet-simulator/timectrl"
)

func main() {
	var (
		systemCount  = flag.Int("systems", 8, "number of star systems to generate")
		fleetCount   = flag.Int("fleets", 3, "number of survey fleets")
		duration     = flag.Duration("duration", 2*time.Hour, "simulated duration to run")
		tick         = flag.Duration("tick", 5*time.Second, "simulation tick size")
		seed         = flag.Int64("seed", 42, "RNG seed; identical seeds replay identical runs")
		connectivity = flag.Float64("connectivity", 0.3, "jump network connectivity factor (0..1)")
		metricsAddr  = flag.String("metrics-addr", ":9109", "listen address for /metrics; empty disables")
		accelerated  = flag.Bool("accelerated", true, "run ticks flat out instead of real time")
	)
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewCollector(registry)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	coordinator := core.NewCoordinator(core.Config{
		Seed:    *seed,
		Logger:  log,
		Metrics: metrics,
	})

	fleets := buildGalaxy(coordinator, *seed, *systemCount, *fleetCount, *connectivity)
	log.Info(ctx, "galaxy ready",
		logging.Int("systems", *systemCount),
		logging.Int("fleets", len(fleets)),
	)

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	controller := timectrl.NewTimeController(*tick, mode)

	tracer := otel.Tracer("jumpnet-simulator")
	controller.AddListener(func(simTime, delta float64) {
		_, span := tracer.Start(ctx, "tick")
		span.SetAttributes(attribute.Float64("sim.time_s", simTime))
		tickOnce(coordinator, fleets, simTime, delta, log)
		span.End()
	})

	g, gctx := errgroup.WithContext(ctx)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{Addr: *metricsAddr, Handler: mux}

		g.Go(func() error {
			log.Info(gctx, "metrics listening", logging.String("addr", *metricsAddr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop()
		return controller.Run(gctx, *duration)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error(ctx, "simulation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary(coordinator, fleets, controller.Now())
}

// tickOnce runs one coordinator tick and gives idle fleets new orders so
// the demo keeps producing activity.
func tickOnce(c *core.Coordinator, fleets []model.FleetID, simTime, delta float64, log logging.Logger) {
	result := c.ProcessTick(simTime, delta)

	for _, d := range result.Discoveries {
		log.Info(context.Background(), "discovery",
			logging.String("fleet", string(d.FleetID)),
			logging.Int("jump_points", len(d.JumpPoints)),
		)
	}

	for _, fleetID := range fleets {
		fleet := c.Fleet(fleetID)
		if fleet == nil || fleet.Status != model.FleetIdle {
			continue
		}
		assignOrders(c, fleet, simTime)
	}
}

// assignOrders implements the demo AI: jump through a usable point when one
// exists, survey a discovered-but-unready point otherwise, explore as the
// fallback.
func assignOrders(c *core.Coordinator, fleet *model.Fleet, now float64) {
	for _, option := range c.AvailableJumps(fleet.ID) {
		if option.Requirements.CanJump && !option.TargetKnown {
			if res := c.InitiateFleetJump(fleet.ID, option.JumpPointID, now); res.OK {
				return
			}
		}
	}

	system := c.System(fleet.SystemID)
	if system != nil {
		for _, jp := range system.JumpPoints {
			if jp.DiscoveredBy == fleet.Faction && !jp.TravelEligible() {
				if res := c.SurveyJumpPoint(fleet.ID, jp.ID, now); res.OK {
					return
				}
			}
		}
	}

	c.StartExplorationMission(fleet.ID, core.MissionExplore, now)
}

// buildGalaxy creates systems and fleets, generates the jump network and
// registers everything with the coordinator. Generation randomness uses its
// own RNG so the coordinator's stream stays reserved for the simulation.
func buildGalaxy(c *core.Coordinator, seed int64, systemCount, fleetCount int, connectivity float64) []model.FleetID {
	rng := rand.New(rand.NewSource(seed + 1))

	systems := make([]*model.StarSystem, 0, systemCount)
	for i := 0; i < systemCount; i++ {
		system := model.NewStarSystem(
			fmt.Sprintf("System-%02d", i+1),
			0.5+rng.Float64()*1.5,
			0.3+rng.Float64()*2.0,
		)
		for p := 0; p < 1+rng.Intn(6); p++ {
			system.Planets = append(system.Planets, model.Planet{
				ID:              fmt.Sprintf("%s-p%d", system.Name, p+1),
				Name:            fmt.Sprintf("%s %d", system.Name, p+1),
				Mass:            0.1 + rng.Float64()*10,
				OrbitalDistance: 0.3 + rng.Float64()*8,
			})
		}
		if rng.Float64() < 0.4 {
			system.AsteroidBelts = append(system.AsteroidBelts, model.AsteroidBelt{
				Distance: 2.0 + rng.Float64()*2.0,
				Width:    0.2 + rng.Float64()*0.5,
			})
		}
		systems = append(systems, system)
		c.RegisterSystem(system)
	}

	c.GenerateNetwork(connectivity)

	faction := model.FactionID("terran-federation")
	fleetIDs := make([]model.FleetID, 0, fleetCount)
	for i := 0; i < fleetCount; i++ {
		home := systems[i%len(systems)]
		fleet := model.NewFleet(fmt.Sprintf("Survey Group %d", i+1), faction, home.ID, model.Vec3{})
		fleet.FuelRemaining = 10000
		fleet.TotalMass = 2000 + rng.Float64()*3000
		for s := 0; s < 2+rng.Intn(3); s++ {
			ship := model.NewShip(fmt.Sprintf("%s Ship %d", fleet.Name, s+1), faction, 500+rng.Float64()*1500)
			ship.FleetID = fleet.ID
			fleet.Ships = append(fleet.Ships, ship.ID)
			c.RegisterShip(ship)
		}
		c.RegisterFleet(fleet)
		fleetIDs = append(fleetIDs, fleet.ID)
	}

	return fleetIDs
}

func printSummary(c *core.Coordinator, fleets []model.FleetID, simTime float64) {
	fmt.Printf("\nsimulation complete at t=%.0fs\n", simTime)
	for _, fleetID := range fleets {
		fleet := c.Fleet(fleetID)
		if fleet == nil {
			continue
		}
		history := c.JumpHistory(fleetID, 0)
		status := c.ExplorationStatus(fleet.SystemID, fleet.Faction)
		fmt.Printf("  %-16s jumps=%-3d fuel=%-8.1f system survey=%.0f%%\n",
			fleet.Name, len(history), fleet.FuelRemaining, status.SurveyCompleteness*100)
	}
}
