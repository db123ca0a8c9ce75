package core

import (
	"math/rand"
	"testing"

	"github.com/orionyard/jumpnet-simulator/model"
)

func explorationFixture(t *testing.T) (*ExplorationEngine, *model.Fleet, *model.StarSystem) {
	t.Helper()

	system := model.NewStarSystem("Frontier", 1.0, 1.0)
	fleet := model.NewFleet("Scout Wing", "terrans", system.ID, model.Vec3{})
	fleet.Ships = []model.ShipID{model.NewShipID()}

	engine := NewExplorationEngine(rand.New(rand.NewSource(3)), nil)
	engine.InitializeSystemExploration(system, fleet.Faction)
	return engine, fleet, system
}

func TestStartMissionRejectsBusyFleet(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	if res := engine.StartMission(fleet, system, MissionExplore, 0, nil); !res.OK {
		t.Fatalf("first mission failed: %s", res.Message)
	}
	res := engine.StartMission(fleet, system, MissionSurvey, 0, nil)
	if res.OK {
		t.Fatal("second mission should be rejected while the first runs")
	}
}

func TestStartMissionSetsFleetState(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	engine.StartMission(fleet, system, MissionExplore, 0, nil)
	if fleet.Status != model.FleetExploring {
		t.Fatalf("fleet status = %v, want exploring", fleet.Status)
	}
	mission := engine.ActiveMission(fleet.ID)
	if mission == nil {
		t.Fatal("mission not recorded")
	}
	if mission.Duration < minMissionDuration {
		t.Fatalf("duration %v below floor", mission.Duration)
	}
}

func TestMissionCompletionGrantsProgress(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	engine.StartMission(fleet, system, MissionExplore, 0, nil)
	mission := engine.ActiveMission(fleet.ID)

	fleets := map[model.FleetID]*model.Fleet{fleet.ID: fleet}
	systems := map[model.SystemID]*model.StarSystem{system.ID: system}

	engine.ProcessMissions(fleets, systems, mission.Duration+1, 1)

	if engine.ActiveMission(fleet.ID) != nil {
		t.Fatal("mission should be finalized")
	}
	if fleet.Status != model.FleetIdle {
		t.Fatalf("fleet status = %v, want idle", fleet.Status)
	}
	if len(fleet.CurrentOrders) != 0 {
		t.Fatalf("orders should be cleared, got %v", fleet.CurrentOrders)
	}

	status := engine.Status(system.ID, fleet.Faction)
	// Full progress grants 0.2 + 0.3*1.0.
	if status.ExplorationProgress < 0.5-1e-9 {
		t.Fatalf("exploration progress = %v, want >= 0.5", status.ExplorationProgress)
	}
	if status.LastExploration != mission.Duration+1 {
		t.Fatalf("last exploration = %v, want %v", status.LastExploration, mission.Duration+1)
	}
}

func TestProgressGainsAreCapped(t *testing.T) {
	engine, fleet, system := explorationFixture(t)
	fleets := map[model.FleetID]*model.Fleet{fleet.ID: fleet}
	systems := map[model.SystemID]*model.StarSystem{system.ID: system}

	now := 0.0
	for i := 0; i < 5; i++ {
		engine.StartMission(fleet, system, MissionExplore, now, nil)
		now += engine.ActiveMission(fleet.ID).Duration + 1
		engine.ProcessMissions(fleets, systems, now, 1)
	}

	status := engine.Status(system.ID, fleet.Faction)
	if status.ExplorationProgress > 1.0 {
		t.Fatalf("exploration progress = %v, must not exceed 1.0", status.ExplorationProgress)
	}
}

func TestStaleMissionDropped(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	engine.StartMission(fleet, system, MissionExplore, 0, nil)

	// The fleet vanished between ticks; processing must not panic and the
	// mission is removed.
	engine.ProcessMissions(map[model.FleetID]*model.Fleet{}, map[model.SystemID]*model.StarSystem{system.ID: system}, 10, 1)
	if engine.ActiveMission(fleet.ID) != nil {
		t.Fatal("stale mission should have been dropped")
	}
}

func TestAttemptDetectionDiscoversNearbyPoint(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-NEAR", model.Vec3{X: 0.1 * model.AUToKm}, "elsewhere")
	system.JumpPoints = append(system.JumpPoints, jp)

	// Detection is probabilistic; with a fixed seed enough attempts always
	// land one.
	var found bool
	for i := 0; i < 500 && !found; i++ {
		if detected := engine.AttemptDetection(fleet, system, fleet.Faction, float64(i)); len(detected) > 0 {
			found = true
			if detected[0].ID != jp.ID {
				t.Fatalf("detected wrong point: %v", detected[0].ID)
			}
		}
	}
	if !found {
		t.Fatal("point never detected within 500 attempts")
	}

	if jp.DiscoveredBy != fleet.Faction {
		t.Fatalf("DiscoveredBy = %v, want %v", jp.DiscoveredBy, fleet.Faction)
	}
	if jp.Status != model.PointDetected {
		t.Fatalf("status = %v, want detected", jp.Status)
	}
	if jp.SurveyLevel != 1 {
		t.Fatalf("survey level = %d, want 1", jp.SurveyLevel)
	}

	status := engine.Status(system.ID, fleet.Faction)
	if status.DiscoveredJumpPoints != 1 {
		t.Fatalf("discovered count = %d, want 1", status.DiscoveredJumpPoints)
	}
}

func TestAttemptDetectionIgnoresDistantPoint(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-FAR", model.Vec3{X: 5 * model.AUToKm}, "elsewhere")
	system.JumpPoints = append(system.JumpPoints, jp)

	for i := 0; i < 200; i++ {
		if detected := engine.AttemptDetection(fleet, system, fleet.Faction, float64(i)); len(detected) > 0 {
			t.Fatal("point outside detection range must never be found")
		}
	}
}

func TestDetectionIsIdempotentPerFaction(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-NEAR", model.Vec3{X: 0.1 * model.AUToKm}, "elsewhere")
	system.JumpPoints = append(system.JumpPoints, jp)

	total := 0
	for i := 0; i < 500; i++ {
		total += len(engine.AttemptDetection(fleet, system, fleet.Faction, float64(i)))
	}
	if total != 1 {
		t.Fatalf("point discovered %d times, want exactly once", total)
	}
}

func TestSecondFactionCanDiscoverIndependently(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-NEAR", model.Vec3{X: 0.1 * model.AUToKm}, "elsewhere")
	system.JumpPoints = append(system.JumpPoints, jp)

	for i := 0; i < 500; i++ {
		engine.AttemptDetection(fleet, system, fleet.Faction, float64(i))
	}

	rival := model.NewFleet("Rival Scouts", "martians", system.ID, model.Vec3{})
	rival.Ships = []model.ShipID{model.NewShipID()}

	var rivalFound bool
	for i := 0; i < 500 && !rivalFound; i++ {
		if len(engine.AttemptDetection(rival, system, rival.Faction, float64(i))) > 0 {
			rivalFound = true
		}
	}
	if !rivalFound {
		t.Fatal("second faction never discovered the point")
	}

	// First discovery metadata is not overwritten.
	if jp.DiscoveredBy != fleet.Faction {
		t.Fatalf("DiscoveredBy = %v, want original discoverer", jp.DiscoveredBy)
	}

	status := engine.Status(system.ID, rival.Faction)
	if status.DiscoveredJumpPoints != 1 {
		t.Fatalf("rival discovered count = %d, want 1", status.DiscoveredJumpPoints)
	}
}

func TestSurveyJumpPointLifecycle(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-SRV", model.Vec3{X: 0.2 * model.AUToKm}, "elsewhere")
	jp.Status = model.PointDetected
	jp.SurveyLevel = 1
	jp.DiscoveredBy = fleet.Faction
	system.JumpPoints = append(system.JumpPoints, jp)

	// Too far away: survey range is half the detection range.
	fleet.Position = model.Vec3{X: 2 * model.AUToKm}
	if res := engine.SurveyJumpPoint(fleet, system, jp, fleet.Faction, 0); res.OK {
		t.Fatal("survey should fail out of range")
	}

	fleet.Position = jp.Position
	res := engine.SurveyJumpPoint(fleet, system, jp, fleet.Faction, 0)
	if !res.OK {
		t.Fatalf("survey failed: %s", res.Message)
	}
	if fleet.Status != model.FleetSurveying {
		t.Fatalf("fleet status = %v, want surveying", fleet.Status)
	}

	mission := engine.ActiveMission(fleet.ID)
	fleets := map[model.FleetID]*model.Fleet{fleet.ID: fleet}
	systems := map[model.SystemID]*model.StarSystem{system.ID: system}
	engine.ProcessMissions(fleets, systems, mission.Duration+1, 1)

	if jp.SurveyLevel != 2 {
		t.Fatalf("survey level = %d, want 2", jp.SurveyLevel)
	}
	if jp.Status != model.PointActive {
		t.Fatalf("status = %v, want active after reaching level 2", jp.Status)
	}
	if !jp.TravelEligible() {
		t.Fatal("point should be travel eligible at level 2")
	}
}

func TestSurveyRejectsFullySurveyedPoint(t *testing.T) {
	engine, fleet, system := explorationFixture(t)

	jp := model.NewJumpPoint("JP-MAX", model.Vec3{}, "elsewhere")
	jp.SurveyLevel = 3
	system.JumpPoints = append(system.JumpPoints, jp)

	res := engine.SurveyJumpPoint(fleet, system, jp, fleet.Faction, 0)
	if res.OK {
		t.Fatal("fully surveyed point should reject further surveys")
	}
}

func TestSystemDifficultyClamped(t *testing.T) {
	sparse := model.NewStarSystem("Sparse", 1.0, 1.0)
	if d := systemDifficulty(sparse); d < 0.5 || d > 3.0 {
		t.Fatalf("difficulty %v out of range", d)
	}

	dense := model.NewStarSystem("Dense", 1.0, 1.0)
	for i := 0; i < 40; i++ {
		dense.Planets = append(dense.Planets, model.Planet{})
	}
	if d := systemDifficulty(dense); d != 3.0 {
		t.Fatalf("difficulty %v, want clamp at 3.0", d)
	}
}

func TestHiddenPointsEventuallyRevealed(t *testing.T) {
	// Seeds are fixed, so scan a few until one produces a hidden pool.
	for seed := int64(0); seed < 20; seed++ {
		engine := NewExplorationEngine(rand.New(rand.NewSource(seed)), nil)
		system := model.NewStarSystem("Veiled", 1.0, 1.0)
		fleet := model.NewFleet("Deep Scouts", "terrans", system.ID, model.Vec3{})
		fleet.Ships = []model.ShipID{model.NewShipID()}
		engine.InitializeSystemExploration(system, fleet.Faction)

		pool := engine.Status(system.ID, fleet.Faction).PotentialDiscoveries
		if pool == 0 {
			continue
		}

		// Park the fleet on top of the next hidden point each attempt.
		var revealed int
		for i := 0; i < 5000 && revealed < pool; i++ {
			remaining := engine.hidden[system.ID]
			if len(remaining) == 0 {
				break
			}
			fleet.Position = remaining[0].Position
			revealed += len(engine.AttemptDetection(fleet, system, fleet.Faction, float64(i)))
		}

		if revealed == 0 {
			t.Fatalf("seed %d: hidden pool of %d never yielded a discovery", seed, pool)
		}
		if len(system.JumpPoints) != revealed {
			t.Fatalf("revealed points should join the system collection: %d vs %d",
				len(system.JumpPoints), revealed)
		}
		return
	}
	t.Fatal("no seed in range produced a hidden pool")
}
