package core

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/orionyard/jumpnet-simulator/model"
)

// link adds a one-way jump point from a to b with the given weight shape.
func link(a, b *model.StarSystem, stability, fuelMod, timeMod float64) *model.JumpPoint {
	jp := model.NewJumpPoint("JP-"+b.Name, model.Vec3{}, b.ID)
	jp.Stability = stability
	jp.FuelCostModifier = fuelMod
	jp.TravelTimeModifier = timeMod
	a.JumpPoints = append(a.JumpPoints, jp)
	return jp
}

func systemsByID(systems ...*model.StarSystem) map[model.SystemID]*model.StarSystem {
	m := make(map[model.SystemID]*model.StarSystem, len(systems))
	for _, s := range systems {
		m[s.ID] = s
	}
	return m
}

func TestShortestPathPrefersCheaperRoute(t *testing.T) {
	a := model.NewStarSystem("A", 1, 1)
	b := model.NewStarSystem("B", 1, 1)
	c := model.NewStarSystem("C", 1, 1)

	// A -> B -> C weighs 2.0; the direct A -> C link weighs 5.0.
	link(a, b, 1.0, 1.0, 1.0)
	link(b, c, 1.0, 1.0, 1.0)
	link(a, c, 1.0, 5.0, 1.0)

	manager := NewNetworkManager(rand.New(rand.NewSource(1)), nil)
	manager.Build(systemsByID(a, b, c))

	path := manager.ShortestPath(a.ID, c.ID)
	want := []model.SystemID{a.ID, b.ID, c.ID}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path[%d] = %v, want %v", i, path[i], want[i])
		}
	}
}

func TestShortestPathEdgeCases(t *testing.T) {
	a := model.NewStarSystem("A", 1, 1)
	b := model.NewStarSystem("B", 1, 1)
	island := model.NewStarSystem("Island", 1, 1)
	link(a, b, 1.0, 1.0, 1.0)

	manager := NewNetworkManager(rand.New(rand.NewSource(1)), nil)
	manager.Build(systemsByID(a, b, island))

	if path := manager.ShortestPath(a.ID, a.ID); len(path) != 1 || path[0] != a.ID {
		t.Fatalf("same-system path = %v, want [origin]", path)
	}
	if path := manager.ShortestPath(a.ID, island.ID); len(path) != 0 {
		t.Fatalf("unreachable path = %v, want empty", path)
	}
}

func TestInstabilityRaisesEdgeWeight(t *testing.T) {
	calm := model.NewJumpPoint("JP-C", model.Vec3{}, "x")
	calm.Stability = 1.0
	rough := model.NewJumpPoint("JP-R", model.Vec3{}, "x")
	rough.Stability = 0.3

	if edgeWeight(rough) <= edgeWeight(calm) {
		t.Fatalf("unstable edge should weigh more: calm=%v rough=%v",
			edgeWeight(calm), edgeWeight(rough))
	}
}

func TestBuildSkipsDanglingPoints(t *testing.T) {
	a := model.NewStarSystem("A", 1, 1)
	b := model.NewStarSystem("B", 1, 1)
	link(a, b, 1.0, 1.0, 1.0)

	// Destination unset, and destination pointing at an unregistered system.
	a.JumpPoints = append(a.JumpPoints, model.NewJumpPoint("JP-U", model.Vec3{}, ""))
	a.JumpPoints = append(a.JumpPoints, model.NewJumpPoint("JP-G", model.Vec3{}, "ghost"))

	manager := NewNetworkManager(rand.New(rand.NewSource(1)), nil)
	manager.Build(systemsByID(a, b))

	neighbors := manager.Connections(a.ID)
	if len(neighbors) != 1 || neighbors[0] != b.ID {
		t.Fatalf("connections = %v, want only %v", neighbors, b.ID)
	}
}

func TestReachableHopCounts(t *testing.T) {
	a := model.NewStarSystem("A", 1, 1)
	b := model.NewStarSystem("B", 1, 1)
	c := model.NewStarSystem("C", 1, 1)
	d := model.NewStarSystem("D", 1, 1)
	link(a, b, 1.0, 1.0, 1.0)
	link(b, c, 1.0, 1.0, 1.0)
	link(c, d, 1.0, 1.0, 1.0)

	manager := NewNetworkManager(rand.New(rand.NewSource(1)), nil)
	manager.Build(systemsByID(a, b, c, d))

	reachable := manager.Reachable(a.ID, 2)
	if len(reachable) != 3 {
		t.Fatalf("reachable = %v, want origin plus two hops", reachable)
	}
	if reachable[a.ID] != 0 || reachable[b.ID] != 1 || reachable[c.ID] != 2 {
		t.Fatalf("hop counts wrong: %v", reachable)
	}
	if _, ok := reachable[d.ID]; ok {
		t.Fatal("system beyond hop limit should be absent")
	}
}

func newTestGalaxy(rng *rand.Rand, count int) []*model.StarSystem {
	systems := make([]*model.StarSystem, 0, count)
	for i := 0; i < count; i++ {
		s := model.NewStarSystem(fmt.Sprintf("Sys-%d", i), 0.5+rng.Float64(), 1.0)
		for p := 0; p < rng.Intn(5); p++ {
			s.Planets = append(s.Planets, model.Planet{})
		}
		systems = append(systems, s)
	}
	return systems
}

func TestGenerateConnectsEverySystem(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	systems := newTestGalaxy(rng, 10)

	manager := NewNetworkManager(rng, nil)
	manager.Generate(systems, 0.3)
	manager.Build(systemsByID(systems...))

	reachable := manager.Reachable(systems[0].ID, len(systems))
	if len(reachable) != len(systems) {
		t.Fatalf("reachable %d of %d systems; backbone must connect all", len(reachable), len(systems))
	}

	for _, s := range systems {
		if len(s.JumpPoints) == 0 {
			t.Fatalf("system %s has no jump points", s.Name)
		}
	}
}

func TestGenerateCreatesReciprocalPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	systems := newTestGalaxy(rng, 6)

	manager := NewNetworkManager(rng, nil)
	manager.Generate(systems, 0.2)

	byID := systemsByID(systems...)
	for _, s := range systems {
		for _, jp := range s.JumpPoints {
			target := byID[jp.ConnectsTo]
			if target == nil {
				t.Fatalf("point %s connects to unknown system", jp.Name)
			}
			if jp.Kind != model.JumpNatural {
				// Unstable and dormant specials are one-way extras.
				continue
			}
			var hasReverse bool
			for _, back := range target.JumpPoints {
				if back.ConnectsTo == s.ID {
					hasReverse = true
					break
				}
			}
			if !hasReverse {
				t.Fatalf("link %s -> %s has no reverse point", s.Name, target.Name)
			}
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	shape := func(seed int64) []int {
		rng := rand.New(rand.NewSource(seed))
		systems := newTestGalaxy(rng, 8)
		NewNetworkManager(rng, nil).Generate(systems, 0.3)

		counts := make([]int, len(systems))
		for i, s := range systems {
			counts[i] = len(s.JumpPoints)
		}
		return counts
	}

	first := shape(99)
	second := shape(99)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different networks: %v vs %v", first, second)
		}
	}
}

func TestGenerateSpecialKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	systems := newTestGalaxy(rng, 12)

	manager := NewNetworkManager(rng, nil)
	manager.Generate(systems, 0.5)

	for _, s := range systems {
		for _, jp := range s.JumpPoints {
			switch jp.Kind {
			case model.JumpUnstable:
				if jp.Stability < 0.3 || jp.Stability > 0.7 {
					t.Fatalf("unstable stability %v out of range", jp.Stability)
				}
			case model.JumpDormant:
				if jp.Status != model.PointInactive {
					t.Fatalf("dormant point should start inactive, got %v", jp.Status)
				}
			case model.JumpNatural:
				if jp.Stability < 0.8 {
					t.Fatalf("natural stability %v below 0.8", jp.Stability)
				}
			}
		}
	}
}
