package model

import (
	"math"
	"testing"
)

func TestFuelCostNeverBelowBase(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")
	jp.SizeClass = 4

	// A small fleet through a large point still pays the base cost.
	cost := jp.FuelCost(500, 1)
	if cost != JumpFuelCostBase {
		t.Fatalf("FuelCost(500, 1) = %v, want base %v", cost, JumpFuelCostBase)
	}
}

func TestFuelCostScalesWithMassAndShips(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")
	jp.SizeClass = 1 // efficiency clamps to 1.0

	small := jp.FuelCost(1000, 2)
	large := jp.FuelCost(50000, 10)
	if large <= small {
		t.Fatalf("heavier fleet should cost more: small=%v large=%v", small, large)
	}

	want := JumpFuelCostBase + 10.0*10 + 0.01*50000
	if math.Abs(large-want) > 1e-9 {
		t.Fatalf("FuelCost(50000, 10) = %v, want %v", large, want)
	}
}

func TestFuelCostIsPure(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")
	first := jp.FuelCost(12000, 5)
	for i := 0; i < 10; i++ {
		if got := jp.FuelCost(12000, 5); got != first {
			t.Fatalf("FuelCost changed between calls: %v then %v", first, got)
		}
	}
}

func TestTravelTimeNeverBelowBase(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")
	jp.Stability = 1.0
	jp.TravelTimeModifier = 0.5

	if got := jp.TravelTime(1000, 3); got != JumpTimeBase {
		t.Fatalf("TravelTime = %v, want floor %v", got, JumpTimeBase)
	}
}

func TestTravelTimeStretchesWithInstability(t *testing.T) {
	stable := NewJumpPoint("JP-A", Vec3{}, "target")
	stable.Stability = 1.0
	unstable := NewJumpPoint("JP-B", Vec3{}, "target")
	unstable.Stability = 0.4

	if unstable.TravelTime(0, 0) <= stable.TravelTime(0, 0) {
		t.Fatalf("unstable point should take longer: stable=%v unstable=%v",
			stable.TravelTime(0, 0), unstable.TravelTime(0, 0))
	}
}

func TestIsAccessibleBy(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")

	if jp.IsAccessibleBy("terrans") {
		t.Fatal("undiscovered point should not be accessible")
	}

	jp.DiscoveredBy = "terrans"
	if !jp.IsAccessibleBy("terrans") {
		t.Fatal("discoverer should have access")
	}
	if jp.IsAccessibleBy("martians") {
		t.Fatal("non-discoverer should not have access by default")
	}

	jp.FactionAccess["martians"] = true
	if !jp.IsAccessibleBy("martians") {
		t.Fatal("explicit grant should allow access")
	}

	jp.FactionAccess["terrans"] = false
	if jp.IsAccessibleBy("terrans") {
		t.Fatal("explicit revocation should beat discoverer access")
	}
}

func TestTravelEligible(t *testing.T) {
	jp := NewJumpPoint("JP-TST", Vec3{}, "target")
	for level, want := range map[int]bool{0: false, 1: false, 2: true, 3: true} {
		jp.SurveyLevel = level
		if jp.TravelEligible() != want {
			t.Fatalf("TravelEligible at level %d = %v, want %v", level, !want, want)
		}
	}
}

func TestVec3DistanceTo(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if got := a.DistanceTo(b); got != 5 {
		t.Fatalf("DistanceTo = %v, want 5", got)
	}
	if got := a.DistanceTo(a); got != 0 {
		t.Fatalf("DistanceTo self = %v, want 0", got)
	}
}
