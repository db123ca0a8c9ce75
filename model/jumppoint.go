package model

import "math"

// JumpPointKind classifies how a jump point came to exist and how it behaves.
type JumpPointKind int

const (
	JumpNatural JumpPointKind = iota
	JumpArtificial
	JumpUnstable
	JumpDormant
	JumpRestricted
)

func (k JumpPointKind) String() string {
	switch k {
	case JumpNatural:
		return "natural"
	case JumpArtificial:
		return "artificial"
	case JumpUnstable:
		return "unstable"
	case JumpDormant:
		return "dormant"
	case JumpRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// JumpPointStatus tracks the discovery lifecycle of a jump point. Destroyed
// is terminal and only reachable via explicit admin action.
type JumpPointStatus int

const (
	PointUnknown JumpPointStatus = iota
	PointDetected
	PointSurveyed
	PointMapped
	PointActive
	PointInactive
	PointDestroyed
)

func (s JumpPointStatus) String() string {
	switch s {
	case PointUnknown:
		return "unknown"
	case PointDetected:
		return "detected"
	case PointSurveyed:
		return "surveyed"
	case PointMapped:
		return "mapped"
	case PointActive:
		return "active"
	case PointInactive:
		return "inactive"
	case PointDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// Cost model constants. A jump never costs less fuel than JumpFuelCostBase
// and never takes less time than JumpTimeBase seconds.
const (
	JumpFuelCostBase = 100.0
	JumpTimeBase     = 30.0

	fuelPerShip     = 10.0
	fuelPerMassUnit = 0.01
)

// JumpPoint is a directed link endpoint inside one star system. ConnectsTo
// names the target system and is immutable once set; the reverse link, if
// any, is a separate JumpPoint owned by the target system.
type JumpPoint struct {
	ID         JumpPointID
	Name       string
	Position   Vec3
	ConnectsTo SystemID // empty until the destination is determined
	Kind       JumpPointKind
	Status     JumpPointStatus

	Stability   float64 // 0..1, higher is calmer
	SizeClass   int     // larger classes pass bigger hulls more efficiently
	SurveyLevel int     // 0..3; travel requires >= 2

	FactionAccess map[FactionID]bool
	DiscoveredBy  FactionID
	DiscoveryTime float64

	LastSurveyed float64
	LastTransit  float64
	TrafficLevel int

	ExplorationDifficulty float64
	FuelCostModifier      float64
	TravelTimeModifier    float64

	// TechRequirement, when set, names a technology a faction must have
	// researched before its fleets may transit this point.
	TechRequirement string
}

// NewJumpPoint returns a point with neutral modifiers, full stability and an
// unknown discovery status.
func NewJumpPoint(name string, position Vec3, connectsTo SystemID) *JumpPoint {
	return &JumpPoint{
		ID:                    NewJumpPointID(),
		Name:                  name,
		Position:              position,
		ConnectsTo:            connectsTo,
		Kind:                  JumpNatural,
		Status:                PointUnknown,
		Stability:             1.0,
		SizeClass:             2,
		FactionAccess:         make(map[FactionID]bool),
		ExplorationDifficulty: 1.0,
		FuelCostModifier:      1.0,
		TravelTimeModifier:    1.0,
	}
}

// IsAccessibleBy reports whether a faction may use this point. An explicit
// access grant or revocation wins; otherwise only the discoverer has access.
func (jp *JumpPoint) IsAccessibleBy(faction FactionID) bool {
	if allowed, ok := jp.FactionAccess[faction]; ok {
		return allowed
	}
	return jp.DiscoveredBy != "" && jp.DiscoveredBy == faction
}

// TravelEligible reports whether the point has been characterised well
// enough to jump through (survey level >= 2).
func (jp *JumpPoint) TravelEligible() bool {
	return jp.SurveyLevel >= 2
}

// FuelCost computes the fuel needed to move a fleet of the given total mass
// and ship count through this point. Pure; never below JumpFuelCostBase.
func (jp *JumpPoint) FuelCost(totalMass float64, shipCount int) float64 {
	efficiency := 0.75 + 0.25*float64(jp.SizeClass)
	if efficiency < 1.0 {
		efficiency = 1.0
	}
	raw := (JumpFuelCostBase + fuelPerShip*float64(shipCount) + fuelPerMassUnit*totalMass) / efficiency * jp.FuelCostModifier
	return math.Max(JumpFuelCostBase, raw)
}

// TravelTime computes the transit duration in seconds for a fleet of the
// given shape. Instability stretches the crossing; the result is pure and
// never below JumpTimeBase. Mass and ship count are part of the fleet shape
// contract but do not currently influence the duration.
func (jp *JumpPoint) TravelTime(totalMass float64, shipCount int) float64 {
	_ = totalMass
	_ = shipCount
	raw := JumpTimeBase * (2.0 - jp.Stability) * jp.TravelTimeModifier
	return math.Max(JumpTimeBase, raw)
}
