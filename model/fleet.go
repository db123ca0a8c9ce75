package model

// FleetStatus is the activity a fleet is currently engaged in. The jump
// subsystem reads and writes it directly (documented side effect); other
// states exist for collaborating subsystems.
type FleetStatus int

const (
	FleetIdle FleetStatus = iota
	FleetMoving
	FleetInTransit
	FleetOrbiting
	FleetSurveying
	FleetExploring
	FleetFormingUp
	FleetRefueling
)

func (s FleetStatus) String() string {
	switch s {
	case FleetIdle:
		return "idle"
	case FleetMoving:
		return "moving"
	case FleetInTransit:
		return "in_transit"
	case FleetOrbiting:
		return "orbiting"
	case FleetSurveying:
		return "surveying"
	case FleetExploring:
		return "exploring"
	case FleetFormingUp:
		return "forming_up"
	case FleetRefueling:
		return "refueling"
	default:
		return "invalid"
	}
}

// Fleet is owned by the simulation and passed in by reference each tick.
// Position and velocity are opaque values maintained by the orbital
// subsystem; this module only reads them for distance checks and overwrites
// them on jump arrival.
type Fleet struct {
	ID      FleetID
	Name    string
	Faction FactionID

	SystemID SystemID
	Position Vec3
	Velocity Vec3

	Ships []ShipID

	Status           FleetStatus
	CurrentOrders    []string
	Destination      *Vec3
	EstimatedArrival *float64

	TotalMass     float64
	MaxSpeed      float64
	FuelRemaining float64
}

// NewFleet returns an idle fleet with a full fuel load.
func NewFleet(name string, faction FactionID, system SystemID, position Vec3) *Fleet {
	return &Fleet{
		ID:            NewFleetID(),
		Name:          name,
		Faction:       faction,
		SystemID:      system,
		Position:      position,
		Status:        FleetIdle,
		FuelRemaining: 100.0,
	}
}
