package model

// Ship carries only the aggregate data the jump subsystem needs: mass for
// the cost model and jump-drive capability for the requirements check. Hull
// and component detail belong to the ship-design subsystem.
type Ship struct {
	ID       ShipID
	Name     string
	DesignID string
	FleetID  FleetID
	Faction  FactionID

	CurrentMass float64
	Fuel        float64
	JumpCapable bool
}

// NewShip returns a jump-capable ship of the given mass.
func NewShip(name string, faction FactionID, mass float64) *Ship {
	return &Ship{
		ID:          NewShipID(),
		Name:        name,
		Faction:     faction,
		CurrentMass: mass,
		Fuel:        100.0,
		JumpCapable: true,
	}
}
