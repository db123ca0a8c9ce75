package model

import "github.com/google/uuid"

// Typed identifiers for the simulation entities. Keeping ids as distinct
// string newtypes stops a fleet id from being handed to a system lookup and
// vice versa; the underlying values are UUIDs so callers can also mint ids
// for externally-owned entities (fleets, ships, systems).
type (
	SystemID    string
	FleetID     string
	ShipID      string
	JumpPointID string
	FactionID   string
)

func NewSystemID() SystemID       { return SystemID(uuid.NewString()) }
func NewFleetID() FleetID         { return FleetID(uuid.NewString()) }
func NewShipID() ShipID           { return ShipID(uuid.NewString()) }
func NewJumpPointID() JumpPointID { return JumpPointID(uuid.NewString()) }
