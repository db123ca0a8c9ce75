package model

// Planet carries the subset of planetary data the exploration difficulty
// score consumes. Full planetary detail lives in the system-generation
// subsystem.
type Planet struct {
	ID              string
	Name            string
	Mass            float64 // Earth masses
	OrbitalDistance float64 // AU
}

// AsteroidBelt is a ring of debris centred at Distance AU with the given
// width. More belts mean more places for jump points to hide.
type AsteroidBelt struct {
	Distance float64 // AU
	Width    float64 // AU
}

// StarSystem is owned by the simulation; this module mutates only its
// jump-point collection and exploration markers.
type StarSystem struct {
	ID   SystemID
	Name string

	StarMass       float64 // solar masses
	StarLuminosity float64 // solar luminosities

	Planets       []Planet
	AsteroidBelts []AsteroidBelt

	HabitableZoneInner float64 // AU
	HabitableZoneOuter float64 // AU

	JumpPoints []*JumpPoint

	IsExplored    bool
	DiscoveredBy  FactionID
	DiscoveryTime float64
}

// NewStarSystem returns a system with a Sol-like habitable zone and no jump
// points.
func NewStarSystem(name string, starMass, starLuminosity float64) *StarSystem {
	return &StarSystem{
		ID:                 NewSystemID(),
		Name:               name,
		StarMass:           starMass,
		StarLuminosity:     starLuminosity,
		HabitableZoneInner: 0.95,
		HabitableZoneOuter: 1.37,
	}
}

// FindJumpPoint returns the jump point with the given id, or nil.
func (s *StarSystem) FindJumpPoint(id JumpPointID) *JumpPoint {
	for _, jp := range s.JumpPoints {
		if jp.ID == id {
			return jp
		}
	}
	return nil
}
