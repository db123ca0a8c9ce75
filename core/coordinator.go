package core

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/orionyard/jumpnet-simulator/internal/logging"
	"github.com/orionyard/jumpnet-simulator/internal/observability"
	"github.com/orionyard/jumpnet-simulator/model"
)

// CommandResult is the tagged outcome of a player or AI command.
type CommandResult struct {
	OK      bool
	Message string
}

// Discovery records the jump points one fleet found during a tick.
type Discovery struct {
	FleetID    model.FleetID
	SystemID   model.SystemID
	JumpPoints []model.JumpPointID
}

// TickResult aggregates everything that happened in one coordinator tick.
type TickResult struct {
	Exploration map[model.FleetID][]ExplorationResult
	Travel      map[model.FleetID]string
	Discoveries []Discovery
}

// FactionStats are cumulative per-faction counters.
type FactionStats struct {
	ExplorationMissions  int
	TotalJumps           int
	DiscoveredJumpPoints int
}

// SystemConnection is one usable link in a faction's view of the network.
type SystemConnection struct {
	From        model.SystemID
	To          model.SystemID
	JumpPointID model.JumpPointID
}

// FactionNetwork is the faction-scoped projection of the jump network:
// only systems the faction knows and links through points it can use.
type FactionNetwork struct {
	KnownSystems []model.SystemID
	Connections  []SystemConnection
	Reachable    map[model.SystemID]int
	Stats        FactionStats
}

type factionKnowledge struct {
	KnownSystems    map[model.SystemID]struct{}
	KnownJumpPoints map[model.JumpPointID]struct{}
	Stats           FactionStats
}

// Config assembles a Coordinator. Seed fixes the shared RNG so whole runs
// replay identically; Metrics and Tech may be nil.
type Config struct {
	Seed    int64
	Logger  logging.Logger
	Metrics *observability.Collector
	Tech    TechnologyProvider
}

// Coordinator is the single entry point for the jump subsystem. It owns the
// three engines, the world references registered with it, and per-faction
// knowledge. All engines share one RNG stream.
type Coordinator struct {
	exploration *ExplorationEngine
	travel      *TravelEngine
	network     *NetworkManager

	systems map[model.SystemID]*model.StarSystem
	fleets  map[model.FleetID]*model.Fleet
	ships   map[model.ShipID]*model.Ship

	knowledge map[model.FactionID]*factionKnowledge

	metrics *observability.Collector
	log     logging.Logger
}

// NewCoordinator builds the subsystem with all engines drawing from one
// seeded RNG stream.
func NewCoordinator(cfg Config) *Coordinator {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	c := &Coordinator{
		exploration: NewExplorationEngine(rng, log.With(logging.String("engine", "exploration"))),
		travel:      NewTravelEngine(rng, cfg.Tech, log.With(logging.String("engine", "travel"))),
		network:     NewNetworkManager(rng, log.With(logging.String("engine", "network"))),
		systems:     make(map[model.SystemID]*model.StarSystem),
		fleets:      make(map[model.FleetID]*model.Fleet),
		ships:       make(map[model.ShipID]*model.Ship),
		knowledge:   make(map[model.FactionID]*factionKnowledge),
		metrics:     cfg.Metrics,
		log:         log,
	}
	c.travel.SetShipResolver(func(id model.ShipID) *model.Ship { return c.ships[id] })
	c.travel.SetMetrics(cfg.Metrics)
	c.exploration.SetMetrics(cfg.Metrics)
	return c
}

// RegisterSystem makes a star system visible to the subsystem.
func (c *Coordinator) RegisterSystem(system *model.StarSystem) {
	c.systems[system.ID] = system
}

// RegisterFleet makes a fleet visible to the subsystem and seeds its
// faction's knowledge of its starting system.
func (c *Coordinator) RegisterFleet(fleet *model.Fleet) {
	c.fleets[fleet.ID] = fleet
	c.factionKnowledge(fleet.Faction).KnownSystems[fleet.SystemID] = struct{}{}
	if system, ok := c.systems[fleet.SystemID]; ok {
		c.exploration.InitializeSystemExploration(system, fleet.Faction)
	}
}

// RegisterShip makes a ship visible for jump-drive capability checks.
func (c *Coordinator) RegisterShip(ship *model.Ship) {
	c.ships[ship.ID] = ship
}

func (c *Coordinator) factionKnowledge(faction model.FactionID) *factionKnowledge {
	k, ok := c.knowledge[faction]
	if !ok {
		k = &factionKnowledge{
			KnownSystems:    make(map[model.SystemID]struct{}),
			KnownJumpPoints: make(map[model.JumpPointID]struct{}),
		}
		c.knowledge[faction] = k
	}
	return k
}

// ProcessTick runs one simulation step: exploration missions first, then
// travel phases, then passive detection for fleets moving through space.
func (c *Coordinator) ProcessTick(now, delta float64) TickResult {
	result := TickResult{
		Exploration: c.exploration.ProcessMissions(c.fleets, c.systems, now, delta),
		Travel:      c.travel.ProcessOperations(c.fleets, c.systems, now),
	}

	for fleetID, stepResults := range result.Exploration {
		fleet := c.fleets[fleetID]
		if fleet == nil {
			continue
		}
		for _, r := range stepResults {
			if r == ResultJumpPointDetected || r == ResultJumpPointSurveyed {
				c.refreshKnowledge(fleet.Faction)
				break
			}
		}
	}

	result.Discoveries = c.passiveDetection(now)

	discovered := 0
	for _, d := range result.Discoveries {
		discovered += len(d.JumpPoints)
	}

	missions := c.exploration.ActiveMissionCount()
	preparations, jumps := c.travel.ActiveCounts()
	c.metrics.ObserveTick(missions, preparations, jumps)
	c.metrics.AddDiscoveries(discovered)

	return result
}

// passiveDetection gives fleets that are moving, exploring or surveying a
// chance to stumble over jump points each tick.
func (c *Coordinator) passiveDetection(now float64) []Discovery {
	var discoveries []Discovery

	for _, fleetID := range sortedFleetIDs(c.fleets) {
		fleet := c.fleets[fleetID]
		switch fleet.Status {
		case model.FleetMoving, model.FleetInTransit, model.FleetExploring, model.FleetSurveying:
		default:
			continue
		}

		system := c.systems[fleet.SystemID]
		if system == nil {
			continue
		}

		detected := c.exploration.AttemptDetection(fleet, system, fleet.Faction, now)
		if len(detected) == 0 {
			continue
		}

		d := Discovery{FleetID: fleetID, SystemID: system.ID}
		k := c.factionKnowledge(fleet.Faction)
		for _, jp := range detected {
			d.JumpPoints = append(d.JumpPoints, jp.ID)
			k.KnownJumpPoints[jp.ID] = struct{}{}
			k.Stats.DiscoveredJumpPoints++
			if jp.ConnectsTo != "" {
				k.KnownSystems[jp.ConnectsTo] = struct{}{}
			}
		}
		discoveries = append(discoveries, d)
	}

	return discoveries
}

// refreshKnowledge re-syncs a faction's jump point set from the exploration
// engine's per-faction records after mission-driven discoveries. The
// engine's set is authoritative: it includes points the faction detected
// even when a rival discovered them first.
func (c *Coordinator) refreshKnowledge(faction model.FactionID) {
	k := c.factionKnowledge(faction)
	for systemID, system := range c.systems {
		for _, id := range c.exploration.DiscoveredJumpPoints(systemID, faction) {
			if _, known := k.KnownJumpPoints[id]; known {
				continue
			}
			k.KnownJumpPoints[id] = struct{}{}
			k.Stats.DiscoveredJumpPoints++
			k.KnownSystems[systemID] = struct{}{}
			if jp := system.FindJumpPoint(id); jp != nil && jp.ConnectsTo != "" {
				k.KnownSystems[jp.ConnectsTo] = struct{}{}
			}
		}
	}
}

// StartExplorationMission begins an exploration activity for a fleet in its
// current system. Fleets mid-jump cannot start missions.
func (c *Coordinator) StartExplorationMission(fleetID model.FleetID, kind MissionKind, now float64) CommandResult {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet not found"}
	}
	system, ok := c.systems[fleet.SystemID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet's system not found"}
	}
	if c.travel.Status(fleetID, now).Activity != ActivityNone {
		return CommandResult{OK: false, Message: "Fleet is busy with a jump operation"}
	}

	c.exploration.InitializeSystemExploration(system, fleet.Faction)
	result := c.exploration.StartMission(fleet, system, kind, now, nil)
	if result.OK {
		c.factionKnowledge(fleet.Faction).Stats.ExplorationMissions++
	}
	return result
}

// SurveyJumpPoint starts a survey mission targeted at a discovered point in
// the fleet's current system.
func (c *Coordinator) SurveyJumpPoint(fleetID model.FleetID, jumpPointID model.JumpPointID, now float64) CommandResult {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet not found"}
	}
	system, ok := c.systems[fleet.SystemID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet's system not found"}
	}
	jp := system.FindJumpPoint(jumpPointID)
	if jp == nil {
		return CommandResult{OK: false, Message: "Jump point not found in current system"}
	}
	if c.travel.Status(fleetID, now).Activity != ActivityNone {
		return CommandResult{OK: false, Message: "Fleet is busy with a jump operation"}
	}

	result := c.exploration.SurveyJumpPoint(fleet, system, jp, fleet.Faction, now)
	if result.OK {
		c.factionKnowledge(fleet.Faction).Stats.ExplorationMissions++
	}
	return result
}

// InitiateFleetJump starts jump preparation for a fleet through a point in
// its current system. A fleet on an exploration mission must finish or be
// reassigned first.
func (c *Coordinator) InitiateFleetJump(fleetID model.FleetID, jumpPointID model.JumpPointID, now float64) CommandResult {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet not found"}
	}
	system, ok := c.systems[fleet.SystemID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet's system not found"}
	}
	jp := system.FindJumpPoint(jumpPointID)
	if jp == nil {
		return CommandResult{OK: false, Message: "Jump point not found"}
	}
	if jp.ConnectsTo == "" {
		return CommandResult{OK: false, Message: "Jump point destination not set"}
	}
	if _, ok := c.systems[jp.ConnectsTo]; !ok {
		return CommandResult{OK: false, Message: "Target system does not exist"}
	}
	if c.exploration.ActiveMission(fleetID) != nil {
		return CommandResult{OK: false, Message: "Fleet is busy with an exploration mission"}
	}

	result := c.travel.InitiatePreparation(fleet, jp, now)
	if result.OK {
		k := c.factionKnowledge(fleet.Faction)
		k.Stats.TotalJumps++
		k.KnownSystems[fleet.SystemID] = struct{}{}
		k.KnownSystems[jp.ConnectsTo] = struct{}{}
		k.KnownJumpPoints[jp.ID] = struct{}{}
	}
	return result
}

// CancelFleetJump aborts a fleet's jump preparation if one is active.
func (c *Coordinator) CancelFleetJump(fleetID model.FleetID) CommandResult {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return CommandResult{OK: false, Message: "Fleet not found"}
	}
	return c.travel.Cancel(fleet)
}

// AvailableJumps lists the jump options from a fleet's current system,
// enriched with what the faction knows about each destination.
func (c *Coordinator) AvailableJumps(fleetID model.FleetID) []JumpOption {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return nil
	}
	system, ok := c.systems[fleet.SystemID]
	if !ok {
		return nil
	}

	options := c.travel.AvailableJumps(fleet, system)
	k := c.factionKnowledge(fleet.Faction)
	for i := range options {
		if target, ok := c.systems[options[i].TargetSystem]; ok {
			options[i].TargetName = target.Name
		}
		_, options[i].TargetKnown = k.KnownSystems[options[i].TargetSystem]
	}
	return options
}

// JumpStatus reports a fleet's current jump phase.
func (c *Coordinator) JumpStatus(fleetID model.FleetID, now float64) JumpStatus {
	return c.travel.Status(fleetID, now)
}

// JumpHistory returns a fleet's recent transits.
func (c *Coordinator) JumpHistory(fleetID model.FleetID, limit int) []JumpRecord {
	return c.travel.History(fleetID, limit)
}

// ExplorationStatus reports a faction's progress in a system.
func (c *Coordinator) ExplorationStatus(systemID model.SystemID, faction model.FactionID) ExplorationStatus {
	return c.exploration.Status(systemID, faction)
}

// FactionNetwork builds the faction-scoped view of the jump network:
// systems it knows, links through points it can use, and reachability from
// a chosen origin.
func (c *Coordinator) FactionNetwork(faction model.FactionID, origin model.SystemID, maxHops int) FactionNetwork {
	k := c.factionKnowledge(faction)

	known := make([]model.SystemID, 0, len(k.KnownSystems))
	for systemID := range k.KnownSystems {
		known = append(known, systemID)
	}
	sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })

	adjacency := make(map[model.SystemID][]model.SystemID)
	var connections []SystemConnection
	for _, systemID := range known {
		system := c.systems[systemID]
		if system == nil {
			continue
		}
		for _, jp := range system.JumpPoints {
			if jp.ConnectsTo == "" || !jp.IsAccessibleBy(faction) {
				continue
			}
			if _, targetKnown := k.KnownSystems[jp.ConnectsTo]; !targetKnown {
				continue
			}
			connections = append(connections, SystemConnection{
				From:        systemID,
				To:          jp.ConnectsTo,
				JumpPointID: jp.ID,
			})
			adjacency[systemID] = append(adjacency[systemID], jp.ConnectsTo)
		}
	}

	return FactionNetwork{
		KnownSystems: known,
		Connections:  connections,
		Reachable:    bfsReachable(adjacency, origin, maxHops),
		Stats:        k.Stats,
	}
}

// GenerateNetwork builds a fresh procedural jump network over every
// registered system and rederives the connectivity graph.
func (c *Coordinator) GenerateNetwork(connectivity float64) {
	systems := make([]*model.StarSystem, 0, len(c.systems))
	for _, id := range sortedSystemIDs(c.systems) {
		systems = append(systems, c.systems[id])
	}
	c.network.Generate(systems, connectivity)
	c.network.Build(c.systems)
}

// UpdateNetwork rederives the connectivity graph from current jump point
// state, picking up newly revealed hidden points.
func (c *Coordinator) UpdateNetwork() {
	c.network.Build(c.systems)
}

// ShortestPath finds the cheapest route between two systems over the full
// network graph.
func (c *Coordinator) ShortestPath(origin, target model.SystemID) []model.SystemID {
	return c.network.ShortestPath(origin, target)
}

// Reachable lists systems within maxHops of the origin over the full graph.
func (c *Coordinator) Reachable(origin model.SystemID, maxHops int) map[model.SystemID]int {
	return c.network.Reachable(origin, maxHops)
}

// System returns a registered system by id, or nil.
func (c *Coordinator) System(id model.SystemID) *model.StarSystem {
	return c.systems[id]
}

// Fleet returns a registered fleet by id, or nil.
func (c *Coordinator) Fleet(id model.FleetID) *model.Fleet {
	return c.fleets[id]
}

// Requirements runs a feasibility check without side effects.
func (c *Coordinator) Requirements(fleetID model.FleetID, jumpPointID model.JumpPointID) (JumpRequirements, error) {
	fleet, ok := c.fleets[fleetID]
	if !ok {
		return JumpRequirements{}, fmt.Errorf("fleet %s not found", fleetID)
	}
	jp := findJumpPoint(c.systems, jumpPointID)
	if jp == nil {
		return JumpRequirements{}, fmt.Errorf("jump point %s not found", jumpPointID)
	}
	return c.travel.CalculateRequirements(fleet, jp), nil
}

func sortedFleetIDs(fleets map[model.FleetID]*model.Fleet) []model.FleetID {
	ids := make([]model.FleetID, 0, len(fleets))
	for id := range fleets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedSystemIDs(systems map[model.SystemID]*model.StarSystem) []model.SystemID {
	ids := make([]model.SystemID, 0, len(systems))
	for id := range systems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
