package core

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/orionyard/jumpnet-simulator/internal/logging"
	"github.com/orionyard/jumpnet-simulator/internal/observability"
	"github.com/orionyard/jumpnet-simulator/model"
)

// JumpPhase is the lifecycle stage of a jump preparation or operation.
type JumpPhase int

const (
	PhasePending JumpPhase = iota
	PhasePreparing
	PhaseJumping
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

func (p JumpPhase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhasePreparing:
		return "preparing"
	case PhaseJumping:
		return "jumping"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// JumpRequirements is the result of a feasibility check. FailureReasons is
// empty exactly when CanJump is true.
type JumpRequirements struct {
	CanJump         bool
	HasJumpDrive    bool
	FuelCost        float64
	TravelTime      float64
	PreparationTime float64
	FailureReasons  []string
}

// JumpPreparation is the pre-transit phase. The fleet can still cancel; no
// fuel has been spent yet.
type JumpPreparation struct {
	FleetID      model.FleetID
	JumpPointID  model.JumpPointID
	TargetSystem model.SystemID
	StartTime    float64
	Duration     float64
	Progress     float64
	Phase        JumpPhase
}

// JumpOperation is the in-transit phase. Fuel has been deducted; the jump
// can no longer be cancelled.
type JumpOperation struct {
	FleetID      model.FleetID
	JumpPointID  model.JumpPointID
	OriginSystem model.SystemID
	TargetSystem model.SystemID
	StartTime    float64
	TravelTime   float64
	FuelCost     float64
	Progress     float64
	Phase        JumpPhase
}

// JumpRecord is one completed (or failed) transit in a fleet's history.
type JumpRecord struct {
	JumpPointID  model.JumpPointID
	OriginSystem model.SystemID
	TargetSystem model.SystemID
	CompletedAt  float64
	FuelSpent    float64
	Success      bool
}

// JumpActivity distinguishes the phases a fleet can be in.
type JumpActivity int

const (
	ActivityNone JumpActivity = iota
	ActivityPreparing
	ActivityJumping
)

func (a JumpActivity) String() string {
	switch a {
	case ActivityNone:
		return "none"
	case ActivityPreparing:
		return "preparing"
	case ActivityJumping:
		return "jumping"
	default:
		return "invalid"
	}
}

// JumpStatus is the read-only projection of a fleet's current jump state.
type JumpStatus struct {
	Activity     JumpActivity
	JumpPointID  model.JumpPointID
	TargetSystem model.SystemID
	Progress     float64
	Remaining    float64
}

// JumpOption describes one jump reachable from a fleet's current system,
// enriched with what the faction knows about the far side.
type JumpOption struct {
	JumpPointID   model.JumpPointID
	JumpPointName string
	TargetSystem  model.SystemID
	TargetName    string
	TargetKnown   bool
	Requirements  JumpRequirements
}

// TechnologyProvider answers whether a faction has researched a given
// technology. The simulation's research subsystem implements it; tests use
// small fakes.
type TechnologyProvider interface {
	HasTechnology(faction model.FactionID, techID string) bool
}

// ShipResolver maps a ship id to its ship record, or nil when unknown. The
// coordinator supplies its registry; a nil resolver treats every ship as
// jump capable.
type ShipResolver func(model.ShipID) *model.Ship

// A fleet must keep this much fuel in reserve to attempt a jump at all.
const minimumFuelReserve = 20.0

// maxHistoryPerFleet bounds the per-fleet jump history ring.
const maxHistoryPerFleet = 50

// TravelEngine owns jump preparations, in-flight operations and per-fleet
// transit history. At most one preparation or operation exists per fleet.
type TravelEngine struct {
	preparations map[model.FleetID]*JumpPreparation
	operations   map[model.FleetID]*JumpOperation
	history      map[model.FleetID][]JumpRecord

	tech    TechnologyProvider
	ships   ShipResolver
	rng     *rand.Rand
	log     logging.Logger
	metrics *observability.Collector
}

// NewTravelEngine builds an engine. tech may be nil, in which case every
// technology requirement is treated as satisfied.
func NewTravelEngine(rng *rand.Rand, tech TechnologyProvider, log logging.Logger) *TravelEngine {
	if log == nil {
		log = logging.Noop()
	}
	return &TravelEngine{
		preparations: make(map[model.FleetID]*JumpPreparation),
		operations:   make(map[model.FleetID]*JumpOperation),
		history:      make(map[model.FleetID][]JumpRecord),
		tech:         tech,
		rng:          rng,
		log:          log,
	}
}

// SetShipResolver wires the ship registry used for jump-drive checks.
func (t *TravelEngine) SetShipResolver(resolver ShipResolver) {
	t.ships = resolver
}

// SetMetrics wires the metrics collector; nil disables metering.
func (t *TravelEngine) SetMetrics(metrics *observability.Collector) {
	t.metrics = metrics
}

// CalculateRequirements runs the full feasibility check for a fleet against
// a jump point. It is pure: no state changes, no RNG draws.
func (t *TravelEngine) CalculateRequirements(fleet *model.Fleet, jp *model.JumpPoint) JumpRequirements {
	req := JumpRequirements{HasJumpDrive: true}

	if len(fleet.Ships) == 0 {
		req.FailureReasons = append(req.FailureReasons, "Fleet has no ships")
	} else if t.ships != nil {
		// Ships missing from the registry are given the benefit of the
		// doubt; only a fleet of known drive-less hulls is rejected.
		known, capable := 0, false
		for _, shipID := range fleet.Ships {
			ship := t.ships(shipID)
			if ship == nil {
				continue
			}
			known++
			if ship.JumpCapable {
				capable = true
				break
			}
		}
		if known > 0 && !capable {
			req.HasJumpDrive = false
			req.FailureReasons = append(req.FailureReasons, "No ships have jump drive capability")
		}
	}

	if !jp.IsAccessibleBy(fleet.Faction) {
		req.FailureReasons = append(req.FailureReasons, "Jump point not accessible")
	}

	if jp.Status != model.PointActive && jp.Status != model.PointMapped {
		req.FailureReasons = append(req.FailureReasons, fmt.Sprintf("Jump point status is %s", jp.Status))
	}

	if fleet.FuelRemaining < minimumFuelReserve {
		req.FailureReasons = append(req.FailureReasons, "Insufficient fleet fuel")
	}

	if jp.TechRequirement != "" && t.tech != nil && !t.tech.HasTechnology(fleet.Faction, jp.TechRequirement) {
		req.FailureReasons = append(req.FailureReasons, fmt.Sprintf("Missing required technology: %s", jp.TechRequirement))
	}

	req.FuelCost = jp.FuelCost(fleet.TotalMass, len(fleet.Ships))
	req.TravelTime = jp.TravelTime(fleet.TotalMass, len(fleet.Ships))
	req.PreparationTime = preparationTime(fleet, jp)

	if req.FuelCost > fleet.FuelRemaining {
		req.FailureReasons = append(req.FailureReasons, "Insufficient fuel for jump")
	}

	req.CanJump = len(req.FailureReasons) == 0
	return req
}

// preparationTime scales with fleet size and point instability, with a
// ten-second floor.
func preparationTime(fleet *model.Fleet, jp *model.JumpPoint) float64 {
	prep := 30.0 + 5.0*float64(len(fleet.Ships)) + (2.0-jp.Stability)*10.0
	return math.Max(10.0, prep)
}

// InitiatePreparation starts the pre-transit phase for a fleet. No fuel is
// spent here; deduction happens exactly once when preparation completes and
// the transit begins.
func (t *TravelEngine) InitiatePreparation(fleet *model.Fleet, jp *model.JumpPoint, now float64) CommandResult {
	if _, busy := t.preparations[fleet.ID]; busy {
		return CommandResult{OK: false, Message: "Fleet is already preparing for or executing a jump"}
	}
	if _, busy := t.operations[fleet.ID]; busy {
		return CommandResult{OK: false, Message: "Fleet is already preparing for or executing a jump"}
	}

	req := t.CalculateRequirements(fleet, jp)
	if !req.CanJump {
		return CommandResult{OK: false, Message: "Jump not possible: " + strings.Join(req.FailureReasons, "; ")}
	}

	t.preparations[fleet.ID] = &JumpPreparation{
		FleetID:      fleet.ID,
		JumpPointID:  jp.ID,
		TargetSystem: jp.ConnectsTo,
		StartTime:    now,
		Duration:     req.PreparationTime,
		Phase:        PhasePending,
	}

	fleet.Status = model.FleetFormingUp
	fleet.CurrentOrders = append(fleet.CurrentOrders, fmt.Sprintf("Preparing jump to %s", jp.Name))

	t.log.Info(context.Background(), "jump preparation initiated",
		logging.String("fleet", fleet.Name),
		logging.String("jump_point", jp.Name),
		logging.Float64("prep_time_s", req.PreparationTime),
	)

	return CommandResult{OK: true, Message: "Jump preparation initiated"}
}

// executeJump transitions a fleet from preparation into transit. This is
// the single place fuel is deducted. It is only reachable from
// ProcessOperations once a preparation reaches full progress.
func (t *TravelEngine) executeJump(prep *JumpPreparation, fleet *model.Fleet, jp *model.JumpPoint, now float64) error {
	if prep.Phase != PhasePreparing {
		return fmt.Errorf("preparation in phase %s, expected %s", prep.Phase, PhasePreparing)
	}

	req := t.CalculateRequirements(fleet, jp)
	if !req.CanJump {
		return fmt.Errorf("jump no longer possible: %s", strings.Join(req.FailureReasons, "; "))
	}

	fleet.FuelRemaining = math.Max(0, fleet.FuelRemaining-req.FuelCost)

	travelTime := req.TravelTime * (0.9 + 0.2*t.rng.Float64())

	t.operations[fleet.ID] = &JumpOperation{
		FleetID:      fleet.ID,
		JumpPointID:  jp.ID,
		OriginSystem: fleet.SystemID,
		TargetSystem: jp.ConnectsTo,
		StartTime:    now,
		TravelTime:   travelTime,
		FuelCost:     req.FuelCost,
		Phase:        PhaseJumping,
	}

	fleet.Status = model.FleetInTransit
	fleet.CurrentOrders = []string{fmt.Sprintf("Jumping to %s", jp.ConnectsTo)}

	jp.TrafficLevel++
	jp.LastTransit = now

	delete(t.preparations, fleet.ID)

	t.log.Info(context.Background(), "jump executed",
		logging.String("fleet", fleet.Name),
		logging.String("jump_point", jp.Name),
		logging.Float64("eta_s", travelTime),
		logging.Float64("fuel_spent", req.FuelCost),
	)

	return nil
}

// ProcessOperations advances all preparations and in-flight jumps by one
// tick. Completed preparations transition into operations (the only path to
// executeJump); completed operations relocate their fleets. Returns
// per-fleet status messages for anything that changed phase this tick.
func (t *TravelEngine) ProcessOperations(
	fleets map[model.FleetID]*model.Fleet,
	systems map[model.SystemID]*model.StarSystem,
	now float64,
) map[model.FleetID]string {
	events := make(map[model.FleetID]string)

	for _, fleetID := range sortedPreparationIDs(t.preparations) {
		prep := t.preparations[fleetID]
		fleet := fleets[fleetID]
		if fleet == nil {
			delete(t.preparations, fleetID)
			continue
		}

		prep.Progress = math.Min(1.0, (now-prep.StartTime)/prep.Duration)
		if prep.Progress < 1.0 {
			continue
		}
		prep.Phase = PhasePreparing

		jp := findJumpPoint(systems, prep.JumpPointID)
		if jp == nil {
			prep.Phase = PhaseFailed
			delete(t.preparations, fleetID)
			fleet.Status = model.FleetIdle
			fleet.CurrentOrders = nil
			events[fleetID] = "Jump failed: jump point not found"
			continue
		}

		if err := t.executeJump(prep, fleet, jp, now); err != nil {
			prep.Phase = PhaseFailed
			delete(t.preparations, fleetID)
			fleet.Status = model.FleetIdle
			fleet.CurrentOrders = nil
			events[fleetID] = fmt.Sprintf("Jump execution failed: %s", err)

			t.log.Warn(context.Background(), "jump execution failed",
				logging.String("fleet", fleet.Name),
				logging.String("error", err.Error()),
			)
			continue
		}

		events[fleetID] = fmt.Sprintf("Jump executed - ETA: %.1f seconds", t.operations[fleetID].TravelTime)
	}

	for _, fleetID := range sortedOperationIDs(t.operations) {
		op := t.operations[fleetID]
		fleet := fleets[fleetID]
		if fleet == nil {
			delete(t.operations, fleetID)
			continue
		}

		op.Progress = math.Min(1.0, (now-op.StartTime)/op.TravelTime)
		if op.Progress < 1.0 {
			continue
		}

		events[fleetID] = t.completeJump(op, fleet, systems, now)
		delete(t.operations, fleetID)
	}

	return events
}

// completeJump relocates the fleet into the target system and records the
// transit in its history. A vanished target system fails the jump but the
// fuel stays spent.
func (t *TravelEngine) completeJump(
	op *JumpOperation,
	fleet *model.Fleet,
	systems map[model.SystemID]*model.StarSystem,
	now float64,
) string {
	target := systems[op.TargetSystem]
	if target == nil {
		op.Phase = PhaseFailed
		fleet.Status = model.FleetIdle
		fleet.CurrentOrders = nil
		t.recordJump(op, now, false)

		t.log.Warn(context.Background(), "jump completion failed",
			logging.String("fleet", fleet.Name),
			logging.String("target_system", string(op.TargetSystem)),
		)
		return "Jump completion failed: target system not found"
	}

	op.Phase = PhaseCompleted
	fleet.SystemID = target.ID
	fleet.Position = t.arrivalPosition(op, target)
	fleet.Velocity = model.Vec3{}
	fleet.Destination = nil
	fleet.EstimatedArrival = nil
	fleet.Status = model.FleetIdle
	fleet.CurrentOrders = nil

	t.recordJump(op, now, true)

	t.log.Info(context.Background(), "jump completed",
		logging.String("fleet", fleet.Name),
		logging.String("target_system", target.Name),
	)
	return fmt.Sprintf("Arrived in %s", target.Name)
}

// arrivalPosition places the fleet near the reciprocal jump point in the
// target system, offset 1000 km at a random bearing. Without a reciprocal
// point the fleet appears near the system centre.
func (t *TravelEngine) arrivalPosition(op *JumpOperation, target *model.StarSystem) model.Vec3 {
	angle := t.rng.Float64() * 2 * math.Pi
	const offset = 1000.0

	for _, jp := range target.JumpPoints {
		if jp.ConnectsTo == op.OriginSystem {
			return model.Vec3{
				X: jp.Position.X + offset*math.Cos(angle),
				Y: jp.Position.Y + offset*math.Sin(angle),
				Z: jp.Position.Z,
			}
		}
	}

	return model.Vec3{
		X: offset * math.Cos(angle),
		Y: offset * math.Sin(angle),
	}
}

func (t *TravelEngine) recordJump(op *JumpOperation, now float64, success bool) {
	records := append(t.history[op.FleetID], JumpRecord{
		JumpPointID:  op.JumpPointID,
		OriginSystem: op.OriginSystem,
		TargetSystem: op.TargetSystem,
		CompletedAt:  now,
		FuelSpent:    op.FuelCost,
		Success:      success,
	})
	if len(records) > maxHistoryPerFleet {
		records = records[len(records)-maxHistoryPerFleet:]
	}
	t.history[op.FleetID] = records
	t.metrics.JumpCompleted(success)
}

// Cancel aborts a fleet's jump preparation. Jumps already in transit cannot
// be cancelled.
func (t *TravelEngine) Cancel(fleet *model.Fleet) CommandResult {
	if _, ok := t.preparations[fleet.ID]; ok {
		delete(t.preparations, fleet.ID)
		fleet.Status = model.FleetIdle
		fleet.CurrentOrders = nil

		t.log.Info(context.Background(), "jump preparation cancelled",
			logging.String("fleet", fleet.Name),
		)
		return CommandResult{OK: true, Message: "Jump preparation cancelled"}
	}

	if _, ok := t.operations[fleet.ID]; ok {
		return CommandResult{OK: false, Message: "Cannot cancel jump in progress"}
	}

	return CommandResult{OK: false, Message: "No active jump operation to cancel"}
}

// Status reports which phase, if any, a fleet is in.
func (t *TravelEngine) Status(fleetID model.FleetID, now float64) JumpStatus {
	if prep, ok := t.preparations[fleetID]; ok {
		progress := math.Min(1.0, (now-prep.StartTime)/prep.Duration)
		return JumpStatus{
			Activity:     ActivityPreparing,
			JumpPointID:  prep.JumpPointID,
			TargetSystem: prep.TargetSystem,
			Progress:     progress,
			Remaining:    math.Max(0, prep.Duration-(now-prep.StartTime)),
		}
	}
	if op, ok := t.operations[fleetID]; ok {
		progress := math.Min(1.0, (now-op.StartTime)/op.TravelTime)
		return JumpStatus{
			Activity:     ActivityJumping,
			JumpPointID:  op.JumpPointID,
			TargetSystem: op.TargetSystem,
			Progress:     progress,
			Remaining:    math.Max(0, op.TravelTime-(now-op.StartTime)),
		}
	}
	return JumpStatus{Activity: ActivityNone}
}

// AvailableJumps lists every jump point in the fleet's current system the
// faction can see, with full requirements attached. Eligibility is not
// filtered; callers can show why an option is unusable.
func (t *TravelEngine) AvailableJumps(fleet *model.Fleet, system *model.StarSystem) []JumpOption {
	var options []JumpOption
	for _, jp := range system.JumpPoints {
		if jp.DiscoveredBy == "" {
			continue
		}
		if !jp.IsAccessibleBy(fleet.Faction) {
			continue
		}
		options = append(options, JumpOption{
			JumpPointID:   jp.ID,
			JumpPointName: jp.Name,
			TargetSystem:  jp.ConnectsTo,
			Requirements:  t.CalculateRequirements(fleet, jp),
		})
	}
	return options
}

// History returns up to limit most recent jump records for a fleet, newest
// last. limit <= 0 returns the full retained history.
func (t *TravelEngine) History(fleetID model.FleetID, limit int) []JumpRecord {
	records := t.history[fleetID]
	if limit <= 0 || limit >= len(records) {
		out := make([]JumpRecord, len(records))
		copy(out, records)
		return out
	}
	out := make([]JumpRecord, limit)
	copy(out, records[len(records)-limit:])
	return out
}

// ActivePreparation returns the fleet's preparation, or nil.
func (t *TravelEngine) ActivePreparation(fleetID model.FleetID) *JumpPreparation {
	return t.preparations[fleetID]
}

// ActiveOperation returns the fleet's in-flight jump, or nil.
func (t *TravelEngine) ActiveOperation(fleetID model.FleetID) *JumpOperation {
	return t.operations[fleetID]
}

// ActiveCounts reports the number of preparations and operations.
func (t *TravelEngine) ActiveCounts() (preparations, operations int) {
	return len(t.preparations), len(t.operations)
}

// findJumpPoint resolves a point id across every system.
func findJumpPoint(systems map[model.SystemID]*model.StarSystem, id model.JumpPointID) *model.JumpPoint {
	for _, system := range systems {
		if jp := system.FindJumpPoint(id); jp != nil {
			return jp
		}
	}
	return nil
}

func sortedPreparationIDs(preparations map[model.FleetID]*JumpPreparation) []model.FleetID {
	ids := make([]model.FleetID, 0, len(preparations))
	for id := range preparations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedOperationIDs(operations map[model.FleetID]*JumpOperation) []model.FleetID {
	ids := make([]model.FleetID, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
