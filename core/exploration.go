package core

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/orionyard/jumpnet-simulator/internal/logging"
	"github.com/orionyard/jumpnet-simulator/internal/observability"
	"github.com/orionyard/jumpnet-simulator/model"
)

// MissionKind selects the depth of an exploration activity.
type MissionKind int

const (
	MissionExplore MissionKind = iota
	MissionSurvey
	MissionDeepScan
)

func (k MissionKind) String() string {
	switch k {
	case MissionExplore:
		return "explore"
	case MissionSurvey:
		return "survey"
	case MissionDeepScan:
		return "deep-scan"
	default:
		return "invalid"
	}
}

// ExplorationResult is a discrete outcome accumulated while a mission runs.
type ExplorationResult int

const (
	ResultNoDiscovery ExplorationResult = iota
	ResultJumpPointDetected
	ResultJumpPointSurveyed
	ResultAnomalyDetected
)

func (r ExplorationResult) String() string {
	switch r {
	case ResultNoDiscovery:
		return "no discovery"
	case ResultJumpPointDetected:
		return "jump point detected"
	case ResultJumpPointSurveyed:
		return "jump point surveyed"
	case ResultAnomalyDetected:
		return "anomaly detected"
	default:
		return "invalid"
	}
}

// ExplorationMission is a per-fleet scheduled activity inside one system.
// A fleet has at most one active mission at a time.
type ExplorationMission struct {
	FleetID  model.FleetID
	SystemID model.SystemID
	Kind     MissionKind

	StartTime float64
	Duration  float64

	TargetPosition  *model.Vec3
	TargetJumpPoint model.JumpPointID

	Progress  float64
	Completed bool
	Results   []ExplorationResult
}

// FactionKnowledge tracks what one faction has learned about one system.
type FactionKnowledge struct {
	ExplorationProgress  float64
	SurveyCompleteness   float64
	DiscoveredJumpPoints map[model.JumpPointID]struct{}
	LastExploration      float64
}

// ExplorationStatus is the read-only projection returned to UI/AI callers.
type ExplorationStatus struct {
	ExplorationProgress   float64
	SurveyCompleteness    float64
	DiscoveredJumpPoints  int
	LastExploration       float64
	SystemDifficulty      float64
	PotentialDiscoveries  int
}

type systemExploration struct {
	Difficulty float64
	Factions   map[model.FactionID]*FactionKnowledge
}

// Exploration tuning. Detection range is the sphere around a fleet inside
// which jump points can be noticed at all; probability falls off linearly
// with distance inside it.
const (
	explorationBaseTime = 1800.0 // seconds
	surveyBaseTime      = 3600.0
	minMissionDuration  = 60.0

	baseDetectionChance   = 0.15
	detectionRangeAU      = 2.0
	hiddenDetectionFactor = 0.5
)

// ExplorationEngine owns active missions, per-(system,faction) knowledge and
// the per-system pools of jump points withheld from every faction.
type ExplorationEngine struct {
	missions map[model.FleetID]*ExplorationMission
	systems  map[model.SystemID]*systemExploration
	hidden   map[model.SystemID][]*model.JumpPoint

	rng     *rand.Rand
	log     logging.Logger
	metrics *observability.Collector
}

// NewExplorationEngine builds an engine drawing all randomness from rng.
func NewExplorationEngine(rng *rand.Rand, log logging.Logger) *ExplorationEngine {
	if log == nil {
		log = logging.Noop()
	}
	return &ExplorationEngine{
		missions: make(map[model.FleetID]*ExplorationMission),
		systems:  make(map[model.SystemID]*systemExploration),
		hidden:   make(map[model.SystemID][]*model.JumpPoint),
		rng:      rng,
		log:      log,
	}
}

// SetMetrics wires the metrics collector; nil disables metering.
func (e *ExplorationEngine) SetMetrics(metrics *observability.Collector) {
	e.metrics = metrics
}

// InitializeSystemExploration idempotently creates the system-level record
// (difficulty score, hidden pool) and the per-faction knowledge record.
func (e *ExplorationEngine) InitializeSystemExploration(system *model.StarSystem, faction model.FactionID) {
	data, ok := e.systems[system.ID]
	if !ok {
		data = &systemExploration{
			Difficulty: systemDifficulty(system),
			Factions:   make(map[model.FactionID]*FactionKnowledge),
		}
		e.systems[system.ID] = data
		e.generateHiddenJumpPoints(system)
	}
	if _, ok := data.Factions[faction]; !ok {
		data.Factions[faction] = &FactionKnowledge{
			DiscoveredJumpPoints: make(map[model.JumpPointID]struct{}),
		}
	}
}

// systemDifficulty scores how hard a system is to explore thoroughly,
// clamped to [0.5, 3.0]. Planets and belts add hiding places; a wide
// habitable zone adds volume to cover.
func systemDifficulty(system *model.StarSystem) float64 {
	difficulty := 1.0
	difficulty += float64(len(system.Planets)) * 0.1
	difficulty += float64(len(system.AsteroidBelts)) * 0.2
	difficulty += (system.HabitableZoneOuter - system.HabitableZoneInner) * 0.1
	return math.Max(0.5, math.Min(3.0, difficulty))
}

// generateHiddenJumpPoints rolls the per-system hidden pool exactly once.
func (e *ExplorationEngine) generateHiddenJumpPoints(system *model.StarSystem) {
	if _, ok := e.hidden[system.ID]; ok {
		return
	}
	count := 0
	if e.rng.Float64() < 0.4 {
		count++
	}
	for i := 0; i < 2; i++ {
		if e.rng.Float64() < 0.15 {
			count++
		}
	}
	if count == 0 {
		return
	}

	points := make([]*model.JumpPoint, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, e.newHiddenJumpPoint(i))
	}
	e.hidden[system.ID] = points

	e.log.Debug(context.Background(), "hidden jump points generated",
		logging.String("system", system.Name),
		logging.Int("count", count),
	)
}

// newHiddenJumpPoint places a point in the outer system, 3-8 AU out at a
// random bearing. Its destination stays unset until revealed and linked.
func (e *ExplorationEngine) newHiddenJumpPoint(index int) *model.JumpPoint {
	r := (3.0 + e.rng.Float64()*5.0) * model.AUToKm
	angle := e.rng.Float64() * 2 * math.Pi

	jp := model.NewJumpPoint(fmt.Sprintf("Hidden JP-%d", index+1), model.Vec3{
		X: r * math.Cos(angle),
		Y: r * math.Sin(angle),
		Z: (e.rng.Float64()*0.2 - 0.1) * r,
	}, "")
	jp.Stability = 0.7 + e.rng.Float64()*0.3
	jp.SizeClass = 1 + e.rng.Intn(3)
	jp.ExplorationDifficulty = 1.2 + e.rng.Float64()*0.8
	jp.FuelCostModifier = 0.8 + e.rng.Float64()*0.5
	jp.TravelTimeModifier = 0.9 + e.rng.Float64()*0.3
	return jp
}

// StartMission begins an explore/survey/deep-scan mission for a fleet. It
// fails if the fleet already has an active mission.
func (e *ExplorationEngine) StartMission(
	fleet *model.Fleet,
	system *model.StarSystem,
	kind MissionKind,
	now float64,
	targetPosition *model.Vec3,
) CommandResult {
	return e.startMission(fleet, system, kind, now, targetPosition, "")
}

func (e *ExplorationEngine) startMission(
	fleet *model.Fleet,
	system *model.StarSystem,
	kind MissionKind,
	now float64,
	targetPosition *model.Vec3,
	targetJumpPoint model.JumpPointID,
) CommandResult {
	if _, busy := e.missions[fleet.ID]; busy {
		return CommandResult{OK: false, Message: "Fleet already has an active exploration mission"}
	}

	duration := e.missionDuration(fleet, kind, system)
	if targetPosition == nil {
		pos := fleet.Position
		targetPosition = &pos
	}

	e.missions[fleet.ID] = &ExplorationMission{
		FleetID:         fleet.ID,
		SystemID:        system.ID,
		Kind:            kind,
		StartTime:       now,
		Duration:        duration,
		TargetPosition:  targetPosition,
		TargetJumpPoint: targetJumpPoint,
	}

	switch kind {
	case MissionExplore:
		fleet.Status = model.FleetExploring
	case MissionSurvey, MissionDeepScan:
		fleet.Status = model.FleetSurveying
	}
	fleet.CurrentOrders = append(fleet.CurrentOrders, fmt.Sprintf("Conducting %s mission", kind))

	e.log.Info(context.Background(), "exploration mission started",
		logging.String("fleet", fleet.Name),
		logging.String("kind", kind.String()),
		logging.String("system", system.Name),
		logging.Float64("duration_s", duration),
	)

	return CommandResult{OK: true, Message: fmt.Sprintf("Started %s mission in %s", kind, system.Name)}
}

// missionDuration scales a per-kind base time by system difficulty and
// divides by fleet capability, with a one-minute floor.
func (e *ExplorationEngine) missionDuration(fleet *model.Fleet, kind MissionKind, system *model.StarSystem) float64 {
	base := explorationBaseTime
	switch kind {
	case MissionSurvey:
		base = surveyBaseTime
	case MissionDeepScan:
		base = surveyBaseTime * 2
	}

	difficulty := 1.0
	if data, ok := e.systems[system.ID]; ok {
		difficulty = data.Difficulty
	}

	duration := base * difficulty / fleetCapability(fleet)
	return math.Max(minMissionDuration, duration)
}

// fleetCapability summarises a fleet's survey strength: 1.0 baseline plus
// 0.1 per ship, floored at 0.5.
func fleetCapability(fleet *model.Fleet) float64 {
	capability := 1.0 + float64(len(fleet.Ships))*0.1
	return math.Max(0.5, capability)
}

// ProcessMissions advances every active mission by the elapsed time and
// returns the discrete results produced this tick, keyed by fleet.
// Missions whose fleet or system no longer exists are dropped silently.
func (e *ExplorationEngine) ProcessMissions(
	fleets map[model.FleetID]*model.Fleet,
	systems map[model.SystemID]*model.StarSystem,
	now float64,
	delta float64,
) map[model.FleetID][]ExplorationResult {
	_ = delta
	results := make(map[model.FleetID][]ExplorationResult)
	var completed []model.FleetID

	for _, fleetID := range sortedMissionIDs(e.missions) {
		mission := e.missions[fleetID]
		fleet := fleets[fleetID]
		system := systems[mission.SystemID]

		if fleet == nil || system == nil {
			completed = append(completed, fleetID)
			continue
		}

		mission.Progress = math.Min(1.0, (now-mission.StartTime)/mission.Duration)

		if stepResults := e.processMissionStep(mission, fleet, system, now); len(stepResults) > 0 {
			mission.Results = append(mission.Results, stepResults...)
			results[fleetID] = stepResults
		}

		if mission.Progress >= 1.0 || mission.Completed {
			e.completeMission(mission, fleet, system, now)
			completed = append(completed, fleetID)
		}
	}

	for _, fleetID := range completed {
		delete(e.missions, fleetID)
	}

	return results
}

// processMissionStep rolls the per-tick discovery chances: past 30%
// progress a small chance to attempt jump point detection, past 70% a
// smaller chance of an anomaly.
func (e *ExplorationEngine) processMissionStep(
	mission *ExplorationMission,
	fleet *model.Fleet,
	system *model.StarSystem,
	now float64,
) []ExplorationResult {
	var results []ExplorationResult

	if mission.Progress > 0.3 && e.rng.Float64() < 0.1 {
		detected := e.AttemptDetection(fleet, system, fleet.Faction, now)
		for _, jp := range detected {
			if jp.SurveyLevel >= 2 {
				results = append(results, ResultJumpPointSurveyed)
			} else {
				results = append(results, ResultJumpPointDetected)
			}
		}
	}

	if mission.Progress > 0.7 && e.rng.Float64() < 0.05 {
		results = append(results, ResultAnomalyDetected)
	}

	return results
}

// completeMission applies a mission's final effects exactly once: progress
// gains for the faction, survey level bumps for a targeted point, and the
// fleet returned to idle.
func (e *ExplorationEngine) completeMission(
	mission *ExplorationMission,
	fleet *model.Fleet,
	system *model.StarSystem,
	now float64,
) {
	e.InitializeSystemExploration(system, fleet.Faction)
	knowledge := e.systems[system.ID].Factions[fleet.Faction]

	switch mission.Kind {
	case MissionExplore:
		gain := 0.2 + mission.Progress*0.3
		knowledge.ExplorationProgress = math.Min(1.0, knowledge.ExplorationProgress+gain)

	case MissionSurvey, MissionDeepScan:
		gain := 0.15 + mission.Progress*0.25
		if mission.Kind == MissionDeepScan {
			gain *= 2
		}
		knowledge.SurveyCompleteness = math.Min(1.0, knowledge.SurveyCompleteness+gain)

		if mission.TargetJumpPoint != "" {
			if jp := system.FindJumpPoint(mission.TargetJumpPoint); jp != nil && jp.SurveyLevel < 3 {
				jp.SurveyLevel++
				jp.LastSurveyed = now
				if jp.SurveyLevel >= 2 && jp.Status != model.PointInactive {
					jp.Status = model.PointActive
				}
			}
		}
	}

	knowledge.LastExploration = now
	fleet.Status = model.FleetIdle
	fleet.CurrentOrders = nil
	e.metrics.MissionCompleted()

	e.log.Info(context.Background(), "exploration mission completed",
		logging.String("fleet", fleet.Name),
		logging.String("kind", mission.Kind.String()),
		logging.String("system", system.Name),
	)
}

// AttemptDetection rolls detection for every jump point the faction has not
// yet discovered within detection range of the fleet, hidden pool included.
// Successful hidden rolls move the point into the system's visible
// collection. Returns the points discovered this attempt.
func (e *ExplorationEngine) AttemptDetection(
	fleet *model.Fleet,
	system *model.StarSystem,
	faction model.FactionID,
	now float64,
) []*model.JumpPoint {
	e.InitializeSystemExploration(system, faction)
	knowledge := e.systems[system.ID].Factions[faction]

	detectionRange := detectionRangeAU * model.AUToKm
	var detected []*model.JumpPoint

	for _, jp := range system.JumpPoints {
		if _, known := knowledge.DiscoveredJumpPoints[jp.ID]; known {
			continue
		}
		if jp.DiscoveredBy == faction {
			knowledge.DiscoveredJumpPoints[jp.ID] = struct{}{}
			continue
		}

		distance := fleet.Position.DistanceTo(jp.Position)
		if distance > detectionRange {
			continue
		}

		if e.rng.Float64() < e.detectionProbability(fleet, jp, distance, knowledge) {
			e.discoverJumpPoint(jp, faction, now)
			knowledge.DiscoveredJumpPoints[jp.ID] = struct{}{}
			detected = append(detected, jp)

			e.log.Info(context.Background(), "jump point detected",
				logging.String("fleet", fleet.Name),
				logging.String("jump_point", jp.Name),
				logging.String("system", system.Name),
			)
		}
	}

	hidden := e.hidden[system.ID]
	if len(hidden) > 0 {
		remaining := hidden[:0]
		for _, jp := range hidden {
			distance := fleet.Position.DistanceTo(jp.Position)
			if distance > detectionRange {
				remaining = append(remaining, jp)
				continue
			}

			chance := e.detectionProbability(fleet, jp, distance, knowledge) * hiddenDetectionFactor
			if e.rng.Float64() < chance {
				e.discoverJumpPoint(jp, faction, now)
				knowledge.DiscoveredJumpPoints[jp.ID] = struct{}{}
				system.JumpPoints = append(system.JumpPoints, jp)
				detected = append(detected, jp)

				e.log.Info(context.Background(), "hidden jump point revealed",
					logging.String("fleet", fleet.Name),
					logging.String("jump_point", jp.Name),
					logging.String("system", system.Name),
				)
			} else {
				remaining = append(remaining, jp)
			}
		}
		if len(remaining) == 0 {
			delete(e.hidden, system.ID)
		} else {
			e.hidden[system.ID] = remaining
		}
	}

	return detected
}

// detectionProbability combines the base chance with a linear distance
// falloff (1.0 at zero range down to 0.1 at the edge), fleet capability,
// the point's own difficulty, and a bonus for accumulated exploration
// experience in the system. Clamped to [0.01, 0.95].
func (e *ExplorationEngine) detectionProbability(
	fleet *model.Fleet,
	jp *model.JumpPoint,
	distance float64,
	knowledge *FactionKnowledge,
) float64 {
	distanceAU := distance / model.AUToKm
	distanceFactor := math.Max(0.1, 1.0-distanceAU/detectionRangeAU)

	difficulty := jp.ExplorationDifficulty
	if difficulty <= 0 {
		difficulty = 1.0
	}

	chance := baseDetectionChance * distanceFactor * fleetCapability(fleet) / difficulty
	chance += knowledge.ExplorationProgress * 0.5

	return math.Min(0.95, math.Max(0.01, chance))
}

func (e *ExplorationEngine) discoverJumpPoint(jp *model.JumpPoint, faction model.FactionID, now float64) {
	if jp.DiscoveredBy == "" {
		jp.DiscoveredBy = faction
		jp.DiscoveryTime = now
		jp.Status = model.PointDetected
		jp.SurveyLevel = 1
	}
}

// SurveyJumpPoint starts a survey mission targeted at a specific point.
// Completion raises its survey level by one (capped at 3); reaching level 2
// makes the point travel-eligible.
func (e *ExplorationEngine) SurveyJumpPoint(
	fleet *model.Fleet,
	system *model.StarSystem,
	jp *model.JumpPoint,
	faction model.FactionID,
	now float64,
) CommandResult {
	if jp.SurveyLevel >= 3 {
		return CommandResult{OK: false, Message: "Jump point already fully surveyed"}
	}

	surveyRange := detectionRangeAU * model.AUToKm * 0.5
	if fleet.Position.DistanceTo(jp.Position) > surveyRange {
		return CommandResult{OK: false, Message: "Fleet too far from jump point to survey"}
	}

	e.InitializeSystemExploration(system, faction)
	pos := jp.Position
	return e.startMission(fleet, system, MissionSurvey, now, &pos, jp.ID)
}

// Status returns the per-faction projection for a system. Unknown systems
// yield a zero-valued status.
func (e *ExplorationEngine) Status(systemID model.SystemID, faction model.FactionID) ExplorationStatus {
	data, ok := e.systems[systemID]
	if !ok {
		return ExplorationStatus{}
	}

	status := ExplorationStatus{
		SystemDifficulty:     data.Difficulty,
		PotentialDiscoveries: len(e.hidden[systemID]),
	}
	if knowledge, ok := data.Factions[faction]; ok {
		status.ExplorationProgress = knowledge.ExplorationProgress
		status.SurveyCompleteness = knowledge.SurveyCompleteness
		status.DiscoveredJumpPoints = len(knowledge.DiscoveredJumpPoints)
		status.LastExploration = knowledge.LastExploration
	}
	return status
}

// DiscoveredJumpPoints lists the point ids a faction has discovered in a
// system, including points first discovered by a rival faction.
func (e *ExplorationEngine) DiscoveredJumpPoints(systemID model.SystemID, faction model.FactionID) []model.JumpPointID {
	data, ok := e.systems[systemID]
	if !ok {
		return nil
	}
	knowledge, ok := data.Factions[faction]
	if !ok {
		return nil
	}
	ids := make([]model.JumpPointID, 0, len(knowledge.DiscoveredJumpPoints))
	for id := range knowledge.DiscoveredJumpPoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ActiveMission returns the fleet's current mission, or nil.
func (e *ExplorationEngine) ActiveMission(fleetID model.FleetID) *ExplorationMission {
	return e.missions[fleetID]
}

// ActiveMissionCount reports how many missions are currently running.
func (e *ExplorationEngine) ActiveMissionCount() int {
	return len(e.missions)
}

// sortedMissionIDs keeps mission processing order stable so a tick draws
// from the shared RNG in a reproducible sequence.
func sortedMissionIDs(missions map[model.FleetID]*ExplorationMission) []model.FleetID {
	ids := make([]model.FleetID, 0, len(missions))
	for id := range missions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
