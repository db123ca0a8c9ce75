package core

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"strings"

	"github.com/orionyard/jumpnet-simulator/internal/logging"
	"github.com/orionyard/jumpnet-simulator/model"
)

// NetworkManager maintains the system-to-system connectivity graph derived
// from jump points, and can generate a fresh network over a set of systems.
// Edge weights combine fuel and time modifiers with instability, so paths
// prefer cheap, calm routes.
type NetworkManager struct {
	connections map[model.SystemID][]model.SystemID
	graph       map[model.SystemID]map[model.SystemID]float64

	rng *rand.Rand
	log logging.Logger
}

// NewNetworkManager builds an empty manager drawing randomness from rng.
func NewNetworkManager(rng *rand.Rand, log logging.Logger) *NetworkManager {
	if log == nil {
		log = logging.Noop()
	}
	return &NetworkManager{
		connections: make(map[model.SystemID][]model.SystemID),
		graph:       make(map[model.SystemID]map[model.SystemID]float64),
		rng:         rng,
		log:         log,
	}
}

// Build rederives the whole graph from current jump point state. Points
// with no destination set, or whose destination system does not exist, are
// skipped.
func (n *NetworkManager) Build(systems map[model.SystemID]*model.StarSystem) {
	n.connections = make(map[model.SystemID][]model.SystemID)
	n.graph = make(map[model.SystemID]map[model.SystemID]float64)

	for systemID, system := range systems {
		for _, jp := range system.JumpPoints {
			if jp.ConnectsTo == "" {
				continue
			}
			if _, ok := systems[jp.ConnectsTo]; !ok {
				continue
			}
			n.addEdge(systemID, jp.ConnectsTo, edgeWeight(jp))
		}
	}
}

func (n *NetworkManager) addEdge(from, to model.SystemID, weight float64) {
	if n.graph[from] == nil {
		n.graph[from] = make(map[model.SystemID]float64)
	}
	if existing, ok := n.graph[from][to]; !ok || weight < existing {
		n.graph[from][to] = weight
	}

	for _, neighbor := range n.connections[from] {
		if neighbor == to {
			return
		}
	}
	n.connections[from] = append(n.connections[from], to)
}

// edgeWeight scores a jump point for pathfinding. An ideal point (neutral
// modifiers, full stability) weighs 1.0; instability roughly doubles it.
func edgeWeight(jp *model.JumpPoint) float64 {
	return jp.FuelCostModifier * jp.TravelTimeModifier * (2.0 - jp.Stability)
}

// Connections returns the direct neighbours of a system.
func (n *NetworkManager) Connections(systemID model.SystemID) []model.SystemID {
	neighbors := n.connections[systemID]
	out := make([]model.SystemID, len(neighbors))
	copy(out, neighbors)
	return out
}

// ShortestPath finds the minimum-weight route between two systems with
// Dijkstra's algorithm. Returns the full system sequence including both
// endpoints, an empty slice when no route exists, and a single-element path
// when origin equals target.
func (n *NetworkManager) ShortestPath(origin, target model.SystemID) []model.SystemID {
	if origin == target {
		return []model.SystemID{origin}
	}

	dist := map[model.SystemID]float64{origin: 0}
	prev := make(map[model.SystemID]model.SystemID)
	visited := make(map[model.SystemID]bool)

	pq := &systemQueue{{id: origin, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(systemItem)
		if visited[item.id] {
			continue
		}
		visited[item.id] = true

		if item.id == target {
			break
		}

		for neighbor, weight := range n.graph[item.id] {
			if visited[neighbor] {
				continue
			}
			candidate := item.cost + weight
			if existing, ok := dist[neighbor]; !ok || candidate < existing {
				dist[neighbor] = candidate
				prev[neighbor] = item.id
				heap.Push(pq, systemItem{id: neighbor, cost: candidate})
			}
		}
	}

	if !visited[target] {
		return []model.SystemID{}
	}

	var path []model.SystemID
	for at := target; ; {
		path = append([]model.SystemID{at}, path...)
		if at == origin {
			break
		}
		at = prev[at]
	}
	return path
}

// Reachable returns every system within maxHops of the origin, mapped to
// its hop distance. The origin itself appears with distance zero.
func (n *NetworkManager) Reachable(origin model.SystemID, maxHops int) map[model.SystemID]int {
	return bfsReachable(n.connections, origin, maxHops)
}

// bfsReachable is a hop-bounded breadth-first traversal over an adjacency
// map. Shared with faction-scoped reachability, which passes a filtered
// adjacency.
func bfsReachable(adjacency map[model.SystemID][]model.SystemID, origin model.SystemID, maxHops int) map[model.SystemID]int {
	reachable := map[model.SystemID]int{origin: 0}
	frontier := []model.SystemID{origin}

	for hops := 1; hops <= maxHops && len(frontier) > 0; hops++ {
		var next []model.SystemID
		for _, systemID := range frontier {
			for _, neighbor := range adjacency[systemID] {
				if _, seen := reachable[neighbor]; seen {
					continue
				}
				reachable[neighbor] = hops
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return reachable
}

// Generate wipes all jump points and builds a fresh network over the given
// systems. A greedy nearest-neighbour backbone guarantees every system is
// connected; secondary links up to roughly connectivity * the full-mesh
// edge count add redundancy. Some links come out unstable or dormant.
func (n *NetworkManager) Generate(systems []*model.StarSystem, connectivity float64) {
	if len(systems) < 2 {
		return
	}

	for _, system := range systems {
		system.JumpPoints = nil
	}

	type edge struct{ a, b int }
	var edges []edge
	linked := func(a, b int) bool {
		for _, e := range edges {
			if (e.a == a && e.b == b) || (e.a == b && e.b == a) {
				return true
			}
		}
		return false
	}

	// Backbone: grow a spanning tree by always linking the nearest
	// unconnected system to the connected set.
	connected := []int{0}
	remaining := make([]int, 0, len(systems)-1)
	for i := 1; i < len(systems); i++ {
		remaining = append(remaining, i)
	}

	for len(remaining) > 0 {
		bestFrom, bestTo, bestIdx := -1, -1, -1
		bestDist := math.Inf(1)
		for _, from := range connected {
			for idx, to := range remaining {
				d := n.syntheticDistance(systems[from], systems[to])
				if d < bestDist {
					bestDist = d
					bestFrom, bestTo, bestIdx = from, to, idx
				}
			}
		}
		edges = append(edges, edge{a: bestFrom, b: bestTo})
		connected = append(connected, bestTo)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	// Secondary links for redundancy.
	count := len(systems)
	target := int(float64(count*(count-1)) / 2.0 * connectivity)
	for attempts := 0; len(edges) < target && attempts < count*count; attempts++ {
		a := n.rng.Intn(count)
		b := n.rng.Intn(count)
		if a == b || linked(a, b) {
			continue
		}
		d := n.syntheticDistance(systems[a], systems[b])
		if n.rng.Float64() < math.Max(0.1, 1.0-d/10.0) {
			edges = append(edges, edge{a: a, b: b})
		}
	}

	for _, e := range edges {
		n.linkSystems(systems[e.a], systems[e.b])
	}

	// Specials: each system independently rolls for one extra unstable
	// outbound point and one dormant outbound point to a random other
	// system.
	for i, system := range systems {
		if n.rng.Float64() < 0.2 {
			if other := n.randomOther(systems, i); other != nil {
				system.JumpPoints = append(system.JumpPoints, n.createJumpPoint(other, model.JumpUnstable))
			}
		}
		if n.rng.Float64() < 0.1 {
			if other := n.randomOther(systems, i); other != nil {
				system.JumpPoints = append(system.JumpPoints, n.createJumpPoint(other, model.JumpDormant))
			}
		}
	}

	n.log.Info(context.Background(), "jump network generated",
		logging.Int("systems", len(systems)),
		logging.Int("links", len(edges)),
	)
}

func (n *NetworkManager) randomOther(systems []*model.StarSystem, self int) *model.StarSystem {
	if len(systems) < 2 {
		return nil
	}
	idx := n.rng.Intn(len(systems) - 1)
	if idx >= self {
		idx++
	}
	return systems[idx]
}

// syntheticDistance is an abstract closeness score for generation, not a
// physical distance: similar stars with similar planet counts come out
// close, plus a random spread.
func (n *NetworkManager) syntheticDistance(a, b *model.StarSystem) float64 {
	d := math.Abs(a.StarMass - b.StarMass)
	d += 0.5 * math.Abs(float64(len(a.Planets)-len(b.Planets)))
	d += 0.5 + n.rng.Float64()*1.5
	return d
}

// linkSystems creates a reciprocal pair of natural jump points between two
// systems.
func (n *NetworkManager) linkSystems(a, b *model.StarSystem) {
	a.JumpPoints = append(a.JumpPoints, n.createJumpPoint(b, model.JumpNatural))
	b.JumpPoints = append(b.JumpPoints, n.createJumpPoint(a, model.JumpNatural))
}

// createJumpPoint places one end of a link in the outer reaches of its
// system, 2-6 AU out.
func (n *NetworkManager) createJumpPoint(to *model.StarSystem, kind model.JumpPointKind) *model.JumpPoint {
	r := (2.0 + n.rng.Float64()*4.0) * model.AUToKm
	angle := n.rng.Float64() * 2 * math.Pi

	name := "JP-" + strings.ToUpper(shortName(to.Name))
	jp := model.NewJumpPoint(name, model.Vec3{
		X: r * math.Cos(angle),
		Y: r * math.Sin(angle),
		Z: (n.rng.Float64()*0.1 - 0.05) * r,
	}, to.ID)

	jp.Kind = kind
	switch kind {
	case model.JumpUnstable:
		jp.Stability = 0.3 + n.rng.Float64()*0.4
	case model.JumpDormant:
		jp.Stability = 0.5 + n.rng.Float64()*0.4
		jp.Status = model.PointInactive
	default:
		jp.Stability = 0.8 + n.rng.Float64()*0.2
	}

	jp.SizeClass = 1 + n.rng.Intn(4)
	jp.ExplorationDifficulty = 0.8 + n.rng.Float64()*0.7
	jp.FuelCostModifier = 0.9 + n.rng.Float64()*0.2
	jp.TravelTimeModifier = 0.9 + n.rng.Float64()*0.2
	return jp
}

func shortName(name string) string {
	trimmed := strings.ReplaceAll(name, " ", "")
	if len(trimmed) <= 3 {
		return trimmed
	}
	return trimmed[:3]
}

// systemQueue is a min-heap of systems ordered by accumulated path cost.
type systemItem struct {
	id   model.SystemID
	cost float64
}

type systemQueue []systemItem

func (q systemQueue) Len() int           { return len(q) }
func (q systemQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q systemQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *systemQueue) Push(x any)        { *q = append(*q, x.(systemItem)) }
func (q *systemQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
