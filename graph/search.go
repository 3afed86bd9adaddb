package graph

import (
	"container/heap"
)

// searchNode represents a node in the A* search
type searchNode struct {
	id     int     // ID of the node in the graph
	g      float64 // Cost from start to this node
	f      float64 // g plus the straight-line distance to the goal
	parent *searchNode
	index  int // Index in the heap
}

// priorityQueue implements heap.Interface ordered by f.
type priorityQueue []*searchNode

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].f < pq[j].f
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	node := x.(*searchNode)
	node.index = len(*pq)
	*pq = append(*pq, node)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[0 : n-1]
	return node
}

// ShortestPath returns the minimum-cost path from start to end and its
// length, searching with A* and the straight-line distance to end as the
// heuristic. The heuristic never overestimates on visibility graphs, whose
// edge costs are Euclidean distances. ok is false when end is unreachable or
// either id is not in the graph.
func ShortestPath(g *Graph, start, end int) (path []int, length float64, ok bool) {
	if g == nil {
		return nil, 0, false
	}
	startPoint, found := g.Nodes[start]
	if !found {
		return nil, 0, false
	}
	endPoint, found := g.Nodes[end]
	if !found {
		return nil, 0, false
	}

	openSet := &priorityQueue{}
	heap.Init(openSet)

	startNode := &searchNode{id: start, f: startPoint.Distance(endPoint)}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := map[int]*searchNode{start: startNode}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.id)

		if current.id == end {
			for n := current; n != nil; n = n.parent {
				path = append(path, n.id)
			}
			reverse(path)
			return path, current.g, true
		}

		closedSet[current.id] = true

		for _, edge := range g.Edges[current.id] {
			if closedSet[edge.To] {
				continue
			}

			tentativeG := current.g + edge.Cost
			h := g.Nodes[edge.To].Distance(endPoint)

			neighbor, exists := openSetMap[edge.To]
			if !exists {
				neighbor = &searchNode{
					id:     edge.To,
					g:      tentativeG,
					f:      tentativeG + h,
					parent: current,
				}
				heap.Push(openSet, neighbor)
				openSetMap[edge.To] = neighbor
			} else if tentativeG < neighbor.g {
				neighbor.g = tentativeG
				neighbor.f = tentativeG + h
				neighbor.parent = current
				heap.Fix(openSet, neighbor.index)
			}
		}
	}

	return nil, 0, false
}

// BreadthFirstPath returns the path from start to end with the fewest edges,
// expanding neighbours in edge insertion order, and the sum of its edge
// costs. That path is not necessarily the shortest by length.
func BreadthFirstPath(g *Graph, start, end int) (path []int, length float64, ok bool) {
	if g == nil {
		return nil, 0, false
	}
	if _, found := g.Nodes[start]; !found {
		return nil, 0, false
	}
	if _, found := g.Nodes[end]; !found {
		return nil, 0, false
	}

	type step struct {
		parent int
		cost   float64
	}
	visited := map[int]step{start: {parent: -1}}
	queue := []int{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == end {
			for id := end; id != start; id = visited[id].parent {
				path = append(path, id)
				length += visited[id].cost
			}
			path = append(path, start)
			reverse(path)
			return path, length, true
		}

		for _, edge := range g.Edges[current] {
			if _, seen := visited[edge.To]; seen {
				continue
			}
			visited[edge.To] = step{parent: current, cost: edge.Cost}
			queue = append(queue, edge.To)
		}
	}

	return nil, 0, false
}

func reverse(ids []int) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
