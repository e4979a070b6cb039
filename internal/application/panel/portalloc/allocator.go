// Package portalloc assigns node-side port triples to panels.
package portalloc

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"

	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
)

// DefaultReservedPorts are never handed out even when inside the range.
var DefaultReservedPorts = []int{22, 80, 443, 2053, 8080, 8443}

// Allocator hands out three distinct free ports per panel, drawn uniformly at
// random from the configured range and sorted ascending so the triple maps to
// xray < api < inbound. The mutex serializes scan-and-reserve within this
// process; the unique indexes on the port columns are the storage backstop.
type Allocator struct {
	mu sync.Mutex

	panels     panelDomain.Repository
	rangeStart int
	rangeEnd   int
	reserved   map[int]struct{}
}

func NewAllocator(panels panelDomain.Repository, rangeStart, rangeEnd int, reserved []int) *Allocator {
	if rangeStart <= 0 {
		rangeStart = 20000
	}
	if rangeEnd <= rangeStart {
		rangeEnd = 30000
	}
	set := make(map[int]struct{}, len(reserved))
	for _, p := range reserved {
		set[p] = struct{}{}
	}
	return &Allocator{
		panels:     panels,
		rangeStart: rangeStart,
		rangeEnd:   rangeEnd,
		reserved:   set,
	}
}

// Allocate returns a fresh port triple. It scans every allocated port across
// all panels on each call; the pool is small enough that a scan beats keeping
// a second source of truth in sync.
func (a *Allocator) Allocate(ctx context.Context) (panelDomain.PortAssignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	allocated, err := a.panels.ListAllocatedPorts(ctx)
	if err != nil {
		return panelDomain.PortAssignment{}, err
	}

	taken := make(map[int]struct{}, len(allocated)+len(a.reserved))
	for p := range a.reserved {
		taken[p] = struct{}{}
	}
	for _, p := range allocated {
		taken[p] = struct{}{}
	}

	free := make([]int, 0, a.rangeEnd-a.rangeStart)
	for p := a.rangeStart; p < a.rangeEnd; p++ {
		if _, ok := taken[p]; !ok {
			free = append(free, p)
		}
	}

	if len(free) < 3 {
		return panelDomain.PortAssignment{}, errors.NewConflictError("port capacity exhausted",
			"fewer than 3 free ports remain in the allocation range")
	}

	picks := make([]int, 3)
	for i := range picks {
		j := rand.IntN(len(free) - i)
		picks[i] = free[j]
		free[j] = free[len(free)-1-i]
	}
	sort.Ints(picks)

	return panelDomain.NewPortAssignment(picks[0], picks[1], picks[2])
}
