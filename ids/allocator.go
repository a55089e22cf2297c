package ids

import (
	"fmt"

	"github.com/mvp-express/the-framework/internal/errs"
)

// Mode selects how an Allocator reconciles a schema against a lockfile.
type Mode int

const (
	// OFF allocates without consulting or writing the lockfile.
	OFF Mode = iota
	// CHECK loads the lockfile and fails on any drift; never writes (CI mode).
	CHECK
	// WRITE loads the lockfile, allocates missing ids, overwrites drift, and
	// persists the result (local development mode).
	WRITE
)

func (m Mode) String() string {
	switch m {
	case OFF:
		return "OFF"
	case CHECK:
		return "CHECK"
	case WRITE:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Allocator assigns stable numeric ids to services, methods, and messages, backed by
// a Lock.
type Allocator struct {
	mode Mode
	lock *Lock

	// usedServices/usedMessages track ids claimed during this run, keyed by id,
	// mapping to the owning symbol name so conflicts can be reported.
	usedServices map[int]string
	usedMessages map[int]string
	usedMethods  map[string]map[int]string // keyed by service name
}

// NewAllocator constructs an Allocator in the given mode over lock.
func NewAllocator(mode Mode, lock *Lock) *Allocator {
	if lock == nil {
		lock = NewLock()
	}
	a := &Allocator{
		mode:         mode,
		lock:         lock,
		usedServices: map[int]string{},
		usedMessages: map[int]string{},
		usedMethods:  map[string]map[int]string{},
	}
	for name, id := range lock.Services {
		a.usedServices[id] = name
	}
	for name, id := range lock.Messages {
		a.usedMessages[id] = name
	}
	for qualified, id := range lock.Methods {
		svc, _ := splitQualifiedMethod(qualified)
		set := a.usedMethods[svc]
		if set == nil {
			set = map[int]string{}
			a.usedMethods[svc] = set
		}
		set[id] = qualified
	}
	return a
}

// Lock returns the Allocator's working Lock. In WRITE mode, Save it back to disk
// after a full schema has been assigned.
func (a *Allocator) Lock() *Lock { return a.lock }

func splitQualifiedMethod(qualified string) (service, method string) {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[:i], qualified[i+1:]
		}
	}
	return qualified, ""
}

// ResolveServiceAlias follows aliases.services chains up to 10 hops.
func (a *Allocator) ResolveServiceAlias(name string) (string, error) {
	return resolveAlias(a.lock.AliasServices, name)
}

// ResolveMessageAlias follows aliases.messages chains up to 10 hops.
func (a *Allocator) ResolveMessageAlias(name string) (string, error) {
	return resolveAlias(a.lock.AliasMessages, name)
}

const maxAliasHops = 10

func resolveAlias(aliases map[string]string, name string) (string, error) {
	seen := name
	for i := 0; i < maxAliasHops; i++ {
		next, ok := aliases[seen]
		if !ok {
			return seen, nil
		}
		seen = next
	}
	if _, ok := aliases[seen]; ok {
		return "", errs.New(errs.CatUser, errs.TypeAliasCycle,
			fmt.Sprintf("ids: alias chain for %q did not terminate within %d hops", name, maxAliasHops))
	}
	return seen, nil
}

// AssignService determines the numeric id for a service.
// explicitID is the schema's requested id, or -1 if the schema leaves it unset.
func (a *Allocator) AssignService(name string, explicitID int) (int, error) {
	id, err := a.assign(assignRequest{
		symbol:     name,
		canonical:  canonicalService(name),
		space:      ServiceSpace,
		explicitID: explicitID,
		locked:     a.lock.Services,
		used:       a.usedServices,
		tombstoned: a.lock.TombstoneServices,
		maxProbes:  maxGlobalProbes,
	})
	if err != nil {
		return 0, err
	}
	if a.mode != OFF {
		a.lock.Services[name] = id
	}
	a.usedServices[id] = name
	return id, nil
}

// AssignMethod determines the numeric id for a (service, method) pair, scoped to the
// service's own method-id space.
func (a *Allocator) AssignMethod(service, method string, explicitID int) (int, error) {
	qualified := service + "." + method
	used := a.usedMethods[service]
	if used == nil {
		used = map[int]string{}
		a.usedMethods[service] = used
	}
	tombstoned := a.lock.TombstoneMethods[service]
	if tombstoned == nil {
		tombstoned = map[int]bool{}
	}

	id, err := a.assign(assignRequest{
		symbol:     qualified,
		canonical:  canonicalMethod(service, method),
		space:      MethodSpace,
		explicitID: explicitID,
		locked:     a.lock.Methods,
		lockedKey:  qualified,
		used:       used,
		tombstoned: tombstoned,
		maxProbes:  maxMethodProbes,
	})
	if err != nil {
		return 0, err
	}
	if a.mode != OFF {
		a.lock.Methods[qualified] = id
	}
	used[id] = qualified
	return id, nil
}

// AssignMessage determines the numeric id for a message. In CHECK
// mode a message absent from the lock is a MissingInLockCheckMode failure rather than
// a fresh allocation.
func (a *Allocator) AssignMessage(name string, explicitID int) (int, error) {
	// A renamed message keeps the id locked under an old name whose alias chain
	// resolves to name.
	if _, ok := a.lock.Messages[name]; !ok {
		for old, id := range a.lock.Messages {
			if _, aliased := a.lock.AliasMessages[old]; !aliased {
				continue
			}
			if resolved, err := resolveAlias(a.lock.AliasMessages, old); err == nil && resolved == name {
				a.lock.Messages[name] = id
				break
			}
		}
	}
	if explicitID < 0 && a.mode == CHECK {
		if _, ok := a.lock.Messages[name]; !ok {
			return 0, errs.New(errs.CatUser, errs.TypeMissingInCheckMode,
				fmt.Sprintf("ids: message %q has no lockfile entry; run WRITE mode locally to assign one", name))
		}
	}
	id, err := a.assign(assignRequest{
		symbol:     name,
		canonical:  canonicalMessage(name),
		space:      MessageSpace,
		explicitID: explicitID,
		locked:     a.lock.Messages,
		used:       a.usedMessages,
		tombstoned: a.lock.TombstoneMessages,
		maxProbes:  maxGlobalProbes,
	})
	if err != nil {
		return 0, err
	}
	if a.mode != OFF {
		a.lock.Messages[name] = id
	}
	a.usedMessages[id] = name
	return id, nil
}

// assignRequest bundles the space-specific state assign needs; locked/lockedKey let
// the service/message maps (keyed directly by symbol) and the method map (keyed by a
// separately-computed qualified name) share one code path.
type assignRequest struct {
	symbol     string
	canonical  string
	space      Space
	explicitID int
	locked     map[string]int
	lockedKey  string // overrides symbol as the locked-map key when non-empty
	used       map[int]string
	tombstoned map[int]bool
	maxProbes  int
}

func (a *Allocator) assign(req assignRequest) (int, error) {
	lockedKey := req.lockedKey
	if lockedKey == "" {
		lockedKey = req.symbol
	}

	if req.explicitID >= 0 {
		return a.assignExplicit(req, lockedKey)
	}

	if lockedID, ok := req.locked[lockedKey]; ok {
		return lockedID, nil
	}

	if a.mode == CHECK {
		return 0, errs.New(errs.CatUser, errs.TypeMissingInCheckMode,
			fmt.Sprintf("ids: %q has no lockfile entry; run WRITE mode locally to assign one", req.symbol))
	}

	return a.allocateDeterministic(req)
}

func (a *Allocator) assignExplicit(req assignRequest, lockedKey string) (int, error) {
	id := req.explicitID
	if !req.space.Contains(id) {
		return 0, errs.New(errs.CatUser, errs.TypeOutOfRange,
			fmt.Sprintf("ids: %q requests id %d outside range [%d, %d]", req.symbol, id, req.space.Min, req.space.Max))
	}
	if req.tombstoned[id] {
		return 0, errs.New(errs.CatUser, errs.TypeTombstoned,
			fmt.Sprintf("ids: %q requests tombstoned id %d", req.symbol, id))
	}
	if owner, ok := req.used[id]; ok && owner != req.symbol {
		return 0, errs.New(errs.CatUser, errs.TypeAlreadyInUse,
			fmt.Sprintf("ids: %q requests id %d already used by %q", req.symbol, id, owner))
	}

	lockedID, hasLock := req.locked[lockedKey]
	if hasLock && lockedID != id {
		if a.mode == CHECK {
			return 0, errs.New(errs.CatUser, errs.TypeLockDrift,
				fmt.Sprintf("ids: %q is locked to id %d but schema requests %d", req.symbol, lockedID, id))
		}
		// WRITE mode: the schema's explicit id is a deliberate local override.
	}
	return id, nil
}

func (a *Allocator) allocateDeterministic(req assignRequest) (int, error) {
	for k := 0; k <= req.maxProbes; k++ {
		candidate := mapToSpace(fnv1a32(probeName(req.canonical, k)), req.space)
		if req.tombstoned[candidate] {
			continue
		}
		if _, taken := req.used[candidate]; taken {
			continue
		}
		return candidate, nil
	}
	return 0, errs.New(errs.CatInternal, errs.TypeProbeExhausted,
		fmt.Sprintf("ids: exhausted %d probe attempts allocating an id for %q", req.maxProbes, req.symbol))
}
