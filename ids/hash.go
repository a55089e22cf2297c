// Package ids implements the deterministic ID allocator and its persistent lockfile.
// Shaped after clawc/internal/vcs, which also persists a small, hand-escaped
// key/value state file across builds (a git-derived version string there; a
// name→id mapping here), and after clawc's overall pattern of a single-threaded,
// single-build-invocation tool that reads then rewrites project state; the
// lockfile here is likewise exclusively owned by a single build invocation.
package ids

import (
	"hash/fnv"
	"strconv"
)

// Space is an inclusive numeric ID range.
type Space struct {
	Min, Max int
}

// Contains reports whether id falls within the space.
func (s Space) Contains(id int) bool { return id >= s.Min && id <= s.Max }

var (
	// ServiceSpace is the numeric ID range for services.
	ServiceSpace = Space{Min: 32, Max: 64999}
	// MessageSpace is the numeric ID range for messages.
	MessageSpace = Space{Min: 32, Max: 64000}
	// MethodSpace is the numeric ID range for methods, scoped per service.
	MethodSpace = Space{Min: 16, Max: 239}
)

// maxGlobalProbes bounds probing in the service and message spaces.
const maxGlobalProbes = 4096

// maxMethodProbes bounds probing in the per-service method space.
const maxMethodProbes = 1024

// fnv1a32 computes the 32-bit FNV-1a hash of s. The exact algorithm is a
// wire/ID-compatibility constant: changing it would silently reassign every ID
// already shipped, so it is never swapped for a different hash implementation.
func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// canonicalService returns the canonical hash input for a service name.
func canonicalService(name string) string { return "Service:" + name }

// canonicalMessage returns the canonical hash input for a message name.
func canonicalMessage(name string) string { return "Message:" + name }

// canonicalMethod returns the canonical hash input for a (service, method) pair.
func canonicalMethod(service, method string) string { return service + "." + method }

// mapToSpace maps a hash to an ID within [space.Min, space.Max].
func mapToSpace(h uint32, space Space) int {
	width := uint32(space.Max - space.Min + 1)
	return space.Min + int(h%width)
}

// probeName appends "#k" to name for the kth probe attempt.
func probeName(name string, k int) string {
	if k == 0 {
		return name
	}
	return name + "#" + strconv.Itoa(k)
}
