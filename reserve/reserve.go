// Package reserve implements the path reservation scheduler (component
// C of the extraction engine): a dependency-free queueing structure
// that lets many filesystem operations run concurrently while
// guaranteeing that no two in-flight operations touch the same path,
// or the same ancestor directory, in a conflicting order.
//
// There is no pack repo with an equivalent primitive; this is written
// directly from the node-tar reservation semantics it is distilled
// from (see DESIGN.md), in the single-purpose-package shape rclone's
// lib/* packages use.
package reserve

import (
	"sync"
	"time"

	"github.com/dsanders11/tarfs/logx"
	"github.com/dsanders11/tarfs/pathcanon"
)

// Handler is the unit of work a reservation guards. It receives a
// release callback that must be invoked exactly once when the
// handler's filesystem work is complete.
type Handler func(release func())

// slot is one entry in a path's FIFO queue: either an exclusive
// reservation on a leaf path, or a shared reservation (one or more
// handlers) on an ancestor directory.
type slot struct {
	exclusive bool
	excl      *reservation
	shared    map[*reservation]struct{}
}

type reservation struct {
	paths   []string
	dirs    []string
	fn      Handler
	started bool
}

const sentinelPath = "\x00reserve-sentinel"

// Scheduler is the concurrency primitive described above. The zero
// value is not usable; construct with New.
type Scheduler struct {
	mu       sync.Mutex
	queues   map[string][]*slot
	degraded bool

	// StallAfter, if non-zero, causes a debug-time warning to be
	// logged (never an error returned to the caller) when a
	// reservation sits ineligible for longer than this duration — the
	// "debug-time assertion" spec §4.3/§9 allow for diagnosing a
	// handler that never calls release. It has no effect on
	// correctness or scheduling order.
	StallAfter time.Duration
}

// New constructs an empty Scheduler. When degraded is true the
// scheduler applies the platform-degradation rule of spec §4.3: every
// Reserve call is serialized behind one sentinel path, matching
// filesystems (8.3 short names, non-precomputable case folding,
// non-atomic rename) where path-level parallelism is unsafe.
func New(degraded bool) *Scheduler {
	return &Scheduler{
		queues:   make(map[string][]*slot),
		degraded: degraded,
	}
}

// Ancestors returns the chain of proper ancestor directories of a
// canonical path, ordered from the filesystem root down to (but
// excluding) the path's immediate parent's child position — i.e. down
// to and including the immediate parent. For "/a/b/c" this is
// {"/", "/a", "/a/b"}.
func Ancestors(canon string) []string {
	root, rest := splitRoot(canon)
	rest = trimTrailingSlash(rest)
	if rest == "" {
		return nil
	}
	segments := splitSegments(rest)
	result := make([]string, 0, len(segments))
	if root != "" {
		result = append(result, root)
	}
	cur := root
	for i := 0; i < len(segments)-1; i++ {
		if cur == "" {
			cur = segments[i]
		} else if cur[len(cur)-1] == '/' {
			cur = cur + segments[i]
		} else {
			cur = cur + "/" + segments[i]
		}
		result = append(result, cur)
	}
	return result
}

func splitRoot(p string) (root, rest string) {
	if len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && p[2] == '/' {
		return p[:3], p[3:]
	}
	if len(p) > 0 && p[0] == '/' {
		return "/", p[1:]
	}
	return "", p
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func splitSegments(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Reserve canonicalizes paths, registers a reservation covering them
// and their ancestor directories, and starts fn immediately if it is
// already eligible (reporting true), or leaves it queued to be started
// by a later Release call (reporting false). fn is never invoked
// synchronously within this call's own goroutine stack, per spec
// §4.3 ("must not be invoked recursively from within its own reserve()
// call").
func (s *Scheduler) Reserve(paths []string, fn Handler) bool {
	canonPaths := dedupeCanon(paths)
	if s.degraded {
		canonPaths = []string{sentinelPath}
	}

	dirSet := make(map[string]struct{})
	for _, p := range canonPaths {
		for _, d := range Ancestors(p) {
			dirSet[d] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}

	r := &reservation{paths: canonPaths, dirs: dirs, fn: fn}

	s.mu.Lock()
	for _, p := range canonPaths {
		s.queues[p] = append(s.queues[p], &slot{exclusive: true, excl: r})
	}
	for _, d := range dirs {
		q := s.queues[d]
		if n := len(q); n > 0 && !q[n-1].exclusive {
			q[n-1].shared[r] = struct{}{}
		} else {
			s.queues[d] = append(s.queues[d], &slot{shared: map[*reservation]struct{}{r: {}}})
		}
	}

	eligible := s.isEligible(r)
	if eligible {
		r.started = true
	} else if s.StallAfter > 0 {
		time.AfterFunc(s.StallAfter, func() { s.warnIfStalled(r) })
	}
	s.mu.Unlock()

	if eligible {
		s.dispatch(r)
	}
	return eligible
}

func (s *Scheduler) warnIfStalled(r *reservation) {
	s.mu.Lock()
	started := r.started
	s.mu.Unlock()
	if !started {
		logx.Errorf(nil, "reservation on %v still blocked after %s; a handler upstream may have forgotten to call release", r.paths, s.StallAfter)
	}
}

// isEligible must be called with s.mu held.
func (s *Scheduler) isEligible(r *reservation) bool {
	for _, p := range r.paths {
		q := s.queues[p]
		if len(q) == 0 || !q[0].exclusive || q[0].excl != r {
			return false
		}
	}
	for _, d := range r.dirs {
		q := s.queues[d]
		if len(q) == 0 || q[0].exclusive {
			return false
		}
		if _, ok := q[0].shared[r]; !ok {
			return false
		}
	}
	return true
}

func (s *Scheduler) dispatch(r *reservation) {
	go r.fn(func() { s.release(r) })
}

func (s *Scheduler) release(r *reservation) {
	s.mu.Lock()

	for _, p := range r.paths {
		q := s.queues[p]
		if idx := indexOfExclusive(q, r); idx >= 0 {
			q = removeAt(q, idx)
		}
		s.setQueue(p, q)
	}
	for _, d := range r.dirs {
		q := s.queues[d]
		if idx := indexOfShared(q, r); idx >= 0 {
			delete(q[idx].shared, r)
			if len(q[idx].shared) == 0 {
				q = removeAt(q, idx)
			}
		}
		s.setQueue(d, q)
	}

	candidates := make(map[*reservation]struct{})
	for _, p := range r.paths {
		headCandidates(s.queues[p], candidates)
	}
	for _, d := range r.dirs {
		headCandidates(s.queues[d], candidates)
	}

	var newlyEligible []*reservation
	for cand := range candidates {
		if !cand.started && s.isEligible(cand) {
			cand.started = true
			newlyEligible = append(newlyEligible, cand)
		}
	}
	s.mu.Unlock()

	for _, cand := range newlyEligible {
		s.dispatch(cand)
	}
}

func (s *Scheduler) setQueue(key string, q []*slot) {
	if len(q) == 0 {
		delete(s.queues, key)
		return
	}
	s.queues[key] = q
}

func headCandidates(q []*slot, out map[*reservation]struct{}) {
	if len(q) == 0 {
		return
	}
	head := q[0]
	if head.exclusive {
		out[head.excl] = struct{}{}
		return
	}
	for r := range head.shared {
		out[r] = struct{}{}
	}
}

func indexOfExclusive(q []*slot, r *reservation) int {
	for i, sl := range q {
		if sl.exclusive && sl.excl == r {
			return i
		}
	}
	return -1
}

func indexOfShared(q []*slot, r *reservation) int {
	for i, sl := range q {
		if !sl.exclusive {
			if _, ok := sl.shared[r]; ok {
				return i
			}
		}
	}
	return -1
}

func removeAt(q []*slot, idx int) []*slot {
	return append(q[:idx], q[idx+1:]...)
}

func dedupeCanon(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		c := pathcanon.CacheKey(p)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
