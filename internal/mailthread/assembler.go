package mailthread

import (
	"log/slog"
	"sort"
	"sync"

	"docsmith/internal/logging"
)

// Assembler groups messages into threads for one directory. Matching state
// (seen identities, thread list) is guarded by a mutex so a pipeline worker
// can feed it while another queries progress, though Assemble itself
// processes messages sequentially to keep the greedy policy deterministic.
type Assembler struct {
	logger *slog.Logger

	mu      sync.Mutex
	threads map[string]*Thread
	order   []string            // thread keys in creation order
	seenIDs map[string]struct{} // message identities already threaded
}

// NewAssembler creates an empty assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{
		logger:  logging.NewComponentLogger(logger, "threads"),
		threads: make(map[string]*Thread),
		seenIDs: make(map[string]struct{}),
	}
}

// Assemble threads the given messages. Input order does not matter: the
// messages are first sorted by source path so discovery order is stable
// across runs, then matched one at a time. Each message lands in exactly
// one thread.
func (a *Assembler) Assemble(messages []*Message) []*Thread {
	sorted := make([]*Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SourcePath < sorted[j].SourcePath
	})

	for _, msg := range sorted {
		a.place(msg)
	}
	return a.Threads()
}

// Threads returns the assembled threads in creation order.
func (a *Assembler) Threads() []*Thread {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Thread, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.threads[key])
	}
	return out
}

// place runs the greedy matching policy for one message: reference match
// first (first matching thread wins), then subject match, else a new
// thread keyed by the message's own identity.
func (a *Assembler) place(msg *Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if thread := a.matchByReference(msg); thread != nil {
		thread.AddEmail(msg)
		a.seenIDs[msg.MessageID] = struct{}{}
		a.logger.Debug("threaded by reference",
			logging.String(logging.FieldFile, msg.SourcePath),
			logging.String(logging.FieldThreadKey, thread.Key))
		return
	}

	if thread := a.matchBySubject(msg); thread != nil {
		thread.AddEmail(msg)
		a.seenIDs[msg.MessageID] = struct{}{}
		a.logger.Debug("threaded by subject",
			logging.String(logging.FieldFile, msg.SourcePath),
			logging.String(logging.FieldThreadKey, thread.Key))
		return
	}

	thread := newThread(msg)
	a.threads[thread.Key] = thread
	a.order = append(a.order, thread.Key)
	a.seenIDs[msg.MessageID] = struct{}{}
	a.logger.Debug("new thread",
		logging.String(logging.FieldFile, msg.SourcePath),
		logging.String(logging.FieldThreadKey, thread.Key))
}

// matchByReference scans the candidate identities against already-seen
// messages; only identities that were actually observed in this directory
// can match. Assumes a.mu is held.
func (a *Assembler) matchByReference(msg *Message) *Thread {
	for _, candidate := range msg.ReferenceCandidates() {
		if _, seen := a.seenIDs[candidate]; !seen {
			continue
		}
		for _, key := range a.order {
			if a.threads[key].ContainsMessageID(candidate) {
				return a.threads[key]
			}
		}
	}
	return nil
}

// matchBySubject returns the first thread whose representative subject
// equals the message's, case-insensitively. Assumes a.mu is held.
func (a *Assembler) matchBySubject(msg *Message) *Thread {
	for _, key := range a.order {
		if a.threads[key].MatchesSubject(msg.Subject) {
			return a.threads[key]
		}
	}
	return nil
}
