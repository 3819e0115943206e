package monitoring

import (
	"fmt"
	"maps"
	"sync"

	"vigil/src/features/metrics"
	"vigil/src/integrity"
)

// Detector classifies raw filesystem events into change records. It owns
// the in-memory state store for the monitoring session and is its only
// mutator; the mutex is the single-writer serialization point and also
// covers concurrent snapshot readers.
type Detector struct {
	mu        sync.Mutex
	store     *integrity.Store
	statePath string
	policy    integrity.Policy
	chunkSize int
	clock     integrity.Clock
	trail     Trail
	recorder  *metrics.Recorder
}

// NewDetector creates a detector that takes ownership of store.
func NewDetector(store *integrity.Store, statePath string, policy integrity.Policy, chunkSize int, clock integrity.Clock, trail Trail, recorder *metrics.Recorder) *Detector {
	return &Detector{
		store:     store,
		statePath: statePath,
		policy:    policy,
		chunkSize: chunkSize,
		clock:     clock,
		trail:     trail,
		recorder:  recorder,
	}
}

// Handle processes one raw event: at most one persisted store mutation and
// one trail line. The store is persisted before the line is emitted.
// Directory events never participate.
func (d *Detector) Handle(ev Event) error {
	if ev.IsDir {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Kind {
	case EventCreated:
		return d.upsert(ev.Path, "", "CREATE_SKIP")
	case EventModified:
		return d.upsert(ev.Path, "", "MODIFY_SKIP")
	case EventDeleted:
		return d.remove(ev.Path, integrity.Deleted)
	case EventMoved:
		// The delete side is applied and persisted first, so
		// RENAMED_FROM always precedes RENAMED_TO in the trail.
		if err := d.remove(ev.Path, integrity.RenamedFrom); err != nil {
			return err
		}
		return d.upsert(ev.DestPath, integrity.RenamedTo, "RENAMED_TO_SKIP")
	}
	return nil
}

// Snapshot returns a deep copy of the tracked state for concurrent readers.
func (d *Detector) Snapshot() *integrity.Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	files := make(map[string]integrity.FileRecord, len(d.store.Files))
	maps.Copy(files, d.store.Files)
	return &integrity.Store{CreatedAt: d.store.CreatedAt, Files: files}
}

// TrackedCount returns the number of files currently tracked.
func (d *Detector) TrackedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.store.Files)
}

func (d *Detector) upsert(path string, forced integrity.Kind, skipEvent string) error {
	canon := integrity.CanonicalPath(path)
	if d.policy.Ignored(canon) || !integrity.IsRegularFile(canon) {
		return nil
	}

	rec, err := integrity.NewFileRecord(canon, d.chunkSize)
	if err != nil {
		d.recorder.ObserveChange(string(integrity.Skip))
		return d.emit(fmt.Sprintf("%s path=%s err=%v", skipEvent, canon, err))
	}

	old, existed := d.store.Files[canon]
	d.store.Files[canon] = rec
	if err := d.store.Save(d.statePath); err != nil {
		// Keep memory aligned with the durable state that survived.
		if existed {
			d.store.Files[canon] = old
		} else {
			delete(d.store.Files, canon)
		}
		return err
	}
	d.recorder.SetTracked(len(d.store.Files))

	var kind integrity.Kind
	var msg string
	switch {
	case forced == integrity.RenamedTo:
		kind = integrity.RenamedTo
		msg = fmt.Sprintf("%s path=%s sha256=%s", kind, canon, rec.SHA256)
	case !existed:
		kind = integrity.Created
		msg = fmt.Sprintf("%s path=%s sha256=%s", kind, canon, rec.SHA256)
	case old.SHA256 != rec.SHA256:
		kind = integrity.Modified
		msg = fmt.Sprintf("%s path=%s old=%s new=%s", kind, canon, old.SHA256, rec.SHA256)
	default:
		// Metadata churn only; the content digest is unchanged.
		kind = integrity.Touched
		msg = fmt.Sprintf("%s path=%s sha256=%s", kind, canon, rec.SHA256)
	}
	d.recorder.ObserveChange(string(kind))
	return d.emit(msg)
}

func (d *Detector) remove(path string, kind integrity.Kind) error {
	canon := integrity.CanonicalPath(path)
	if d.policy.Ignored(canon) {
		return nil
	}

	old, existed := d.store.Files[canon]
	if existed {
		delete(d.store.Files, canon)
	}
	if err := d.store.Save(d.statePath); err != nil {
		if existed {
			d.store.Files[canon] = old
		}
		return err
	}
	d.recorder.SetTracked(len(d.store.Files))

	last := integrity.UnknownDigest
	if existed {
		last = old.SHA256
	}
	d.recorder.ObserveChange(string(kind))
	return d.emit(fmt.Sprintf("%s path=%s last_sha256=%s", kind, canon, last))
}

func (d *Detector) emit(msg string) error {
	return d.trail.Append(integrity.Entry(d.clock.Now(), msg))
}
