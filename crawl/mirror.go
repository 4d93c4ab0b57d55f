// Package crawl mirrors a bounded website to local storage.
// It coordinates admission, throttled fetching with retry, link
// extraction, and storage of pages and assets.
package crawl

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/locmirror"
	"golang.org/x/sync/errgroup"
)

// DefaultExpectedTargets sizes the admission filter when Mirror.ExpectedTargets is zero.
const DefaultExpectedTargets = 100_000

// Mirror drives one mirroring run from a root page.
type Mirror struct {
	// Scope is the URL prefix a page must start with to be traversed.
	// Assets are never scope-filtered.
	Scope string

	Mapper    locmirror.PathMapper
	Extractor locmirror.LinkExtractor
	Store     locmirror.Store

	// Gate fetches admitted Targets. When nil, each run builds a Gate
	// from the fields below with a fresh ErrorTally.
	Gate locmirror.FetchGate

	Fetcher    locmirror.Fetcher
	Classifier locmirror.OriginClassifier
	Limiter    locmirror.OriginLimiter
	Observer   locmirror.AttemptObserver

	// Origin is the limiter key for Throttled requests.
	Origin     string
	RetryLimit int

	// ExpectedTargets sizes the admission Bloom filter.
	ExpectedTargets uint
}

// Result summarizes a mirroring run.
type Result struct {
	Saved   int
	Resumed int
	Skipped int
	Dropped int
	Bytes   int64
}

// ProgressType indicates what happened to a Target.
type ProgressType int

const (
	// ProgressSaved means the Target was fetched and written.
	ProgressSaved ProgressType = iota
	// ProgressResumed means a page saved by an earlier run was re-read for links.
	ProgressResumed
	// ProgressSkipped means an asset saved by an earlier run was left alone.
	ProgressSkipped
	// ProgressDropped means the Target will not be saved in this run.
	ProgressDropped
)

// String returns the progress type name used in logs.
func (p ProgressType) String() string {
	switch p {
	case ProgressSaved:
		return "saved"
	case ProgressResumed:
		return "resumed"
	case ProgressSkipped:
		return "skipped"
	case ProgressDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ProgressEvent reports the terminal state of one Target.
type ProgressEvent struct {
	Type   ProgressType
	Target locmirror.Target
	Path   string

	// Outcome is the gate outcome for fetched Targets.
	Outcome locmirror.Outcome

	// Err is the drop reason, or a link extraction failure on a saved page.
	Err   error
	Bytes int
}

// ProgressFunc is a callback for reporting mirror progress.
// Calls are serialized.
type ProgressFunc func(event ProgressEvent)

// run holds the state of one call to Mirror.Run.
type run struct {
	m        *Mirror
	ctx      context.Context
	admitted locmirror.Admitter
	gate     locmirror.FetchGate
	g        errgroup.Group

	mu       sync.Mutex
	progress ProgressFunc

	saved, resumed, skipped, dropped atomic.Int64
	bytes                            atomic.Int64
}

// Run mirrors rootURL and everything reachable from it, returning once no
// Target remains pending. Per-target failures are reported through
// progress and counted in the Result; they never abort the run.
func (m *Mirror) Run(ctx context.Context, rootURL string, progress ProgressFunc) (*Result, error) {
	if !strings.HasPrefix(rootURL, m.Scope) {
		return nil, locmirror.Errorf(locmirror.EINVALID, "root URL %s is outside scope %s", rootURL, m.Scope)
	}
	if _, err := m.Mapper.PagePath(rootURL); err != nil {
		return nil, err
	}

	n := m.ExpectedTargets
	if n == 0 {
		n = DefaultExpectedTargets
	}

	gate := m.Gate
	if gate == nil {
		gate = &Gate{
			Classifier: m.Classifier,
			Fetcher:    m.Fetcher,
			Limiter:    m.Limiter,
			Observer:   m.Observer,
			Origin:     m.Origin,
			RetryLimit: m.RetryLimit,
			Tally:      NewErrorTally(),
		}
	}

	r := &run{
		m:        m,
		ctx:      ctx,
		admitted: NewRegistry(n, 0.001),
		gate:     gate,
		progress: progress,
	}

	r.spawn(locmirror.Page(rootURL))
	_ = r.g.Wait()

	return &Result{
		Saved:   int(r.saved.Load()),
		Resumed: int(r.resumed.Load()),
		Skipped: int(r.skipped.Load()),
		Dropped: int(r.dropped.Load()),
		Bytes:   r.bytes.Load(),
	}, nil
}

func (r *run) spawn(target locmirror.Target) {
	r.g.Go(func() error {
		r.visit(target)
		return nil
	})
}

// visit takes one Target from Unseen to its terminal state and schedules
// everything a page links to.
func (r *run) visit(target locmirror.Target) {
	if target.Kind == locmirror.KindPage && !strings.HasPrefix(target.URL, r.m.Scope) {
		return
	}

	path, err := locmirror.LocalPath(r.m.Mapper, target)
	if err != nil {
		r.report(ProgressEvent{Type: ProgressDropped, Target: target, Outcome: locmirror.OutcomeFatal, Err: err})
		return
	}

	if !r.admitted.TryAdmit(path) {
		return
	}

	exists, err := r.m.Store.Exists(path)
	if err != nil {
		r.report(ProgressEvent{Type: ProgressDropped, Target: target, Path: path, Outcome: locmirror.OutcomeFatal, Err: err})
		return
	}

	if exists {
		if target.Kind == locmirror.KindAsset {
			r.report(ProgressEvent{Type: ProgressSkipped, Target: target, Path: path})
			return
		}
		body, err := r.m.Store.Read(path)
		if err != nil {
			r.report(ProgressEvent{Type: ProgressDropped, Target: target, Path: path, Outcome: locmirror.OutcomeFatal, Err: err})
			return
		}
		r.report(ProgressEvent{Type: ProgressResumed, Target: target, Path: path, Err: r.discover(target, body)})
		return
	}

	result := r.gate.Fetch(r.ctx, target)
	if result.Outcome != locmirror.OutcomeSuccess {
		r.report(ProgressEvent{Type: ProgressDropped, Target: target, Path: path, Outcome: result.Outcome, Err: result.Reason})
		return
	}

	if err := r.m.Store.Write(path, result.Body); err != nil {
		r.report(ProgressEvent{Type: ProgressDropped, Target: target, Path: path, Outcome: result.Outcome, Err: err})
		return
	}

	var extractErr error
	if target.Kind == locmirror.KindPage {
		extractErr = r.discover(target, result.Body)
	}
	r.report(ProgressEvent{
		Type:    ProgressSaved,
		Target:  target,
		Path:    path,
		Outcome: result.Outcome,
		Err:     extractErr,
		Bytes:   len(result.Body),
	})
}

// discover extracts links from a page body and schedules each of them.
func (r *run) discover(page locmirror.Target, body []byte) error {
	links, err := r.m.Extractor.Extract(page.URL, body)
	if err != nil {
		return err
	}
	for _, u := range links.Assets {
		r.spawn(locmirror.Asset(u))
	}
	for _, u := range links.Pages {
		r.spawn(locmirror.Page(u))
	}
	return nil
}

func (r *run) report(ev ProgressEvent) {
	switch ev.Type {
	case ProgressSaved:
		r.saved.Add(1)
		r.bytes.Add(int64(ev.Bytes))
	case ProgressResumed:
		r.resumed.Add(1)
	case ProgressSkipped:
		r.skipped.Add(1)
	case ProgressDropped:
		r.dropped.Add(1)
	}

	if r.progress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress(ev)
}
