package hosts

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

// Result is the outcome of one target in a run.
type Result struct {
	Target  Target
	Outcome Outcome
	Err     error
}

// Report summarizes a run.
type Report struct {
	Identifier string
	Entries    []HostEntry
	Results    []Result
}

// Count returns the number of targets that ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// HasProblems reports whether any target failed or was skipped for lack of
// privileges.
func (r Report) HasProblems() bool {
	return r.Count(OutcomeFailed) > 0 || r.Count(OutcomeSkippedNoPrivilege) > 0
}

// Change is a planned, unwritten update of one target.
type Change struct {
	Target    Target
	Candidate string
	Err       error
}

// Changed reports whether writing the change would modify the file.
func (c Change) Changed() bool {
	return c.Err == nil && NeedsWrite(c.Target.Contents, c.Candidate)
}

// Options configures a Syncer.
type Options struct {
	Elevation   ElevationMode
	FlushDNS    bool
	FlushMethod FlushMethod
}

// Syncer runs locate, read, merge, compare and write for every target.
// Targets are processed one after another and a failure on one never stops
// the others.
type Syncer struct {
	locator  *Locator
	reader   *Reader
	writer   *Writer
	flusher  *DNSFlusher
	flushDNS bool
	log      logrus.FieldLogger
}

// NewSyncer wires a Syncer for the given platform.
func NewSyncer(info platform.Info, runner platform.Runner, opts Options, log logrus.FieldLogger) *Syncer {
	return &Syncer{
		locator:  NewLocator(info, runner, log),
		reader:   NewReader(info, runner),
		writer:   NewWriter(info, runner, opts.Elevation, log),
		flusher:  NewDNSFlusher(info, runner, opts.FlushMethod, log),
		flushDNS: opts.FlushDNS,
		log:      log,
	}
}

// Sync sets the managed block for id to the given hostnames in every hosts
// file of the platform. When no hostname is eligible nothing is located,
// read or written.
func (s *Syncer) Sync(ctx context.Context, id string, hostnames []string) (Report, error) {
	if err := ValidateIdentifier(id); err != nil {
		return Report{}, err
	}

	report := Report{Identifier: id, Entries: NewEntrySet(hostnames)}
	if len(report.Entries) == 0 {
		s.log.WithField("app", id).Info("No hostnames to manage, leaving hosts files untouched")
		return report, nil
	}

	report.Results = s.apply(ctx, id, func(current string) string {
		return Merge(current, report.Entries, id)
	})
	return report, nil
}

// Clean removes the managed block for id from every hosts file.
func (s *Syncer) Clean(ctx context.Context, id string) (Report, error) {
	if err := ValidateIdentifier(id); err != nil {
		return Report{}, err
	}

	report := Report{Identifier: id}
	report.Results = s.apply(ctx, id, func(current string) string {
		return Remove(current, id)
	})
	return report, nil
}

// Plan computes the contents Sync would write without writing anything.
func (s *Syncer) Plan(ctx context.Context, id string, hostnames []string) ([]Change, error) {
	if err := ValidateIdentifier(id); err != nil {
		return nil, err
	}

	entries := NewEntrySet(hostnames)
	if len(entries) == 0 {
		return nil, nil
	}

	var changes []Change
	for _, t := range s.locator.Locate(ctx) {
		contents, err := s.reader.Read(ctx, t)
		if err != nil {
			changes = append(changes, Change{Target: t, Err: err})
			continue
		}
		t.Contents = contents
		changes = append(changes, Change{Target: t, Candidate: Merge(contents, entries, id)})
	}
	return changes, nil
}

func (s *Syncer) apply(ctx context.Context, id string, transform func(string) string) []Result {
	var results []Result
	var written []Kind

	for _, t := range s.locator.Locate(ctx) {
		res := s.applyTarget(ctx, t, transform)
		s.logResult(id, res)
		results = append(results, res)
		if res.Outcome == OutcomeWritten {
			written = append(written, t.Kind)
		}
	}

	if s.flushDNS && len(written) > 0 {
		if err := s.flusher.Flush(ctx, written); err != nil {
			s.log.WithError(err).Warn("Failed to flush DNS cache")
		}
	}

	return results
}

func (s *Syncer) applyTarget(ctx context.Context, t Target, transform func(string) string) Result {
	contents, err := s.reader.Read(ctx, t)
	if err != nil {
		return Result{Target: t, Outcome: OutcomeFailed, Err: err}
	}
	t.Contents = contents

	candidate := transform(contents)
	if !NeedsWrite(contents, candidate) {
		return Result{Target: t, Outcome: OutcomeSkippedNoChange}
	}

	outcome, err := s.writer.Write(ctx, t, candidate)
	return Result{Target: t, Outcome: outcome, Err: err}
}

func (s *Syncer) logResult(id string, res Result) {
	log := s.log.WithFields(logrus.Fields{
		"app":     id,
		"target":  res.Target.Kind,
		"path":    res.Target.Path,
		"outcome": res.Outcome,
	})

	switch res.Outcome {
	case OutcomeWritten:
		log.Info("Hosts file updated")
	case OutcomeSkippedNoChange:
		log.Debug("Hosts file already up to date")
	case OutcomeSkippedNoPrivilege:
		log.WithError(res.Err).Warnf("Hosts file not updated: %s", ElevationRemediation)
	case OutcomeFailed:
		log.WithError(res.Err).Warn("Hosts file could not be updated")
	}
}
