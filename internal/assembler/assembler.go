// Package assembler drives the per-quarter pipeline across the whole corpus:
// lookup resolution, schema planning, denormalization, and export, with a
// bounded worker pool and consolidated reporting.
package assembler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/debug"
	"github.com/fedscope-etl/internal/denorm"
	"github.com/fedscope-etl/internal/export"
	"github.com/fedscope-etl/internal/lookup"
	"github.com/fedscope-etl/internal/schema"
)

// Options configures a corpus run.
type Options struct {
	ExtractedDir string
	OutputDir    string
	Workers      int
	// Force reprocesses datasets whose artifact already exists.
	Force bool
	Debug bool
}

// Result is the per-dataset partial result merged after all workers finish.
// Datasets share no mutable state; everything cross-dataset is accumulated
// here and reduced once at the end.
type Result struct {
	Key        dataset.Key
	State      State
	Records    int
	Duplicates []lookup.DuplicateEvent
	Orphans    map[string]int
	Skipped    bool
	Elapsed    time.Duration
	Err        error
}

// job is one dataset directory queued for a worker.
type job struct {
	key dataset.Key
	dir string
}

// Assembler sequences the pipeline across all datasets.
type Assembler struct {
	opts Options
}

// New creates an assembler.
func New(opts Options) *Assembler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Assembler{opts: opts}
}

// Run processes every dataset under the extracted directory and writes the
// consolidated run report, duplicate audit log, and per-quarter artifacts.
// One failed dataset never blocks the rest. An unrecognized fact column is
// corpus-fatal: no further datasets are scheduled and Run returns the error
// after in-flight datasets finish.
func (a *Assembler) Run() (*export.RunReport, error) {
	started := time.Now()

	jobs, err := a.discover()
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no datasets found in %s", a.opts.ExtractedDir)
	}
	debug.Output(a.opts.Debug, "found %d datasets, processing with %d workers", len(jobs), a.opts.Workers)

	jobChan := make(chan job, len(jobs))
	resultChan := make(chan Result, len(jobs))
	stop := make(chan struct{})
	var stopOnce sync.Once

	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)

	var wg sync.WaitGroup
	for i := 0; i < a.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-stop:
					// Corpus-fatal error elsewhere; stop taking new work.
					resultChan <- Result{Key: j.key, State: Pending, Skipped: true}
					continue
				default:
				}

				res := a.processDataset(j)
				var unknownCol *schema.UnknownColumnError
				if errors.As(res.Err, &unknownCol) {
					stopOnce.Do(func() { close(stop) })
				}
				resultChan <- res
			}
		}()
	}

	wg.Wait()
	close(resultChan)

	var results []Result
	for res := range resultChan {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Key.String() < results[j].Key.String()
	})

	report := a.merge(results, started)

	if err := export.WriteDuplicateLog(a.opts.OutputDir, collectDuplicates(results)); err != nil {
		return report, err
	}
	if err := export.WriteRunReport(a.opts.OutputDir, report); err != nil {
		return report, err
	}

	if len(report.UnknownColumns) > 0 {
		return report, fmt.Errorf("canonical field registry needs review: unrecognized columns %v", report.UnknownColumns)
	}
	return report, nil
}

// discover lists dataset directories in key order.
func (a *Assembler) discover() ([]job, error) {
	entries, err := os.ReadDir(a.opts.ExtractedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted directory: %w", err)
	}

	var jobs []job
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		key, ok := dataset.PeriodFromName(entry.Name())
		if !ok {
			debug.Output(a.opts.Debug, "could not determine period for %s, skipping", entry.Name())
			continue
		}
		jobs = append(jobs, job{key: key, dir: filepath.Join(a.opts.ExtractedDir, entry.Name())})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].key.String() < jobs[j].key.String() })
	return jobs, nil
}

// processDataset runs one dataset through the full pipeline. Any error marks
// the dataset Failed without touching the rest of the corpus.
func (a *Assembler) processDataset(j job) Result {
	started := time.Now()
	res := Result{Key: j.key, State: Pending, Orphans: map[string]int{}}
	localDebug := a.opts.Debug

	defer func() { res.Elapsed = time.Since(started) }()

	// Idempotence: an already exported dataset is a no-op unless forced.
	artifactPath := export.ArtifactPath(a.opts.OutputDir, j.key)
	if !a.opts.Force {
		if _, err := os.Stat(artifactPath); err == nil {
			debug.Output(localDebug, "%s already exported, skipping", j.key)
			res.State = Exported
			res.Skipped = true
			return res
		}
	}

	dataDir, factPath, err := findDataFiles(j.dir)
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}
	res.State = Extracted

	lookups, duplicates, err := lookup.LoadDir(dataDir, j.key.String(), localDebug)
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}
	res.Duplicates = duplicates
	res.State = LookupsResolved

	factFile, err := os.Open(factPath)
	if err != nil {
		res.State = Failed
		res.Err = &denorm.FactParseError{DatasetKey: j.key.String(), File: filepath.Base(factPath), Err: err}
		return res
	}
	defer factFile.Close()

	reader := lookup.NewSourceReader(factFile)

	header, err := reader.Read()
	if err != nil {
		res.State = Failed
		res.Err = &denorm.FactParseError{DatasetKey: j.key.String(), File: filepath.Base(factPath), Err: fmt.Errorf("reading header: %w", err)}
		return res
	}

	plan, err := schema.BuildPlan(j.key.String(), header)
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}
	res.State = SchemaPlanned
	debug.Output(localDebug, "%s: %d columns, absent this quarter: %v", j.key, len(header), plan.Absent())

	d := denorm.New(j.key, plan, lookups)

	writer, err := export.NewArtifactWriter(a.opts.OutputDir, j.key, d.Columns())
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}

	// Stream rows: one fact row in, one denormalized row out, nothing held.
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			writer.Abort()
			res.State = Failed
			res.Err = &denorm.FactParseError{DatasetKey: j.key.String(), File: filepath.Base(factPath), Err: fmt.Errorf("line %d: %w", line, err)}
			return res
		}

		if err := writer.Write(d.Row(record)); err != nil {
			writer.Abort()
			res.State = Failed
			res.Err = err
			return res
		}
		debug.Progress(localDebug, writer.Rows(), 100000, "%s: %d rows denormalized", j.key, writer.Rows())
	}
	res.State = Denormalized
	res.Records = writer.Rows()
	res.Orphans = d.Orphans()

	if err := writer.Close(); err != nil {
		res.State = Failed
		res.Err = err
		return res
	}
	res.State = Exported

	debug.Output(localDebug, "%s: exported %d rows (%d duplicate events, %d orphan codes)",
		j.key, res.Records, len(res.Duplicates), d.OrphanTotal())
	return res
}

// findDataFiles walks a dataset directory for the subdirectory holding the
// FACTDATA file; some archives nest the data one level down.
func findDataFiles(root string) (dataDir, factPath string, err error) {
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToUpper(info.Name())
		if strings.HasPrefix(name, "FACTDATA") && strings.HasSuffix(name, ".TXT") && factPath == "" {
			factPath = path
			dataDir = filepath.Dir(path)
		}
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if factPath == "" {
		return "", "", fmt.Errorf("no FACTDATA file found in %s", root)
	}
	return dataDir, factPath, nil
}

// merge reduces per-dataset partial results into the consolidated report.
func (a *Assembler) merge(results []Result, started time.Time) *export.RunReport {
	report := &export.RunReport{
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	for _, res := range results {
		summary := export.DatasetSummary{
			DatasetKey: res.Key.String(),
			State:      res.State.String(),
			Records:    res.Records,
			Duplicates: len(res.Duplicates),
			Skipped:    res.Skipped,
			ElapsedMS:  res.Elapsed.Milliseconds(),
		}
		if len(res.Orphans) > 0 {
			summary.Orphans = res.Orphans
		}

		switch {
		case res.Skipped:
			report.Skipped++
		case res.State == Exported:
			report.Succeeded++
			report.TotalRecords += res.Records
		default:
			report.Failed++
			if res.Err != nil {
				summary.Error = res.Err.Error()
				report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", res.Key, res.Err))

				var unknownCol *schema.UnknownColumnError
				if errors.As(res.Err, &unknownCol) {
					report.UnknownColumns = append(report.UnknownColumns, unknownCol.Column)
				}
			}
		}

		report.DuplicateEvents += len(res.Duplicates)
		for _, n := range res.Orphans {
			report.OrphanEvents += n
		}
		report.Datasets = append(report.Datasets, summary)
	}

	return report
}

// collectDuplicates flattens per-dataset duplicate events in key order.
func collectDuplicates(results []Result) []lookup.DuplicateEvent {
	var all []lookup.DuplicateEvent
	for _, res := range results {
		all = append(all, res.Duplicates...)
	}
	return all
}
