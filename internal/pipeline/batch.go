package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"apflow/internal/document"
	"apflow/internal/logger"
	"apflow/pkg/models"
)

// BatchResult is the outcome of one manifest in a batch.
type BatchResult struct {
	Index    int
	Manifest string
	OutDir   string
	Report   *Report
	Err      error
}

// BatchJob is one manifest waiting for a worker.
type BatchJob struct {
	Path  string
	Index int
}

// BatchSummary is the batch command's result document.
type BatchSummary struct {
	Total       int                `json:"total"`
	Approved    int                `json:"approved"`
	NeedsReview int                `json:"needs_review"`
	Failed      int                `json:"failed"`
	Exported    int                `json:"exported"`
	Results     []BatchSummaryLine `json:"results"`
}

// BatchSummaryLine summarizes one manifest.
type BatchSummaryLine struct {
	Manifest      string          `json:"manifest"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Decision      models.Decision `json:"decision,omitempty"`
	ExportBatchID string          `json:"export_batch_id,omitempty"`
	ExportHash    string          `json:"export_hash,omitempty"`
	OutDir        string          `json:"out_dir,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ProgressFunc is called after each manifest finishes. Calls are serialized.
type ProgressFunc func(done, total int, result BatchResult)

// FindManifests lists the JSON and YAML documents directly inside dir, in
// lexical order.
func FindManifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var manifests []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) == "" {
			continue
		}
		if _, err := document.FormatFor(entry.Name()); err == nil {
			manifests = append(manifests, filepath.Join(dir, entry.Name()))
		}
	}
	return manifests, nil
}

// RunBatch runs every manifest with a pool of workers. Results are returned
// in input order. When outRoot is set, each run's documents are written to
// outRoot/<manifest name without extension>. Manifests not started before ctx
// is done fail with ctx.Err().
func (r *Runner) RunBatch(ctx context.Context, paths []string, workers int, outRoot string, progress ProgressFunc) []BatchResult {
	log := logger.WithComponent("batch")
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan BatchJob, len(paths))
	results := make([]BatchResult, len(paths))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("manifest", job.Path).
					Int("index", job.Index+1).
					Msg("Worker processing manifest")

				result := r.runOne(ctx, job, outRoot)
				results[job.Index] = result

				mu.Lock()
				processedCount++
				if progress != nil {
					progress(processedCount, len(paths), result)
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, path := range paths {
		jobs <- BatchJob{Path: path, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, job BatchJob, outRoot string) BatchResult {
	result := BatchResult{Index: job.Index, Manifest: job.Path}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	var m Manifest
	if err := document.Read(job.Path, &m); err != nil {
		result.Err = &StageError{Stage: StageManifest, Err: err}
		return result
	}

	report, err := r.Run(m)
	if err != nil {
		result.Err = err
		return result
	}
	result.Report = report

	if outRoot != "" {
		dir := filepath.Join(outRoot, manifestStem(job.Path))
		if _, err := WriteReport(dir, report); err != nil {
			result.Err = fmt.Errorf("failed to write report: %w", err)
			return result
		}
		result.OutDir = dir
	}
	return result
}

// Summarize counts decisions and failures across results.
func Summarize(results []BatchResult) BatchSummary {
	summary := BatchSummary{
		Total:   len(results),
		Results: make([]BatchSummaryLine, 0, len(results)),
	}

	for _, res := range results {
		line := BatchSummaryLine{Manifest: res.Manifest, OutDir: res.OutDir}
		if res.Report != nil {
			line.InvoiceNumber = res.Report.Invoice.InvoiceNumber
			line.Decision = res.Report.Decision()
			if res.Report.Export != nil {
				line.ExportBatchID = res.Report.Export.ExportBatchID
				line.ExportHash = res.Report.Export.ExportHash
			}
		}

		switch {
		case res.Err != nil:
			summary.Failed++
			line.Error = res.Err.Error()
		case line.Decision == models.DecisionApproved:
			summary.Approved++
		default:
			summary.NeedsReview++
		}
		if res.Err == nil && line.ExportHash != "" {
			summary.Exported++
		}

		summary.Results = append(summary.Results, line)
	}
	return summary
}

func manifestStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
