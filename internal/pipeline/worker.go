package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/todotree/internal/parser"
	"github.com/dgallion1/todotree/internal/todolist"
)

// Grafter attaches an imported subtree to a stored list.
type Grafter interface {
	Graft(ctx context.Context, listID string, index int, subtree *todolist.Node) (*todolist.Node, error)
}

// Worker processes a single import job.
type Worker struct {
	lists       Grafter
	jobs        *JobStore
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(lists Grafter, jobs *JobStore, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{lists: lists, jobs: jobs, log: log, pdfFallback: pdfFallback}
}

// Process parses the job's document and grafts it under the job's index.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "list_id", job.ListID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}

	subtree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		subtree.Label = job.Title
	}
	job.SetParsed(subtree.Count())

	// Phase 1.5: Dedup check against earlier imports into the same list.
	doc, err := todolist.Marshal(subtree)
	if err != nil {
		job.AddError(fmt.Sprintf("hash: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	hash := ContentHashHex(doc)
	job.SetContentHash(hash)
	prev, ok := w.jobs.Reserve(job.ListID, hash, job.ID)
	if !ok {
		log.Info("duplicate import, skipping", "previous_job_id", prev)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Graft
	job.SetStatus(StatusGrafting, "grafting")
	if _, err := w.lists.Graft(ctx, job.ListID, job.Index, subtree); err != nil {
		log.Error("graft failed", "index", job.Index, "error", err)
		job.AddError(fmt.Sprintf("graft: %s", err))
		job.SetStatus(StatusFailed, "grafting")
		w.jobs.Release(job.ListID, hash, job.ID)
		return
	}
	job.SetGrafted(subtree.Count())

	log.Info("import complete", "nodes", subtree.Count(), "index", job.Index)
	job.SetStatus(StatusCompleted, "done")
}
