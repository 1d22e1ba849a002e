// Package batch turns an ordered batch of uploads into one PDF document.
//
// Every operation runs through Fold: each file is mapped to a value or a skip,
// failures never abort the batch, and the survivors keep their submission order.
package batch

import (
	"context"
	"fmt"
	"sync"

	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
)

// Step processes one file. Any returned error marks the item as skipped.
type Step[T any] func(ctx context.Context, f *domain.UploadedFile) (T, error)

// Item is a successfully processed file together with its submission index.
type Item[T any] struct {
	Index int
	Name  string
	Value T
}

// Report is the result of folding a step over a batch.
type Report[T any] struct {
	Items   []Item[T]
	Skipped []*domain.ItemError
}

// Succeeded returns the number of items that produced a value.
func (r Report[T]) Succeeded() int { return len(r.Items) }

// Skips returns the skipped items in reportable form.
func (r Report[T]) Skips() []domain.Skip {
	out := make([]domain.Skip, 0, len(r.Skipped))
	for _, e := range r.Skipped {
		out = append(out, domain.SkipFrom(e))
	}
	return out
}

type outcome[T any] struct {
	value T
	err   error
}

// Fold applies step to every file and accumulates result-or-skip per item. With
// workers > 1 up to that many items run at once; outcomes are still reported in
// input order. Each file is released as soon as its step returns. A cancelled
// context turns the remaining items into skips.
func Fold[T any](ctx context.Context, op string, files []*domain.UploadedFile, workers int, step Step[T]) Report[T] {
	outcomes := make([]outcome[T], len(files))

	run := func(i int) {
		f := files[i]
		defer func() {
			if err := f.Release(); err != nil {
				logging.Warn("Failed to release upload", "op", op, "file", f.OriginalName, "error", err)
			}
		}()
		if err := ctx.Err(); err != nil {
			outcomes[i].err = err
			return
		}
		outcomes[i].value, outcomes[i].err = safeStep(ctx, step, f)
	}

	if workers <= 1 || len(files) < 2 {
		for i := range files {
			run(i)
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i := range files {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				run(i)
			}(i)
		}
		wg.Wait()
	}

	var report Report[T]
	for i, o := range outcomes {
		name := files[i].OriginalName
		if o.err != nil {
			ie := &domain.ItemError{Index: i, Name: name, Err: o.err}
			report.Skipped = append(report.Skipped, ie)
			logging.Warn("Skipping batch item", "op", op, "index", i, "file", name, "error", o.err.Error())
			continue
		}
		report.Items = append(report.Items, Item[T]{Index: i, Name: name, Value: o.value})
	}
	return report
}

// safeStep turns a panic inside a codec into an item failure.
func safeStep[T any](ctx context.Context, step Step[T], f *domain.UploadedFile) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing item: %v", r)
		}
	}()
	return step(ctx, f)
}
