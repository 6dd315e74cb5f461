package importer

import (
	"context"
	"io"
	"log"
	"time"

	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/parse"
	"loco-dispatcher/internal/store"
)

// Dispatcher is notified of every locomotive that received a conflicting row.
type Dispatcher interface {
	Dispatch(locomotiveID int64)
}

// Service runs an upload through reading, row parsing, and the store.
type Service struct {
	store      store.Store
	dispatcher Dispatcher
}

// NewService creates an importer. dispatcher may be nil.
func NewService(s store.Store, dispatcher Dispatcher) *Service {
	return &Service{store: s, dispatcher: dispatcher}
}

// Parse validates every raw row.
func Parse(rows []RawRow) []parse.Result {
	results := make([]parse.Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, parse.ParseRow(r.Index, r.Values))
	}
	return results
}

// Import reads and stores one upload. Errors from Read are returned as is so
// callers can tell a bad file from a failed batch.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (*store.ImportSummary, error) {
	raw, err := Read(filename, r)
	if err != nil {
		return nil, err
	}
	log.Printf("Importing %d rows from %s", len(raw), filename)

	started := time.Now()
	summary, err := s.store.ImportAssignments(ctx, Parse(raw))
	if err != nil {
		metrics.ObserveImport(0, 0, 0, time.Since(started), err)
		return nil, err
	}
	metrics.ObserveImport(summary.ImportedRows, summary.ConflictsCount, len(summary.Errors), time.Since(started), nil)

	if s.dispatcher != nil {
		for _, id := range summary.ConflictLocomotives {
			s.dispatcher.Dispatch(id)
		}
	}
	return summary, nil
}
