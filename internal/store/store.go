package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"loco-dispatcher/internal/lock"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/parse"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInterval is returned when start is not strictly before end.
	ErrInvalidInterval = errors.New("start_time must be before end_time")
	// ErrValidation is returned for other rejected input.
	ErrValidation = errors.New("validation failed")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	Stations(ctx context.Context) ([]model.Station, error)
	Trains(ctx context.Context) ([]model.Train, error)
	Shoulder(ctx context.Context, id int64) (*model.Shoulder, error)
	Shoulders(ctx context.Context) ([]ShoulderView, error)
	Locomotive(ctx context.Context, id int64) (*LocomotiveView, error)
	Locomotives(ctx context.Context) ([]LocomotiveView, error)

	Assignments(ctx context.Context) ([]AssignmentView, error)
	AssignmentsInWindow(ctx context.Context, from, to time.Time) ([]AssignmentView, error)
	Conflicts(ctx context.Context, from, to *time.Time) ([]AssignmentView, error)
	CreateAssignment(ctx context.Context, in NewAssignment) (*CreatedAssignment, error)
	ImportAssignments(ctx context.Context, rows []parse.Result) (*ImportSummary, error)

	RecordService(ctx context.Context, req ServiceRequest) (*model.ServiceLog, error)
	AdvanceLifecycle(ctx context.Context, now time.Time) (LifecycleResult, error)

	DashboardCounts(ctx context.Context) (*DashboardCounts, error)
	LocomotiveWork(ctx context.Context) ([]LocomotiveWork, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription, locomotiveIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionLocomotives(ctx context.Context, endpoint string) ([]int64, error)
	Subscribers(ctx context.Context, locomotiveID int64) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	locker lock.Locker
	now    func() time.Time

	// importMu keeps two imports from taking per-locomotive locks in opposite orders.
	importMu sync.Mutex
}

// NewGormStore creates a new GORM-backed store. A nil locker falls back to
// an in-process one.
func NewGormStore(db *gorm.DB, locker lock.Locker) Store {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	return &gormStore{db: db, locker: locker, now: time.Now}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{What: what, ID: id}
	}
	return err
}

// NotFoundError names the missing record. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	What string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
