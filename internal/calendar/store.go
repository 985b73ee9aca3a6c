package calendar

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/username/jp-holiday-mcp/internal/metrics"
	"go.uber.org/zap"
)

const maxLineSize = 1024 * 1024

var errEmptyDataset = errors.New("dataset contains no records")

// State is the lifecycle state of a Store
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Source describes where the dataset file lives.
// FallbackPath is used when Path does not exist.
type Source struct {
	Path         string
	FallbackPath string
}

// Resolve returns the path that should be read
func (src Source) Resolve() string {
	if src.FallbackPath == "" {
		return src.Path
	}
	if _, err := os.Stat(src.Path); errors.Is(err, fs.ErrNotExist) {
		return src.FallbackPath
	}
	return src.Path
}

// Dataset is the loaded record sequence together with its indexes.
// It is never modified after the store hands it out.
type Dataset struct {
	Records []Record

	byDate  map[string]*Record   // key: "YYYY-MM-DD"
	byMonth map[string][]*Record // key: "YYYY-MM", file order
}

func newDataset(records []Record) *Dataset {
	ds := &Dataset{
		Records: records,
		byDate:  make(map[string]*Record, len(records)),
		byMonth: make(map[string][]*Record),
	}

	for i := range records {
		rec := &records[i]
		if rec.Date == "" {
			continue
		}
		// Last write wins on duplicate dates
		ds.byDate[rec.Date] = rec

		if monthKey, ok := rec.MonthKey(); ok {
			ds.byMonth[monthKey] = append(ds.byMonth[monthKey], rec)
		}
	}

	return ds
}

// Day returns the record for a date
func (ds *Dataset) Day(date string) (*Record, bool) {
	rec, ok := ds.byDate[date]
	return rec, ok
}

// Month returns the records of a "YYYY-MM" month in file order
func (ds *Dataset) Month(monthKey string) []*Record {
	return ds.byMonth[monthKey]
}

// DateIndexSize returns the number of distinct dates
func (ds *Dataset) DateIndexSize() int {
	return len(ds.byDate)
}

// MonthIndexSize returns the number of distinct months
func (ds *Dataset) MonthIndexSize() int {
	return len(ds.byMonth)
}

// Store loads the dataset once and caches it with its indexes.
// A failed load is kept until Reset is called.
type Store struct {
	source  Source
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	state   atomic.Int32
	dataset *Dataset
	err     error
	loads   atomic.Int64
}

// NewStore creates a new Store in the unloaded state
func NewStore(source Source, logger *zap.Logger, m *metrics.Metrics) *Store {
	return &Store{
		source:  source,
		logger:  logger,
		metrics: m,
	}
}

// State returns the current lifecycle state
func (s *Store) State() State {
	return State(s.state.Load())
}

// LoadCount returns how many load attempts have been made
func (s *Store) LoadCount() int64 {
	return s.loads.Load()
}

// EnsureLoaded returns the cached dataset, loading it on first use
func (s *Store) EnsureLoaded() (*Dataset, error) {
	s.mu.RLock()
	if ds, done, err := s.cached(); done {
		s.mu.RUnlock()
		return ds, err
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have finished loading while we waited
	if ds, done, err := s.cached(); done {
		return ds, err
	}

	s.state.Store(int32(StateLoading))
	s.loads.Add(1)
	start := time.Now()

	path := s.source.Resolve()
	records, err := s.readRecords(path)
	if err != nil {
		s.err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		s.state.Store(int32(StateFailed))
		s.metrics.ObserveLoad(metrics.LoadFailure, time.Since(start), 0, 0)
		s.logger.Error("Failed to load holiday data",
			zap.String("file", path),
			zap.Error(err))
		return nil, s.err
	}

	ds := newDataset(records)
	s.dataset = ds
	s.err = nil
	s.state.Store(int32(StateReady))
	s.metrics.ObserveLoad(metrics.LoadSuccess, time.Since(start), len(ds.Records), ds.MonthIndexSize())

	s.logger.Info("Holiday data loaded",
		zap.String("file", path),
		zap.Int("records", len(ds.Records)),
		zap.Int("date_index", ds.DateIndexSize()),
		zap.Int("month_index", ds.MonthIndexSize()))

	return ds, nil
}

// Reset drops the cached dataset so the next call loads again
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.State()
	s.dataset = nil
	s.err = nil
	s.state.Store(int32(StateUnloaded))

	s.logger.Info("Holiday data cache reset", zap.Stringer("previous_state", prev))
}

// cached must be called with s.mu held
func (s *Store) cached() (*Dataset, bool, error) {
	switch s.State() {
	case StateReady:
		return s.dataset, true, nil
	case StateFailed:
		return nil, true, s.err
	default:
		return nil, false, nil
	}
}

func (s *Store) readRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holiday data file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading holiday data file: %w", err)
	}

	if len(records) == 0 {
		return nil, errEmptyDataset
	}

	return records, nil
}
