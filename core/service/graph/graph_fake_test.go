package graph

import (
	"context"
	"errors"
	"sync"

	"graph_server/core/domain"
	"graph_server/core/port/out"
)

// fakeResult is what a scripted query produces.
type fakeResult struct {
	keys    []string
	rows    [][]any
	summary *domain.WriteSummary
	iterErr error
}

type handler func(ctx context.Context, params map[string]any) (*fakeResult, error)

type fakeFactory struct {
	mu       sync.Mutex
	driver   *fakeDriver
	err      error
	opened   int
	settings out.DriverSettings
}

func (f *fakeFactory) Open(ctx context.Context, settings out.DriverSettings) (out.GraphDriver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	f.settings = settings
	if f.err != nil {
		return nil, f.err
	}
	return f.driver, nil
}

func (f *fakeFactory) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

type fakeDriver struct {
	mu       sync.Mutex
	handlers map[string]handler
	sessions []*fakeSession
	closed   int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{handlers: make(map[string]handler)}
}

func (d *fakeDriver) on(query string, h handler) *fakeDriver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[query] = h
	return d
}

func (d *fakeDriver) rows(query string, keys []string, rows ...[]any) *fakeDriver {
	return d.on(query, func(context.Context, map[string]any) (*fakeResult, error) {
		return &fakeResult{keys: keys, rows: rows}, nil
	})
}

func (d *fakeDriver) fail(query string, err error) *fakeDriver {
	return d.on(query, func(context.Context, map[string]any) (*fakeResult, error) {
		return nil, err
	})
}

func (d *fakeDriver) NewSession(_ context.Context, cfg out.SessionConfig) out.GraphSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &fakeSession{driver: d, cfg: cfg}
	d.sessions = append(d.sessions, s)
	return s
}

func (d *fakeDriver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDriver) sessionList() []*fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeSession(nil), d.sessions...)
}

func (d *fakeDriver) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeSession struct {
	driver *fakeDriver
	cfg    out.SessionConfig

	mu      sync.Mutex
	queries []string
	params  []map[string]any
	closed  bool
}

func (s *fakeSession) Run(ctx context.Context, query string, params map[string]any) (out.GraphCursor, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	s.mu.Unlock()

	s.driver.mu.Lock()
	h, ok := s.driver.handlers[query]
	s.driver.mu.Unlock()
	if !ok {
		return nil, errors.New("Neo.ClientError.Statement.SyntaxError: unknown query")
	}

	res, err := h(ctx, params)
	if err != nil {
		return nil, err
	}
	return &fakeCursor{res: res, pos: -1}, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeCursor struct {
	res *fakeResult
	pos int
}

func (c *fakeCursor) Next(context.Context) bool {
	if c.pos+1 >= len(c.res.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Record() ([]string, []any) {
	return c.res.keys, c.res.rows[c.pos]
}

func (c *fakeCursor) Err() error {
	if c.pos+1 >= len(c.res.rows) {
		return c.res.iterErr
	}
	return nil
}

func (c *fakeCursor) Consume(context.Context) (*domain.WriteSummary, error) {
	c.pos = len(c.res.rows)
	if c.res.iterErr != nil {
		return nil, c.res.iterErr
	}
	if c.res.summary == nil {
		return &domain.WriteSummary{}, nil
	}
	s := *c.res.summary
	return &s, nil
}

type fakeCache struct {
	mu          sync.Mutex
	snapshots   map[string]*domain.SchemaSnapshot
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[string]*domain.SchemaSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, db string) (*domain.SchemaSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snapshots[db]
	return s, ok, nil
}

func (c *fakeCache) Set(_ context.Context, db string, s *domain.SchemaSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[db] = s
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, db string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, db)
	c.invalidated = append(c.invalidated, db)
	return nil
}
