package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/service"
	"github.com/hupe1980/schoolmate/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeServices records every domain call and serves canned results.
type fakeServices struct {
	mu    sync.Mutex
	calls []string

	report    service.PerformanceReport
	perfErr   error
	events    []storage.Event
	eventsErr error
	filters   []storage.EventFilter
	advice    service.Advice
	adviceErr error
	exam      *storage.ExamResult
}

func (f *fakeServices) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeServices) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServices) Performance(_ context.Context, studentID string) (service.PerformanceReport, error) {
	f.record("performance:" + studentID)
	return f.report, f.perfErr
}

func (f *fakeServices) Upcoming(_ context.Context, filter storage.EventFilter) ([]storage.Event, error) {
	f.record("events")
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	return f.events, f.eventsErr
}

func (f *fakeServices) Personalized(_ context.Context, studentID string) (service.Advice, error) {
	f.record("advice:" + studentID)
	return f.advice, f.adviceErr
}

func (f *fakeServices) LatestPrediction(_ context.Context, studentID string) (*storage.ExamResult, error) {
	f.record("exam:" + studentID)
	return f.exam, nil
}

func (f *fakeServices) services() Services {
	return Services{Analytics: f, Events: f, Advice: f, Exams: f}
}

// call builds an engine function call with JSON encoded arguments.
func call(name string, args map[string]any) core.FunctionCall {
	raw := "{}"
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			panic(err)
		}
		raw = string(b)
	}
	return core.FunctionCall{ID: "call_" + name, Name: name, Arguments: raw}
}
