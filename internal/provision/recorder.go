package provision

import (
	"context"
	"maps"
	"sync"
)

// Call is one provisioning request captured by a Recorder.
type Call struct {
	Kind   string
	Region string
	Name   string
	Tags   map[string]string
}

// Recorder is a provisioner that only records what it was asked to create.
// It backs dry runs and tests. Fail, when set, is returned for every call.
type Recorder struct {
	Fail error

	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) CreateQueue(_ context.Context, region, name string, tags map[string]string) error {
	return r.record(KindQueue, region, name, tags)
}

func (r *Recorder) CreateTopic(_ context.Context, region, name string, tags map[string]string) error {
	return r.record(KindTopic, region, name, tags)
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) record(kind, region, name string, tags map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: kind, Region: region, Name: name, Tags: maps.Clone(tags)})
	if r.Fail != nil {
		return &Error{Kind: kind, Region: region, Name: name, Err: r.Fail}
	}
	return nil
}
