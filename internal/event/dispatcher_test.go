package event

import (
	"errors"
	"testing"

	"github.com/blues/helprojects/internal/model"
	"github.com/stretchr/testify/assert"
)

type recordingProcessor struct {
	seen []Type
	err  error
}

func (r *recordingProcessor) GetName() string { return "recording" }

func (r *recordingProcessor) Process(e Event) error {
	r.seen = append(r.seen, e.Type)
	return r.err
}

func TestDispatchReachesEveryProcessor(t *testing.T) {
	failing := &recordingProcessor{err: errors.New("boom")}
	ok := &recordingProcessor{}
	d := NewDispatcher(failing, ok, NewMetricsProcessor(), NewLogProcessor())

	d.Dispatch(Event{Type: ProjectCreated, Project: model.Project{ID: "p1"}})
	d.Dispatch(Event{Type: ProjectSupported, Project: model.Project{ID: "p1"}, Amount: 100})

	assert.Equal(t, []Type{ProjectCreated, ProjectSupported}, failing.seen)
	assert.Equal(t, []Type{ProjectCreated, ProjectSupported}, ok.seen)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Dispatch(Event{Type: ProjectDeleted})
	})
}
