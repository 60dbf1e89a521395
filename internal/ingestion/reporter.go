package ingestion

import "github.com/weiback-dev/weiback/internal/model"

// Reporter decouples Engine from taskmanager: core wires a concrete
// adapter over *taskmanager.Manager/Task, tests use a recording fake.
type Reporter interface {
	Progress(progress, total int)
	SubTaskError(e model.SubTaskError)
}

// NoopReporter discards everything; useful for RebackupPost's single-
// record runs invoked outside a tracked task, and in tests that don't
// care about progress.
type NoopReporter struct{}

func (NoopReporter) Progress(int, int)              {}
func (NoopReporter) SubTaskError(model.SubTaskError) {}
