package core

import (
	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/taskmanager"
)

// taskReporter adapts a (*taskmanager.Manager, *taskmanager.Task) pair
// to the narrow Progress/SubTaskError shape ingestion, cleanup,
// unfavorite and exporter each declare independently, so those
// packages stay decoupled from taskmanager.
type taskReporter struct {
	mgr  *taskmanager.Manager
	task *taskmanager.Task
}

func newTaskReporter(mgr *taskmanager.Manager, task *taskmanager.Task) *taskReporter {
	return &taskReporter{mgr: mgr, task: task}
}

func (r *taskReporter) Progress(progress, total int) {
	r.mgr.ReportProgress(r.task, progress, total)
}

func (r *taskReporter) SubTaskError(e model.SubTaskError) {
	r.mgr.AddSubTaskError(e)
}
