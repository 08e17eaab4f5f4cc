package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPurge removes expired session rows.
	TaskSessionsPurge = "sessions:purge"
	// TaskMembershipScan reaps memberships whose identity no longer
	// exists at the auth provider.
	TaskMembershipScan = "memberships:scan"
)

// NewSessionsPurgeTask constructs the purge task. It carries no payload.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsPurge, nil)
}

// NewMembershipScanTask constructs the membership scan task.
func NewMembershipScanTask() *asynq.Task {
	return asynq.NewTask(TaskMembershipScan, nil)
}
