package tasks

import "strings"

// Namespace roots the whole task keyspace.
const Namespace = "comp"

// Key suffixes for the per-task channels.
const (
	suffixClaim  = "claim"
	suffixAssign = "assign"
	suffixStatus = "status"
	suffixResult = "result"
)

// AnnounceKey is where new jobs for a queue are published.
func AnnounceKey(queue string) string {
	return Namespace + "/queues/" + queue + "/announce"
}

// TaskPrefix covers every per-task channel.
func TaskPrefix() string {
	return Namespace + "/tasks/"
}

func taskKey(taskID, suffix string) string {
	return TaskPrefix() + taskID + "/" + suffix
}

// ClaimKey is where workers offer to run a task.
func ClaimKey(taskID string) string { return taskKey(taskID, suffixClaim) }

// AssignKey is where the assigner names the winning worker.
func AssignKey(taskID string) string { return taskKey(taskID, suffixAssign) }

// StatusKey carries progress reports for a task.
func StatusKey(taskID string) string { return taskKey(taskID, suffixStatus) }

// ResultKey carries the final outcome of a task.
func ResultKey(taskID string) string { return taskKey(taskID, suffixResult) }

// SplitTaskKey extracts the task ID and channel suffix from a per-task
// key. ok is false for keys outside the task prefix.
func SplitTaskKey(key string) (taskID, suffix string, ok bool) {
	rest, found := strings.CutPrefix(key, TaskPrefix())
	if !found {
		return "", "", false
	}
	taskID, suffix, found = strings.Cut(rest, "/")
	if !found || taskID == "" || suffix == "" {
		return "", "", false
	}
	return taskID, suffix, true
}
