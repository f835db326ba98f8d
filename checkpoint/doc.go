// Package checkpoint implements the CheckpointStore: a
// transactional, persistent store of wipe-operation progress records,
// keyed so that at most one record exists per in-flight
// (device_path, algorithm, operation_id)
package checkpoint
