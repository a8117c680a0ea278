package logging

import (
	"time"

	"github.com/stratastream/stateful/types"

	"go.uber.org/zap"
)

// Error constructs a field that lazily stores err.Error() under the key
// "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// String constructs a field with the given key and value.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

// Strings constructs a field that carries a slice of strings.
func Strings(key string, val []string) zap.Field {
	return zap.Strings(key, val)
}

// Bool constructs a field that carries a bool.
func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

// Int constructs a field with the given key and value.
func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Int32 constructs a field with the given key and value.
func Int32(key string, val int32) zap.Field {
	return zap.Int32(key, val)
}

// Int32s constructs a field that carries a slice of int32.
func Int32s(key string, val []int32) zap.Field {
	return zap.Int32s(key, val)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

// Uint32 constructs a field with the given key and value.
func Uint32(key string, val uint32) zap.Field {
	return zap.Uint32(key, val)
}

// Duration constructs a field with the given key and value.
func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// Time constructs a field with the given key and value.
func Time(key string, val time.Time) zap.Field {
	return zap.Time(key, val)
}

// CheckpointID logs a checkpoint id, the empty id is rendered explicitly.
func CheckpointID(id types.CheckpointID) zap.Field {
	return zap.String("checkpoint-id", id.String())
}

// TaskID logs a task id.
func TaskID(id types.TaskID) zap.Field {
	return zap.Int32("task-id", int32(id))
}

// TaskIDs logs a set of tasks in id order.
func TaskIDs(key string, ids types.TaskSet) zap.Field {
	return zap.Int32s(key, ids.Int32s())
}

// WorkerGroupID logs a worker group id.
func WorkerGroupID(id types.WorkerGroupID) zap.Field {
	return zap.String("worker-group-id", string(id))
}

// WorkerGroupIDs logs a set of worker groups in id order.
func WorkerGroupIDs(key string, ids types.WorkerGroupSet) zap.Field {
	return zap.Strings(key, ids.Strings())
}

// TxID logs a restore transaction id.
func TxID(txid types.TxID) zap.Field {
	return zap.Int64("restore-txid", int64(txid))
}
