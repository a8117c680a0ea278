package types

// Kind names a message on the wire.
type Kind string

const (
	// worker group <-> checkpoint manager
	KindRegisterWorkerGroup         Kind = "register_worker_group"
	KindRegisterWorkerGroupResponse Kind = "register_worker_group_response"
	KindSaveInstanceState           Kind = "save_instance_state"
	KindSaveInstanceStateResponse   Kind = "save_instance_state_response"
	KindGetInstanceState            Kind = "get_instance_state"
	KindGetInstanceStateResponse    Kind = "get_instance_state_response"

	// worker group <-> controller
	KindJoinTopology            Kind = "join_topology"
	KindNewPhysicalPlan         Kind = "new_physical_plan"
	KindInstanceStateStored     Kind = "instance_state_stored"
	KindStartStatefulCheckpoint Kind = "start_stateful_checkpoint"
	KindRestoreTopologyState    Kind = "restore_topology_state"
	KindRestoredTopologyState   Kind = "restored_topology_state"
	KindStartStatefulProcessing Kind = "start_stateful_processing"

	// data plane, between worker groups and towards local tasks
	KindData                            Kind = "data"
	KindCheckpointMarker                Kind = "checkpoint_marker"
	KindInitiateCheckpoint              Kind = "initiate_checkpoint"
	KindRestoreInstanceState            Kind = "restore_instance_state"
	KindRestoredInstanceState           Kind = "restored_instance_state"
	KindStartInstanceStatefulProcessing Kind = "start_instance_stateful_processing"
)

type Message interface {
	Kind() Kind
}

// RegisterWorkerGroup opens the session of a worker group with its
// checkpoint manager. Address is where responses are sent.
type RegisterWorkerGroup struct {
	Topology    string        `json:"topology"`
	RunID       string        `json:"run_id"`
	WorkerGroup WorkerGroupID `json:"worker_group"`
	Address     string        `json:"address"`
}

func (RegisterWorkerGroup) Kind() Kind { return KindRegisterWorkerGroup }

type RegisterWorkerGroupResponse struct {
	Status Status `json:"status"`
}

func (RegisterWorkerGroupResponse) Kind() Kind { return KindRegisterWorkerGroupResponse }

// InstanceCheckpoint addresses one task's state within one checkpoint.
type InstanceCheckpoint struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
	Task         TaskID       `json:"task"`
	Component    string       `json:"component"`
}

type SaveInstanceState struct {
	Instance InstanceCheckpoint `json:"instance"`
	State    []byte             `json:"state"`
}

func (SaveInstanceState) Kind() Kind { return KindSaveInstanceState }

type SaveInstanceStateResponse struct {
	Status   Status             `json:"status"`
	Instance InstanceCheckpoint `json:"instance"`
}

func (SaveInstanceStateResponse) Kind() Kind { return KindSaveInstanceStateResponse }

type GetInstanceState struct {
	Instance InstanceCheckpoint `json:"instance"`
}

func (GetInstanceState) Kind() Kind { return KindGetInstanceState }

type GetInstanceStateResponse struct {
	Status   Status             `json:"status"`
	Instance InstanceCheckpoint `json:"instance"`
	State    []byte             `json:"state,omitempty"`
}

func (GetInstanceStateResponse) Kind() Kind { return KindGetInstanceStateResponse }

// JoinTopology is sent by a worker group to the controller when it comes
// up, and again after every reconnection.
type JoinTopology struct {
	Topology    string        `json:"topology"`
	WorkerGroup WorkerGroupID `json:"worker_group"`
	Address     string        `json:"address"`
}

func (JoinTopology) Kind() Kind { return KindJoinTopology }

type NewPhysicalPlan struct {
	Plan PhysicalPlan `json:"plan"`
}

func (NewPhysicalPlan) Kind() Kind { return KindNewPhysicalPlan }

type InstanceStateStored struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
	Task         TaskID       `json:"task"`
}

func (InstanceStateStored) Kind() Kind { return KindInstanceStateStored }

type StartStatefulCheckpoint struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
}

func (StartStatefulCheckpoint) Kind() Kind { return KindStartStatefulCheckpoint }

type RestoreTopologyState struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
	TxID         TxID         `json:"txid"`
}

func (RestoreTopologyState) Kind() Kind { return KindRestoreTopologyState }

type RestoredTopologyState struct {
	WorkerGroup  WorkerGroupID `json:"worker_group"`
	CheckpointID CheckpointID  `json:"checkpoint_id"`
	TxID         TxID          `json:"txid"`
	Status       Status        `json:"status"`
}

func (RestoredTopologyState) Kind() Kind { return KindRestoredTopologyState }

type StartStatefulProcessing struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
}

func (StartStatefulProcessing) Kind() Kind { return KindStartStatefulProcessing }

// Data carries one application payload from Src to Dest.
type Data struct {
	Src     TaskID `json:"src"`
	Dest    TaskID `json:"dest"`
	Payload []byte `json:"payload"`
}

func (Data) Kind() Kind { return KindData }

// Size is what counts against the gateway drain threshold.
func (d Data) Size() uint64 { return uint64(len(d.Payload)) }

type CheckpointMarker struct {
	Src          TaskID       `json:"src"`
	Dest         TaskID       `json:"dest"`
	CheckpointID CheckpointID `json:"checkpoint_id"`
}

func (CheckpointMarker) Kind() Kind { return KindCheckpointMarker }

type InitiateCheckpoint struct {
	Task         TaskID       `json:"task"`
	CheckpointID CheckpointID `json:"checkpoint_id"`
}

func (InitiateCheckpoint) Kind() Kind { return KindInitiateCheckpoint }

type RestoreInstanceState struct {
	Task         TaskID       `json:"task"`
	CheckpointID CheckpointID `json:"checkpoint_id"`
	State        []byte       `json:"state,omitempty"`
}

func (RestoreInstanceState) Kind() Kind { return KindRestoreInstanceState }

type RestoredInstanceState struct {
	Task         TaskID       `json:"task"`
	CheckpointID CheckpointID `json:"checkpoint_id"`
	Status       Status       `json:"status"`
}

func (RestoredInstanceState) Kind() Kind { return KindRestoredInstanceState }

type StartInstanceStatefulProcessing struct {
	CheckpointID CheckpointID `json:"checkpoint_id"`
}

func (StartInstanceStatefulProcessing) Kind() Kind { return KindStartInstanceStatefulProcessing }
