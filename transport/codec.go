package transport

import (
	"encoding/json"

	"github.com/stratastream/stateful/types"

	"github.com/pkg/errors"
)

var ErrUnknownKind = errors.New("unknown message kind")

// Envelope frames every message on the wire. From names the sending
// process, RequestID ties a response to its request.
type Envelope struct {
	Kind      types.Kind      `json:"kind"`
	From      string          `json:"from"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

func Encode(from, requestID string, msg types.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal %s", msg.Kind())
	}
	buf, err := json.Marshal(Envelope{
		Kind:      msg.Kind(),
		From:      from,
		RequestID: requestID,
		Payload:   payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal envelope")
	}
	return buf, nil
}

func Decode(buf []byte) (Envelope, types.Message, error) {
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return env, nil, errors.Wrap(err, "could not unmarshal envelope")
	}
	decode, ok := decoders[env.Kind]
	if !ok {
		return env, nil, errors.Wrapf(ErrUnknownKind, "%q", env.Kind)
	}
	msg, err := decode(env.Payload)
	if err != nil {
		return env, nil, errors.Wrapf(err, "could not unmarshal %s", env.Kind)
	}
	return env, msg, nil
}

func decodeAs[T types.Message](raw json.RawMessage) (types.Message, error) {
	var m T
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var decoders = map[types.Kind]func(json.RawMessage) (types.Message, error){
	types.KindRegisterWorkerGroup:             decodeAs[types.RegisterWorkerGroup],
	types.KindRegisterWorkerGroupResponse:     decodeAs[types.RegisterWorkerGroupResponse],
	types.KindSaveInstanceState:               decodeAs[types.SaveInstanceState],
	types.KindSaveInstanceStateResponse:       decodeAs[types.SaveInstanceStateResponse],
	types.KindGetInstanceState:                decodeAs[types.GetInstanceState],
	types.KindGetInstanceStateResponse:        decodeAs[types.GetInstanceStateResponse],
	types.KindJoinTopology:                    decodeAs[types.JoinTopology],
	types.KindNewPhysicalPlan:                 decodeAs[types.NewPhysicalPlan],
	types.KindInstanceStateStored:             decodeAs[types.InstanceStateStored],
	types.KindStartStatefulCheckpoint:         decodeAs[types.StartStatefulCheckpoint],
	types.KindRestoreTopologyState:            decodeAs[types.RestoreTopologyState],
	types.KindRestoredTopologyState:           decodeAs[types.RestoredTopologyState],
	types.KindStartStatefulProcessing:         decodeAs[types.StartStatefulProcessing],
	types.KindData:                            decodeAs[types.Data],
	types.KindCheckpointMarker:                decodeAs[types.CheckpointMarker],
	types.KindInitiateCheckpoint:              decodeAs[types.InitiateCheckpoint],
	types.KindRestoreInstanceState:            decodeAs[types.RestoreInstanceState],
	types.KindRestoredInstanceState:           decodeAs[types.RestoredInstanceState],
	types.KindStartInstanceStatefulProcessing: decodeAs[types.StartInstanceStatefulProcessing],
}
