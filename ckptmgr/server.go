// Package ckptmgr is the checkpoint manager: it stores and serves the
// instance states of the worker group registered with it.
package ckptmgr

import (
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/storage"
	"github.com/stratastream/stateful/types"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

var ErrUnexpectedMessage = errors.New("unexpected message")

// Server answers the requests of one worker group. It is not safe for
// concurrent use.
type Server struct {
	log      *logging.Logger
	cfg      Config
	topology string
	runID    string
	backend  storage.Backend
	cache    *lru.Cache[storage.Key, []byte]

	registered types.WorkerGroupID
}

func NewServer(log *logging.Logger, cfg Config, topology, runID string, backend storage.Backend) (*Server, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	s := &Server{
		log:      log,
		cfg:      cfg,
		topology: topology,
		runID:    runID,
		backend:  backend,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[storage.Key, []byte](cfg.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "could not create state cache")
		}
		s.cache = cache
	}
	return s, nil
}

// ReloadConf updates the internal configuration. The cache size only
// changes on restart.
func (s *Server) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.cfg = cfg
}

// Registered returns the worker group holding the session, empty if none.
func (s *Server) Registered() types.WorkerGroupID {
	return s.registered
}

// Handle answers msg.
func (s *Server) Handle(msg types.Message) (types.Message, error) {
	switch m := msg.(type) {
	case types.RegisterWorkerGroup:
		return s.Register(m), nil
	case types.SaveInstanceState:
		return s.Save(m), nil
	case types.GetInstanceState:
		return s.Get(m), nil
	default:
		return nil, errors.Wrapf(ErrUnexpectedMessage, "%s", msg.Kind())
	}
}

// Register opens the session of a worker group. A registration while a
// session is open closes that session and is refused, the worker group
// registers again.
func (s *Server) Register(req types.RegisterWorkerGroup) types.RegisterWorkerGroupResponse {
	s.log.Info("register request",
		logging.WorkerGroupID(req.WorkerGroup),
		logging.String("topology", req.Topology),
		logging.String("run-id", req.RunID),
	)
	var status types.Status
	switch {
	case req.Topology != s.topology:
		s.log.Error("register request from a different topology",
			logging.String("topology", req.Topology),
			logging.String("expected", s.topology),
		)
		status = types.NotOK("unknown topology " + req.Topology)
	case req.RunID != s.runID:
		s.log.Error("register request from a different topology run",
			logging.String("run-id", req.RunID),
			logging.String("expected", s.runID),
		)
		status = types.NotOK("unknown run id " + req.RunID)
	case len(s.registered) > 0:
		s.log.Warn("worker group already registered, closing its session",
			logging.WorkerGroupID(s.registered),
		)
		s.registered = ""
		status = types.NotOK("a session was already open")
	default:
		s.registered = req.WorkerGroup
		status = types.OK()
	}
	metrics.CkptmgrRequestInc("register", status.Code.String())
	return types.RegisterWorkerGroupResponse{Status: status}
}

// Unregister closes the session of wg, if it holds it.
func (s *Server) Unregister(wg types.WorkerGroupID) {
	if s.registered == wg {
		s.registered = ""
	}
}

func (s *Server) key(ic types.InstanceCheckpoint) storage.Key {
	return storage.Key{
		Topology:     s.topology,
		CheckpointID: ic.CheckpointID,
		Component:    ic.Component,
		Task:         ic.Task,
	}
}

func (s *Server) Save(req types.SaveInstanceState) types.SaveInstanceStateResponse {
	key := s.key(req.Instance)
	status := types.OK()
	if err := s.backend.Store(key, req.State); err != nil {
		s.log.Error("checkpoint failed",
			logging.CheckpointID(key.CheckpointID),
			logging.String("component", key.Component),
			logging.TaskID(key.Task),
			logging.Error(err),
		)
		status = types.NotOK(err.Error())
	} else {
		s.log.Debug("checkpoint successful",
			logging.CheckpointID(key.CheckpointID),
			logging.String("component", key.Component),
			logging.TaskID(key.Task),
		)
		if s.cache != nil {
			s.cache.Add(key, req.State)
		}
		metrics.CkptmgrStateBytesObserve("save", len(req.State))
	}
	metrics.CkptmgrRequestInc("save", status.Code.String())
	return types.SaveInstanceStateResponse{
		Status:   status,
		Instance: req.Instance,
	}
}

// Get returns the stored state. The empty checkpoint id is the state of a
// task starting from scratch, it is empty and always found.
func (s *Server) Get(req types.GetInstanceState) types.GetInstanceStateResponse {
	resp := types.GetInstanceStateResponse{
		Status:   types.OK(),
		Instance: req.Instance,
	}
	if req.Instance.CheckpointID.IsEmpty() {
		s.log.Info("checkpoint id is empty, sending empty state", logging.TaskID(req.Instance.Task))
		metrics.CkptmgrRequestInc("get", resp.Status.Code.String())
		return resp
	}

	key := s.key(req.Instance)
	if s.cache != nil {
		if state, ok := s.cache.Get(key); ok {
			resp.State = state
			metrics.CkptmgrRequestInc("get", "cached")
			metrics.CkptmgrStateBytesObserve("get", len(state))
			return resp
		}
	}

	state, err := s.backend.Restore(key)
	if err != nil {
		s.log.Error("get checkpoint failed",
			logging.CheckpointID(key.CheckpointID),
			logging.String("component", key.Component),
			logging.TaskID(key.Task),
			logging.Error(err),
		)
		resp.Status = types.NotOK(err.Error())
	} else {
		resp.State = state
		metrics.CkptmgrStateBytesObserve("get", len(state))
	}
	metrics.CkptmgrRequestInc("get", resp.Status.Code.String())
	return resp
}

// ClearCache drops every cached state.
func (s *Server) ClearCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
