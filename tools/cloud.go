package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Instance states, matching the cloud provider's lifecycle vocabulary.
const (
	StateRunning = "running"
	StateStopped = "stopped"
	StatePending = "pending"
	StateStopping = "stopping"
)

var (
	// ErrInstanceNotFound is returned for unknown instance ids.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrInvalidInstanceID is returned when an id does not look like
	// an instance id (i- prefix).
	ErrInvalidInstanceID = errors.New("invalid instance id")
)

// Instance is one compute instance in the simulated inventory.
type Instance struct {
	ID         string    `json:"instance_id"`
	Name       string    `json:"name"`
	Type       string    `json:"instance_type"`
	State      string    `json:"state"`
	Zone       string    `json:"availability_zone"`
	LaunchedAt time.Time `json:"launch_time"`
}

// Snapshot is a point-in-time snapshot of an instance's volume.
type Snapshot struct {
	ID          string    `json:"snapshot_id"`
	InstanceID  string    `json:"instance_id"`
	Description string    `json:"description,omitempty"`
	State       string    `json:"state"`
	StartedAt   time.Time `json:"start_time"`
}

// Inventory is a simulated cloud resource backend. It stands in for
// the real cloud API during development and tests.
type Inventory struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	snapshots map[string]*Snapshot
	logger    *zap.Logger
}

// NewInventory creates an empty inventory.
func NewInventory(logger *zap.Logger) *Inventory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inventory{
		instances: make(map[string]*Instance),
		snapshots: make(map[string]*Snapshot),
		logger:    logger.With(zap.String("component", "cloud_inventory")),
	}
}

// AddInstance seeds an instance into the inventory.
func (inv *Inventory) AddInstance(inst Instance) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inst.LaunchedAt.IsZero() {
		inst.LaunchedAt = time.Now().UTC()
	}
	inv.instances[inst.ID] = &inst
}

func validateInstanceID(id string) error {
	if !strings.HasPrefix(id, "i-") || len(id) < 3 {
		return fmt.Errorf("%w: %q", ErrInvalidInstanceID, id)
	}
	return nil
}

// Describe returns a copy of the instance record.
func (inv *Inventory) Describe(id string) (Instance, error) {
	if err := validateInstanceID(id); err != nil {
		return Instance{}, err
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	inst, ok := inv.instances[id]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	return *inst, nil
}

// Start transitions an instance toward running, returning the previous
// and current state.
func (inv *Inventory) Start(id string) (previous, current string, err error) {
	if err := validateInstanceID(id); err != nil {
		return "", "", err
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inst, ok := inv.instances[id]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	previous = inst.State
	if inst.State == StateStopped {
		inst.State = StatePending
	}
	return previous, inst.State, nil
}

// Stop transitions an instance toward stopped.
func (inv *Inventory) Stop(id string) (previous, current string, err error) {
	if err := validateInstanceID(id); err != nil {
		return "", "", err
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inst, ok := inv.instances[id]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	previous = inst.State
	if inst.State == StateRunning || inst.State == StatePending {
		inst.State = StateStopping
	}
	return previous, inst.State, nil
}

// Snapshot creates a snapshot record for the instance.
func (inv *Inventory) Snapshot(id, description string) (Snapshot, error) {
	if err := validateInstanceID(id); err != nil {
		return Snapshot{}, err
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.instances[id]; !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	snap := Snapshot{
		ID:          "snap-" + uuid.NewString()[:8],
		InstanceID:  id,
		Description: description,
		State:       StatePending,
		StartedAt:   time.Now().UTC(),
	}
	inv.snapshots[snap.ID] = &snap
	inv.logger.Info("snapshot created", zap.String("snapshot_id", snap.ID), zap.String("instance_id", id))
	return snap, nil
}

// Tool operation names.
const (
	OpInstanceStatus = "get_instance_status"
	OpStartInstance  = "start_instance"
	OpStopInstance   = "stop_instance"
	OpCreateSnapshot = "create_snapshot"
)

func instanceIDParam(params map[string]any) (string, error) {
	id, _ := params["instance_id"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: missing instance_id parameter", ErrInvalidInstanceID)
	}
	return id, nil
}

// RegisterCloudTools wires the inventory-backed operations into the
// registry.
func RegisterCloudTools(reg *Registry, inv *Inventory) {
	reg.Register(NewFuncTool(OpInstanceStatus,
		"Get the status of an instance: state, type, and availability zone.",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			id, err := instanceIDParam(params)
			if err != nil {
				return nil, err
			}
			inst, err := inv.Describe(id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(inst)
		}))

	reg.Register(NewFuncTool(OpStartInstance,
		"Start a stopped instance.",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			id, err := instanceIDParam(params)
			if err != nil {
				return nil, err
			}
			previous, current, err := inv.Start(id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{
				"instance_id":    id,
				"previous_state": previous,
				"current_state":  current,
			})
		}))

	reg.Register(NewFuncTool(OpStopInstance,
		"Stop a running instance.",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			id, err := instanceIDParam(params)
			if err != nil {
				return nil, err
			}
			previous, current, err := inv.Stop(id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{
				"instance_id":    id,
				"previous_state": previous,
				"current_state":  current,
			})
		}))

	reg.Register(NewFuncTool(OpCreateSnapshot,
		"Create a snapshot of an instance's volume.",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			id, err := instanceIDParam(params)
			if err != nil {
				return nil, err
			}
			description, _ := params["description"].(string)
			snap, err := inv.Snapshot(id, description)
			if err != nil {
				return nil, err
			}
			return json.Marshal(snap)
		}))
}
