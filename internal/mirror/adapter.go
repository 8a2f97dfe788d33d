// Package mirror writes the real-time projection consumed by gate actuators
// and dashboards. The projection is derived data: it is rebuilt from the
// ledger at any time and carries no durability guarantee of its own.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout in redis.
const (
	vehicleKeyPrefix = "vehicles:"
	lastActionKey    = "vehicle_last_action"
	lastScanKey      = "last_scan"
	doorKeyPrefix    = "door_status:"
)

// VehicleStatus is the per-vehicle mirror entry.
type VehicleStatus struct {
	LicensePlate string     `json:"license_plate"`
	SessionID    int64      `json:"session_id"`
	EntryTime    time.Time  `json:"entry_time"`
	ExitTime     *time.Time `json:"exit_time,omitempty"`
	RFIDCode     string     `json:"rfid_code,omitempty"`
	ImageSrc     string     `json:"image_src,omitempty"`
}

// LastAction is the most recent classifier outcome, vehicle attached.
type LastAction struct {
	Action string        `json:"action"`
	Info   VehicleStatus `json:"info"`
}

// LastScan points dashboards at the most recent gate capture.
type LastScan struct {
	ImageSrc     string `json:"image_src"`
	LicensePlate string `json:"license_plate"`
}

// DoorStatus mirrors one door flag.
type DoorStatus struct {
	IsOpen bool `json:"is_open"`
}

// Adapter holds the redis handle for all mirror writes. Entries never
// expire; stale state is resolved by the synchronizer, not by TTL.
type Adapter struct {
	client *redis.Client
}

// NewAdapter returns a redis-backed mirror adapter.
func NewAdapter(client *redis.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) vehicleKey(plate string) string {
	return vehicleKeyPrefix + SanitizePlate(plate)
}

// SetVehicleStatus overwrites the vehicle's mirror entry wholesale.
func (a *Adapter) SetVehicleStatus(ctx context.Context, plate string, status VehicleStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return a.client.Set(ctx, a.vehicleKey(plate), data, 0).Err()
}

// RemoveVehicle drops the vehicle's entry after exit.
func (a *Adapter) RemoveVehicle(ctx context.Context, plate string) error {
	return a.client.Del(ctx, a.vehicleKey(plate)).Err()
}

// SetLastAction publishes the most recent event disposition.
func (a *Adapter) SetLastAction(ctx context.Context, action string, info VehicleStatus) error {
	data, err := json.Marshal(LastAction{Action: action, Info: info})
	if err != nil {
		return err
	}
	return a.client.Set(ctx, lastActionKey, data, 0).Err()
}

// SetLastScan publishes the most recent gate capture reference.
func (a *Adapter) SetLastScan(ctx context.Context, imageSrc, plate string) error {
	data, err := json.Marshal(LastScan{ImageSrc: imageSrc, LicensePlate: plate})
	if err != nil {
		return err
	}
	return a.client.Set(ctx, lastScanKey, data, 0).Err()
}

// SetDoorStatus projects a door flag for actuators/dashboards.
func (a *Adapter) SetDoorStatus(ctx context.Context, door string, isOpen bool) error {
	data, err := json.Marshal(DoorStatus{IsOpen: isOpen})
	if err != nil {
		return err
	}
	return a.client.Set(ctx, doorKeyPrefix+SanitizePlate(door), data, 0).Err()
}

// ClearVehicles removes the whole vehicle tree. The synchronizer calls this
// unconditionally before rebuilding from the ledger.
func (a *Adapter) ClearVehicles(ctx context.Context) error {
	iter := a.client.Scan(ctx, 0, vehicleKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := a.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear vehicles: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("clear vehicles: %w", err)
	}
	return nil
}
