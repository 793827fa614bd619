// Package switchmon monitors an AOS-CX switch: REST polling of port
// state for the dashboard and a websocket subscription for state-change
// notifications.
package switchmon

import (
	"encoding/json"
	"fmt"

	"github.com/janahq/jana-core/pkg/store/kv"
)

// Device identifies the switch being monitored.
type Device struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Version  string `json:"version"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadSelectedDevice reads the persisted device selection. Returns nil
// when no device is selected.
func LoadSelectedDevice(store kv.Store) (*Device, error) {
	raw, err := store.Get(kv.KeySelectedDevice)
	if err != nil {
		return nil, fmt.Errorf("read selected device: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var d Device
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode selected device: %w", err)
	}
	return &d, nil
}

// SaveSelectedDevice persists the device selection.
func SaveSelectedDevice(store kv.Store, d *Device) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode selected device: %w", err)
	}
	return store.Set(kv.KeySelectedDevice, string(raw))
}
