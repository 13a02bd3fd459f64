package memstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Seed is the catalog loaded into a memory store at start-up: the trips,
// stops, users and fares that the catalog services own in production.
type Seed struct {
	Trips     []model.Trip      `json:"trips"`
	Stops     []model.Stop      `json:"stops"`
	Users     []model.User      `json:"users"`
	FareRules []model.FareRule  `json:"fare_rules"`
	Settings  map[string]string `json:"settings"`
}

// Apply copies every seed row into s.
func (s *Store) Apply(seed Seed) {
	for _, t := range seed.Trips {
		s.PutTrip(t)
	}
	for _, st := range seed.Stops {
		s.PutStop(st)
	}
	for _, u := range seed.Users {
		s.PutUser(u)
	}
	for _, r := range seed.FareRules {
		s.PutFareRule(r)
	}
	for k, v := range seed.Settings {
		s.PutSetting(k, v)
	}
}

// LoadFile builds a Store from a JSON seed file.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for _, t := range seed.Trips {
		if !t.Status.Valid() {
			return nil, fmt.Errorf("seed trip %d: unknown status %q", t.ID, t.Status)
		}
	}
	s := New()
	s.Apply(seed)
	return s, nil
}
