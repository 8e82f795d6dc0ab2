package portal

import (
	"encoding/json"

	"github.com/go-errors/errors"
)

type scanCacheItem struct {
	Name string `json:"name"`
}

// scanCache keeps the serialized results of the last successful scan.
type scanCache struct {
	payload []byte
}

func newScanCache() *scanCache {
	return &scanCache{
		payload: []byte("[]"),
	}
}

func (s *scanCache) update(ssids []string) error {
	items := []*scanCacheItem{} // literal so it serializes into an empty json array
	for _, ssid := range ssids {
		items = append(items, &scanCacheItem{Name: ssid})
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return errors.Errorf("could not serialize scan results: %v", err)
	}

	s.payload = payload

	return nil
}

func (s *scanCache) json() []byte {
	payload := make([]byte, len(s.payload))
	copy(payload, s.payload)

	return payload
}
