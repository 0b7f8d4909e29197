package orderconfig

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// draft is the part of a session worth keeping across devices. Quotes are
// derived and unpersisted artwork cannot be restored, so both are omitted.
type draft struct {
	Garments    []uuid.UUID                                 `json:"garments"`
	Lines       map[uuid.UUID]Line                          `json:"lines"`
	PrintConfig types.PrintConfig                           `json:"print_config"`
	Artwork     map[enums.PrintLocation]types.ArtworkRecord `json:"artwork"`
	Customer    types.CustomerInfo                          `json:"customer"`
	Discount    *types.AppliedDiscount                      `json:"discount,omitempty"`
	Campaign    CampaignFields                              `json:"campaign"`
}

// Snapshot encodes the draft-worthy fields. Map keys are sorted by
// encoding/json so equal states produce equal bytes.
func (s *State) Snapshot() ([]byte, error) {
	artwork := map[enums.PrintLocation]types.ArtworkRecord{}
	for loc, rec := range s.Artwork {
		if rec.Persisted() {
			artwork[loc] = rec
		}
	}
	return json.Marshal(draft{
		Garments:    s.Garments,
		Lines:       s.Lines,
		PrintConfig: s.PrintConfig,
		Artwork:     artwork,
		Customer:    s.Customer,
		Discount:    s.Discount,
		Campaign:    s.Campaign,
	})
}

// Restore replaces the configuration with a saved snapshot.
func (s *State) Restore(snapshot []byte) error {
	var d draft
	if err := json.Unmarshal(snapshot, &d); err != nil {
		return fmt.Errorf("decode draft snapshot: %w", err)
	}
	s.Garments = d.Garments
	s.Lines = d.Lines
	s.PrintConfig = d.PrintConfig
	s.Artwork = d.Artwork
	s.Customer = d.Customer
	s.Discount = d.Discount
	s.Campaign = d.Campaign
	s.Quote = nil
	s.normalize()
	return nil
}
