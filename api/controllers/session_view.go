package controllers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/placement"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// sessionView is the session state plus everything derived from it.
type sessionView struct {
	State            *orderconfig.State                         `json:"state"`
	TotalQuantity    int                                        `json:"total_quantity"`
	MinimumQuantity  int                                        `json:"minimum_quantity"`
	GarmentTotals    map[uuid.UUID]int                          `json:"garment_totals"`
	ColorTotals      map[string]int                             `json:"color_totals"`
	EnabledLocations []enums.PrintLocation                      `json:"enabled_locations"`
	Wizard           wizard.Progress                            `json:"wizard"`
	Placement        map[enums.PrintLocation]placement.Analysis `json:"placement,omitempty"`
}

func newSessionView(st *orderconfig.State, gates SessionGates) sessionView {
	view := sessionView{
		State:            st,
		TotalQuantity:    st.TotalQuantity(),
		MinimumQuantity:  gates.MinimumQuantity(),
		GarmentTotals:    map[uuid.UUID]int{},
		ColorTotals:      st.ColorTotals(),
		EnabledLocations: st.EnabledLocations(),
		Wizard:           gates.Evaluate(st),
	}
	if view.EnabledLocations == nil {
		view.EnabledLocations = []enums.PrintLocation{}
	}
	for _, id := range st.GarmentIDs() {
		view.GarmentTotals[id] = st.GarmentQuantity(id)
	}
	for loc, record := range st.Artwork {
		if record.Transform == nil || record.PixelWidth <= 0 || record.PixelHeight <= 0 {
			continue
		}
		analysis, err := placement.Analyze(loc, record.PixelWidth, record.PixelHeight, *record.Transform)
		if err != nil {
			continue
		}
		if view.Placement == nil {
			view.Placement = map[enums.PrintLocation]placement.Analysis{}
		}
		view.Placement[loc] = analysis
	}
	return view
}
