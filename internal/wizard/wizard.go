package wizard

import (
	"fmt"

	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// Step is one page of the order builder.
type Step string

const (
	StepGarments  Step = "garments"
	StepConfigure Step = "configure"
	StepArtwork   Step = "artwork"
	StepCheckout  Step = "checkout"
)

// Steps lists the wizard in order.
func Steps() []Step {
	return []Step{StepGarments, StepConfigure, StepArtwork, StepCheckout}
}

// StepStatus reports whether a step's gate is satisfied.
type StepStatus struct {
	Step        Step     `json:"step"`
	CanContinue bool     `json:"can_continue"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Progress is the gate evaluation for a whole session.
type Progress struct {
	Steps       []StepStatus `json:"steps"`
	CurrentStep Step         `json:"current_step"`
	CanCheckout bool         `json:"can_checkout"`
}

// Blocking returns reasons keyed by step for every failing gate.
func (p Progress) Blocking() map[Step][]string {
	out := map[Step][]string{}
	for _, s := range p.Steps {
		if !s.CanContinue {
			out[s.Step] = s.Reasons
		}
	}
	return out
}

// Evaluate runs every step gate against st. attached lists locations whose
// artwork file arrives with the current request rather than the session.
func Evaluate(st *orderconfig.State, minimumQuantity int, attached ...enums.PrintLocation) Progress {
	statuses := []StepStatus{
		status(StepGarments, garmentReasons(st)),
		status(StepConfigure, configureReasons(st, minimumQuantity)),
		status(StepArtwork, artworkReasons(st, attached)),
		status(StepCheckout, checkoutReasons(st)),
	}

	p := Progress{Steps: statuses, CurrentStep: StepCheckout, CanCheckout: true}
	for _, s := range statuses {
		if !s.CanContinue {
			p.CanCheckout = false
			p.CurrentStep = s.Step
			break
		}
	}
	return p
}

func status(step Step, reasons []string) StepStatus {
	return StepStatus{Step: step, CanContinue: len(reasons) == 0, Reasons: reasons}
}

func garmentReasons(st *orderconfig.State) []string {
	if len(st.GarmentIDs()) == 0 {
		return []string{"Select at least one garment"}
	}
	return nil
}

func configureReasons(st *orderconfig.State, minimumQuantity int) []string {
	var reasons []string
	for _, id := range st.GarmentIDs() {
		if len(st.GarmentColors(id)) == 0 {
			reasons = append(reasons, fmt.Sprintf("Choose at least one color for garment %s", id))
		}
	}
	if total := st.TotalQuantity(); total < minimumQuantity {
		reasons = append(reasons, fmt.Sprintf("Minimum order is %d pieces (currently %d)", minimumQuantity, total))
	}
	if len(st.EnabledLocations()) == 0 {
		reasons = append(reasons, "Enable at least one print location")
	}
	return reasons
}

func artworkReasons(st *orderconfig.State, attached []enums.PrintLocation) []string {
	have := map[enums.PrintLocation]bool{}
	for _, loc := range attached {
		have[loc] = true
	}
	var reasons []string
	for _, loc := range st.EnabledLocations() {
		if rec, ok := st.Artwork[loc]; (ok && rec.FileName != "") || have[loc] {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("Upload artwork for %s", loc))
	}
	return reasons
}

func checkoutReasons(st *orderconfig.State) []string {
	var reasons []string
	for _, field := range st.Customer.MissingRequired() {
		reasons = append(reasons, fmt.Sprintf("%s is required", field))
	}
	return reasons
}
