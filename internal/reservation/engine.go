package reservation

import (
	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// Deps are the collaborators shared by every engine component.
type Deps struct {
	Store    repository.Store
	Settings Settings
	Clock    clock.Clock
	Codes    utils.CodeGenerator
	Events   Publisher
}

// Engine groups the components over one set of Deps.
type Engine struct {
	Availability *Availability
	Holds        *Holds
	Pricing      *Pricing
	Policy       CancellationPolicy
	Workflow     *Workflow
	Trips        *TripLifecycle
	NoShows      *NoShowSweeper
}

// New builds an Engine. A nil Clock means the wall clock and nil Codes the
// UUID generator.
func New(d Deps) *Engine {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Codes == nil {
		d.Codes = utils.NewUUIDCodes()
	}
	return &Engine{
		Availability: NewAvailability(d.Store, d.Clock),
		Holds:        NewHolds(d.Store, d.Settings, d.Clock, d.Codes),
		Pricing:      NewPricing(d.Store, d.Settings),
		Policy:       NewCancellationPolicy(d.Settings),
		Workflow:     NewWorkflow(d.Store, d.Settings, d.Clock, d.Codes, d.Events),
		Trips:        NewTripLifecycle(d.Store),
		NoShows:      NewNoShowSweeper(d.Store, d.Settings, d.Events),
	}
}
