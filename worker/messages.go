package worker

import (
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// Coordinator is the worker's view of whoever hands out routing work. The
// worker learns its coordinator from the first WorkAvailable message and
// talks back through this interface only.
type Coordinator interface {
	// GimmeWork asks for one more request. The coordinator sends at most
	// one request per ask.
	GimmeWork(workerID string)
	// SendResponse delivers a routing result for a granted request.
	SendResponse(resp routing.Response)
	// SendFailure delivers a routing failure for a granted request.
	SendFailure(f routing.Failure)
}

// WorkAvailable announces that the coordinator has work queued. It also
// (re)introduces the coordinator to the worker.
type WorkAvailable struct {
	Coordinator Coordinator
}

// UpdateTravelTimeModel swaps the active travel-time model. Either a ready
// model or raw observations to compile; when both are set the model wins.
type UpdateTravelTimeModel struct {
	Model        *traveltime.Model
	Observations []traveltime.Observation
}

// EmbodyRequest asks to re-price an already chosen leg with the current
// travel times and the concrete vehicle that will run it.
type EmbodyRequest struct {
	Leg           routing.Leg
	VehicleID     string
	VehicleTypeID string
	RequestID     int64
}
