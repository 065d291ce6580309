/*
Package worker runs the routing side of the simulation loop. A Worker owns
the fast per-bin engines (through the graph pool), the complete engine and
the active travel-time model, and processes four kinds of messages:

  - WorkAvailable: a coordinator introduces itself; the worker starts
    pulling requests from it.
  - routing.Request: one trip to route. The worker first tries the fast
    per-bin instances per supported mode, then falls back to the complete
    engine for whatever the fast engines could not cover.
  - UpdateTravelTimeModel: the simulation finished an iteration; swap the
    model, rebuild the per-bin graphs when time-binned routing is on, and
    reset the diagnostic counters.
  - EmbodyRequest: re-price a chosen leg with current travel times.

Work arrives strictly by pull: the worker asks the coordinator for one
request when it receives one and again when it finishes one, so the number
of requests in flight never exceeds its execution slots.

Deliver processes messages one at a time; route executions run on the slot
pool. A Deliver error is fatal for the worker process, per-request problems
are answered with routing.Failure instead.
*/
package worker
