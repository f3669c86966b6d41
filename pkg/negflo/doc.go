// Package negflo removes negative values from a residual flow series
// (observed minus modelled) without changing the series' total volume.
//
// Negative residual flow is accumulated into a running deficit and then
// redistributed over nearby "donor" flows, i.e. values at or above a flow
// limit. Only the part of a donor above the flow limit (its excess) is ever
// scaled, so smoothed values never fall below the limit:
//
//	excess  = Σ (v - limit)
//	rf      = 1 - |deficit| / excess
//	v'      = limit + (v - limit) * rf
//
// When the excess cannot absorb the whole deficit every donor is flattened to
// the limit and the remaining deficit is carried to the next donor block, or
// dropped, depending on the mode.
//
// # Modes
//
// Each mode has a short name that doubles as the output file extension:
//
//	rw1  raw residual, the reset baseline
//	cl1  negative values clipped to zero
//	sm1  one redistribution over every donor in the series
//	sm2  forward: deficits absorbed by the following donor block
//	sm3  forward without carry-over
//	sm4  backward: deficits absorbed by the preceding donor block
//	sm5  backward without carry-over
//	sm6  segmented (not implemented)
//	sm7  bidirectional: the larger flanking donor block absorbs
//
// # Usage
//
//	e := negflo.New(residual, 0.5, negflo.WithLogger(logger))
//	if err := e.Apply(ctx, negflo.ModeForward); err != nil {
//	    return err
//	}
//	for _, col := range e.Overflow().Unresolved() {
//	    // not enough positive flow to absorb every negative
//	}
//
// Columns are independent and are smoothed concurrently. Leftover negative
// volume is never an error: it is recorded in the engine's [Overflow] map and
// logged at warn level.
package negflo
