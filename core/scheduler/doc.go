// Package scheduler computes charge timers for a set of accounts sharing one
// regeneration cooldown. It builds equalization plans telling how many charges
// each account should spend now so that every account becomes full at the same
// moment, and estimates how long a given number of pixels takes to place.
//
// All functions are pure. A cooldown must be strictly positive; use New or
// Config.Validate to enforce it before calling the free functions.
package scheduler
