// Package event generates simulated events from the particle kernel.
//
// A [Generator] draws, for every slot of an event, polar and azimuthal
// angles, an exponentially distributed momentum and a species from a weighted
// composition. Resonances with configured [Channel]s are decayed immediately
// and replaced by their products. Failures are contained to the slot: the
// particle is skipped, logged and counted in the [Summary].
//
// [Selector] values express the pair predicates used by the reporting layer
// (opposite charge, same charge, pion+kaon by registry handle).
package event
