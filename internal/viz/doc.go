// Package viz renders simulation output in the terminal.
//
// [PlotHistogram] draws a histogram as an ASCII chart, [SummaryTable] and
// [SpeciesTable] format run totals and the species registry, and
// [LiveModel] is a Bubble Tea program that runs an experiment batch by
// batch while plotting its histograms.
//
// # Key Bindings
//
//	Space - Pause/Resume generation
//	Tab   - Next histogram
//	Q     - Quit
package viz
