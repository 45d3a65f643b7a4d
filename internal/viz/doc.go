// Package viz draws a running layout in the terminal.
//
// Vertices and edges are rasterized onto a braille [Canvas] through a
// [Camera] that can pan, zoom and fit the layout. [Model] is a Bubble Tea
// model that steps a [sim.Driver] on every tick and shows a kinetic energy
// chart plus an inspector for the selected vertex.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	Arrows  - Pan
//	+ / -   - Zoom
//	F       - Fit layout to view
//	Tab     - Select next vertex
//	R       - Reset layout
//	T       - Cycle color themes
//	G       - Toggle GIF recording
//	?       - Show help overlay
package viz
