// Package render draws the arena from the latest snapshot.
//
// The Loop owns one pending animation frame at a time. In Menu mode it slowly
// orbits the map centre and clears the surface; in Game mode it centres the
// view on the local player and draws the map border, bullets, ships and
// health bars. Switching modes cancels the pending frame before scheduling
// the new painter, so two painters never run on the same frame.
//
// Drawing goes through the Surface interface and frames come from a
// FrameScheduler, which keeps the package free of any windowing library.
// FrameQueue is the scheduler used by hosts that call Flush once per frame.
package render
