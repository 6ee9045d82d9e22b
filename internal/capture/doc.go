// Package capture implements the local recording pipeline: a frame
// compositor that samples externally owned raster surfaces and draws the
// cursor, camera bubble, and caption overlays into one target buffer per
// tick; a restartable frame clock; a stream multiplexer pairing composed
// frames with an optional microphone track; and an encoder session that
// negotiates a container/codec format, emits encoded chunks while
// recording, and assembles the final artifact on stop.
//
// The Recorder type owns the session state machine (idle, recording,
// paused, stopped) and the duration accounting that excludes pause
// intervals. All visual inputs (surfaces, overlay parameters, camera
// frames) remain owned by the surrounding application; the pipeline reads
// them through narrow interfaces and takes a snapshot per tick.
package capture
