// Package spectrum turns raw sample snapshots into a frequency/magnitude
// graph for display.
//
// An [Engine] wraps every submitted snapshot in a [Query], which zero-pads it
// to the next power of two and runs a forward FFT either on the engine's
// background [Worker] or on the submitting goroutine. The UI polls
// [Engine.QueryRMSGraph] or [Engine.QueryDBGraph] once per frame; finished
// queries are drained in submission order and the most recent result
// repopulates the [Graph].
//
// Cancellation is cooperative and never reported as an error: a cancelled
// query finishes without a result.
package spectrum
