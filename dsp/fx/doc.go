// Package fx implements the stateful post-processing filters applied to
// decoded PCM blocks: a resonant biquad (low/high/band-pass), a per-channel
// echo line and a Freeverb-derived reverb network.
//
// Every filter embeds a [ParameterSet] holding indexed float parameters, a
// change mask consumed on the next [Filter.Process] call and a wet strength.
// Filters mutate the [Buffer] in place and are owned by a single audio
// goroutine; they are not safe for concurrent use.
//
// Filters are built directly (NewBiquad, NewEcho, NewReverb) or by name
// through a [Registry], and can be stacked with a [Chain].
package fx
