// Package audiofile decodes audio files into interleaved float64 clips and
// writes clips back out as PCM WAV.
//
// Decoders are looked up by file extension in a Registry. The default
// registry knows WAV and AIFF (go-audio), MP3 (go-mp3) and Ogg Vorbis
// (oggvorbis). Decoded samples are normalized to [-1, 1].
package audiofile
