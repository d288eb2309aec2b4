// Package audio converts submitted media into the encoding a speech-to-text
// provider expects. It delegates the actual transcoding to an external ffmpeg
// process through temporary files and never inspects input content itself.
package audio
