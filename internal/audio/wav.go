package audio

import (
	"encoding/binary"
	"fmt"
)

// WAV container constants for uncompressed 16-bit linear PCM.
const (
	headerSize     = 44
	fmtChunkSize   = 16
	formatPCM      = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// EncodeWAV wraps raw 16-bit little-endian linear PCM samples in a RIFF/WAVE
// container. The output is the 44-byte canonical header followed by the sample
// bytes unmodified. Pure and deterministic: identical inputs always produce
// byte-identical output.
//
// The encoder does not validate sample alignment; callers must check
// ValidateAlignment before encoding.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	dataSize := uint32(len(pcm))
	blockAlign := uint16(channels * bytesPerSample)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	out := make([]byte, headerSize+len(pcm))

	// RIFF chunk descriptor
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")

	// fmt sub-chunk
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	// data sub-chunk
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)
	copy(out[44:], pcm)

	return out
}

// ValidateAlignment checks that a PCM buffer divides evenly into whole frames
// of 16-bit samples for the given channel count. A misaligned buffer would
// make the container's declared data size inconsistent with its contents, so
// it must be rejected before encoding.
func ValidateAlignment(pcm []byte, channels int) error {
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	frameSize := channels * bytesPerSample
	if len(pcm)%frameSize != 0 {
		return fmt.Errorf("PCM length %d is not a multiple of frame size %d (%d channels x %d bytes)",
			len(pcm), frameSize, channels, bytesPerSample)
	}
	return nil
}
