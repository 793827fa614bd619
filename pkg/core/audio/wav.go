package audio

import (
	"encoding/binary"
	"fmt"
)

// wavHeaderSize is the size of a canonical PCM RIFF header.
const wavHeaderSize = 44

// EncodeWAV wraps raw PCM data in a WAV container using the given format.
// The capture component calls this once, on stop, to finalize the payload
// sent to the transcription service.
func EncodeWAV(pcm []byte, cfg Config) []byte {
	byteRate := cfg.BytesPerSecond()
	blockAlign := cfg.Channels * cfg.BitsPerSample / 8

	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], uint16(cfg.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(cfg.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(cfg.BitsPerSample))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out
}

// DecodeWAV extracts the PCM payload and format from a WAV container.
// Only uncompressed PCM is supported; the synthesis service produces
// nothing else.
func DecodeWAV(data []byte) ([]byte, Config, error) {
	if len(data) < wavHeaderSize {
		return nil, Config{}, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, Config{}, fmt.Errorf("not a RIFF/WAVE container")
	}

	format := binary.LittleEndian.Uint16(data[20:22])
	if format != 1 {
		return nil, Config{}, fmt.Errorf("unsupported wav format code %d", format)
	}

	cfg := Config{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}

	// Walk chunks to find "data"; some encoders insert extra chunks
	// between "fmt " and "data".
	pos := 36
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		if id == "data" {
			end := pos + 8 + size
			if end > len(data) {
				end = len(data)
			}
			return data[pos+8 : end], cfg, nil
		}
		pos += 8 + size
	}

	return nil, Config{}, fmt.Errorf("wav data chunk not found")
}
