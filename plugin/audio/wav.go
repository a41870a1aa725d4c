package audio

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// EncodeWAV wraps 16-bit mono PCM samples in a WAV container suitable for
// upload to transcription providers.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)

	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// DecodeWAV extracts 16-bit mono PCM samples from a WAV blob. Only the
// format produced by EncodeWAV is supported.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a WAV stream")
	}

	var sampleRate int
	var samples []int16
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]
		if chunkSize > len(body) {
			return nil, 0, errors.Errorf("truncated %q chunk", chunkID)
		}
		body = body[:chunkSize]

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, errors.New("malformed fmt chunk")
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, errors.Errorf("unsupported WAV format: format=%d channels=%d bits=%d", format, channels, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
		case "data":
			samples = make([]int16, chunkSize/2)
			if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, samples); err != nil {
				return nil, 0, errors.Wrap(err, "failed to read samples")
			}
		}

		// Chunks are word aligned.
		offset += 8 + chunkSize + chunkSize%2
	}

	if sampleRate == 0 {
		return nil, 0, errors.New("missing fmt chunk")
	}
	if samples == nil {
		return nil, 0, errors.New("missing data chunk")
	}
	return samples, sampleRate, nil
}
