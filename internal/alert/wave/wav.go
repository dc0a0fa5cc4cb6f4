package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// wavFormat holds the fields of a WAV "fmt " chunk the player needs.
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

var (
	errNotWAV     = errors.New("not a RIFF/WAVE file")
	errNoData     = errors.New("missing data chunk")
	errBadBitrate = errors.New("only 16-bit PCM is supported")
)

// parseWAV extracts the format and raw sample data from a WAV file.
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	header := make([]byte, 12)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	if !bytes.Equal(header[:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return nil, nil, errNotWAV
	}

	format := new(wavFormat)

	for {
		chunkID := make([]byte, 4)
		if _, err := io.ReadFull(reader, chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, errNoData
			}

			return nil, nil, fmt.Errorf("read chunk id: %w", err)
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(chunkID) {
		case "fmt ":
			if err := readFormatChunk(reader, chunkSize, format); err != nil {
				return nil, nil, err
			}
		case "data":
			if format.SampleRate == 0 {
				return nil, nil, errNoData
			}

			if format.BitDepth != 16 {
				return nil, nil, errBadBitrate
			}

			samples := make([]byte, chunkSize)
			if _, err := io.ReadFull(reader, samples); err != nil {
				return nil, nil, fmt.Errorf("read samples: %w", err)
			}

			return format, samples, nil
		default:
			if _, err := reader.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("skip chunk %q: %w", chunkID, err)
			}
		}
	}
}

// readFormatChunk decodes the PCM format fields and skips any extension bytes.
func readFormatChunk(reader *bytes.Reader, size uint32, format *wavFormat) error {
	var fields struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	if err := binary.Read(reader, binary.LittleEndian, &fields); err != nil {
		return fmt.Errorf("read format chunk: %w", err)
	}

	format.Channels = int(fields.NumChannels)
	format.SampleRate = int(fields.SampleRate)
	format.BitDepth = int(fields.BitsPerSample)

	if size > 16 {
		if _, err := reader.Seek(int64(size-16), io.SeekCurrent); err != nil {
			return fmt.Errorf("skip format extension: %w", err)
		}
	}

	return nil
}
