package wave

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/appzem/alarm-engine/internal/alert"
	"github.com/appzem/alarm-engine/internal/logger"
)

// Audio context is a process-wide singleton: oto supports a single context
// per process, so the first successfully opened format wins.
//
//nolint:gochecknoglobals
var (
	audioCtx     *oto.Context
	audioCtxOnce sync.Once
	audioCtxErr  error
)

// Player is a Sounder that loops a WAV file until stopped.
type Player struct {
	// path is the WAV file on disk.
	path string

	// mu protects player across Start/Stop.
	mu sync.Mutex
	// player is the live oto player, nil when idle.
	player *oto.Player
}

// NewPlayer returns a looping player for the given WAV file.
// The file is opened lazily on Start so a missing file degrades the alert
// instead of failing engine startup.
func NewPlayer(path string) *Player {
	return &Player{path: filepath.Clean(path)}
}

// Start reads and parses the WAV file, initialises the shared audio context
// and begins looping playback. Errors wrap alert.ErrResourceUnavailable.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil {
		return nil
	}

	contents, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", alert.ErrResourceUnavailable, p.path, err)
	}

	format, samples, err := parseWAV(contents)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", alert.ErrResourceUnavailable, p.path, err)
	}

	if err = initAudioContext(format); err != nil {
		return fmt.Errorf("%w: %w", alert.ErrResourceUnavailable, err)
	}

	p.player = audioCtx.NewPlayer(&loopReader{data: samples})
	p.player.Play()

	logger.DebugKV(ctx, "Looping alarm sound started", "file", p.path,
		"sample_rate", format.SampleRate, "channels", format.Channels)

	return nil
}

// Stop halts playback and releases the player. Safe when not playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return
	}

	if err := p.player.Close(); err != nil {
		logger.WarnKV(context.Background(), "Failed to close audio player", "error", err)
	}

	p.player = nil
}

// initAudioContext opens the shared oto context for the given format,
// waiting for the hardware device to become ready.
func initAudioContext(format *wavFormat) error {
	audioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			audioCtxErr = fmt.Errorf("initialise audio context: %w", err)

			return
		}

		<-ready
		audioCtx = ctx
	})

	return audioCtxErr
}

// loopReader replays the sample buffer forever, producing a seamless loop.
type loopReader struct {
	data []byte
	pos  int
}

func (r *loopReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) {
		n := copy(p[total:], r.data[r.pos:])
		total += n

		r.pos += n
		if r.pos >= len(r.data) {
			r.pos = 0
		}
	}

	return total, nil
}
