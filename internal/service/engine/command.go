package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/appzem/alarm-engine/internal/alert"
	"github.com/appzem/alarm-engine/internal/alert/wave"
	"github.com/appzem/alarm-engine/internal/config"
	engineimpl "github.com/appzem/alarm-engine/internal/engine"
	"github.com/appzem/alarm-engine/internal/httpapi"
	"github.com/appzem/alarm-engine/internal/logger"
	"github.com/appzem/alarm-engine/internal/metrics"
	"github.com/appzem/alarm-engine/internal/mission"
	"github.com/appzem/alarm-engine/internal/store"
)

// Options controls the alarm-engine process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP API.
	ListenAddress string
	// SoundFile provides an optional override for the alert WAV file.
	SoundFile string
}

// shutdownTimeout bounds the HTTP server drain on shutdown.
const shutdownTimeout = 10 * time.Second

// Run starts the engine loop and the HTTP API, then blocks until the context
// is canceled. Configuration is loaded first; collaborators configured with
// empty URLs or paths are simply left out and the engine degrades around them.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-engine")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	soundFile := settings.SoundFile
	if opts.SoundFile != "" {
		soundFile = opts.SoundFile
	}

	metrics.Init()

	engineOpts := &engineimpl.Options{
		Vibrator:       alert.NewSurfaceVibrator(alert.DefaultPattern),
		Interval:       settings.PollInterval,
		MissionTimeout: settings.Timeout,
		RemoteTimeout:  settings.Timeout,
	}

	if soundFile != "" {
		engineOpts.Sounder = wave.NewPlayer(soundFile)
	}

	if settings.QuestionBankURL != "" {
		bank, bankErr := mission.NewBankClient(settings.QuestionBankURL, settings.Timeout)
		if bankErr != nil {
			return fmt.Errorf("initialise question bank client: %w", bankErr)
		}

		engineOpts.Missions = bank
	}

	var remote *store.Client

	if settings.AlarmStoreURL != "" {
		remote, err = store.NewClient(settings.AlarmStoreURL, settings.Timeout)
		if err != nil {
			return fmt.Errorf("initialise alarm store client: %w", err)
		}

		engineOpts.Remote = remote
	}

	eng := engineimpl.New(engineOpts)

	seedRegistry(ctx, eng, remote, settings.Timeout)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	server := &http.Server{
		Handler:           httpapi.NewServer(eng).Router(),
		ReadHeaderTimeout: settings.Timeout,
	}

	logger.InfoKV(ctx, "Alarm engine listening",
		"listen_address", listenAddress,
		"poll_interval", settings.PollInterval.String(),
		"sound_file", soundFile,
		"alarm_store_url", settings.AlarmStoreURL,
		"question_bank_url", settings.QuestionBankURL)

	// Done channel is closed once the engine loop has fully stopped so we
	// block until the active alert session, if any, is released.
	done := make(chan struct{})

	go func() {
		defer close(done)

		if runErr := eng.Run(ctx); runErr != nil {
			logger.ErrorKV(ctx, "Engine loop failed", "error", runErr)
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.WarnKV(ctx, "HTTP server shutdown failed", "error", shutdownErr)
		}
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "Alarm engine stopped")

	return nil
}

// seedRegistry loads the remote store's alarms into the engine before the
// first tick. Fetch failures are logged: the engine starts empty and the
// store keeps getting mirrored pushes.
func seedRegistry(ctx context.Context, eng *engineimpl.Engine, remote *store.Client, timeout time.Duration) {
	if remote == nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	alarms, err := remote.List(fetchCtx)
	if err != nil {
		logger.WarnKV(ctx, "Failed to fetch alarms from store, starting empty", "error", err)
		return
	}

	eng.Seed(ctx, alarms)
}
