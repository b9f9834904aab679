package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"kisan-voice-client/internal/app"
	"kisan-voice-client/internal/config"
	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/capture/file"
	"kisan-voice-client/internal/service/session"
)

func main() {
	os.Exit(run())
}

// run records a WAV file as if it came from the microphone and prints the
// delivered result.
func run() int {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16-bit PCM)")
	lang := flag.String("lang", "hi", "Language code of the recording")
	realtime := flag.Bool("realtime", true, "Deliver chunks at the audio's own rate")
	chunk := flag.Duration("chunk", file.DefaultChunkDuration, "Audio length per delivered chunk")
	flag.Parse()

	code, err := locale.Parse(*lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -lang: %v\n", err)
		return 2
	}

	dev, err := file.Open(*audioFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open audio file: %v\n", err)
		return 1
	}
	dev.Realtime = *realtime
	dev.ChunkDuration = *chunk

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config.Load())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	format := dev.Format()
	log.Info().
		Str("file", *audioFile).
		Int("sampleRate", format.SampleRateHz).
		Int("channels", format.Channels).
		Dur("duration", dev.Duration()).
		Msg("Replaying recording")

	rec := application.NewRecorder(dev, format)
	results := make(chan session.Result, 1)
	start := time.Now()

	s, err := rec.Start(ctx, code, func(r session.Result) { results <- r })
	if err != nil {
		log.Error().Err(err).Msg("Recording failed to start")
		return 1
	}

	select {
	case <-dev.EOF():
		s.Stop()
	case <-s.Done():
	case <-ctx.Done():
		s.Cancel()
	}

	select {
	case r := <-results:
		log.Info().
			Str("sessionId", r.SessionID).
			Bool("fallback", r.Fallback).
			Str("reason", r.Reason).
			Dur("elapsed", time.Since(start)).
			Strs("states", stateNames(s.History())).
			Msg("Session delivered")
		fmt.Println(r.Text)
		return 0
	case <-time.After(application.Cfg.Recording.TranscribeTimeout + 5*time.Second):
		log.Error().Msg("Timed out waiting for a result")
		return 1
	}
}

func stateNames(states []session.State) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.String()
	}
	return out
}
