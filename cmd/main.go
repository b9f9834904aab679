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
	kisanhttp "kisan-voice-client/internal/http"
	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability"
	"kisan-voice-client/internal/service/capture/microphone"
	"kisan-voice-client/internal/service/session"
	"kisan-voice-client/internal/service/speech"
	"kisan-voice-client/internal/service/speech/playback"
)

func main() {
	os.Exit(run())
}

func run() int {
	listen := flag.Bool("listen", false, "Record one voice query from the microphone and print the result")
	say := flag.String("say", "", "Speak the given text in the current language")
	translate := flag.String("translate", "", "Translate the given text into the current language")
	lang := flag.String("lang", "", "Language code to select (saved as the preference)")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return 1
	}

	if *lang != "" {
		code, err := locale.Parse(*lang)
		if err != nil {
			log.Error().Err(err).Msg("Invalid -lang")
			return 2
		}
		if err := application.SetLanguage(ctx, code); err != nil {
			log.Error().Err(err).Msg("Failed to select language")
			return 1
		}
	}

	switch {
	case *listen:
		return runListen(ctx, application)
	case *say != "":
		return runSay(application, *say)
	case *translate != "":
		out, err := application.Translate(ctx, *translate)
		if err != nil {
			log.Error().Err(err).Msg("Translation failed")
			return 1
		}
		fmt.Println(out)
		return 0
	default:
		runDiagnostics(ctx, application)
		return 0
	}
}

func runListen(ctx context.Context, application *app.Application) int {
	mic, err := microphone.Open(microphone.Config{
		SampleRateHz:    application.Cfg.Recording.SampleRateHz,
		FramesPerBuffer: application.Cfg.Recording.FramesPerBuffer,
	})
	if err != nil {
		log.Error().Err(err).Msg("Microphone unavailable")
		return 1
	}
	defer mic.Close()

	rec := application.NewRecorder(mic, mic.Format())
	lang := application.Language()

	results := make(chan session.Result, 1)
	s, err := rec.Start(ctx, lang, func(r session.Result) { results <- r })
	if err != nil {
		fmt.Fprintln(os.Stderr, application.Resolve(lang, "micError", "Could not access the microphone."))
		log.Error().Err(err).Msg("Recording failed to start")
		return 1
	}
	fmt.Println(application.ListeningLabel())

	select {
	case r := <-results:
		fmt.Println(r.Text)
		if !r.Fallback {
			speakResult(application, r)
		}
		return 0
	case <-ctx.Done():
		s.Cancel()
		return 130
	}
}

func speakResult(application *app.Application, r session.Result) {
	player, err := playback.Open()
	if err != nil {
		log.Warn().Err(err).Msg("Audio output unavailable")
		return
	}
	defer player.Close()

	d := application.NewDispatcher(player)
	d.Speak(r.Text, r.Language)
	d.Wait()
}

func runSay(application *app.Application, text string) int {
	var player speech.Player
	if application.Cfg.Speech.PlaybackEnabled {
		p, err := playback.Open()
		if err != nil {
			log.Warn().Err(err).Msg("Audio output unavailable")
		} else {
			defer p.Close()
			player = p
		}
	}

	d := application.NewDispatcher(player)
	ctx, cancel := context.WithTimeout(context.Background(), application.Cfg.Speech.Timeout)
	defer cancel()
	path, err := d.Dispatch(ctx, text, application.Language())
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not speak text")
		return 1
	}
	return 0
}

func runDiagnostics(ctx context.Context, application *app.Application) {
	srv := observability.NewServer(application.Cfg.Service.MetricsAddr, kisanhttp.NewRouter(application))
	srv.Start()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Diagnostics server shutdown error")
	}
}
