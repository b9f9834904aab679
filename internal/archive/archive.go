// Package archive uploads finished recordings to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/observability/metrics"
	"kisan-voice-client/internal/service/capture"
)

// Config holds object storage settings.
type Config struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Timeout   time.Duration
}

// Archiver uploads recordings in the background. Failures are logged only.
type Archiver struct {
	put     func(ctx context.Context, key string, data []byte) error
	bucket  string
	timeout time.Duration
	enabled bool
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time

	wg sync.WaitGroup
}

// New creates an archiver. A disabled config yields a no-op archiver.
func New(cfg Config) (*Archiver, error) {
	a := &Archiver{
		bucket:  cfg.Bucket,
		timeout: cfg.Timeout,
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent("archive"),
		now:     time.Now,
	}
	if a.timeout <= 0 {
		a.timeout = 30 * time.Second
	}
	if !cfg.Enabled {
		a.log.Info().Msg("Recording archive disabled")
		return a, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	a.put = func(ctx context.Context, key string, data []byte) error {
		_, err := client.PutObject(ctx, cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "audio/wav",
		})
		return err
	}
	a.enabled = true
	a.log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("Recording archive enabled")
	return a, nil
}

// Enabled reports whether uploads happen.
func (a *Archiver) Enabled() bool {
	return a.enabled
}

// Key returns the object key for a recording.
func (a *Archiver) Key(sessionID string, lang locale.Code) string {
	return path.Join("recordings", string(lang), a.now().UTC().Format("2006/01/02"), sessionID+".wav")
}

// Archive uploads pcm as a WAV object without blocking the caller.
func (a *Archiver) Archive(sessionID string, lang locale.Code, pcm []byte, format capture.Format) {
	if !a.enabled {
		return
	}
	key := a.Key(sessionID, lang)
	data := audio.EncodeWAV(pcm, format)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := a.put(ctx, key, data)
		a.metrics.RecordArchiveUpload(err)
		if err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("Recording upload failed")
			return
		}
		a.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Recording archived")
	}()
}

// Close waits for uploads in flight.
func (a *Archiver) Close() {
	a.wg.Wait()
}
