package speech

import (
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/plugin/ai"
)

// uploadPollTranscriber works with asynchronous providers: the clip is
// uploaded, the provider returns a job id, and the caller polls until the
// job completes or the attempt budget runs out.
type uploadPollTranscriber struct {
	client       *resty.Client
	model        string
	pollInterval time.Duration
	pollMax      int
}

type transcriptionJob struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func newUploadPollTranscriber(cfg *ai.SpeechConfig) (*uploadPollTranscriber, error) {
	if cfg.STTAPIKey == "" {
		return nil, errors.New("speech-to-text API key is required")
	}
	if cfg.STTBaseURL == "" {
		return nil, errors.New("speech-to-text base URL is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.STTBaseURL).
		SetAuthToken(cfg.STTAPIKey).
		SetTimeout(timeout)

	return &uploadPollTranscriber{
		client:       client,
		model:        cfg.STTModel,
		pollInterval: cfg.PollInterval,
		pollMax:      cfg.PollMaxAttempts,
	}, nil
}

func (t *uploadPollTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcript, error) {
	job, err := t.upload(ctx, filename, audio)
	if err != nil {
		return nil, err
	}

	return t.poll(ctx, job.ID)
}

func (t *uploadPollTranscriber) upload(ctx context.Context, filename string, audio io.Reader) (*transcriptionJob, error) {
	var job transcriptionJob
	resp, err := t.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, audio).
		SetFormData(map[string]string{"model": t.model}).
		SetResult(&job).
		Post("/v1/transcriptions")
	if err != nil {
		return nil, errors.Wrap(ErrTranscriptionFailed, err.Error())
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrTranscriptionFailed, "upload returned %s", resp.Status())
	}
	if job.ID == "" {
		return nil, errors.Wrap(ErrTranscriptionFailed, "upload returned no job id")
	}

	return &job, nil
}

// poll checks the job once per interval. It gives up with
// ErrTranscriptionTimeout after pollMax attempts and returns early if the
// context is cancelled between attempts.
func (t *uploadPollTranscriber) poll(ctx context.Context, jobID string) (*Transcript, error) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < t.pollMax; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		var job transcriptionJob
		resp, err := t.client.R().
			SetContext(ctx).
			SetResult(&job).
			Get("/v1/transcriptions/" + jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(ErrTranscriptionFailed, err.Error())
		}
		if resp.IsError() {
			return nil, errors.Wrapf(ErrTranscriptionFailed, "poll returned %s", resp.Status())
		}

		switch job.Status {
		case "completed":
			return jobTranscript(&job), nil
		case "error", "failed":
			return nil, errors.Wrap(ErrTranscriptionFailed, job.Error)
		default:
			// queued or processing, keep waiting
		}
	}

	return nil, ErrTranscriptionTimeout
}

func jobTranscript(job *transcriptionJob) *Transcript {
	transcript := &Transcript{
		Text:            job.Text,
		Language:        job.Language,
		DurationSeconds: job.Duration,
	}
	for _, seg := range job.Segments {
		transcript.Segments = append(transcript.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return transcript
}
