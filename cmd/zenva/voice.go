package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zenvahq/zenva/plugin/audio"
)

// voiceCmd is a thin voice client for a running server: it captures one
// utterance, posts it to /api/v1/assistant/voice, prints the exchange, and
// writes the spoken reply if the server returned one.
var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "record one utterance and send it to the assistant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		input, _ := cmd.Flags().GetString("input")
		replyOut, _ := cmd.Flags().GetString("reply-out")
		conversationID, _ := cmd.Flags().GetInt32("conversation")

		if token == "" {
			token = os.Getenv("ZENVA_ACCESS_TOKEN")
		}
		if token == "" {
			return errors.New("an access token is required (--token or ZENVA_ACCESS_TOKEN)")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		clip, err := captureUtterance(ctx, input)
		if err != nil {
			return err
		}

		turn, err := postUtterance(ctx, serverURL, token, conversationID, clip.WAV())
		if err != nil {
			return err
		}

		if turn.Transcript != "" {
			fmt.Printf("you: %s\n", turn.Transcript)
		}
		fmt.Printf("zenva: %s\n", turn.Reply)
		if turn.Action != "" {
			fmt.Printf("action: %s\n", turn.Action)
		}
		if turn.ActionError != "" {
			fmt.Printf("action failed: %s\n", turn.ActionError)
		}

		if turn.Audio != "" && replyOut != "" {
			data, err := base64.StdEncoding.DecodeString(turn.Audio)
			if err != nil {
				return errors.Wrap(err, "malformed reply audio")
			}
			player := audio.NewPlayer(func() (audio.Sink, error) {
				sink, err := newFileSink(replyOut)
				if err != nil {
					return nil, err
				}
				return sink, nil
			})
			if err := player.Play(ctx, data); err != nil {
				return errors.Wrap(err, "failed to write reply audio")
			}
			fmt.Printf("reply audio written to %s\n", replyOut)
		}

		return nil
	},
}

// voiceTurn mirrors the /api/v1/assistant/voice response body.
type voiceTurn struct {
	ConversationID int32  `json:"conversationId"`
	Transcript     string `json:"transcript"`
	Reply          string `json:"reply"`
	Action         string `json:"action"`
	ActionError    string `json:"actionError"`
	Audio          string `json:"audio"`
}

// captureUtterance records one voice-activity-trimmed utterance from the
// input. "-" reads raw 16kHz PCM16 from stdin, anything else is a WAV file.
func captureUtterance(ctx context.Context, input string) (*audio.Clip, error) {
	source, sampleRate, err := newUtteranceSource(input)
	if err != nil {
		return nil, err
	}

	config := audio.DefaultRecorderConfig()
	config.SampleRate = sampleRate
	recorder := audio.NewRecorder(config, func() (audio.Source, error) { return source, nil })

	samples, err := recorder.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.New("no speech detected")
	}
	return &audio.Clip{SampleRate: sampleRate, Samples: samples}, nil
}

func newUtteranceSource(input string) (audio.Source, int, error) {
	if input == "" || input == "-" {
		return &pcmSource{r: os.Stdin}, 16000, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to read input")
	}
	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode input")
	}
	return &memorySource{samples: samples}, sampleRate, nil
}

func postUtterance(ctx context.Context, baseURL, token string, conversationID int32, wav []byte) (*voiceTurn, error) {
	turn := &voiceTurn{}
	apiErr := &struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{}

	resp, err := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		R().
		SetContext(ctx).
		SetFileReader("audio", "utterance.wav", bytes.NewReader(wav)).
		SetFormData(map[string]string{"conversationId": strconv.Itoa(int(conversationID))}).
		SetResult(turn).
		SetError(apiErr).
		Post("/api/v1/assistant/voice")
	if err != nil {
		return nil, errors.Wrap(err, "voice request failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("server replied %s: %s", resp.Status(), apiErr.Message)
	}

	return turn, nil
}

// pcmSource streams raw little-endian PCM16 frames from a reader.
type pcmSource struct {
	r io.Reader
}

func (s *pcmSource) Read(frame []int16) (int, error) {
	buf := make([]byte, len(frame)*2)
	n, err := io.ReadFull(s.r, buf)
	for i := 0; i < n/2; i++ {
		frame[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n / 2, err
}

func (s *pcmSource) Close() error {
	return nil
}

// memorySource serves a decoded clip frame by frame.
type memorySource struct {
	samples []int16
	off     int
}

func (s *memorySource) Read(frame []int16) (int, error) {
	if s.off >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(frame, s.samples[s.off:])
	s.off += n
	return n, nil
}

func (s *memorySource) Close() error {
	return nil
}

// fileSink writes reply audio to a file.
type fileSink struct {
	f *os.File
}

func newFileSink(path string) (*fileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileSink{f: f}, nil
}

func (s *fileSink) Write(audio []byte) error {
	_, err := s.f.Write(audio)
	return err
}

func (s *fileSink) Close() error {
	return s.f.Close()
}

func init() {
	voiceCmd.Flags().String("server", "http://localhost:8081", "base URL of the zenva server")
	voiceCmd.Flags().String("token", "", "access token (defaults to ZENVA_ACCESS_TOKEN)")
	voiceCmd.Flags().String("input", "-", `WAV file to capture from, or "-" for raw PCM16 on stdin`)
	voiceCmd.Flags().String("reply-out", "", "file to write the spoken reply to")
	voiceCmd.Flags().Int32("conversation", 0, "conversation id to continue")

	rootCmd.AddCommand(voiceCmd)
}
