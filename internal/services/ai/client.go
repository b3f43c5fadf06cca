package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/services"
)

const (
	defaultAudioTimeout     = 10 * time.Minute
	streamingAudioTimeout   = time.Minute
	defaultTextTimeout      = 2 * time.Minute
	transcriptionsEndpoint  = "audio/transcriptions"
	chatCompletionsEndpoint = "chat/completions"
)

// Config captures the runtime settings required to talk to both AI endpoints.
type Config struct {
	AudioBaseURL string
	AudioAPIKey  string
	AudioModel   string
	AudioStream  bool
	AudioTimeout time.Duration

	TextBaseURL  string
	TextAPIKey   string
	TextModel    string
	ExtraContext string
	TextTimeout  time.Duration
}

// Client talks to the transcription and chat completion APIs.
type Client struct {
	cfg         Config
	audioClient *http.Client
	textClient  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides both underlying HTTP clients (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.audioClient = client
			c.textClient = client
		}
	}
}

// NewClient constructs an AI client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	audioTimeout := cfg.AudioTimeout
	if audioTimeout <= 0 {
		audioTimeout = defaultAudioTimeout
	}
	if cfg.AudioStream {
		// Streaming responses deliver data continuously, so a stall is
		// detectable much sooner.
		audioTimeout = streamingAudioTimeout
	}
	textTimeout := cfg.TextTimeout
	if textTimeout <= 0 {
		textTimeout = defaultTextTimeout
	}

	client := &Client{
		cfg:         cfg,
		audioClient: &http.Client{Timeout: audioTimeout},
		textClient:  &http.Client{Timeout: textTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe uploads the audio file and returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	endpoint, err := joinURL(c.cfg.AudioBaseURL, transcriptionsEndpoint)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ai", "transcribe", "build url", err)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("transcribe: read audio: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.AudioModel); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	streamValue := "false"
	if c.cfg.AudioStream {
		streamValue = "true"
	}
	if err := writer.WriteField("stream", streamValue); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.AudioAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AudioAPIKey)
	}

	resp, err := c.audioClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ai", "transcribe", "http error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", services.Wrap(services.ErrTransient, "ai", "transcribe",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	if c.cfg.AudioStream {
		return readStreamingTranscript(resp.Body)
	}
	return readTranscript(resp.Body)
}

func readTranscript(r io.Reader) (string, error) {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w", err)
	}
	return parsed.Text, nil
}

// readStreamingTranscript consumes server-sent chunks of the form
// "data: {json}" terminated by "[DONE]" and joins their text fields.
func readStreamingTranscript(r io.Reader) (string, error) {
	var chunks []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}
		var chunk struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("transcribe: decode stream line %q: %w", line, err)
		}
		if chunk.Text != "" {
			chunks = append(chunks, chunk.Text)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("transcribe: read stream: %w", err)
	}
	return strings.Join(chunks, " "), nil
}

// Summarize asks the chat model for a markdown summary of the transcript.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", services.Wrap(services.ErrValidation, "ai", "summarize", "empty transcript", nil)
	}
	return c.complete(ctx, summaryPrompt(transcript, c.cfg.ExtraContext), "summarize")
}

// ShortName asks the chat model for a short human-readable bundle name
// derived from the summary. Length validation is the caller's concern.
func (c *Client) ShortName(ctx context.Context, summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", services.Wrap(services.ErrValidation, "ai", "short name", "empty summary", nil)
	}
	name, err := c.complete(ctx, shortNamePrompt(summary), "short name")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, userPrompt, op string) (string, error) {
	endpoint, err := joinURL(c.cfg.TextBaseURL, chatCompletionsEndpoint)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ai", op, "build url", err)
	}

	payload := chatRequest{
		Model: c.cfg.TextModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.TextAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.TextAPIKey)
	}

	resp, err := c.textClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ai", op, "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "ai", op,
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if completion.Error != nil {
		return "", services.Wrap(services.ErrTransient, "ai", op, "api error: "+completion.Error.Message, nil)
	}
	if len(completion.Choices) == 0 {
		return "", services.Wrap(services.ErrValidation, "ai", op, "no choices returned", nil)
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", services.Wrap(services.ErrValidation, "ai", op, "empty content", nil)
	}
	return content, nil
}

func joinURL(base, endpoint string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", errors.New("base url not configured")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	joined, err := parsed.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return joined.String(), nil
}
