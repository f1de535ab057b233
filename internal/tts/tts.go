// Package tts turns finished scripts into narration audio with Piper. Voice
// models are ONNX files fetched on demand from the rhasspy voice collection;
// synthesis shells out to the piper binary.
package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const voiceBaseURL = "https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0"

// Voice describes one installable narration voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender"`
	Style    string `json:"style"`

	modelPath string
}

// VoiceStatus is a Voice plus whether its model files are on disk.
type VoiceStatus struct {
	Voice
	Downloaded bool `json:"downloaded"`
}

// DefaultVoice is used until SetVoice picks another one.
const DefaultVoice = "en_US-amy-low"

var voiceCatalog = []Voice{
	{ID: "en_US-amy-low", Name: "Amy (Female, Natural)", Language: "en_US", Gender: "female", Style: "natural", modelPath: "en/en_US/amy/low"},
	{ID: "en_US-ryan-low", Name: "Ryan (Male, Natural)", Language: "en_US", Gender: "male", Style: "natural", modelPath: "en/en_US/ryan/low"},
	{ID: "en_US-libritts-high", Name: "LibriTTS (Female, Professional)", Language: "en_US", Gender: "female", Style: "professional", modelPath: "en/en_US/libritts/high"},
	{ID: "en_US-common_voice-low", Name: "Common Voice (Male, Casual)", Language: "en_US", Gender: "male", Style: "casual", modelPath: "en/en_US/common_voice/low"},
}

// Audio describes one synthesized narration file.
type Audio struct {
	Path            string  `json:"audio_path"`
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration_seconds"`
	VoiceID         string  `json:"voice_used"`
	VoiceName       string  `json:"voice_name"`
	FileSizeMB      float64 `json:"file_size_mb"`
}

// Service synthesizes narration audio. Safe for concurrent use; model
// downloads and the current-voice setting are serialized.
type Service struct {
	modelsDir  string
	outputDir  string
	piperBin   string
	httpClient *http.Client

	mu      sync.Mutex
	current string
}

// NewService creates a Service storing voice models under modelsDir and
// audio under outputDir.
func NewService(modelsDir, outputDir string) *Service {
	return &Service{
		modelsDir:  modelsDir,
		outputDir:  outputDir,
		piperBin:   "piper",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		current:    DefaultVoice,
	}
}

// Voices lists the installable voices and whether each is downloaded.
func (s *Service) Voices() []VoiceStatus {
	out := make([]VoiceStatus, 0, len(voiceCatalog))
	for _, v := range voiceCatalog {
		_, err := os.Stat(filepath.Join(s.modelsDir, v.ID+".onnx"))
		out = append(out, VoiceStatus{Voice: v, Downloaded: err == nil})
	}
	return out
}

// CurrentVoice returns the id of the active voice.
func (s *Service) CurrentVoice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetVoice makes voiceID the active voice, downloading its model first if
// needed. Unknown ids are rejected.
func (s *Service) SetVoice(ctx context.Context, voiceID string) error {
	voice, ok := lookupVoice(voiceID)
	if !ok {
		return fmt.Errorf("unknown voice %q", voiceID)
	}
	if err := s.ensureModel(ctx, voice); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = voice.ID
	s.mu.Unlock()
	slog.Info("Voice set", "voice", voice.ID)
	return nil
}

// Synthesize renders text with the given voice (empty means the active
// voice) and returns the produced file's details.
func (s *Service) Synthesize(ctx context.Context, text, voiceID string) (*Audio, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	if voiceID == "" {
		voiceID = s.CurrentVoice()
	}
	voice, ok := lookupVoice(voiceID)
	if !ok {
		return nil, fmt.Errorf("unknown voice %q", voiceID)
	}
	if err := s.ensureModel(ctx, voice); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating audio output dir: %w", err)
	}
	filename := fmt.Sprintf("script_%s.wav", uuid.NewString())
	outPath := filepath.Join(s.outputDir, filename)

	modelPath := filepath.Join(s.modelsDir, voice.ID+".onnx")
	cmd := exec.CommandContext(ctx, s.piperBin, "--model", modelPath, "--output_file", outPath)
	cmd.Stdin = strings.NewReader(cleaned)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	slog.Info("Generating audio", "voice", voice.ID, "words", len(strings.Fields(cleaned)))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("audio file was not created: %w", err)
	}

	duration, err := wavDuration(outPath)
	if err != nil {
		slog.Warn("Could not read audio duration, estimating from word count", "err", err)
		duration = float64(len(strings.Fields(cleaned))) / 2.5
	}

	return &Audio{
		Path:            outPath,
		Filename:        filename,
		DurationSeconds: round2(duration),
		VoiceID:         voice.ID,
		VoiceName:       voice.Name,
		FileSizeMB:      round2(float64(info.Size()) / (1024 * 1024)),
	}, nil
}

// ensureModel downloads the .onnx model and its config if missing.
func (s *Service) ensureModel(ctx context.Context, voice Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	modelFile := filepath.Join(s.modelsDir, voice.ID+".onnx")
	configFile := modelFile + ".json"
	if fileExists(modelFile) && fileExists(configFile) {
		return nil
	}

	if err := os.MkdirAll(s.modelsDir, 0755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}

	base := fmt.Sprintf("%s/%s/%s.onnx", voiceBaseURL, voice.modelPath, voice.ID)
	slog.Info("Downloading voice model", "voice", voice.ID)
	if err := s.download(ctx, base, modelFile); err != nil {
		return fmt.Errorf("downloading model %s: %w", voice.ID, err)
	}
	if err := s.download(ctx, base+".json", configFile); err != nil {
		return fmt.Errorf("downloading model config %s: %w", voice.ID, err)
	}
	return nil
}

func (s *Service) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// abbreviationReplacer expands abbreviations Piper reads poorly. Longer
// forms come first so "Mrs." is not half-matched by "Mr.".
var abbreviationReplacer = strings.NewReplacer(
	"Mrs.", "Missus",
	"Mr.", "Mister",
	"Ms.", "Miss",
	"Dr.", "Doctor",
	"Prof.", "Professor",
	"vs.", "versus",
	"etc.", "et cetera",
	"i.e.", "that is",
	"e.g.", "for example",
	"A.D.", "A D",
	"B.C.", "B C",
	"U.S.", "U S",
	"U.K.", "U K",
	"“", "",
	"”", "",
	"‘", "'",
	"’", "'",
)

// CleanText prepares script text for synthesis: collapse whitespace, expand
// abbreviations, strip curly quotes.
func CleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return abbreviationReplacer.Replace(text)
}

func lookupVoice(id string) (Voice, bool) {
	for _, v := range voiceCatalog {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
