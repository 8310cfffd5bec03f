package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/tts"
)

// ErrUnknownVoice is returned when no voice matches a name or ID
var ErrUnknownVoice = errors.New("unknown voice")

// VoiceLister is the part of a TTS engine the voice manager needs
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]tts.Voice, error)
}

// VoiceManager lists provider voices and persists the default voice
type VoiceManager struct {
	lister VoiceLister
	out    io.Writer
}

// NewVoiceManager creates a VoiceManager printing to out (default stdout)
func NewVoiceManager(lister VoiceLister, out io.Writer) *VoiceManager {
	if out == nil {
		out = os.Stdout
	}
	return &VoiceManager{lister: lister, out: out}
}

// ListVoices prints the provider's voices, marking current
func (m *VoiceManager) ListVoices(ctx context.Context, current string) error {
	voices, err := m.lister.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}
	if len(voices) == 0 {
		fmt.Fprintln(m.out, "No voices available.")
		return nil
	}

	fmt.Fprintf(m.out, "Available voices (%d):\n\n", len(voices))
	for i, v := range voices {
		marker := ""
		if v.ID == current {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(m.out, "%d. %s%s\n", i+1, v.Name, marker)
		fmt.Fprintf(m.out, "   ID: %s\n", v.ID)
		if details := voiceDetails(v); details != "" {
			fmt.Fprintf(m.out, "   %s\n", details)
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "To make a voice the default, run:")
	fmt.Fprintln(m.out, "  readtome -set-default-voice <name-or-id>")
	return nil
}

// FindVoice resolves query against voice IDs, then names (case-insensitive)
func (m *VoiceManager) FindVoice(ctx context.Context, query string) (tts.Voice, error) {
	voices, err := m.lister.ListVoices(ctx)
	if err != nil {
		return tts.Voice{}, fmt.Errorf("failed to list voices: %w", err)
	}
	for _, v := range voices {
		if v.ID == query {
			return v, nil
		}
	}
	for _, v := range voices {
		if strings.EqualFold(v.Name, query) {
			return v, nil
		}
	}
	return tts.Voice{}, fmt.Errorf("%w: %s", ErrUnknownVoice, query)
}

// SetDefault stores the voice matching query in cfg and saves it to path
func (m *VoiceManager) SetDefault(ctx context.Context, query string, cfg *config.Config, path string) (tts.Voice, error) {
	voice, err := m.FindVoice(ctx, query)
	if err != nil {
		return tts.Voice{}, err
	}

	cfg.TTS.Voice = voice.ID
	if err := cfg.Save(path); err != nil {
		return tts.Voice{}, err
	}

	fmt.Fprintf(m.out, "Default voice set to: %s (%s)\n", voice.Name, voice.ID)
	fmt.Fprintf(m.out, "Saved to %s\n", path)
	return voice, nil
}

func voiceDetails(v tts.Voice) string {
	var parts []string
	for _, s := range []string{v.Language, v.Gender, v.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
