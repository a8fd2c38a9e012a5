package domain

import "errors"

// Vocal gender values accepted by the generation provider.
const (
	VocalGenderMale   = "m"
	VocalGenderFemale = "f"
)

// Common validation errors for GenerationParams
var (
	ErrEmptyModel       = errors.New("model cannot be empty")
	ErrEmptyStyle       = errors.New("style is required in custom mode")
	ErrEmptyTitle       = errors.New("title is required in custom mode")
	ErrEmptyPrompt      = errors.New("prompt is required")
	ErrInvalidWeight    = errors.New("weights must be between 0 and 1")
	ErrInvalidVocalName = errors.New("vocal gender must be \"m\" or \"f\"")
)

// GenerationParams is the immutable snapshot of a generation request as the
// user submitted it. A queue item carries the snapshot verbatim from enqueue
// to submission; retries re-submit the same snapshot unchanged.
type GenerationParams struct {
	CustomMode          bool    `json:"customMode"`
	Instrumental        bool    `json:"instrumental"`
	Model               string  `json:"model"`
	Title               string  `json:"title,omitempty"`
	Style               string  `json:"style,omitempty"`
	Prompt              string  `json:"prompt,omitempty"`
	StyleWeight         float64 `json:"styleWeight,omitempty"`
	WeirdnessConstraint float64 `json:"weirdnessConstraint,omitempty"`
	AudioWeight         float64 `json:"audioWeight,omitempty"`
	NegativeTags        string  `json:"negativeTags,omitempty"`
	VocalGender         string  `json:"vocalGender,omitempty"`
	CallBackURL         string  `json:"callBackUrl,omitempty"`
}

// Validate checks the params against the provider's submission rules.
// Custom mode requires a title and style, plus a prompt (the lyrics) unless
// the track is instrumental. Non-custom mode only requires a free-form
// prompt describing the track.
func (p GenerationParams) Validate() error {
	if p.Model == "" {
		return ErrEmptyModel
	}

	if p.CustomMode {
		if p.Style == "" {
			return ErrEmptyStyle
		}
		if p.Title == "" {
			return ErrEmptyTitle
		}
		if !p.Instrumental && p.Prompt == "" {
			return ErrEmptyPrompt
		}
	} else {
		if p.Prompt == "" {
			return ErrEmptyPrompt
		}
	}

	for _, w := range []float64{p.StyleWeight, p.WeirdnessConstraint, p.AudioWeight} {
		if w < 0 || w > 1 {
			return ErrInvalidWeight
		}
	}

	if p.VocalGender != "" && p.VocalGender != VocalGenderMale &&
		p.VocalGender != VocalGenderFemale {
		return ErrInvalidVocalName
	}

	return nil
}
