// Package gemini implements the generation.LyricsGenerator interface
// using Google's Gemini API. It turns a free-form theme and an optional
// style hint into song lyrics suitable for a custom-mode generation
// request.
package gemini
