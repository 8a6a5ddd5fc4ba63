//go:build !whisper_cpp

package whisper

// Default stub (no cgo) so the project builds without whisper_cpp tag.
type stubEngine struct {
	language string
}

func NewEngine(modelPath string) (Engine, error) { return &stubEngine{language: "auto"}, nil }
func (e *stubEngine) Close() error               { return nil }
func (e *stubEngine) Transcribe(samples []float32) (Result, error) {
	return Result{Language: e.language}, nil
}
func (e *stubEngine) SetLanguage(lang string) {
	if lang == "" {
		lang = "auto"
	}
	e.language = lang
}
