// Command gosegment splits long WAV recordings into chunks at pauses and can
// optionally transcribe each chunk with whisper.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("gosegment failed")
		os.Exit(1)
	}
}
