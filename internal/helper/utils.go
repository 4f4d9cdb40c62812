package helper

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewID returns a random UUID string for tagging conversation turns.
func NewID() string {
	return uuid.NewString()
}

// PrettyPrint dumps v as indented JSON to stdout, for CLI inspection output.
func PrettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("pretty print failed")
		return
	}
	fmt.Println(string(b))
}
