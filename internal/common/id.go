package common

import (
	"github.com/google/uuid"
)

// NewAnalysisID generates a unique analysis ID with the "obs_" prefix
// Format: obs_<uuid>
func NewAnalysisID() string {
	return "obs_" + uuid.New().String()
}
