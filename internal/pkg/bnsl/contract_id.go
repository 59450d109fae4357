package bnsl

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewContractID generates a human-readable contract identifier like
// "BNSL-2026-4F2A9C1D". Uniqueness is enforced by the database index; the
// uuid fragment makes collisions practically impossible.
func NewContractID(t time.Time) string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BNSL-%d-%s", t.Year(), frag)
}
