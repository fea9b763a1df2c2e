package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReferenceNumber builds a human-readable unique reference such
// as TXN-20260115-7A3F21D9. The prefix names the record kind.
func GenerateReferenceNumber(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), id[:8])
}
