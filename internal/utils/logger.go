package utils

import (
	"log"
	"strings"
)

// LogEvent prints one standardized engine log line per module/action pair.
// Messages should stay summarized: booking ids and stage names are fine,
// customer phone numbers are not.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	log.Printf("[LAGANBUS:%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, message)
}
