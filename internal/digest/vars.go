package digest

import (
	"strings"
	"time"
)

// ExpandVars performs placeholder substitutions for config-provided text
// fields (topic intro and footer).
//
// Supported variables:
// - {.CurrentDate} => formatted as YYYY-MM-DD (UTC)
// - {.Topic} => the topic display title
func ExpandVars(s, topicTitle string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	out := strings.ReplaceAll(s, "{.CurrentDate}", now.UTC().Format("2006-01-02"))
	out = strings.ReplaceAll(out, "{.Topic}", topicTitle)
	return out
}
