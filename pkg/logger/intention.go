package logger

// Intention tags what a log line is about, independently of its level.
// The console shows it as an icon; the log file keeps it as an attribute.
type Intention string

const (
	IntentionStatistics Intention = "statistics"
	IntentionStatus     Intention = "status"
	IntentionRequest    Intention = "request"
	IntentionFunction   Intention = "function"
	IntentionOutput     Intention = "output"
	IntentionWarning    Intention = "warning" // level carries the emphasis
	IntentionError      Intention = "error"   // level carries the emphasis
	IntentionSuccess    Intention = "success"
	IntentionDebug      Intention = "debug"
	IntentionCancel     Intention = "cancel"
	IntentionConfig     Intention = "config"
)

const defaultIcon = "➤"

var intentionIcons = map[Intention]string{
	IntentionStatistics: "📊",
	IntentionStatus:     "ℹ️",
	IntentionRequest:    "📡",
	IntentionFunction:   "🔧",
	IntentionOutput:     "↳",
	IntentionSuccess:    "✅",
	IntentionDebug:      "🛠️",
	IntentionCancel:     "🛑",
	IntentionConfig:     "⚙️",
}

// iconFor returns the console icon for an intention
func iconFor(i Intention) string {
	if icon, ok := intentionIcons[i]; ok {
		return icon
	}
	return defaultIcon
}
