package agent

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/i474232898/umbrella-agent/internal/notify"
	"github.com/i474232898/umbrella-agent/internal/weather"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReminderSubject is the fixed subject line of every reminder.
const ReminderSubject = "☔ Umbrella Reminder - Take Your Umbrella Today!"

const timestampLayout = "2006-01-02 15:04:05"

var bodyTemplate = template.Must(template.New("reminder").Parse(`Hello!

Your Weather Agent here with an important reminder:

🌧️ DON'T FORGET YOUR UMBRELLA TODAY! 🌧️

Current Weather in {{.City}}:
• Condition: {{.Condition}}
• Temperature: {{printf "%.1f" .Temperature}}°C
• Humidity: {{.Humidity}}%

Reason: {{.Reason}}

Stay dry!

---
Automated message from your Weather Email Agent
{{.Timestamp}}
`))

type bodyData struct {
	City        string
	Condition   string
	Temperature float64
	Humidity    int
	Reason      string
	Timestamp   string
}

// composeReminder builds the email for a snapshot that warrants an umbrella.
func composeReminder(to string, snap *weather.Snapshot, rec weather.Recommendation, at time.Time) (notify.Message, error) {
	data := bodyData{
		City:        snap.Location.City,
		Condition:   cases.Title(language.English).String(snap.Description),
		Temperature: snap.Temperature,
		Humidity:    snap.Humidity,
		Reason:      rec.Reason,
		Timestamp:   at.Format(timestampLayout),
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return notify.Message{}, fmt.Errorf("render reminder body: %w", err)
	}
	return notify.Message{To: to, Subject: ReminderSubject, Body: buf.String()}, nil
}
