package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/rag-chat/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	systemMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			PaddingLeft(4)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

func displayTranscriptHeader(w io.Writer, t *internal.Transcript) {
	if t == nil {
		return
	}
	title := t.Title()
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintln(w, sessionHeaderStyle.Render("💬 "+title))

	var metaParts []string
	if t.CreatedAt != "" {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", t.CreatedAt))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(t.Messages)))
	if len(t.UploadedFiles) > 0 {
		metaParts = append(metaParts, fmt.Sprintf("Files: %s", strings.Join(t.UploadedFiles, ", ")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Session: %s", t.SessionID))

	fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(w)
}

// displayMessage prints one message. index and total are omitted when total is 0.
func displayMessage(w io.Writer, index int, msg internal.Message, total int, sources bool) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case internal.RoleUser:
		actorStyle = userMessageStyle
		actorLabel = "👤 You"
	case internal.RoleAssistant:
		actorStyle = assistantMessageStyle
		actorLabel = "🤖 Assistant"
	default:
		actorStyle = systemMessageStyle
		actorLabel = "📎 System"
	}

	header := actorStyle.Render(actorLabel)
	if total > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	if msg.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			header += " " + timestampStyle.Render(t.Local().Format("15:04:05"))
		} else {
			header += " " + timestampStyle.Render(msg.Timestamp)
		}
	}
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		content = wrapText(content, 80)
		fmt.Fprintln(w, messageContentStyle.Render(content))
	} else {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}

	if sources && msg.Metadata != nil {
		displaySources(w, msg.Metadata)
	}
	fmt.Fprintln(w)
}

func displaySources(w io.Writer, md *internal.AnswerMetadata) {
	if md.Language != "" {
		fmt.Fprintln(w, sourceStyle.Render("Language: "+md.Language))
	}
	for i, chunk := range md.RetrievedChunks {
		text := wrapText(strings.TrimSpace(chunk), 76)
		fmt.Fprintln(w, sourceStyle.Render(fmt.Sprintf("[%d] %s", i+1, text)))
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

// formatWhen renders a stored timestamp relative to now
func formatWhen(ts string, now time.Time) string {
	t := internal.ParseTimestamp(ts)
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
