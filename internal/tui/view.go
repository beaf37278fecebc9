package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/rag-chat/internal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	welcomeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Align(lipgloss.Center)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// View renders the screen
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.mode == pickerView {
		title := titleStyle.Render("Select a document to upload")
		help := mutedStyle.Render("enter select • esc back")
		return lipgloss.JoinVertical(lipgloss.Left, title, m.picker.View(), help)
	}

	main := m.viewport.View()
	if sidebar := m.renderSidebar(); sidebar != "" {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, sidebar)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		main,
		m.renderInput(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("RAG Chatbot")
	session := mutedStyle.Render("session " + m.ctrl.Session().ID())
	return title + "  " + session + "\n"
}

// renderHistory renders every message, then the typing indicator while a
// request is in flight. The welcome panel stands in for an empty log.
func (m Model) renderHistory() string {
	session := m.ctrl.Session()
	msgs := session.Messages()
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}

	var sb strings.Builder
	if len(msgs) == 0 {
		sb.WriteString(m.renderWelcome(width))
		sb.WriteString("\n")
	}

	for _, msg := range msgs {
		switch msg.Role {
		case internal.RoleUser:
			sb.WriteString(userLabelStyle.Render("You") + "\n")
			sb.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
			sb.WriteString("\n\n")

		case internal.RoleAssistant:
			sb.WriteString(assistantLabelStyle.Render("Assistant") + "\n")
			sb.WriteString(strings.TrimRight(m.renderMarkdown(msg.Content), "\n"))
			sb.WriteString("\n\n")

		default:
			sb.WriteString(systemStyle.Width(width).Render(msg.Content))
			sb.WriteString("\n\n")
		}
	}

	if session.Loading() {
		sb.WriteString(assistantLabelStyle.Render("Assistant") + "\n")
		sb.WriteString(m.spinner.View() + mutedStyle.Render(" Thinking..."))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderWelcome(width int) string {
	boxWidth := width - 4
	if boxWidth > 60 {
		boxWidth = 60
	}
	body := titleStyle.Render("Welcome to RAG Chatbot!") + "\n\n" +
		"Upload documents and ask questions about them."
	return welcomeStyle.Width(boxWidth).Render(body)
}

// renderMarkdown renders an answer, falling back to plain text
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderSidebar() string {
	files := m.ctrl.Session().UploadedFiles()
	if len(files) == 0 || m.chatWidth() == m.width {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Uploaded Files:"))
	for _, f := range files {
		sb.WriteString("\n" + truncate(f, sidebarWidth-4))
	}
	return sidebarStyle.Width(sidebarWidth).Height(m.viewport.Height).Render(sb.String())
}

func (m Model) renderInput() string {
	return inputStyle.Render(m.textarea.View())
}

func (m Model) renderFooter() string {
	if m.status != "" {
		if m.isErr {
			return statusErrStyle.Render(m.status)
		}
		return mutedStyle.Render(m.status)
	}
	return mutedStyle.Render(m.keys.helpLine())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
