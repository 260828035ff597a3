package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.help {
		return m.helpViewport.View() + "\n" + dimStyle.Render("j/k scroll | ? or esc to close")
	}

	width := m.width
	if width < 1 {
		width = 80
	}
	height := m.height
	if height < 3 {
		height = 24
	}

	var body string
	switch m.mode {
	case ModeStartup:
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.startupView())
	case ModeEditing:
		body = m.editor.View()
	case ModeFileInput:
		body = m.fileListView(height - 1)
	case ModeDocInput:
		body = m.inputView("Google Docs URL (the document must be shared publicly):")
	case ModeGitHub:
		body = m.browserView(height - 1)
	default:
		mirror := "mirror off"
		if m.mirror != nil {
			mirror = "mirror on"
		}
		body = m.stage.renderText() + "\n" + m.stage.controlBar(mirror)
	}

	return body + "\n" + m.statusLine(width)
}

func (m model) startupView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("teleprompt"))
	b.WriteString("\n\n")
	b.WriteString("'t' Type a script\n")
	b.WriteString("'p' Paste from clipboard\n")
	b.WriteString("'o' Open a .txt or .md file\n")
	b.WriteString("'g' Load a Google Doc\n")
	b.WriteString("'h' Browse GitHub markdown\n")
	if m.stage.script.Text != "" {
		b.WriteString("Esc Back to the prompt\n")
	}
	b.WriteString("'q' Quit")
	if m.errorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("ERROR: " + m.errorMessage))
	}
	return b.String()
}

func (m model) inputView(label string) string {
	var b strings.Builder
	b.WriteString(label)
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	if m.loading {
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading...")
	}
	return b.String()
}

// listWindow returns the slice bounds that keep selected visible.
func listWindow(selected, count, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	end := start + rows
	if end > count {
		end = count
	}
	return start, end
}

func renderListItem(b *strings.Builder, label string, selected bool) {
	if selected {
		b.WriteString(selectedStyle.Render("> " + label + " "))
	} else {
		b.WriteString("  " + label)
	}
	b.WriteString("\n")
}

func (m model) fileListView(rows int) string {
	var b strings.Builder
	b.WriteString("Select a script in " + m.config.scriptDirectory() + ":\n")
	b.WriteString(strings.Repeat("─", maxInt(1, m.width)))
	b.WriteString("\n")
	if len(m.fileList) == 0 {
		b.WriteString("(No .txt or .md files found)\n")
		return b.String()
	}
	start, end := listWindow(m.selectedFileIndex, len(m.fileList), rows-3)
	for i := start; i < end; i++ {
		renderListItem(&b, m.fileList[i], i == m.selectedFileIndex)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) browserView(rows int) string {
	br := m.browser
	var b strings.Builder
	switch br.view {
	case githubQuery:
		return m.inputView("GitHub username, owner/repo or repository URL:")
	case githubRepos:
		b.WriteString("Repositories:\n")
		start, end := listWindow(br.selected, len(br.repos), rows-2)
		for i := start; i < end; i++ {
			repo := br.repos[i]
			label := repo.Name
			if repo.Description != "" {
				label += dimStyle.Render(" - " + repo.Description)
			}
			renderListItem(&b, label, i == br.selected)
		}
		if len(br.repos) == 0 {
			b.WriteString("(No repositories)\n")
		}
	default:
		names := make([]string, len(br.crumbs))
		for i, c := range br.crumbs {
			names[i] = c.name
		}
		b.WriteString(br.owner + " / " + strings.Join(names, " / ") + "\n")
		start, end := listWindow(br.selected, len(br.entries), rows-2)
		for i := start; i < end; i++ {
			entry := br.entries[i]
			label := entry.Name
			switch {
			case entry.IsDir():
				label += "/"
			case !entry.IsMarkdown():
				label = dimStyle.Render(label)
			}
			renderListItem(&b, label, i == br.selected)
		}
		if len(br.entries) == 0 {
			b.WriteString("(Empty directory)\n")
		}
	}
	if m.loading {
		b.WriteString(m.spinner.View() + " Loading...\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) statusLine(width int) string {
	var status string
	switch m.mode {
	case ModeEditing:
		status = "Mode: EDIT | Ctrl+S=use script, Ctrl+V=paste, Esc=cancel"
	case ModeFileInput:
		status = "Mode: OPEN | ↑/↓=navigate, Enter=open, Esc=cancel"
	case ModeDocInput:
		status = "Mode: GOOGLE DOC | Enter=load, Esc=cancel"
	case ModeGitHub:
		switch m.browser.view {
		case githubQuery:
			status = "Mode: GITHUB | Enter=search, Esc=cancel"
		case githubRepos:
			status = "Mode: GITHUB | ↑/↓=navigate, Enter=open repository, Esc=back"
		default:
			status = "Mode: GITHUB | ↑/↓=navigate, Enter=open, Backspace=parent, Esc=back"
		}
	case ModeLineHeight:
		status = "Mode: LINE HEIGHT | " + m.input.View() + " | Enter=apply, Esc=cancel"
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmQuit:
			status = "Mode: CONFIRM | Quit teleprompt? (y/n)"
		case ConfirmDiscardEdit:
			status = "Mode: CONFIRM | Discard your edits? (y/n)"
		}
	default:
		status = "Mode: PROMPT"
		if name := m.stage.script.Filename; name != "" {
			status += " | " + name
		}
		if m.successMessage == "" && m.errorMessage == "" {
			status += " | space=play, ? for help | q to quit"
		}
	}
	if m.successMessage != "" && m.mode != ModeConfirm {
		status += " | " + m.successMessage
	}
	if m.errorMessage != "" && m.mode != ModeConfirm {
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(status)
}

func helpText() string {
	lines := []string{
		"teleprompt help",
		"===============",
		"",
		"Playback:",
		"---------",
		"  space / p        Play or pause",
		"  r                Reset to the top and stop",
		"  j/↓  k/↑         Fast forward / back 100px",
		"  J  K             Fast forward / back 200px",
		"  PgDn PgUp        Forward / back one screen",
		"  Home             Jump to the top",
		"",
		"Presentation:",
		"-------------",
		fmt.Sprintf("  + / -            Speed up / down (%.1fx - %.1fx)", minSpeed, maxSpeed),
		fmt.Sprintf("  ] / [            Font size up / down (%dpx - %dpx)", minFontSize, maxFontSize),
		fmt.Sprintf("  } / {            Line height up / down (%.1f - %.1f)", minLineHeight, maxLineHeight),
		"  l                Type a line height",
		fmt.Sprintf("  . / ,            Opacity up / down (%d%% - %d%%)", int(minOpacity*100), int(maxOpacity*100)),
		"  i                Toggle infinite scroll",
		"  f                Cycle flip: none, horizontal, vertical",
		"",
		"Mirror:",
		"-------",
		"  m                Open or close the mirror on the configured terminal",
		"                   (mirror.tty or --mirror-tty). In that terminal run `tty`",
		"                   for the device path, then `sleep infinity` so its shell",
		"                   does not compete for keys. The mirror re-reads its size",
		"                   every half second. Keys pressed there drive this screen too.",
		"",
		"Script:",
		"-------",
		"  e                Edit the current script",
		"  n                Load a new script (type, paste, file, Google Doc, GitHub)",
		"  u / U            Undo / redo the last script load",
		"  S                Export the current frame as PNG",
		"  T                Export the current frame as text",
		"",
		"General:",
		"  ?                Toggle this help screen",
		"  q / Ctrl+C       Quit",
	}
	return strings.Join(lines, "\n")
}
