package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type model struct {
	width        int
	height       int
	mode         Mode
	help         bool
	helpViewport viewport.Model
	stage        stage
	config       *Config
	undoStack    []Action
	redoStack    []Action

	editor   textarea.Model
	input    textinput.Model
	spinner  spinner.Model
	loading  bool
	previous Mode

	fileList          []string
	selectedFileIndex int

	browser githubBrowser
	github  *GitHubClient
	docs    *GoogleDocsClient

	confirmAction ConfirmAction

	mirror     mirrorSurface
	openMirror surfaceOpener
	notify     func(tea.Msg)

	errorMessage   string
	successMessage string
}

type Action struct {
	Type    ActionType
	Data    interface{}
	Inverse interface{}
}

type githubView int

const (
	githubQuery githubView = iota
	githubRepos
	githubContents
)

type crumb struct {
	name string
	path string
}

type githubBrowser struct {
	view     githubView
	repos    []Repo
	entries  []Entry
	selected int
	owner    string
	repo     string
	path     string
	crumbs   []crumb
	fromRepo bool
}

type reposLoadedMsg struct {
	repos []Repo
}

type contentsLoadedMsg struct {
	owner   string
	repo    string
	path    string
	entries []Entry
}

// modelDeps are the collaborators a model talks to; tests swap them out.
type modelDeps struct {
	github     *GitHubClient
	docs       *GoogleDocsClient
	openMirror surfaceOpener
	notify     func(tea.Msg)
}

func initialModel(config *Config, script Script, deps modelDeps) model {
	editor := textarea.New()
	editor.Placeholder = "Type or paste your script..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0

	input := textinput.New()
	input.CharLimit = 512

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := model{
		mode:              ModeStartup,
		config:            config,
		stage:             newStage(script, config.Defaults, config.FrameInterval),
		helpViewport:      viewport.New(80, 20),
		editor:            editor,
		input:             input,
		spinner:           spin,
		selectedFileIndex: -1,
		github:            deps.github,
		docs:              deps.docs,
		openMirror:        deps.openMirror,
		notify:            deps.notify,
	}
	m.helpViewport.SetContent(helpText())

	switch {
	case script.Text != "":
		m.mode = ModePrompt
	case !config.StartMenu:
		m.startEditing("")
	}
	return m
}
