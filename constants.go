package main

import "time"

type Mode int

const (
	ModeStartup Mode = iota
	ModePrompt
	ModeEditing
	ModeFileInput
	ModeDocInput
	ModeGitHub
	ModeLineHeight
	ModeConfirm
)

type ConfirmAction int

const (
	ConfirmQuit ConfirmAction = iota
	ConfirmDiscardEdit
)

type ActionType int

const (
	ActionLoadScript ActionType = iota
)

type FlipMode int

const (
	FlipNone FlipMode = iota
	FlipHorizontal
	FlipVertical
)

const (
	minSpeed      = 0.5
	maxSpeed      = 5.0
	speedStep     = 0.5
	minFontSize   = 16
	maxFontSize   = 72
	fontSizeStep  = 2
	minLineHeight = 1.0
	maxLineHeight = 3.0
	minOpacity    = 0.3
	maxOpacity    = 1.0
	opacityStep   = 0.1

	lineHeightStep = 0.1

	// pixels per millisecond at 1x speed and a 32px font
	baseSpeed    = 0.05
	baseFontSize = 32.0

	seekStep = 100.0

	minWrapColumns = 12
	chromeRows     = 2 // control bar + status line

	defaultFrameInterval = 16 * time.Millisecond
	defaultHTTPTimeout   = 20 * time.Second

	eventChannelBuffer = 64

	mirrorCloseTimeout   = 2 * time.Second
	mirrorResizeInterval = 500 * time.Millisecond
)
