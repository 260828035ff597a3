package main

// handleSeek moves the prompt outside the animation loop. Shift doubles
// the step, like holding a clicker button.
func (m *model) handleSeek(key string) {
	switch key {
	case "j", "down":
		m.stage.seek(seekStep)
	case "k", "up":
		m.stage.seek(-seekStep)
	case "J":
		m.stage.seek(2 * seekStep)
	case "K":
		m.stage.seek(-2 * seekStep)
	case "pgdown":
		m.stage.seek(m.stage.layout().viewportHeight)
	case "pgup":
		m.stage.seek(-m.stage.layout().viewportHeight)
	case "home":
		m.stage.playback.Offset = 0
	}
}

func selectionDelta(key string) int {
	switch key {
	case "k", "up":
		return -1
	default:
		return 1
	}
}

func moveSelection(selected, delta, count int) int {
	if count == 0 {
		return 0
	}
	return clampInt(selected+delta, 0, count-1)
}
