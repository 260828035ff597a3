package main

func (m *model) recordAction(actionType ActionType, data, inverse interface{}) {
	action := Action{
		Type:    actionType,
		Data:    data,
		Inverse: inverse,
	}
	m.undoStack = append(m.undoStack, action)
	m.redoStack = m.redoStack[:0]
}

// loadScript replaces the prompt text and remembers the previous one.
func (m *model) loadScript(script Script) {
	m.recordAction(ActionLoadScript, script, m.stage.script)
	m.replaceScript(script)
}

func (m *model) undo() bool {
	if len(m.undoStack) == 0 {
		return false
	}
	lastIndex := len(m.undoStack) - 1
	action := m.undoStack[lastIndex]
	m.undoStack = m.undoStack[:lastIndex]

	switch action.Type {
	case ActionLoadScript:
		m.replaceScript(action.Inverse.(Script))
	}

	m.redoStack = append(m.redoStack, action)
	return true
}

func (m *model) redo() bool {
	if len(m.redoStack) == 0 {
		return false
	}
	lastIndex := len(m.redoStack) - 1
	action := m.redoStack[lastIndex]
	m.redoStack = m.redoStack[:lastIndex]

	switch action.Type {
	case ActionLoadScript:
		m.replaceScript(action.Data.(Script))
	}

	m.undoStack = append(m.undoStack, action)
	return true
}
