package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func isScriptFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

func (m *model) scanScriptFiles() {
	m.fileList = []string{}
	m.selectedFileIndex = -1

	entries, err := os.ReadDir(m.config.scriptDirectory())
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && isScriptFile(entry.Name()) {
			m.fileList = append(m.fileList, entry.Name())
		}
	}
	sort.Strings(m.fileList)
	if len(m.fileList) > 0 {
		m.selectedFileIndex = 0
	}
}

func loadScriptFile(path string) (Script, error) {
	if !isScriptFile(path) {
		return Script{}, fmt.Errorf("%s: only .txt and .md files are supported", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	text := normalizeText(string(data))
	if strings.TrimSpace(text) == "" {
		return Script{}, ErrEmptyScript
	}
	return Script{Text: text, Filename: filepath.Base(path)}, nil
}
