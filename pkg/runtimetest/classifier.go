package runtimetest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// Disk is the minimal filesystem seam the Classifier needs: reading a
// handful of marker files from the real, checked-out project root (not the
// VFS — classification describes what will actually execute, and a staged
// but uncommitted framework change shouldn't flip the classification of a
// process no one is about to spawn).
type Disk interface {
	ReadFile(path string) (content string, ok bool, err error)
}

type markerRule struct {
	appType     config.AppType
	file        string
	contains    []string // any match qualifies; empty means file presence alone qualifies
	description string
}

// markerRules is checked in order; the first file that exists (and, where
// contains is non-empty, contains one of the listed needles) decides the
// classification. Order encodes precedence for projects matching more than
// one rule, e.g. a Flask web app that also happens to import pandas.
var markerRules = []markerRule{
	{config.AppTypeWeb, "manage.py", nil, "found manage.py (Django)"},
	{config.AppTypeWeb, "requirements.txt", []string{"flask", "django"}, "found Flask/Django in requirements.txt"},
	{config.AppTypeWeb, "package.json", []string{`"react"`, `"next"`, `"vue"`, `"@angular/core"`}, "found a frontend framework in package.json"},
	{config.AppTypeService, "requirements.txt", []string{"fastapi", "uvicorn", "grpcio"}, "found FastAPI/uvicorn/grpc in requirements.txt"},
	{config.AppTypeService, "package.json", []string{`"express"`}, "found express in package.json"},
	{config.AppTypeService, "Dockerfile", []string{"EXPOSE"}, "found EXPOSE in Dockerfile"},
	{config.AppTypeGUIGame, "requirements.txt", []string{"pygame", "kivy", "pyqt5", "pyside2", "pyside6"}, "found a GUI/game framework in requirements.txt"},
	{config.AppTypeGUIGame, "package.json", []string{`"electron"`}, "found electron in package.json"},
	{config.AppTypeScriptCLI, "requirements.txt", []string{"pandas", "numpy", "scikit-learn", "torch", "tensorflow"}, "found a data/ML library in requirements.txt"},
	{config.AppTypeScriptCLI, "setup.py", []string{"console_scripts"}, "found a console_scripts entry point in setup.py"},
	{config.AppTypeScriptCLI, "pyproject.toml", []string{"[project.scripts]", "console_scripts"}, "found a script entry point in pyproject.toml"},
	{config.AppTypeScriptCLI, "__main__.py", nil, "found __main__.py"},
}

// Classifier performs the static application-type scan spec.md §4.5 calls
// for. It never guesses silently: it either finds a concrete marker or
// reports AppTypeUnknown with no Marker attached.
type Classifier struct {
	disk Disk
}

// NewClassifier builds a Classifier reading marker files through disk.
func NewClassifier(disk Disk) *Classifier {
	return &Classifier{disk: disk}
}

// Classify scans projectRoot against markerRules in order and returns the
// first match, or AppTypeUnknown if none match.
func (c *Classifier) Classify(_ context.Context, projectRoot string) Classification {
	for _, rule := range markerRules {
		content, ok, err := c.disk.ReadFile(filepath.Join(projectRoot, rule.file))
		if err != nil || !ok {
			continue
		}
		if len(rule.contains) == 0 {
			return Classification{AppType: rule.appType, Marker: &Marker{Description: rule.description, File: rule.file}}
		}
		lower := strings.ToLower(content)
		for _, needle := range rule.contains {
			if strings.Contains(lower, strings.ToLower(needle)) {
				return Classification{AppType: rule.appType, Marker: &Marker{Description: rule.description, File: rule.file}}
			}
		}
	}
	return Classification{AppType: config.AppTypeUnknown}
}
