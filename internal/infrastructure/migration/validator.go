package migration

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
)

// IssueKind names the kind of foreign content found in a migration
type IssueKind string

const (
	IssueScriptImport  IssueKind = "script_import"
	IssueReactImport   IssueKind = "react_import"
	IssueTypeScript    IssueKind = "typescript"
	IssueScriptComment IssueKind = "script_comment"
)

// Issue is one offending line
type Issue struct {
	File string
	Line int
	Kind IssueKind
	Text string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", i.File, i.Line, i.Kind, i.Text)
}

// ValidationReport summarises a validation run over a set of migration files
type ValidationReport struct {
	Files           []string
	FilesWithIssues int
	Issues          []Issue
}

// Clean reports whether no file had issues
func (r *ValidationReport) Clean() bool {
	return len(r.Issues) == 0
}

var (
	typeWords    = []string{"string", "boolean", "number"}
	declarations = []string{"interface ", "type ", "const ", "let ", "function ", "export "}
)

// ValidateSQL scans one migration for TypeScript or JavaScript that was pasted
// into it by mistake: module imports, React imports, typed declarations and
// script-style comments. A line can produce more than one issue.
func ValidateSQL(name string, r io.Reader) ([]Issue, error) {
	var issues []Issue
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		add := func(kind IssueKind) {
			issues = append(issues, Issue{File: name, Line: n, Kind: kind, Text: line})
		}

		if strings.HasPrefix(line, "import ") && (strings.Contains(line, "from") || strings.Contains(line, "require(")) {
			add(IssueScriptImport)
		}
		if strings.Contains(line, "import React") || strings.Contains(line, "import { React") {
			add(IssueReactImport)
		}
		if strings.Contains(line, ":") && containsAny(line, typeWords) && !strings.HasPrefix(line, "--") &&
			containsAny(line, declarations) {
			add(IssueTypeScript)
		}
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasSuffix(line, "*/") {
			add(IssueScriptComment)
		}
	}
	if err := scanner.Err(); err != nil {
		return issues, fmt.Errorf("read %s: %w", name, err)
	}
	return issues, nil
}

// ValidateFS checks every *.sql file at the root of fsys, in name order
func ValidateFS(fsys fs.FS) (*ValidationReport, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	report := &ValidationReport{Files: names}
	for _, name := range names {
		issues, err := validateFile(fsys, name)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			report.FilesWithIssues++
			report.Issues = append(report.Issues, issues...)
		}
	}
	return report, nil
}

func validateFile(fsys fs.FS, name string) ([]Issue, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	return ValidateSQL(name, f)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
