package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.asset>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &ScenarioValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		fmt.Printf("%s is a valid %s scenario\n", filename, validator.source)
	}
	if failed {
		os.Exit(1)
	}
}

// ScenarioValidator checks a downloaded scenario asset.
type ScenarioValidator struct {
	source   scenario.Source
	errors   []string
	warnings []string
}

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	ext := filepath.Ext(filename)
	if ext != ".asset" && ext != ".json" {
		return fmt.Errorf("scenario file must have .asset or .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	v.source = detectSource(data)
	doc, err := scenario.Decode(v.source, data)
	if err != nil {
		return fmt.Errorf("file %s is not a %s scenario: %w", filename, v.source, err)
	}
	if doc.IsPlaceholder() {
		v.warnings = append(v.warnings, "placeholder asset: "+*doc.Placeholder)
		return nil
	}

	v.validateDocument(doc)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ScenarioValidator) validateDocument(doc *scenario.Document) {
	for _, issue := range doc.Validate() {
		if issue.Warning {
			v.warnings = append(v.warnings, issue.Error())
		} else {
			v.errors = append(v.errors, issue.Error())
		}
	}
	if len(v.errors) > 0 {
		return
	}

	// The transcriber catches effect payload problems the table checks do not.
	if _, err := transcript.Transcribe(doc, nil, transcript.Options{Labels: transcript.EnglishLabels}); err != nil {
		if errors.Is(err, transcript.ErrReferenceOutOfRange) {
			v.errors = append(v.errors, err.Error())
			return
		}
		v.errors = append(v.errors, "transcription failed: "+err.Error())
	}
}

// detectSource tells the two asset shapes apart. Bestdori scripts use
// camelCase keys, usually wrapped in a "Base" object.
func detectSource(data []byte) scenario.Source {
	var probe map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&probe); err == nil {
		for _, key := range []string{"Base", "talkData"} {
			if _, ok := probe[key]; ok {
				return scenario.SourceBestdori
			}
		}
	}
	return scenario.SourceSekai
}
