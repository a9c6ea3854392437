package models

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// SectionKey names one part of a lab protocol.
type SectionKey string

const (
	SectionMotivation   SectionKey = "motivation"
	SectionTheory       SectionKey = "theory"
	SectionMaterials    SectionKey = "materials"
	SectionProcedure    SectionKey = "procedure"
	SectionResults      SectionKey = "results"
	SectionCalculations SectionKey = "calculations"
	SectionDiscussion   SectionKey = "discussion"
	SectionConclusion   SectionKey = "conclusion"
)

// SectionOrder is the order sections appear in a rendered protocol.
var SectionOrder = []SectionKey{
	SectionMotivation, SectionTheory, SectionMaterials, SectionProcedure,
	SectionResults, SectionCalculations, SectionDiscussion, SectionConclusion,
}

var sectionHeadings = map[SectionKey]string{
	SectionMotivation:   "Zielsetzung",
	SectionTheory:       "Theoretischer Hintergrund",
	SectionMaterials:    "Materialien und Geräte",
	SectionProcedure:    "Durchführung",
	SectionResults:      "Ergebnisse und Beobachtungen",
	SectionCalculations: "Berechnungen und Auswertung",
	SectionDiscussion:   "Diskussion",
	SectionConclusion:   "Schlussfolgerung",
}

// headings in generated content are recognized by these upper-case keywords
var sectionKeywords = []struct {
	key      SectionKey
	keywords []string
}{
	{SectionMotivation, []string{"ZIELSETZUNG", "ZIEL", "AUFGABE"}},
	{SectionTheory, []string{"THEORIE", "THEORETISCH", "HINTERGRUND"}},
	{SectionMaterials, []string{"MATERIAL", "GERÄTE", "CHEMIKALIEN"}},
	{SectionProcedure, []string{"DURCHFÜHRUNG", "VERSUCH", "METHODE"}},
	{SectionResults, []string{"ERGEBNISSE", "BEOBACHTUNG", "MESSUNG"}},
	{SectionCalculations, []string{"BERECHNUNGEN", "AUSWERTUNG", "RECHNUNG"}},
	{SectionDiscussion, []string{"DISKUSSION", "BEWERTUNG", "FEHLER"}},
	{SectionConclusion, []string{"SCHLUSS", "FAZIT", "ZUSAMMENFASSUNG"}},
}

// Heading returns the German section title.
func (k SectionKey) Heading() string {
	if h, ok := sectionHeadings[k]; ok {
		return h
	}
	return string(k)
}

// Section is a rendered heading with its body.
type Section struct {
	Key     SectionKey
	Heading string
	Body    string
}

// ProtocolSections is an editable protocol draft, read from a TOML file.
type ProtocolSections struct {
	Title        string `toml:"title"`
	Author       string `toml:"author"`
	Motivation   string `toml:"motivation"`
	Theory       string `toml:"theory"`
	Materials    string `toml:"materials"`
	Procedure    string `toml:"procedure"`
	Results      string `toml:"results"`
	Calculations string `toml:"calculations"`
	Discussion   string `toml:"discussion"`
	Conclusion   string `toml:"conclusion"`
}

// LoadSections decodes a sections file.
func LoadSections(path string) (ProtocolSections, error) {
	var s ProtocolSections
	meta, err := toml.DecodeFile(path, &s)
	if err != nil {
		return ProtocolSections{}, fmt.Errorf("failed to parse sections file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ProtocolSections{}, fmt.Errorf("unknown section %q in %s", undecoded[0].String(), path)
	}
	return s, nil
}

func (s ProtocolSections) body(k SectionKey) string {
	switch k {
	case SectionMotivation:
		return s.Motivation
	case SectionTheory:
		return s.Theory
	case SectionMaterials:
		return s.Materials
	case SectionProcedure:
		return s.Procedure
	case SectionResults:
		return s.Results
	case SectionCalculations:
		return s.Calculations
	case SectionDiscussion:
		return s.Discussion
	case SectionConclusion:
		return s.Conclusion
	}
	return ""
}

func (s *ProtocolSections) set(k SectionKey, body string) {
	switch k {
	case SectionMotivation:
		s.Motivation = body
	case SectionTheory:
		s.Theory = body
	case SectionMaterials:
		s.Materials = body
	case SectionProcedure:
		s.Procedure = body
	case SectionResults:
		s.Results = body
	case SectionCalculations:
		s.Calculations = body
	case SectionDiscussion:
		s.Discussion = body
	case SectionConclusion:
		s.Conclusion = body
	}
}

// Sections returns the non-empty sections in [SectionOrder].
func (s ProtocolSections) Sections() []Section {
	out := make([]Section, 0, len(SectionOrder))
	for _, k := range SectionOrder {
		body := strings.TrimSpace(s.body(k))
		if body == "" {
			continue
		}
		out = append(out, Section{Key: k, Heading: k.Heading(), Body: body})
	}
	return out
}

func identifySection(line string) (SectionKey, bool) {
	upper := strings.ToUpper(line)
	for _, sk := range sectionKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(upper, kw) {
				return sk.key, true
			}
		}
	}
	return "", false
}

// ParseSections splits generated protocol text into sections.
//
// A line starting with "TITEL:" or "# " sets the title; a line containing a
// known heading keyword starts a new section. Text before the first heading is dropped.
func ParseSections(content string) ProtocolSections {
	var (
		s       ProtocolSections
		current SectionKey
		lines   []string
	)

	flush := func() {
		if current != "" && len(lines) > 0 {
			s.set(current, strings.Join(lines, "\n"))
		}
		lines = nil
	}

	for raw := range strings.SplitSeq(content, "\n") {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)

		if strings.HasPrefix(upper, "TITEL:") || strings.HasPrefix(line, "# ") {
			title := line
			if strings.HasPrefix(upper, "TITEL:") {
				title = line[len("TITEL:"):]
			}
			s.Title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(title), "#"))
			continue
		}

		if key, ok := identifySection(line); ok {
			flush()
			current = key
			continue
		}

		if current != "" && line != "" {
			lines = append(lines, line)
		}
	}
	flush()

	return s
}
