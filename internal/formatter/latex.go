package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/desertthunder/protokoll/internal/models"
)

const defaultAuthor = "CTA-Azubi"

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`#`, `\#`,
	`^`, `\textasciicircum{}`,
	`_`, `\_`,
	`%`, `\%`,
	`~`, `\textasciitilde{}`,
)

// EscapeLaTeX escapes characters with special meaning in LaTeX text.
func EscapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

// Section bodies are inserted verbatim so drafts may carry their own markup.
var latexTemplate = template.Must(template.New("protocol").Funcs(template.FuncMap{
	"escape": EscapeLaTeX,
}).Parse(`\documentclass[a4paper,11pt]{article}
\usepackage[ngerman]{babel}
\usepackage[utf8]{inputenc}
\usepackage[T1]{fontenc}
\usepackage{amsmath}
\usepackage{amssymb}
\usepackage{graphicx}
\usepackage{float}
\usepackage{fancyhdr}
\usepackage{lastpage}
\usepackage{hyperref}

\pagestyle{fancy}
\fancyhf{}
\fancyhead[L]{Laborprotokoll}
\fancyhead[R]{\today}
\fancyfoot[C]{\thepage\ von \pageref{LastPage}}

\begin{document}
{{- if .Title}}

\title{ {{- escape .Title -}} }
\author{ {{- escape .Author -}} }
\date{\today}
\maketitle
{{- end}}
{{- range .Sections}}

\section{ {{- .Heading -}} }
{{.Body}}
{{- end}}

\end{document}
`))

// RenderLaTeX writes a LaTeX skeleton for s. Empty sections are omitted.
func RenderLaTeX(w io.Writer, s models.ProtocolSections) error {
	author := strings.TrimSpace(s.Author)
	if author == "" {
		author = defaultAuthor
	}

	data := struct {
		Title    string
		Author   string
		Sections []models.Section
	}{
		Title:    strings.TrimSpace(s.Title),
		Author:   author,
		Sections: s.Sections(),
	}

	if err := latexTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render LaTeX: %w", err)
	}
	return nil
}
