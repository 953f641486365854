package ai

import (
	"fmt"
	"strings"
)

// Extract turns a terminal answer candidate into the user-facing result.
func Extract(candidate *Candidate, addCitations bool) AnswerResult {
	var result AnswerResult
	if candidate == nil {
		result.Text = FailureText
		return result
	}

	var texts []string
	for _, part := range candidate.Parts {
		switch part.Kind {
		case PartText:
			if part.Thought || part.Text == "" {
				continue
			}
			texts = append(texts, part.Text)
		case PartBlob:
			if part.Blob != nil && result.Image == nil && len(part.Blob.Data) > 0 {
				result.Image = part.Blob.Data
				result.ImageMIMEType = part.Blob.MIMEType
			}
		}
	}
	result.Text = strings.TrimSpace(strings.Join(texts, "\n"))

	if addCitations {
		result.Citations = usableCitations(candidate.Citations)
		if result.Text != "" && len(result.Citations) > 0 {
			result.Text += SourcesLine(result.Citations)
		}
	}

	if result.Text == "" && !result.HasImage() {
		result.Text = FailureText
	}
	return result
}

func usableCitations(in []Citation) []Citation {
	var out []Citation
	for _, c := range in {
		if c.Title == "" || c.URL == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SourcesLine renders citations as markdown links on one line.
func SourcesLine(citations []Citation) string {
	if len(citations) == 0 {
		return ""
	}
	links := make([]string, 0, len(citations))
	for _, c := range citations {
		links = append(links, fmt.Sprintf("[%s](%s)", c.Title, c.URL))
	}
	return SourcesPrefix + strings.Join(links, SourcesSeparator)
}
