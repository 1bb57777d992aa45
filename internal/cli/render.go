package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

const excerptChars = 200

// RenderClassification formats a classification with its supporting rulings.
func RenderClassification(c *model.Classification) string {
	var b strings.Builder

	if c.HTSCode != "" {
		b.WriteString(BoldStyle.Render("HTS code: ") + CodeStyle.Render(c.HTSCode) + "\n\n")
	}
	if c.Structured != nil {
		b.WriteString(BoldStyle.Render("Confidence: ") + c.Structured.Confidence + "\n\n")
	}
	b.WriteString(strings.TrimSpace(c.Text))

	out := RenderBox(ScaleIcon+" Classification", b.String())
	return out + "\n" + RenderMatches(c.Matches)
}

// RenderMatches lists similar rulings with their rounded similarity.
func RenderMatches(matches []model.Match) string {
	if len(matches) == 0 {
		return SubtleStyle.Render("No similar rulings were found.")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Similar CBP rulings") + "\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "%s  %s\n", BoldStyle.Render(m.RulingNumber),
			SubtleStyle.Render(fmt.Sprintf("similarity %.3f", m.RoundedScore())))
		if m.URL != "" {
			fmt.Fprintf(&b, "  %s\n", m.URL)
		}
		if excerpt := excerpt(m.Text); excerpt != "" {
			fmt.Fprintf(&b, "  %s\n", SubtleStyle.Render(excerpt))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderFollowUp formats a follow-up answer.
func RenderFollowUp(question, answer string) string {
	return RenderBox("Follow-up", BoldStyle.Render("Q: ")+question+"\n\n"+strings.TrimSpace(answer))
}

// RenderSnapshot formats the monitor's latest tariff actions.
func RenderSnapshot(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(SubtleStyle.Render("Last checked "+snap.LastCheckedDisplay) + "\n\n")

	if snap.AnalysisError != "" {
		b.WriteString(FormatWarning("Analysis unavailable ("+snap.AnalysisError+"); showing raw documents.") + "\n\n")
	}

	if len(snap.SignificantActions) == 0 {
		b.WriteString(SubtleStyle.Render("No significant tariff actions.") + "\n")
	}
	for _, a := range snap.SignificantActions {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(a.Date), a.Summary)
		if a.Affected != "" {
			fmt.Fprintf(&b, "  Affected: %s\n", a.Affected)
		}
		if a.URL != "" {
			fmt.Fprintf(&b, "  %s\n", SubtleStyle.Render(a.URL))
		}
	}

	if snap.AnalysisError != "" {
		b.WriteString("\n")
		for _, d := range snap.RawDocuments {
			fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(d.Date), d.Title)
		}
	}

	for _, q := range snap.FailedQueries {
		b.WriteString(FormatWarning("Query failed: "+q) + "\n")
	}

	return RenderBox(NewsIcon+" Tariff updates", strings.TrimRight(b.String(), "\n"))
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= excerptChars {
		return text
	}
	return string(runes[:excerptChars]) + "..."
}
