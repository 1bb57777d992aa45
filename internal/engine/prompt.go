package engine

import (
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

// FollowUpDisclaimer is the fixed refusal for out-of-scope questions.
const FollowUpDisclaimer = "I can only help with general import compliance questions related to this classification. Please consult a licensed customs broker for this question."

// FollowUpTopics lists what the follow-up prompt permits.
var FollowUpTopics = []string{
	"Import documentation requirements",
	"Antidumping and countervailing duty (ADD/CVD) applicability",
	"Customs bonding requirements",
	"Importer Security Filing (ISF)",
	"Partner government agency filings (FDA, FCC, USDA, CPSC and similar)",
	"Commercial invoice content",
	"Country of origin marking",
	"Classification methodology (GRIs, section and chapter notes)",
}

func formatRulings(matches []model.Match) string {
	if len(matches) == 0 {
		return "No similar rulings were found in the index."
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("Ruling %s (similarity: %.3f):\n%s", m.RulingNumber, m.RoundedScore(), m.Text))
	}
	return strings.Join(blocks, "\n\n")
}

func buildClassificationPrompt(description, country string, matches []model.Match, hasImage, structured bool) string {
	var b strings.Builder

	b.WriteString("You are an expert US customs classification specialist.\n")
	b.WriteString("Based on the following similar CBP rulings, classify this product.\n\n")
	b.WriteString("SIMILAR CBP RULINGS:\n")
	b.WriteString(formatRulings(matches))
	b.WriteString("\n\nPRODUCT DESCRIPTION:\n")
	b.WriteString(description)
	b.WriteString("\n")

	if country != "" {
		fmt.Fprintf(&b, "\nCOUNTRY OF ORIGIN:\n%s\n", country)
	}
	if hasImage {
		b.WriteString("\nAlso analyze the product image provided.\n")
	}

	b.WriteString("\nProvide:\n")
	b.WriteString("1. HTS Code (10 digits)\n")
	b.WriteString("2. Confidence Level (High/Medium/Low)\n")
	if country != "" {
		fmt.Fprintf(&b, "3. Duty rate and tariff commentary, including any additional duties or program adjustments that apply to goods from %s\n", country)
	} else {
		b.WriteString("3. Duty rate and tariff commentary\n")
	}
	b.WriteString("4. Reasoning based on similar rulings\n")
	b.WriteString("5. Most relevant ruling numbers, chosen only from the rulings listed above\n")

	if structured {
		b.WriteString("\nRespond with ONLY a valid JSON object. No markdown, no explanation.\n")
		b.WriteString("Format:\n")
		b.WriteString(`{"hts_code": "XXXX.XX.XX.XX", "confidence": "High or Medium or Low", "duty_commentary": "...", "rationale": "...", "cited_rulings": ["ruling numbers from the list above"]}`)
		b.WriteString("\n")
	}

	return b.String()
}

func buildFollowUpPrompt(classification, description, country, question string) string {
	var b strings.Builder

	b.WriteString("You are a US customs compliance assistant answering a follow-up question about a product classification.\n\n")
	b.WriteString("PRODUCT DESCRIPTION:\n")
	b.WriteString(description)
	b.WriteString("\n")
	if country != "" {
		fmt.Fprintf(&b, "\nCOUNTRY OF ORIGIN:\n%s\n", country)
	}
	b.WriteString("\nPRIOR CLASSIFICATION:\n")
	b.WriteString(classification)
	b.WriteString("\n\nYou may ONLY answer questions about these topics:\n")
	for _, topic := range FollowUpTopics {
		fmt.Fprintf(&b, "- %s\n", topic)
	}
	b.WriteString("\nIf the question is outside these topics, or depends on specific duty rates, quota levels, de minimis or other thresholds, respond with exactly this sentence and nothing else:\n")
	b.WriteString(FollowUpDisclaimer)
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n")

	return b.String()
}
