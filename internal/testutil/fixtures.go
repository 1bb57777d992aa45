package testutil

import (
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

// RulingText returns a ruling body long enough to pass the ingestion floor.
func RulingText(number, subject string) string {
	return fmt.Sprintf("%s: The tariff classification of %s. %s", number, subject,
		strings.Repeat("The applicable subheading is 6109.10.0012, HTSUS. ", 8))
}

// RulingPage wraps body in the chrome a rulings page carries.
func RulingPage(body string) string {
	return `<html><head><title>CROSS</title><style>.x{color:red}</style></head>` +
		`<body><script>var tracking = 1;</script><noscript>enable js</noscript>` +
		`<div class="ruling"><p>` + body + `</p></div></body></html>`
}

// SampleRulings returns a small corpus for index and search tests.
func SampleRulings() []model.Ruling {
	return []model.Ruling{
		{RulingNumber: "N312345", URL: "https://rulings.cbp.gov/ruling/N312345", Text: RulingText("N312345", "a cotton t-shirt")},
		{RulingNumber: "N312346", URL: "https://rulings.cbp.gov/ruling/N312346", Text: RulingText("N312346", "a ceramic mug")},
		{RulingNumber: "H200001", URL: "https://rulings.cbp.gov/ruling/H200001", Text: RulingText("H200001", "a steel bolt")},
	}
}
