package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/model"
)

const (
	// DefaultAPIURL is the Federal Register documents search endpoint.
	DefaultAPIURL = "https://www.federalregister.gov/api/v1/documents.json"

	perPage       = 20
	abstractChars = 500
)

// SearchConfig is one Federal Register term query.
type SearchConfig struct {
	Term  string
	Types []string
}

// DefaultSearches are the queries run on every check.
var DefaultSearches = []SearchConfig{
	{Term: "tariff", Types: []string{"PRESDOCU"}},
	{Term: "import duties", Types: []string{"PRESDOCU"}},
	{Term: "section 301", Types: []string{"PRESDOCU", "RULE"}},
	{Term: "reciprocal tariff", Types: []string{"PRESDOCU"}},
	{Term: "trade act proclamation", Types: []string{"PRESDOCU"}},
}

var documentFields = []string{
	"title", "publication_date", "document_number",
	"html_url", "abstract", "type", "subtype",
}

// FederalRegister searches the Federal Register API.
type FederalRegister struct {
	httpClient *http.Client
	apiURL     string
}

// NewFederalRegister creates a client. An empty apiURL uses DefaultAPIURL.
func NewFederalRegister(apiURL string, timeout time.Duration) *FederalRegister {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FederalRegister{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
	}
}

type documentsResponse struct {
	Results []struct {
		Title           string  `json:"title"`
		PublicationDate string  `json:"publication_date"`
		DocumentNumber  string  `json:"document_number"`
		HTMLURL         string  `json:"html_url"`
		Abstract        *string `json:"abstract"`
		Type            string  `json:"type"`
		Subtype         string  `json:"subtype"`
	} `json:"results"`
}

// Query builds the search parameters for sc.
func Query(sc SearchConfig, since time.Time) url.Values {
	params := url.Values{}
	params.Set("conditions[term]", sc.Term)
	for _, t := range sc.Types {
		params.Add("conditions[type][]", t)
	}
	params.Set("conditions[publication_date][gte]", since.Format("2006-01-02"))
	for _, f := range documentFields {
		params.Add("fields[]", f)
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("order", "newest")
	return params
}

// Search returns the documents matching sc published on or after since.
func (f *FederalRegister) Search(ctx context.Context, sc SearchConfig, since time.Time) ([]model.TariffDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"?"+Query(sc, since).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, common.UpstreamError("federal register", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, common.UpstreamError("federal register", fmt.Errorf("status %d", resp.StatusCode))
	}

	var body documentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, common.UpstreamError("federal register", fmt.Errorf("failed to decode response: %w", err))
	}

	docs := make([]model.TariffDocument, 0, len(body.Results))
	for _, r := range body.Results {
		var abstract string
		if r.Abstract != nil {
			abstract = embedding.Truncate(*r.Abstract, abstractChars)
		}
		docs = append(docs, model.TariffDocument{
			Title:          r.Title,
			Date:           r.PublicationDate,
			DocumentNumber: r.DocumentNumber,
			URL:            r.HTMLURL,
			Abstract:       abstract,
			Type:           r.Type,
			Subtype:        r.Subtype,
		})
	}
	return docs, nil
}
