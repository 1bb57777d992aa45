package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/llm"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/Veraticus/customs-ai/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const earbuds = "Bluetooth wireless earbuds with charging case"

func seededStore(t *testing.T, n int) *vectorstore.Memory {
	t.Helper()
	store := vectorstore.NewMemory()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("N3%05d", i)
		err := store.Upsert(context.Background(), id, []float32{1, float32(i) / 10, 0}, map[string]string{
			model.MetaRulingNumber: id,
			model.MetaText:         "The merchandise is a set of true wireless earbuds, ruling " + id,
			model.MetaURL:          "https://rulings.cbp.gov/ruling/" + id,
		})
		require.NoError(t, err)
	}
	return store
}

type stubSearcher struct {
	err     error
	matches []model.Match
}

func (s *stubSearcher) Query(_ context.Context, _ []float32, _ int) ([]model.Match, error) {
	return s.matches, s.err
}

func TestClassifyEarbuds(t *testing.T) {
	embedder := &embedding.MockEmbedder{}
	store := seededStore(t, 9)
	client := &llm.MockClient{Responses: []llm.Response{{
		Text: "1. HTS Code: 8518.30.2000\n2. Confidence Level: High\n5. Rulings: N300000, N300001",
	}}}

	e := New(embedder, store, client, DefaultOptions(), nil)
	result, err := e.Classify(context.Background(), Request{Description: earbuds})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Text)
	assert.Regexp(t, regexp.MustCompile(`\d{4}\.\d{2}`), result.Text)
	assert.Equal(t, "8518.30", result.HTSCode)
	require.LessOrEqual(t, len(result.Matches), 5)
	assert.Len(t, result.Matches, 5)
	for i := 1; i < len(result.Matches); i++ {
		assert.GreaterOrEqual(t, result.Matches[i-1].Score, result.Matches[i].Score)
	}

	raw, err := store.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Subset(t, model.RulingNumbers(raw), model.RulingNumbers(result.Matches))

	assert.Equal(t, []string{earbuds}, embedder.Inputs)
	req := client.LastRequest()
	assert.Equal(t, 600, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.False(t, req.Messages[0].HasImage())
	prompt := req.Messages[0].Parts[0].Text
	for _, m := range result.Matches {
		assert.Contains(t, prompt, "Ruling "+m.RulingNumber)
		assert.Contains(t, prompt, m.Text)
	}
	assert.NotContains(t, prompt, "COUNTRY OF ORIGIN")
}

func TestClassifyEmptyDescriptionMakesNoCalls(t *testing.T) {
	for _, desc := range []string{"", "   \n\t"} {
		embedder := &embedding.MockEmbedder{}
		searcher := &stubSearcher{}
		client := &llm.MockClient{}

		e := New(embedder, searcher, client, DefaultOptions(), nil)
		result, err := e.Classify(context.Background(), Request{Description: desc, Image: []byte("img")})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, common.ErrEmptyDescription)
		assert.True(t, common.IsInputError(err))
		assert.Zero(t, embedder.Calls())
		assert.Zero(t, client.Calls())
	}
}

func TestClassifyWithImageAndCountry(t *testing.T) {
	client := &llm.MockClient{Responses: []llm.Response{{Text: "HTS 8518.30.20.00"}}}
	e := New(&embedding.MockEmbedder{}, seededStore(t, 2), client, DefaultOptions(), nil)

	result, err := e.Classify(context.Background(), Request{
		Description: earbuds,
		Country:     "China",
		Image:       []byte{0xff, 0xd8},
		ImageMIME:   "image/jpeg",
	})
	require.NoError(t, err)
	assert.True(t, result.HasImage)
	assert.Equal(t, "China", result.Country)
	assert.Len(t, result.Matches, 2)

	req := client.LastRequest()
	assert.Equal(t, 800, req.MaxTokens)
	msg := req.Messages[0]
	require.Len(t, msg.Parts, 2)
	assert.Contains(t, msg.Parts[0].Text, "COUNTRY OF ORIGIN:\nChina")
	assert.Contains(t, msg.Parts[0].Text, "goods from China")
	assert.Contains(t, msg.Parts[0].Text, "Also analyze the product image")
	require.NotNil(t, msg.Parts[1].Image)
	assert.Equal(t, []byte{0xff, 0xd8}, msg.Parts[1].Image.Data)
}

func TestClassifyEmptyIndex(t *testing.T) {
	client := &llm.MockClient{Responses: []llm.Response{{Text: "Confidence Level: Low"}}}
	e := New(&embedding.MockEmbedder{}, vectorstore.NewMemory(), client, DefaultOptions(), nil)

	result, err := e.Classify(context.Background(), Request{Description: earbuds})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Empty(t, result.HTSCode)
	assert.Contains(t, client.LastRequest().Messages[0].Parts[0].Text, "No similar rulings were found")
}

func TestClassifyCapsMisbehavingSearcher(t *testing.T) {
	var matches []model.Match
	for i := 0; i < 8; i++ {
		matches = append(matches, model.Match{RulingNumber: fmt.Sprintf("H2%05d", i), Score: float64(i)})
	}
	client := &llm.MockClient{Responses: []llm.Response{{Text: "8471.30"}}}
	e := New(&embedding.MockEmbedder{}, &stubSearcher{matches: matches}, client, DefaultOptions(), nil)

	result, err := e.Classify(context.Background(), Request{Description: "laptop"})
	require.NoError(t, err)
	require.Len(t, result.Matches, 5)
	assert.Equal(t, "H200007", result.Matches[0].RulingNumber)
}

func TestClassifyUpstreamErrors(t *testing.T) {
	upstream := common.UpstreamError("test", errors.New("unreachable"))

	tests := []struct {
		embedder *embedding.MockEmbedder
		searcher Searcher
		client   *llm.MockClient
		name     string
		wantErr  string
	}{
		{
			name:     "embedding fails",
			embedder: &embedding.MockEmbedder{Err: upstream},
			searcher: &stubSearcher{},
			client:   &llm.MockClient{},
			wantErr:  "embed description",
		},
		{
			name:     "search fails",
			embedder: &embedding.MockEmbedder{},
			searcher: &stubSearcher{err: upstream},
			client:   &llm.MockClient{},
			wantErr:  "query rulings",
		},
		{
			name:     "chat fails",
			embedder: &embedding.MockEmbedder{},
			searcher: &stubSearcher{},
			client:   &llm.MockClient{Errors: []error{upstream}},
			wantErr:  "chat completion",
		},
		{
			name:     "empty completion",
			embedder: &embedding.MockEmbedder{},
			searcher: &stubSearcher{},
			client:   &llm.MockClient{Responses: []llm.Response{{Text: "  "}}},
			wantErr:  "empty completion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.embedder, tt.searcher, tt.client, DefaultOptions(), nil)
			_, err := e.Classify(context.Background(), Request{Description: earbuds})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUpstream)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassifyStructured(t *testing.T) {
	opts := DefaultOptions()
	opts.Structured = true

	t.Run("valid", func(t *testing.T) {
		client := &llm.MockClient{Responses: []llm.Response{{Text: "```json\n" +
			`{"hts_code":"8518.30.20.00","confidence":"High","duty_commentary":"Free","rationale":"Same as N300001","cited_rulings":["N300001"]}` +
			"\n```"}}}
		e := New(&embedding.MockEmbedder{}, seededStore(t, 3), client, opts, nil)

		result, err := e.Classify(context.Background(), Request{Description: earbuds})
		require.NoError(t, err)
		require.NotNil(t, result.Structured)
		assert.Equal(t, "8518.30.20.00", result.HTSCode)
		assert.Equal(t, []string{"N300001"}, result.Structured.CitedRulings)
		assert.Contains(t, client.LastRequest().Messages[0].Parts[0].Text, "Respond with ONLY a valid JSON object")
	})

	t.Run("citation outside match set", func(t *testing.T) {
		client := &llm.MockClient{Responses: []llm.Response{{
			Text: `{"hts_code":"8518.30.20.00","confidence":"High","duty_commentary":"","rationale":"","cited_rulings":["N999999"]}`,
		}}}
		e := New(&embedding.MockEmbedder{}, seededStore(t, 3), client, opts, nil)

		result, err := e.Classify(context.Background(), Request{Description: earbuds})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrMalformedOutput)
		assert.NotErrorIs(t, err, common.ErrUpstream)
		require.NotNil(t, result)
		assert.Contains(t, result.Text, "N999999")
		assert.Nil(t, result.Structured)
	})

	t.Run("prose instead of json", func(t *testing.T) {
		client := &llm.MockClient{Responses: []llm.Response{{Text: "HTS Code 8518.30 with high confidence"}}}
		e := New(&embedding.MockEmbedder{}, seededStore(t, 3), client, opts, nil)

		_, err := e.Classify(context.Background(), Request{Description: earbuds})
		assert.ErrorIs(t, err, common.ErrMalformedOutput)
	})
}

func TestParseStructuredValidation(t *testing.T) {
	matches := []model.Match{{RulingNumber: "N300001"}, {RulingNumber: "H200002"}}

	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{name: "bad hts", text: `{"hts_code":"85","confidence":"High","cited_rulings":[]}`, wantErr: "not an HTS number"},
		{name: "bad confidence", text: `{"hts_code":"8518.30","confidence":"Certain","cited_rulings":[]}`, wantErr: "confidence"},
		{name: "unknown field", text: `{"hts_code":"8518.30","confidence":"Low","extra":1}`, wantErr: "unknown field"},
		{name: "ok", text: `{"hts_code":"8518.30","confidence":"Low","cited_rulings":["H200002","N300001"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructured(tt.text, matches)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, model.ConfidenceLow, got.Confidence)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedOutput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
