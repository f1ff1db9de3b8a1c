package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/dataset"
)

type fakeRuntime struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: f.reply}}},
		Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		dataset.MustColumn("amount", dataset.Float64, 1, 2, 3, 4, nil),
		dataset.MustColumn("placed", dataset.Date, date(2024, 1, 1), nil, date(2024, 1, 4), date(2024, 1, 2), nil),
		dataset.MustColumn("paid", dataset.Bool, true, false, true, nil, true),
		dataset.MustColumn("region", dataset.Categorical, "west", "east", nil, "west", "north"),
		dataset.MustColumn("shipped", dataset.String, "2024-02-01", "2024-02-03", "2024-02-01", nil, "2024-02-09"),
		dataset.MustColumn("channel", dataset.String, "web", "store", "web", "phone", "web"),
		dataset.MustColumn("blob", dataset.Binary, []byte("a"), nil, []byte("b"), []byte("a"), nil),
	)
	require.NoError(t, err)
	return ds
}

func summarize(t *testing.T, ds *dataset.Dataset, opts ...Option) *Summary {
	t.Helper()
	s, err := New(ds, append([]Option{WithFilename("orders.csv"), WithRand(rand.New(rand.NewSource(1)))}, opts...)...)
	require.NoError(t, err)
	sum, err := s.Summarize(context.Background(), DefaultOptions())
	require.NoError(t, err)
	return sum
}

func profileOf(t *testing.T, sum *Summary, name string) ColumnProfile {
	t.Helper()
	for _, c := range sum.Columns {
		if c.Column == name {
			return c
		}
	}
	t.Fatalf("column %q not in summary", name)
	return ColumnProfile{}
}

func TestSummarizeRoutesEveryColumn(t *testing.T) {
	ds := sampleDataset(t)
	sum := summarize(t, ds)

	assert.Equal(t, "orders.csv", sum.Filename)
	assert.Equal(t, "orders.csv", sum.Name, "name defaults to the filename")
	assert.Nil(t, sum.Description)

	want := map[string]string{
		"amount":  TypeNumeric,
		"placed":  TypeDate,
		"paid":    TypeBoolean,
		"region":  TypeCategorical,
		"shipped": TypeDateLikeString,
		"channel": TypeCategoricalString,
		"blob":    "binary",
	}
	require.Len(t, sum.Columns, ds.Width())
	for i, col := range ds.Columns() {
		p := sum.Columns[i]
		assert.Equal(t, col.Name(), p.Column, "input order is preserved")
		assert.Equal(t, want[p.Column], p.Type, p.Column)
		assert.Equal(t, col.DType().String(), p.DType)
		assert.Equal(t, ds.Rows(), p.NullCount+p.NotNullCount, "counts add up for %s", p.Column)
		assert.NotNil(t, p.Samples)
	}
}

func TestNumericStatistics(t *testing.T) {
	p := profileOf(t, summarize(t, sampleDataset(t)), "amount")
	require.NotNil(t, p.NumericStats)
	assert.Equal(t, 1, p.NullCount)
	assert.Equal(t, 4, p.NotNullCount)
	assert.Equal(t, 1.0, *p.Min)
	assert.Equal(t, 4.0, *p.Max)
	assert.Equal(t, 2.5, *p.Mean)
	assert.Equal(t, 2.5, *p.Median)
	assert.InDelta(t, 1.2910, *p.Std, 1e-4, "sample standard deviation")
	assert.LessOrEqual(t, *p.Min, *p.Median)
	assert.LessOrEqual(t, *p.Median, *p.Max)
	assert.LessOrEqual(t, *p.Min, *p.Mean)
	assert.LessOrEqual(t, *p.Mean, *p.Max)
}

func TestNumericEdgeCases(t *testing.T) {
	ds, err := dataset.New(
		dataset.MustColumn("empty", dataset.Int64, nil, nil, nil),
		dataset.MustColumn("single", dataset.Int64, nil, 7, nil),
	)
	require.NoError(t, err)
	sum := summarize(t, ds)

	empty := profileOf(t, sum, "empty")
	require.NotNil(t, empty.NumericStats)
	assert.Nil(t, empty.Min)
	assert.Nil(t, empty.Max)
	assert.Nil(t, empty.Mean)
	assert.Nil(t, empty.Median)
	assert.Nil(t, empty.Std)
	assert.Equal(t, 0, empty.NotNullCount)
	assert.Empty(t, empty.Samples)

	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"min":null`)
	assert.Contains(t, string(raw), `"std":null`)
	assert.NotContains(t, string(raw), "true_count")
	assert.NotContains(t, string(raw), "min_date")

	single := profileOf(t, sum, "single")
	assert.Equal(t, 7.0, *single.Min)
	assert.Equal(t, 7.0, *single.Median)
	assert.Nil(t, single.Std, "std needs two values")
}

func TestTemporalStatistics(t *testing.T) {
	sum := summarize(t, sampleDataset(t))
	p := profileOf(t, sum, "placed")
	require.NotNil(t, p.DateStats)
	assert.True(t, p.MinDate.Equal(date(2024, 1, 1)))
	assert.True(t, p.MaxDate.Equal(date(2024, 1, 4)))
	assert.Equal(t, Duration(72*time.Hour), *p.MinMaxDiff)
	assert.Equal(t, 2, p.NullCount)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"min_date":"2024-01-01T00:00:00Z"`)
	assert.Contains(t, string(raw), `"min_max_diff":"72h0m0s"`)

	ds, err := dataset.New(dataset.MustColumn("never", dataset.Datetime, nil, nil))
	require.NoError(t, err)
	never := profileOf(t, summarize(t, ds), "never")
	require.NotNil(t, never.DateStats)
	assert.Nil(t, never.MinDate)
	assert.Nil(t, never.MaxDate)
	assert.Nil(t, never.MinMaxDiff)
}

func TestBooleanCounts(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("flag", dataset.Bool, true, false, true, nil))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "flag")
	require.NotNil(t, p.BooleanStats)
	assert.Equal(t, 2, p.TrueCount)
	assert.Equal(t, 1, p.FalseCount)
	assert.Equal(t, 1, p.NullCount)
	assert.Equal(t, 3, p.NotNullCount)
}

func TestDeclaredCategorical(t *testing.T) {
	p := profileOf(t, summarize(t, sampleDataset(t)), "region")
	require.NotNil(t, p.CategoryStats)
	assert.Equal(t, []string{"east", "north", "west"}, p.Categories)
	assert.Equal(t, 3, p.NCategories)
	assert.Nil(t, p.NUnique)
}

func TestDeclaredCategoricalSkipsDisambiguation(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("day", dataset.Categorical, "2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "day")
	assert.Equal(t, TypeCategorical, p.Type)
	assert.Nil(t, p.ParsedSuccessRate)
}

func TestDateLikeCheckedBeforeCategorical(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("d", dataset.String, "2024-01-01", "2024-01-02", "2024-01-03"))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "d")
	assert.Equal(t, TypeDateLikeString, p.Type)
	require.NotNil(t, p.ParsedSuccessRate)
	assert.Equal(t, 1.0, *p.ParsedSuccessRate)
	assert.True(t, p.MinDate.Equal(date(2024, 1, 1)))
	assert.True(t, p.MaxDate.Equal(date(2024, 1, 3)))
	assert.Nil(t, p.CategoryStats)
}

func TestDateLikeLayouts(t *testing.T) {
	cases := []struct {
		name   string
		values []any
		min    time.Time
		max    time.Time
	}{
		{"day first dashes", []any{"31-01-2024", "01-02-2024"}, date(2024, 1, 31), date(2024, 2, 1)},
		{"slashes", []any{"2024/03/01", " 2024/03/05 "}, date(2024, 3, 1), date(2024, 3, 5)},
		{"day first slashes", []any{"15/06/2023", "16/06/2023"}, date(2023, 6, 15), date(2023, 6, 16)},
		{"permissive", []any{"2024-03-06T10:00:00Z", "2024-03-07 08:30:00"}, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC), time.Date(2024, 3, 7, 8, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := dataset.New(dataset.MustColumn("d", dataset.String, tc.values...))
			require.NoError(t, err)
			p := profileOf(t, summarize(t, ds), "d")
			require.Equal(t, TypeDateLikeString, p.Type)
			assert.True(t, p.MinDate.Equal(tc.min), "min %v", p.MinDate)
			assert.True(t, p.MaxDate.Equal(tc.max), "max %v", p.MaxDate)
		})
	}
}

func TestDateLikeBelowThreshold(t *testing.T) {
	values := []any{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "soon", nil}
	ds, err := dataset.New(dataset.MustColumn("d", dataset.String, values...))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "d")
	assert.Equal(t, TypeCategoricalString, p.Type, "4 of 5 parsed is under 0.9")
	assert.Equal(t, 5, p.NCategories, "categories exclude the null")

	p = profileOf(t, summarize(t, ds, WithConfig(Config{DateLikeThreshold: 0.8})), "d")
	assert.Equal(t, TypeDateLikeString, p.Type)
	assert.InDelta(t, 0.8, *p.ParsedSuccessRate, 1e-9)
}

func TestDigitStringsAreNotDates(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("zip", dataset.String, "12345", "67890", "12345"))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "zip")
	assert.Equal(t, TypeCategoricalString, p.Type)
}

func TestCategoricalString(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("grade", dataset.String, "A", "B", "A", "C", "A"))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "grade")
	assert.Equal(t, TypeCategoricalString, p.Type)
	assert.Equal(t, []string{"A", "B", "C"}, p.Categories)
	assert.Equal(t, 3, p.NCategories)
}

func letters(i int) string {
	var b strings.Builder
	for {
		b.WriteByte(byte('a' + i%26))
		i /= 26
		if i == 0 {
			break
		}
	}
	return "note-" + b.String()
}

func TestFreeTextFallsBackToString(t *testing.T) {
	values := make([]any, 1000)
	for i := range values {
		values[i] = letters(i)
	}
	ds, err := dataset.New(dataset.MustColumn("notes", dataset.String, values...))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "notes")
	assert.Equal(t, TypeString, p.Type)
	require.NotNil(t, p.NUnique)
	assert.Equal(t, 1000, *p.NUnique)
	assert.Nil(t, p.CategoryStats)
	assert.Len(t, p.Samples, 3)
}

func TestUniqueCountIncludesNull(t *testing.T) {
	values := make([]any, 0, 61)
	for i := 0; i < 60; i++ {
		values = append(values, letters(i))
	}
	values = append(values, nil)
	ds, err := dataset.New(dataset.MustColumn("notes", dataset.String, values...))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "notes")
	require.Equal(t, TypeString, p.Type)
	assert.Equal(t, 61, *p.NUnique)
}

func TestCategoricalRatioRule(t *testing.T) {
	// 60 distinct values over 2000 rows: above the unique limit but under
	// the 0.05 ratio.
	values := make([]any, 2000)
	for i := range values {
		values[i] = letters(i % 60)
	}
	ds, err := dataset.New(dataset.MustColumn("code", dataset.String, values...))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "code")
	assert.Equal(t, TypeCategoricalString, p.Type)
	assert.Equal(t, 60, p.NCategories)

	p = profileOf(t, summarize(t, ds, WithConfig(Config{CategoricalThreshold: 0.01, CategoricalUniqueLimit: 10})), "code")
	assert.Equal(t, TypeString, p.Type)
}

func TestOtherTypesNeverFail(t *testing.T) {
	ds, err := dataset.New(
		dataset.MustColumn("raw", dataset.Binary, []byte{0x1}, nil),
		dataset.MustColumn("nested", dataset.OtherType("object"), map[string]any{"a": 1}, []any{1, 2}),
		dataset.MustColumn("unnamed", dataset.DType{}, 1, nil),
	)
	require.NoError(t, err)
	sum := summarize(t, ds)
	assert.Equal(t, "binary", profileOf(t, sum, "raw").Type)
	assert.Equal(t, "object", profileOf(t, sum, "nested").Type)
	assert.Equal(t, "other", profileOf(t, sum, "unnamed").Type)
	assert.Len(t, profileOf(t, sum, "nested").Samples, 2)
}

func TestSamplesAreDistinctAndBounded(t *testing.T) {
	ds, err := dataset.New(
		dataset.MustColumn("two", dataset.String, "x", "y", "x", "y", "x", nil),
		dataset.MustColumn("many", dataset.Int64, 1, 2, 3, 4, 5, 6),
	)
	require.NoError(t, err)
	s, err := New(ds, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	sum, err := s.Summarize(context.Background(), Options{Samples: 5})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, profileOf(t, sum, "two").Samples)

	many := profileOf(t, sum, "many").Samples
	require.Len(t, many, 5)
	seen := map[int64]bool{}
	for _, v := range many {
		n := v.(int64)
		assert.False(t, seen[n], "sample %v repeated", n)
		assert.True(t, n >= 1 && n <= 6)
		seen[n] = true
	}

	sum, err = s.Summarize(context.Background(), Options{})
	require.NoError(t, err)
	for _, c := range sum.Columns {
		assert.NotNil(t, c.Samples)
		assert.Empty(t, c.Samples)
	}
}

func TestSummarizeIsRepeatable(t *testing.T) {
	ds := sampleDataset(t)
	s, err := New(ds, WithFilename("orders.csv"), WithDescription("orders"))
	require.NoError(t, err)
	assert.Nil(t, s.Cached(), "unsummarized")

	opt := Options{Samples: 10}
	first, err := s.Summarize(context.Background(), opt)
	require.NoError(t, err)
	second, err := s.Summarize(context.Background(), opt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, second, s.Cached())
}

func TestCallersGetCopies(t *testing.T) {
	s, err := New(sampleDataset(t), WithFilename("orders.csv"))
	require.NoError(t, err)
	sum, err := s.Summarize(context.Background(), DefaultOptions())
	require.NoError(t, err)

	sum.Name = "changed"
	sum.Columns[0].Type = "changed"
	*sum.Columns[0].Min = -100
	sum.Columns[0].Samples[0] = "changed"

	cached := s.Cached()
	assert.Equal(t, "orders.csv", cached.Name)
	assert.Equal(t, TypeNumeric, cached.Columns[0].Type)
	assert.Equal(t, 1.0, *cached.Columns[0].Min)
	assert.NotEqual(t, "changed", cached.Columns[0].Samples[0])

	cached.Columns[0].Type = "again"
	assert.Equal(t, TypeNumeric, s.Cached().Columns[0].Type)
}

func TestNewRejectsNilDataset(t *testing.T) {
	_, err := New(nil)
	var dae *dataset.DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.ErrorIs(t, err, dataset.ErrNoData)

	noRows, err := dataset.New(dataset.MustColumn("id", dataset.Int64), dataset.MustColumn("name", dataset.String))
	require.NoError(t, err)
	_, err = New(noRows)
	require.ErrorAs(t, err, &dae)
	assert.ErrorIs(t, err, dataset.ErrNoData)
}

func TestLargeIntegersKeepPrecisionInSamples(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("id", dataset.Int64, int64(9007199254740993), nil))
	require.NoError(t, err)
	p := profileOf(t, summarize(t, ds), "id")
	assert.Equal(t, []any{int64(9007199254740993)}, p.Samples)
	assert.NotNil(t, p.Max)
}

func TestByteSamplesAreNotShared(t *testing.T) {
	ds, err := dataset.New(dataset.MustColumn("blob", dataset.Binary, []byte("abc")))
	require.NoError(t, err)
	s, err := New(ds)
	require.NoError(t, err)
	sum, err := s.Summarize(context.Background(), DefaultOptions())
	require.NoError(t, err)

	sum.Columns[0].Samples[0].([]byte)[0] = 'Z'
	assert.Equal(t, []byte("abc"), s.Cached().Columns[0].Samples[0])
	col, _ := ds.Column("blob")
	assert.Equal(t, []byte("abc"), col.Value(0))
}

func TestConfigNormalized(t *testing.T) {
	got := Config{CategoricalThreshold: 2, CategoricalUniqueLimit: -1, DateLikeThreshold: 0}.normalized()
	assert.Equal(t, DefaultConfig(), got)

	custom := Config{CategoricalThreshold: 0.1, CategoricalUniqueLimit: 10, DateLikeThreshold: 0.5}
	s, err := New(sampleDataset(t), WithConfig(custom))
	require.NoError(t, err)
	assert.Equal(t, custom, s.Config())
}

const enrichedReply = "```json\n" + `{
  "filename": "orders.csv",
  "name": "orders.csv",
  "description": "Customer orders with payment and shipping details.",
  "columns": [
    {"column": "amount", "summary": "Order value."},
    {"column": "channel", "summary": "Where the order was placed."},
    {"column": "unknown", "summary": "ignored"}
  ]
}` + "\n```"

func TestEnrichMergesReply(t *testing.T) {
	rt := &fakeRuntime{reply: enrichedReply}
	sum := summarize(t, sampleDataset(t), WithRuntime(rt, ai.GenerationConfig{}))
	assert.Empty(t, sum.Columns[0].Summary, "enrichment not requested")

	s, err := New(sampleDataset(t), WithFilename("orders.csv"), WithRuntime(rt, ai.GenerationConfig{}))
	require.NoError(t, err)
	sum, err = s.Summarize(context.Background(), Options{Samples: 2, Enrich: true})
	require.NoError(t, err)

	require.NotNil(t, sum.Description)
	assert.Equal(t, "Customer orders with payment and shipping details.", *sum.Description)
	assert.Equal(t, "Order value.", profileOf(t, sum, "amount").Summary)
	assert.Equal(t, "Where the order was placed.", profileOf(t, sum, "channel").Summary)
	assert.Empty(t, profileOf(t, sum, "paid").Summary)
	assert.Len(t, sum.Columns, 7)
	assert.Equal(t, sum, s.Cached())

	require.Equal(t, 1, rt.calls)
	req := rt.last
	require.Len(t, req.Messages, 2)
	assert.Equal(t, ai.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, ai.RoleUser, req.Messages[1].Role)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Generate a summary for the following dataset."))
	assert.Contains(t, req.Messages[1].Content, `"min_max_diff":"72h0m0s"`)
	assert.Contains(t, req.Messages[1].Content, `"min_date":"2024-01-01T00:00:00Z"`)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, 4028, req.MaxTokens)
}

func TestEnrichKeepsGivenDescription(t *testing.T) {
	rt := &fakeRuntime{reply: enrichedReply}
	gen := ai.GenerationConfig{Model: "llama3.1:8b", Temperature: 0.1, MaxTokens: 64}
	s, err := New(sampleDataset(t), WithDescription("Q1 orders"), WithRuntime(rt, gen))
	require.NoError(t, err)
	sum, err := s.Summarize(context.Background(), Options{Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, "Q1 orders", *sum.Description)
	assert.Equal(t, "orders.csv", sum.Name, "empty name is taken from the reply")
	assert.Equal(t, "llama3.1:8b", rt.last.Model)
	assert.Equal(t, 64, rt.last.MaxTokens)
}

func TestEnrichFailureKeepsCache(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(sampleDataset(t), WithFilename("orders.csv"), WithRuntime(rt, ai.GenerationConfig{}))
	require.NoError(t, err)
	before, err := s.Summarize(context.Background(), Options{Samples: 10})
	require.NoError(t, err)

	for _, reply := range []string{"not json", "", "null", `{"description": `, "[1,2]"} {
		rt.reply = reply
		sum, err := s.Summarize(context.Background(), Options{Samples: 1, Enrich: true})
		assert.Nil(t, sum)
		var se *SummaryEnrichmentError
		require.ErrorAs(t, err, &se, "reply %q", reply)
		assert.Equal(t, before, s.Cached(), "cache untouched after %q", reply)
	}

	rt.err = &ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429, Message: "slow down"}}
	_, err = s.Summarize(context.Background(), Options{Enrich: true})
	var se *SummaryEnrichmentError
	require.ErrorAs(t, err, &se)
	var rl *ai.RateLimitError
	assert.ErrorAs(t, err, &rl)
	assert.Equal(t, before, s.Cached())
}

func TestEnrichWithoutRuntime(t *testing.T) {
	s, err := New(sampleDataset(t))
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), Options{Enrich: true})
	assert.ErrorIs(t, err, ErrNoRuntime)
	assert.Nil(t, s.Cached())
}

func TestConcurrentSummarize(t *testing.T) {
	s, err := New(sampleDataset(t), WithFilename("orders.csv"))
	require.NoError(t, err)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Summarize(context.Background(), DefaultOptions()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	require.NotNil(t, s.Cached())
	assert.Len(t, s.Cached().Columns, 7)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1} "))
}

func TestMarkdown(t *testing.T) {
	sum := summarize(t, sampleDataset(t), WithDescription("Q1 orders"))
	sum.Columns[0].Summary = "Order value."
	md := sum.Markdown()
	assert.True(t, strings.HasPrefix(md, "[DATASET SUMMARY]\nFile: orders.csv\n"))
	assert.Contains(t, md, "Description: Q1 orders")
	assert.Contains(t, md, "[SCHEMA]")
	assert.Contains(t, md, "- amount: numeric [f64] (non-null 4, missing 20.0%); min 1, max 4, mean 2.5, median 2.5")
	assert.Contains(t, md, "- placed: date [date]")
	assert.Contains(t, md, "from 2024-01-01 to 2024-01-04 (span 72h0m0s)")
	assert.Contains(t, md, "- paid: boolean [bool] (non-null 4, missing 20.0%); true 3, false 1")
	assert.Contains(t, md, "- region: categorical [cat]")
	assert.Contains(t, md, "  Order value.\n")
	assert.Contains(t, md, fmt.Sprintf("Columns: %d", len(sum.Columns)))
}

func TestEnrichmentErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := error(&SummaryEnrichmentError{Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}
