package evaluators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

func TestClassifyRedditPost(t *testing.T) {
	assert.Equal(t, models.Bullish, ClassifyRedditPost("GME to the moon", "buying calls, diamond hands"))
	assert.Equal(t, models.Bearish, ClassifyRedditPost("This will crash", "loaded up on puts"))
	assert.Equal(t, models.Neutral, ClassifyRedditPost("Earnings thread", ""))
}

func TestWSBEmptyInputs(t *testing.T) {
	for name, r := range map[string]Result{
		"meme":    MemePotential(nil, "", nil, nil),
		"squeeze": ShortSqueezePotential(nil, nil, nil, "GME"),
		"options": OptionsPotential(nil, nil, nil),
	} {
		assert.Zero(t, r.Score, name)
		assert.NotEmpty(t, r.Details, name)
	}

	a := EvaluateWSB("", WSBInput{})
	assert.Zero(t, a.Score)
	assert.Equal(t, models.Bearish, a.Signal)
}

func TestWSBEmptyInputsIgnoreTicker(t *testing.T) {
	for _, ticker := range []string{"GME", "AMC", "NVDA", "AAPL", "AI"} {
		t.Run(ticker, func(t *testing.T) {
			r := MemePotential(nil, ticker, nil, nil)
			assert.Zero(t, r.Score)
			assert.Contains(t, r.Details, "No news or Reddit data")

			a := EvaluateWSB(ticker, WSBInput{})
			assert.Zero(t, a.Score)
			assert.Equal(t, models.Bearish, a.Signal)
		})
	}

	// market cap alone is not buzz
	assert.Zero(t, MemePotential(nil, "GME", models.Float(5e9), nil).Score)
}

func TestMemePotentialClassicMeme(t *testing.T) {
	posts := make([]models.RedditPost, 0, 12)
	for i := 0; i < 12; i++ {
		posts = append(posts, models.RedditPost{Score: 900, NumComments: 200, Sentiment: models.Bullish})
	}
	r := MemePotential(nil, "GME", models.Float(5e9), posts)
	// reddit 1.5+1.5+1.5 capped 5 -> 4.5, cap band 3, ticker 2, brand 5: 14.5 -> 10/2
	assert.Equal(t, 5.0, r.Score)
	assert.Equal(t, 5, r.Extra["brand_score"])

	stats := r.Extra["reddit_stats"].(map[string]any)
	assert.Equal(t, 12, stats["bullish_count"])
	assert.Equal(t, 1100.0, stats["avg_engagement"])
}

func TestMemePotentialBrandFromHeadlines(t *testing.T) {
	news := []models.CompanyNews{
		{Title: "Reuters: results beat"},
		{Title: "Bloomberg: guidance raised"},
		{Title: "Reuters: another"},
		{Title: "plain headline"},
	}
	r := MemePotential(news, "ABCDE", nil, nil)
	assert.Equal(t, 2, r.Extra["brand_score"])
	assert.Equal(t, 1.0, r.Score)
}

func TestShortSqueezePotential(t *testing.T) {
	metrics := []models.FinancialMetrics{{}, {}}
	items := []models.LineItem{
		item(map[string]float64{
			models.FieldCashAndEquivalents: 10,
			models.FieldTotalDebt:          100,
			models.FieldOutstandingShares:  30e6,
			models.FieldNetIncome:          -5,
		}),
		item(map[string]float64{models.FieldNetIncome: -3}),
	}
	r := ShortSqueezePotential(metrics, items, models.Float(1e9), "GME")
	// cash/debt 2, float 3, losses 3, industry 2: 10 -> 5
	assert.Equal(t, 5.0, r.Score)
	assert.Equal(t, 3, r.Extra["profit_score"])

	mixed := []models.LineItem{items[0], item(map[string]float64{models.FieldNetIncome: 4})}
	r = ShortSqueezePotential([]models.FinancialMetrics{{}}, mixed, nil, "XYZ")
	assert.Equal(t, 1.0, r.Score)
}

func TestOptionsPotential(t *testing.T) {
	metrics := []models.FinancialMetrics{{PriceToEarningsRatio: models.Float(150)}, {}}
	items := []models.LineItem{item(map[string]float64{
		models.FieldOutstandingShares:      1e9,
		models.FieldResearchAndDevelopment: 30,
		models.FieldRevenue:                100,
	})}
	r := OptionsPotential(metrics, items, models.Float(100e9))
	// price 100 -> 3, P/E 150 -> 3, large cap 3, R&D 1: 10 -> 5
	assert.Equal(t, 5.0, r.Score)
	assert.Equal(t, 100.0, r.Extra["price"])

	r = OptionsPotential(metrics[:1], items, models.Float(1e8))
	// price 0.1 -> 1, micro cap 0, R&D 1
	assert.Equal(t, 1.0, r.Score)
}

func TestEvaluateWSBBounded(t *testing.T) {
	var news []models.CompanyNews
	for i := 0; i < 500; i++ {
		news = append(news, models.CompanyNews{Title: "WSB: viral meme squeeze"})
	}
	var posts []models.RedditPost
	for i := 0; i < 100; i++ {
		posts = append(posts, models.RedditPost{Score: 1e6, NumComments: 1e6, Sentiment: models.Bullish})
	}
	in := WSBInput{
		Metrics:   []models.FinancialMetrics{{PriceToEarningsRatio: models.Float(-1)}, {}},
		Items:     []models.LineItem{item(map[string]float64{models.FieldOutstandingShares: 1, models.FieldNetIncome: -1e12, models.FieldCashAndEquivalents: 1, models.FieldTotalDebt: 1e12}), item(map[string]float64{models.FieldNetIncome: -1})},
		MarketCap: models.Float(1e15),
		News:      news,
		Posts:     posts,
	}
	a := EvaluateWSB("GME", in)
	assert.LessOrEqual(t, a.Score, float64(WSBMaxScore))
	for _, s := range a.Sections {
		assert.LessOrEqual(t, s.Result.Score, 5.0, s.Name)
	}
	data := a.Extra["reddit_data"].(map[string]any)
	assert.Equal(t, 100, data["post_count"])
	assert.Len(t, data["top_posts"], 5)
}
