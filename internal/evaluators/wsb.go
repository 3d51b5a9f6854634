package evaluators

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const (
	WSBMaxScore = 15

	wsbSectionMax = 5
)

// WSBThresholds turn bullish early.
var WSBThresholds = Thresholds{Bullish: 0.6, Bearish: 0.3}

var WSBLineItems = []string{
	models.FieldRevenue,
	models.FieldNetIncome,
	models.FieldOutstandingShares,
	models.FieldCashAndEquivalents,
	models.FieldTotalDebt,
	models.FieldResearchAndDevelopment,
}

var (
	socialKeywords = []string{
		"reddit", "twitter", "wallstreetbets", "wsb", "social media", "viral",
		"meme", "trending", "retail investors", "robinhood", "tiktok", "hype",
		"discord", "influencer", "short sellers", "squeeze",
	}
	memeStocks = []string{"GME", "AMC", "BB", "PLTR", "TSLA", "HOOD", "BBBY", "NOK", "WISH", "CLOV"}

	squeezePrecedent = []string{"GME", "AMC", "BB", "NOK"}
	evSector         = []string{"TSLA", "LCID", "RIVN"}
	aiSector         = []string{"PLTR", "AI", "PATH"}

	bullishPostWords = []string{"bull", "buy", "calls", "moon", "rocket", "yolo", "tendies", "gain", "long"}
	bearishPostWords = []string{"bear", "put", "short", "drill", "crash", "tank", "loss", "guh", "dump"}
)

type WSBInput struct {
	Metrics   []models.FinancialMetrics
	Items     []models.LineItem
	MarketCap *float64
	News      []models.CompanyNews
	Posts     []models.RedditPost
}

// EvaluateWSB sums meme, squeeze and options potential, each out of 5.
func EvaluateWSB(ticker string, in WSBInput) Analysis {
	a := newAnalysis(ticker, WSBMaxScore, WSBThresholds,
		Section{"meme_analysis", MemePotential(in.News, ticker, in.MarketCap, in.Posts)},
		Section{"squeeze_analysis", ShortSqueezePotential(in.Metrics, in.Items, in.MarketCap, ticker)},
		Section{"options_analysis", OptionsPotential(in.Metrics, in.Items, in.MarketCap)},
	)

	top := in.Posts
	if len(top) > 5 {
		top = top[:5]
	}
	a.Extra = map[string]any{
		"reddit_data": map[string]any{
			"post_count": len(in.Posts),
			"top_posts":  top,
		},
	}
	if in.MarketCap != nil {
		a.Extra["market_cap"] = *in.MarketCap
	}
	return a
}

// ClassifyRedditPost labels a post by counting bullish and bearish slang.
func ClassifyRedditPost(title, text string) models.SignalKind {
	body := strings.ToLower(title + " " + text)
	bull, bear := 0, 0
	for _, w := range bullishPostWords {
		if strings.Contains(body, w) {
			bull++
		}
	}
	for _, w := range bearishPostWords {
		if strings.Contains(body, w) {
			bear++
		}
	}
	switch {
	case bull > bear:
		return models.Bullish
	case bear > bull:
		return models.Bearish
	}
	return models.Neutral
}

func normalize(score float64) float64 {
	return math.Min(score, 10) / 2
}

// MemePotential scores social buzz, Reddit activity, size, ticker shape and
// brand recognition. Without news or posts there is no buzz to score.
func MemePotential(news []models.CompanyNews, ticker string, marketCap *float64, posts []models.RedditPost) Result {
	if len(news) == 0 && len(posts) == 0 {
		return insufficient("No news or Reddit data available for meme analysis")
	}

	var score float64
	var details []string

	mentions := 0
	for _, n := range news {
		if containsAny(strings.ToLower(n.Title), socialKeywords) {
			mentions++
		}
	}
	switch {
	case mentions > 10:
		score += 5
		details = append(details, fmt.Sprintf("Major social media buzz: %d mentions", mentions))
	case mentions > 5:
		score += 3
		details = append(details, fmt.Sprintf("Moderate social media presence: %d mentions", mentions))
	case mentions > 2:
		score++
		details = append(details, fmt.Sprintf("Some social media activity: %d mentions", mentions))
	default:
		details = append(details, "Limited social media mentions - no meme buzz detected")
	}

	redditScore, stats, redditDetails := redditActivity(posts)
	score += redditScore
	details = append(details, redditDetails...)

	if marketCap != nil && *marketCap != 0 {
		mc := *marketCap
		switch {
		case mc >= 100e6 && mc <= 10e9:
			score += 3
			details = append(details, fmt.Sprintf("Perfect market cap for memes: $%.1fB", mc/1e9))
		case mc < 100e6:
			score += 2
			details = append(details, fmt.Sprintf("Micro-cap: $%.1fM - moonshot potential but super risky", mc/1e6))
		case mc <= 50e9:
			score++
			details = append(details, fmt.Sprintf("Mid-cap: $%.1fB - still movable with enough retail interest", mc/1e9))
		default:
			details = append(details, fmt.Sprintf("Too large: $%.1fB - hard for retail to influence", mc/1e9))
		}
	}

	switch len(ticker) {
	case 1, 2, 3:
		score += 2
		details = append(details, fmt.Sprintf("Short, catchy ticker: $%s", ticker))
	case 4:
		score++
		details = append(details, fmt.Sprintf("Decent ticker length: $%s", ticker))
	}

	brand := 0
	if slices.Contains(memeStocks, strings.ToUpper(ticker)) {
		brand = 5
		details = append(details, fmt.Sprintf("Classic meme stock: $%s - proven retail favorite", ticker))
	} else {
		head := news
		if len(head) > 5 {
			head = head[:5]
		}
		names := make(map[string]struct{})
		for _, n := range head {
			if i := strings.Index(n.Title, ":"); i >= 0 {
				names[n.Title[:i]] = struct{}{}
			}
		}
		if len(names) > 0 {
			brand = min(3, len(names))
			details = append(details, fmt.Sprintf("Some brand recognition: mentioned across %d sources", len(names)))
		}
	}
	score += float64(brand)

	return Result{
		Score:    normalize(score),
		MaxScore: wsbSectionMax,
		Details:  join(details, ""),
		Extra: map[string]any{
			"social_mentions": mentions,
			"brand_score":     brand,
			"reddit_stats":    stats,
		},
	}
}

// redditActivity scores post volume, bullish share and engagement, capped
// at 5 points.
func redditActivity(posts []models.RedditPost) (float64, map[string]any, []string) {
	stats := map[string]any{"post_count": len(posts), "bullish_count": 0, "bearish_count": 0, "avg_engagement": 0.0}
	if len(posts) == 0 {
		return 0, stats, nil
	}

	var details []string
	bullish, bearish, engagement := 0, 0, 0
	for _, p := range posts {
		switch p.Sentiment {
		case models.Bullish:
			bullish++
		case models.Bearish:
			bearish++
		}
		engagement += p.Score + p.NumComments
	}
	n := len(posts)
	avg := float64(engagement) / float64(n)
	stats["bullish_count"] = bullish
	stats["bearish_count"] = bearish
	stats["avg_engagement"] = avg

	var score float64
	switch {
	case n > 20:
		score += 2
		details = append(details, fmt.Sprintf("Massive Reddit activity: %d recent posts", n))
	case n > 10:
		score += 1.5
		details = append(details, fmt.Sprintf("Strong Reddit activity: %d recent posts", n))
	case n > 5:
		score++
		details = append(details, fmt.Sprintf("Moderate Reddit activity: %d recent posts", n))
	default:
		score += 0.5
		details = append(details, fmt.Sprintf("Some Reddit activity: %d recent posts", n))
	}

	ratio := float64(bullish) / float64(n)
	switch {
	case ratio > 0.8:
		score += 1.5
		details = append(details, fmt.Sprintf("Overwhelmingly bullish Reddit sentiment: %.0f%% positive posts", ratio*100))
	case ratio > 0.6:
		score++
		details = append(details, fmt.Sprintf("Bullish Reddit sentiment: %.0f%% positive posts", ratio*100))
	}

	switch {
	case avg > 1000:
		score += 1.5
		details = append(details, fmt.Sprintf("Massive Reddit engagement: %.0f avg upvotes+comments", avg))
	case avg > 500:
		score++
		details = append(details, fmt.Sprintf("High Reddit engagement: %.0f avg upvotes+comments", avg))
	case avg > 100:
		score += 0.5
		details = append(details, fmt.Sprintf("Decent Reddit engagement: %.0f avg upvotes+comments", avg))
	}

	return math.Min(score, 5), stats, details
}

// ShortSqueezePotential approximates squeeze setup from balance sheet
// pressure, float size, losses and sector history.
func ShortSqueezePotential(metrics []models.FinancialMetrics, items []models.LineItem, marketCap *float64, ticker string) Result {
	if len(metrics) == 0 || len(items) == 0 {
		return insufficient("Insufficient data to analyze short squeeze potential")
	}

	var score float64
	var details []string
	li := items[0]

	if len(metrics) >= 2 {
		cash := li.Value(models.FieldCashAndEquivalents)
		debt := li.Value(models.FieldTotalDebt)
		if cash != 0 && debt > 0 {
			switch r := cash / debt; {
			case r < 0.3:
				score += 2
				details = append(details, "High cash/debt pressure - boosts squeeze potential")
			case r < 0.7:
				score++
				details = append(details, "Moderate cash/debt pressure - some squeeze potential")
			}
		}
	}

	floatScore := 0
	shares := li.Value(models.FieldOutstandingShares)
	if marketCap != nil && *marketCap != 0 && shares != 0 {
		switch {
		case shares < 50e6:
			floatScore = 3
			details = append(details, fmt.Sprintf("Small float (%.1fM shares) - perfect for a squeeze", shares/1e6))
		case shares < 200e6:
			floatScore = 2
			details = append(details, fmt.Sprintf("Medium float (%.1fM shares) - decent squeeze potential", shares/1e6))
		case shares < 500e6:
			floatScore = 1
			details = append(details, fmt.Sprintf("Large float (%.1fM shares) - harder to squeeze but possible", shares/1e6))
		default:
			details = append(details, fmt.Sprintf("Huge float (%.1fM shares) - would take massive volume to squeeze", shares/1e6))
		}
	}
	score += float64(floatScore)

	profitScore := 0
	if len(items) >= 2 {
		var profits []float64
		for _, it := range items[:2] {
			if v, ok := it.Get(models.FieldNetIncome); ok {
				profits = append(profits, v)
			}
		}
		losses := 0
		for _, p := range profits {
			if p < 0 {
				losses++
			}
		}
		switch {
		case len(profits) > 0 && losses == len(profits):
			profitScore = 3
			details = append(details, "Consistently unprofitable - likely high short interest")
		case losses > 0:
			profitScore = 2
			details = append(details, "Mixed profitability - moderate short interest likely")
		}
	}
	score += float64(profitScore)

	industryScore := 0
	symbol := strings.ToUpper(ticker)
	switch {
	case hasAnyPrefix(symbol, squeezePrecedent):
		industryScore = 2
		details = append(details, "Industry with historical squeeze precedent")
	case hasAnyPrefix(symbol, evSector):
		industryScore = 2
		details = append(details, "EV sector with high short interest history")
	case hasAnyPrefix(symbol, aiSector):
		industryScore = 1
		details = append(details, "Tech sector with moderate short interest potential")
	}
	score += float64(industryScore)

	return Result{
		Score:    normalize(score),
		MaxScore: wsbSectionMax,
		Details:  join(details, "No squeeze indicators found"),
		Extra: map[string]any{
			"float_score":    floatScore,
			"profit_score":   profitScore,
			"industry_score": industryScore,
		},
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// OptionsPotential scores how attractive the name is for options plays:
// price point, implied volatility from P/E, liquidity and R&D intensity.
func OptionsPotential(metrics []models.FinancialMetrics, items []models.LineItem, marketCap *float64) Result {
	if len(metrics) == 0 || len(items) == 0 || marketCap == nil || *marketCap == 0 {
		return insufficient("Insufficient data for options analysis")
	}

	var score float64
	var details []string
	li := items[0]
	mc := *marketCap

	var price float64
	if shares := li.Value(models.FieldOutstandingShares); shares > 0 {
		price = mc / shares
	}

	priceScore := 0
	switch {
	case price >= 10 && price <= 500:
		priceScore = 3
		details = append(details, fmt.Sprintf("Perfect price range for options: $%.2f", price))
	case price >= 5 && price < 10:
		priceScore = 2
		details = append(details, fmt.Sprintf("Affordable options but less liquid: $%.2f", price))
	case price > 500 && price <= 1000:
		priceScore = 2
		details = append(details, fmt.Sprintf("High-priced options: $%.2f", price))
	case price > 1000:
		priceScore = 1
		details = append(details, fmt.Sprintf("Very expensive options: $%.2f - may need spreads", price))
	case price > 0:
		priceScore = 1
		details = append(details, fmt.Sprintf("Too cheap for good options: $%.2f", price))
	}
	score += float64(priceScore)

	volScore := 0
	if len(metrics) >= 2 && metrics[0].PriceToEarningsRatio != nil {
		pe := *metrics[0].PriceToEarningsRatio
		switch {
		case pe < 0 || pe > 100:
			volScore = 3
			details = append(details, fmt.Sprintf("High expected volatility: P/E ratio %.1f", pe))
		case pe > 50:
			volScore = 2
			details = append(details, fmt.Sprintf("Moderate expected volatility: P/E ratio %.1f", pe))
		default:
			volScore = 1
			details = append(details, fmt.Sprintf("Lower expected volatility: P/E ratio %.1f", pe))
		}
	}
	score += float64(volScore)

	mcapScore := 0
	switch {
	case mc > 10e9:
		mcapScore = 3
		details = append(details, fmt.Sprintf("Large cap ($%.1fB) - liquid options market", mc/1e9))
	case mc > 2e9:
		mcapScore = 2
		details = append(details, fmt.Sprintf("Mid cap ($%.1fB) - decent options liquidity", mc/1e9))
	case mc > 300e6:
		mcapScore = 1
		details = append(details, fmt.Sprintf("Small cap ($%.1fM) - limited options liquidity", mc/1e6))
	default:
		details = append(details, fmt.Sprintf("Micro cap ($%.1fM) - poor options liquidity", mc/1e6))
	}
	score += float64(mcapScore)

	rd := li.Value(models.FieldResearchAndDevelopment)
	revenue := li.Value(models.FieldRevenue)
	if rd != 0 && revenue != 0 {
		if r := rd / revenue; r > 0.2 {
			score++
			details = append(details, fmt.Sprintf("High R&D spending (%.1f%% of revenue) - potential for binary events", r*100))
		}
	}

	return Result{
		Score:    normalize(score),
		MaxScore: wsbSectionMax,
		Details:  join(details, ""),
		Extra: map[string]any{
			"price":            price,
			"price_score":      priceScore,
			"volatility_score": volScore,
			"market_cap_score": mcapScore,
		},
	}
}
