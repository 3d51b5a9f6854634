package evaluators

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const (
	PelosiMaxScore = 10

	pelosiWeight = 0.2
)

// PelosiThresholds lean toward action.
var PelosiThresholds = Thresholds{Bullish: 0.65, Bearish: 0.35}

var PelosiLineItems = []string{
	models.FieldRevenue,
	models.FieldNetIncome,
	models.FieldOutstandingShares,
	models.FieldTotalAssets,
	models.FieldResearchAndDevelopment,
	models.FieldGoodwillAndIntangibles,
}

var (
	legislationKeywords = []string{
		"bill", "act", "legislation", "congress", "senate", "house", "regulation",
		"regulatory", "policy", "subsidies", "tax credit", "incentive", "stimulus",
		"appropriation", "federal funding", "government program", "committee hearing",
		"draft legislation", "upcoming vote", "markup session", "lobbying",
		"earmark", "omnibus", "reconciliation",
	}
	contractKeywords = []string{
		"contract", "procurement", "award", "bid", "tender", "government deal",
		"federal contract", "defense contract", "agency award", "government client",
		"government purchase", "government supplier", "vendor", "appropriation",
		"request for proposal", "rfp", "no-bid contract", "sole source",
	}
	asymmetryKeywords = []string{
		"upcoming announcement", "pending approval", "not yet public", "confidential",
		"internal documents", "sources familiar", "expected to announce", "advance notice",
		"exclusive", "unreleased", "leaked", "to be determined", "advance knowledge",
		"preliminary results", "draft report", "early findings", "before official release",
		"closed-door meeting", "private briefing", "insider", "tip", "rumor", "not widely known",
	}
	highValueAsymmetry = []string{"approval", "contract award", "investigation", "regulatory action"}
	congressKeywords   = []string{
		"congress", "congressman", "congresswoman", "senator", "representative",
		"house member", "committee chair", "subcommittee", "pelosi", "schumer",
		"mcconnell", "committee", "caucus", "congressional trading", "disclosure",
		"financial disclosure", "stock act", "ethics filing",
	}
)

type policyArea struct {
	name     string
	keywords []string
}

var policyAreas = []policyArea{
	{"technology", []string{"tech", "technology", "software", "data", "privacy", "cybersecurity", "ai", "artificial intelligence"}},
	{"healthcare", []string{"health", "medical", "medicare", "medicaid", "affordable care", "pharma", "drug", "vaccine"}},
	{"finance", []string{"bank", "financial", "credit", "loan", "interest rate", "federal reserve", "treasury"}},
	{"energy", []string{"energy", "oil", "gas", "renewable", "solar", "wind", "climate", "carbon", "emissions"}},
	{"infrastructure", []string{"infrastructure", "construction", "transportation", "highway", "bridge", "road", "rail"}},
	{"defense", []string{"defense", "military", "security", "weapons", "contractor", "army", "navy", "air force"}},
}

var prioritySectors = map[string]bool{"infrastructure": true, "technology": true, "healthcare": true, "energy": true}

type sectorList struct {
	name    string
	tickers []string
}

var congressHeavySectors = []sectorList{
	{"tech", []string{"AAPL", "MSFT", "GOOG", "GOOGL", "META", "AMZN", "NVDA"}},
	{"pharma", []string{"PFE", "JNJ", "MRK", "ABBV", "LLY"}},
	{"defense", []string{"LMT", "RTX", "NOC", "GD", "BA"}},
	{"energy", []string{"XOM", "CVX", "COP", "SLB", "EOG"}},
	{"finance", []string{"JPM", "BAC", "GS", "MS", "WFC"}},
}

var highCongressTrading = []string{"AAPL", "MSFT", "AMZN", "GOOGL", "TSLA", "NVDA", "PFE", "JNJ"}

type PelosiInput struct {
	Items     []models.LineItem
	MarketCap *float64
	News      []models.CompanyNews
	Trades    []models.InsiderTrade
}

// EvaluatePelosi weights five policy checks equally into a score out of 10.
func EvaluatePelosi(ticker string, in PelosiInput) Analysis {
	sections := []Section{
		{"legislation_analysis", LegislationImpact(in.News)},
		{"gov_contract_analysis", GovernmentContracts(in.Items, in.News)},
		{"policy_analysis", PolicyTrends(in.News)},
		{"asymmetry_analysis", InformationAsymmetry(in.News, in.Trades)},
		{"congressional_trading", CongressionalTrading(ticker, in.Trades, in.News)},
	}

	var total float64
	for _, s := range sections {
		total += s.Result.Score * pelosiWeight
	}
	total = clamp(total, 0, PelosiMaxScore)

	a := Analysis{
		Ticker:   ticker,
		Signal:   PelosiThresholds.Classify(total, PelosiMaxScore),
		Score:    total,
		MaxScore: PelosiMaxScore,
		Sections: sections,
	}
	if in.MarketCap != nil {
		a.Extra = map[string]any{"market_cap": *in.MarketCap}
	}
	return a
}

// LegislationImpact nets positive against negative legislation headlines.
func LegislationImpact(news []models.CompanyNews) Result {
	if len(news) == 0 {
		return insufficient("No news data available for legislation analysis")
	}

	var score float64
	var details []string
	relevant, positive, negative := 0, 0, 0

	for _, n := range news {
		if !containsAny(strings.ToLower(n.Title), legislationKeywords) {
			continue
		}
		relevant++
		switch n.Sentiment {
		case "positive":
			positive++
			score++
			details = append(details, "Positive legislation impact: "+n.Title)
		case "negative":
			negative++
			score--
			details = append(details, "Negative legislation impact: "+n.Title)
		}
	}

	if relevant > 5 {
		score++
		details = append(details, fmt.Sprintf("High legislative activity: %d relevant news items", relevant))
	}

	net := positive - negative
	switch {
	case net > 3:
		score += 3
		details = append(details, fmt.Sprintf("Highly favorable legislative outlook: +%d", net))
	case net > 0:
		score += 2
		details = append(details, fmt.Sprintf("Positive legislative outlook: +%d", net))
	case net < -3:
		score -= 2
		details = append(details, fmt.Sprintf("Highly unfavorable legislative outlook: %d", net))
	case net < 0:
		score--
		details = append(details, fmt.Sprintf("Negative legislative outlook: %d", net))
	}

	return Result{
		Score:   clamp(score, 0, 10),
		Details: join(details, "No significant legislative impacts detected"),
		Extra: map[string]any{
			"relevant_news_count":        relevant,
			"positive_legislation_count": positive,
			"negative_legislation_count": negative,
		},
	}
}

// GovernmentContracts looks for contract headlines, acquisition-heavy
// balance sheets and steady revenue.
func GovernmentContracts(items []models.LineItem, news []models.CompanyNews) Result {
	var score float64
	var details []string

	count := 0
	for _, n := range news {
		if containsAny(strings.ToLower(n.Title), contractKeywords) {
			count++
			details = append(details, "Contract potential indicated in news: "+n.Title)
		}
	}
	switch {
	case count > 3:
		score += 3
		details = append(details, fmt.Sprintf("Significant contract news: %d related items", count))
	case count > 0:
		score++
		details = append(details, fmt.Sprintf("Some contract news: %d related items", count))
	}

	if li, ok := latest(items); ok {
		goodwill := li.Value(models.FieldGoodwillAndIntangibles)
		assets := li.Value(models.FieldTotalAssets)
		if goodwill != 0 && assets > 0 {
			if ratio := goodwill / assets; ratio > 0.3 {
				score++
				details = append(details, fmt.Sprintf("High goodwill ratio (%.2f) suggests acquisitions of contracted businesses", ratio))
			}
		}

		var revenues []float64
		for _, it := range items {
			if v, ok := it.Get(models.FieldRevenue); ok {
				revenues = append(revenues, v)
			}
		}
		if len(revenues) >= 3 {
			vol := revenueVolatility(revenues)
			switch {
			case vol < 0.1:
				score += 2
				details = append(details, fmt.Sprintf("Highly stable revenue pattern (volatility: %.2f) suggests long-term contracts", vol))
			case vol < 0.2:
				score++
				details = append(details, fmt.Sprintf("Relatively stable revenue (volatility: %.2f) suggests possible contract base", vol))
			}
		}
	}

	switch {
	case score >= 4:
		details = append(details, "Strong government contracting position")
	case score >= 2:
		details = append(details, "Moderate government contracting potential")
	}

	return Result{Score: clamp(score, 0, 6), MaxScore: 6, Details: join(details, "No significant government contract potential detected")}
}

// revenueVolatility is the mean absolute period-over-period change, or 1
// when any revenue is not positive.
func revenueVolatility(revenues []float64) float64 {
	for _, r := range revenues {
		if r <= 0 {
			return 1
		}
	}
	var sum float64
	for i := 0; i < len(revenues)-1; i++ {
		sum += math.Abs(revenues[i]/revenues[i+1] - 1)
	}
	return sum / float64(len(revenues)-1)
}

// PolicyTrends counts headlines per policy area and rewards trending
// priority sectors.
func PolicyTrends(news []models.CompanyNews) Result {
	if len(news) == 0 {
		return insufficient("No news data available for policy trend analysis")
	}

	counts := make([]int, len(policyAreas))
	for _, n := range news {
		title := strings.ToLower(n.Title)
		for i, area := range policyAreas {
			if containsAny(title, area.keywords) {
				counts[i]++
			}
		}
	}

	var score float64
	var details []string
	var trending, priority []string
	for i, area := range policyAreas {
		c := counts[i]
		switch {
		case c > 5:
			score++
			details = append(details, fmt.Sprintf("Significant %s policy activity: %d news items", area.name, c))
		case c > 2:
			score += 0.5
			details = append(details, fmt.Sprintf("Some %s policy activity: %d news items", area.name, c))
		default:
			continue
		}
		trending = append(trending, area.name)
		if prioritySectors[area.name] {
			priority = append(priority, area.name)
		}
	}

	if len(priority) > 0 {
		score += 2
		details = append(details, fmt.Sprintf("Company in high-priority policy sectors: %s", strings.Join(priority, ", ")))
	}
	if len(trending) > 1 {
		score++
		details = append(details, fmt.Sprintf("Multiple policy areas (%s) create cross-sector opportunities", strings.Join(trending, ", ")))
	}

	return Result{
		Score:   clamp(score, 0, 10),
		Details: join(details, "No significant policy trends detected"),
		Extra:   map[string]any{"trending_areas": trending},
	}
}

// InformationAsymmetry scores early-information headlines and insider
// trades placed shortly before news.
func InformationAsymmetry(news []models.CompanyNews, trades []models.InsiderTrade) Result {
	var score float64
	var details []string

	count, highValue := 0, 0
	for _, n := range news {
		title := strings.ToLower(n.Title)
		if !containsAny(title, asymmetryKeywords) {
			continue
		}
		count++
		if containsAny(title, highValueAsymmetry) {
			highValue++
			details = append(details, "High-value information asymmetry: "+n.Title)
		}
	}

	switch {
	case highValue > 0:
		score += 3
		details = append(details, fmt.Sprintf("Significant information advantage opportunities: %d high-value items", highValue))
	case count > 2:
		score += 2
		details = append(details, fmt.Sprintf("Multiple information advantage opportunities: %d items", count))
	case count > 0:
		score++
		details = append(details, fmt.Sprintf("Possible information advantage: %d items", count))
	}

	if days, ok := tradeBeforeNews(news, trades); ok {
		score += 2
		details = append(details, fmt.Sprintf("Potential information timing pattern: trading activity %d days before news", days))
	}

	return Result{Score: clamp(score, 0, 5), MaxScore: 5, Details: join(details, "No significant information asymmetry detected")}
}

// tradeBeforeNews finds the first insider trade dated 1 to 30 days before
// any headline.
func tradeBeforeNews(news []models.CompanyNews, trades []models.InsiderTrade) (int, bool) {
	for _, t := range trades {
		if t.TransactionDate.IsZero() {
			continue
		}
		td := day(t.TransactionDate)
		for _, n := range news {
			if n.Date.IsZero() {
				continue
			}
			days := int(day(n.Date).Sub(td).Hours() / 24)
			if days >= 1 && days <= 30 {
				return days, true
			}
		}
	}
	return 0, false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CongressionalTrading scores congress headlines, the insider buy ratio and
// membership in heavily traded names. The ticker bonus only applies on top of
// trades or news.
func CongressionalTrading(ticker string, trades []models.InsiderTrade, news []models.CompanyNews) Result {
	if len(trades) == 0 && len(news) == 0 {
		return insufficient("No trading or news data available for congressional trading analysis")
	}

	var score float64
	var details []string

	count := 0
	for _, n := range news {
		if containsAny(strings.ToLower(n.Title), congressKeywords) {
			count++
			details = append(details, "Congress-related trading news: "+n.Title)
		}
	}
	switch {
	case count > 2:
		score += 3
		details = append(details, fmt.Sprintf("Significant congressional trading interest: %d related items", count))
	case count > 0:
		score++
		details = append(details, fmt.Sprintf("Some congressional trading interest: %d related items", count))
	}

	if len(trades) > 5 {
		buys, sells := 0, 0
		for _, t := range trades {
			switch {
			case t.TransactionShares > 0:
				buys++
			case t.TransactionShares < 0:
				sells++
			}
		}
		if buys+sells > 0 {
			ratio := float64(buys) / float64(buys+sells)
			switch {
			case ratio > 0.7:
				score += 3
				details = append(details, fmt.Sprintf("Strong insider buying pattern: %.0f%% buys", ratio*100))
			case ratio < 0.3:
				score -= 2
				details = append(details, fmt.Sprintf("Strong insider selling pattern: %.0f%% sells", (1-ratio)*100))
			}
		}
	}

	symbol := strings.ToUpper(ticker)
	for _, s := range congressHeavySectors {
		if slices.Contains(s.tickers, symbol) {
			score++
			details = append(details, fmt.Sprintf("Company in %s sector with high congressional trading activity", s.name))
			break
		}
	}
	if slices.Contains(highCongressTrading, symbol) {
		score += 2
		details = append(details, fmt.Sprintf("%s is among top stocks with historical congressional trading activity", symbol))
	}

	return Result{Score: clamp(score, -2, 9), MaxScore: 9, Details: join(details, "No significant congressional trading patterns detected")}
}
