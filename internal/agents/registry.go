package agents

import (
	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Persona is anything with a round-table identity.
type Persona interface {
	ID() string
	Profile() models.PersonaProfile
}

var profiles = []models.PersonaProfile{
	{
		ID:         consts.WarrenBuffett,
		Name:       "Warren Buffett",
		Style:      "Patient, folksy but incisive, focused on business fundamentals and long-term value",
		Background: "Value investor, Berkshire Hathaway CEO, focused on business quality and management",
		Biases:     "Prefers simple businesses with strong competitive advantages and long-term growth potential",
	},
	{
		ID:         consts.CharlieMunger,
		Name:       "Charlie Munger",
		Style:      "Blunt, no-nonsense, critical of foolishness, invokes mental models",
		Background: "Vice Chairman of Berkshire Hathaway, emphasis on rationality and psychology",
		Biases:     "Skeptical of conventional wisdom, aversion to complexity",
	},
	{
		ID:         consts.BenGraham,
		Name:       "Ben Graham",
		Style:      "Conservative, risk-averse, methodical, mathematical",
		Background: "Father of value investing, focuses on margin of safety and tangible assets",
		Biases:     "Prefers stocks trading below intrinsic value with a margin of safety",
	},
	{
		ID:         consts.CathieWood,
		Name:       "Cathie Wood",
		Style:      "Bold, optimistic about disruptive innovation, future-focused",
		Background: "ARK Invest founder, focuses on disruptive innovation and technology",
		Biases:     "Favors high-growth technology companies with disruptive potential",
	},
	{
		ID:         consts.BillAckman,
		Name:       "Bill Ackman",
		Style:      "Forceful, activist mindset, confident, pushes for concrete action",
		Background: "Pershing Square founder, activist investor, concentrated portfolio",
		Biases:     "Prefers companies with potential for operational improvements or corporate actions",
	},
	{
		ID:         consts.NancyPelosi,
		Name:       "Nancy Pelosi",
		Style:      "Political insider, pragmatic, calm, policy-focused",
		Background: "Political leader with insight into regulatory and policy developments",
		Biases:     "Attuned to companies that benefit from government policy and spending",
	},
	{
		ID:         consts.TechnicalAnalyst,
		Name:       "Technical Analyst",
		Style:      "Chart-focused, pattern-oriented, dismissive of fundamentals when trends are clear",
		Background: "Professional technical analyst specializing in price patterns and momentum",
		Biases:     "Believes price action and chart patterns predict future movements",
	},
	{
		ID:         consts.Fundamentals,
		Name:       "Fundamental Analyst",
		Style:      "By-the-numbers, methodical, skeptical of hype",
		Background: "Specializes in financial statement analysis and business valuation",
		Biases:     "Focuses primarily on financial metrics and quantitative measures",
	},
	{
		ID:         consts.Sentiment,
		Name:       "Sentiment Analyst",
		Style:      "Attuned to market psychology and news flow",
		Background: "Expert in market sentiment, social media trends, and investor psychology",
		Biases:     "Believes market perception often trumps fundamentals in the short term",
	},
	{
		ID:         consts.Valuation,
		Name:       "Valuation Analyst",
		Style:      "Focused on price vs. value, multiple-based comparisons",
		Background: "Specializes in valuation methodologies and comparative analysis",
		Biases:     "Emphasizes relative and absolute valuation metrics",
	},
	{
		ID:         consts.WSB,
		Name:       "WSB",
		Style:      "Irreverent, momentum-driven, contrarian, uses distinctive slang",
		Background: "Retail trader focused on high-conviction momentum plays and contrarian bets",
		Biases:     "Favors high short interest stocks, options leverage, and unconventional catalysts",
	},
}

// Profiles returns a copy of every registered persona in registry order.
func Profiles() []models.PersonaProfile {
	out := make([]models.PersonaProfile, len(profiles))
	copy(out, profiles)
	return out
}

func LookupProfile(id string) (models.PersonaProfile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return models.PersonaProfile{}, false
}

// ProfileIDs lists the registered persona ids in registry order.
func ProfileIDs() []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

type persona struct {
	profile models.PersonaProfile
}

func personaFor(id string) persona {
	p, _ := LookupProfile(id)
	return persona{profile: p}
}

func (p persona) ID() string                     { return p.profile.ID }
func (p persona) Profile() models.PersonaProfile { return p.profile }

var analysts = []Analyst{
	newBenGraham(),
	newNancyPelosi(),
	newWSB(),
}

// Analysts returns the runnable analysts in registry order.
func Analysts() []Analyst {
	out := make([]Analyst, len(analysts))
	copy(out, analysts)
	return out
}

func LookupAnalyst(id string) (Analyst, bool) {
	for _, a := range analysts {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

func AnalystIDs() []string {
	ids := make([]string, len(analysts))
	for i, a := range analysts {
		ids[i] = a.ID()
	}
	return ids
}
