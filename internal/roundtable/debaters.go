package roundtable

import (
	"math/rand"
	"sort"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const (
	debatersPerCategory = 2
	minDebaters         = 4
	maxQuestioners      = 3
)

// participant is one persona seated at a ticker's table.
type participant struct {
	profile models.PersonaProfile
	signal  models.Signal
}

func (p *participant) name() string { return p.profile.Name }

// SelectPrimaryDebaters takes the two most confident personas of each
// camp, bullish first, then bearish, then neutral, and tops the list up to
// four from the remaining personas in seating order.
func selectPrimaryDebaters(seated []*participant) []*participant {
	buckets := map[models.SignalKind][]*participant{}
	for _, p := range seated {
		kind := p.signal.Signal
		if !kind.Valid() {
			kind = models.Neutral
		}
		buckets[kind] = append(buckets[kind], p)
	}

	var primary []*participant
	chosen := make(map[*participant]bool)
	for _, kind := range []models.SignalKind{models.Bullish, models.Bearish, models.Neutral} {
		group := buckets[kind]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].signal.Confidence > group[j].signal.Confidence
		})
		for _, p := range group[:min(debatersPerCategory, len(group))] {
			if !chosen[p] {
				chosen[p] = true
				primary = append(primary, p)
			}
		}
	}

	for _, p := range seated {
		if len(primary) >= minDebaters {
			break
		}
		if !chosen[p] {
			chosen[p] = true
			primary = append(primary, p)
		}
	}
	return primary
}

// pickQuestioners samples up to three distinct personas.
func pickQuestioners(rng *rand.Rand, seated []*participant) []*participant {
	n := min(maxQuestioners, len(seated))
	out := make([]*participant, 0, n)
	for _, i := range rng.Perm(len(seated))[:n] {
		out = append(out, seated[i])
	}
	return out
}

// pickResponder picks a random persona other than questioner.
func pickResponder(rng *rand.Rand, seated []*participant, questioner *participant) (*participant, bool) {
	eligible := make([]*participant, 0, len(seated))
	for _, p := range seated {
		if p != questioner {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}
	return eligible[rng.Intn(len(eligible))], true
}
