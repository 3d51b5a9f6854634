// Package roundtable runs a moderated debate between the analyst personas
// on one ticker and distils it into a single verdict.
package roundtable

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/utils"
)

const (
	debateTopics   = 2
	synthesisSeats = 3

	verdictRetries   = 5
	verdictBaseDelay = 2 * time.Second
	verdictMaxDelay  = 32 * time.Second
)

var errNoParticipants = errors.New("no persona at the table")

// Engine runs round tables. An Engine is not safe for concurrent Run
// calls because they share its random source.
type Engine struct {
	model   model.BaseChatModel
	rng     *rand.Rand
	sleep   func(ctx context.Context, d time.Duration) error
	tracker *progress.Tracker
	log     *logger.Logger
}

type Option func(*Engine)

// WithRand fixes the random source used to pair questioners.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSleep replaces the wait between verdict attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

func WithTracker(t *progress.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(cm model.BaseChatModel, opts ...Option) *Engine {
	e := &Engine{
		model: cm,
		sleep: utils.SleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.log == nil {
		e.log = logger.Component("roundtable")
	}
	return e
}

// discussion is the state of one ticker's table.
type discussion struct {
	ticker     string
	seated     []*participant
	primary    []*participant
	transcript models.Transcript
}

func (d *discussion) votes() []Vote {
	out := make([]Vote, len(d.seated))
	for i, p := range d.seated {
		out[i] = Vote{Agent: p.profile.ID, Signal: p.signal}
	}
	return out
}

// Run debates ticker among the personas that issued a signal for it and
// returns the verdict. Signals from agents without a persona are ignored.
// Run always returns a verdict: failed generations fall back to canned
// lines, and a failed verdict falls back to a vote of the signals.
func (e *Engine) Run(ctx context.Context, ticker string, signals map[string]models.Signal) models.RoundTableOutput {
	log := e.log.With("ticker", ticker)
	d := &discussion{ticker: ticker}
	for _, id := range agents.ProfileIDs() {
		sig, ok := signals[id]
		if !ok {
			continue
		}
		profile, _ := agents.LookupProfile(id)
		d.seated = append(d.seated, &participant{profile: profile, signal: sig})
	}
	if len(d.seated) == 0 {
		log.Warnw("round table has no participants", "error", errNoParticipants)
		out := VoteFallback(nil)
		e.status(ticker, consts.State_Done)
		return out
	}

	e.status(ticker, "Starting moderated discussion")
	d.transcript.Append(fmt.Sprintf("Moderator: Welcome everyone to our investment round table discussion on %s. "+
		"Today we'll examine the bull and bear cases, analyze the company's fundamentals, technical indicators, "+
		"and reach a consensus investment decision. Let's begin with each of you sharing your initial position.", ticker))
	metrics.RecordPhase(consts.Phase_Init, false)

	e.openingPositions(ctx, d)
	d.primary = selectPrimaryDebaters(d.seated)
	e.questioning(ctx, d)
	e.topicDebate(ctx, d)
	e.synthesis(ctx, d)
	e.conclusion(ctx, d)

	out := e.finalVerdict(ctx, d)
	out.ConversationTranscript = d.transcript.String()
	metrics.RecordPhase(consts.Phase_Done, false)
	e.status(ticker, consts.State_Done)
	log.Infow("round table finished", "signal", out.Signal, "confidence", out.Confidence, "lines", d.transcript.Len())
	return out
}

func (e *Engine) status(ticker, status string) {
	e.tracker.Update(consts.RoundTable, ticker, status)
}

// say renders a prompt and generates one line. ok is false when the prompt
// could not be rendered. On generation failure the fallback is returned.
func (e *Engine) say(ctx context.Context, system, user string, vars map[string]any, fallback string) (text string, ok, degraded bool) {
	msgs, err := utils.RenderPrompt(ctx, "roundtable/"+system, userPath(user), vars)
	if err != nil {
		e.log.Errorw("render round table prompt", "prompt", system, "error", err)
		return "", false, true
	}
	return e.generate(ctx, msgs, fallback)
}

func userPath(name string) string {
	if name == "" {
		return ""
	}
	return "roundtable/" + name
}

func (e *Engine) generate(ctx context.Context, msgs []*schema.Message, fallback string) (string, bool, bool) {
	start := time.Now()
	raw, err := llm.Text(ctx, e.model, msgs)
	if err == nil {
		if text := ResponseText(raw); text != "" {
			metrics.RecordLLMCall(consts.RoundTable, "success", time.Since(start))
			return text, true, false
		}
	}
	e.log.Warnw("round table generation failed, using default line", "error", err)
	metrics.RecordLLMCall(consts.RoundTable, "default", time.Since(start))
	return fallback, true, true
}

func (e *Engine) openingPositions(ctx context.Context, d *discussion) {
	e.status(d.ticker, "Gathering initial positions")
	degraded := false
	for _, p := range d.seated {
		vars := map[string]any{
			"name":       p.name(),
			"style":      p.profile.Style,
			"background": p.profile.Background,
			"biases":     p.profile.Biases,
			"ticker":     d.ticker,
			"signal":     string(p.signal.Signal),
			"confidence": p.signal.Confidence,
			"reasoning":  p.signal.Reasoning,
		}
		fallback := fmt.Sprintf("I'm %s on %s based on my analysis.", p.signal.Signal, d.ticker)
		text, ok, bad := e.say(ctx, "opening_system", "opening_user", vars, fallback)
		degraded = degraded || bad
		if !ok {
			continue
		}
		statement := stripSpeaker(p.name(), text)
		p.profile.InitialPosition = statement
		d.transcript.Append(p.name() + ": " + statement)
	}
	metrics.RecordPhase(consts.Phase_OpeningPositions, degraded)
}

func (e *Engine) questioning(ctx context.Context, d *discussion) {
	e.status(d.ticker, "First round: Challenging assumptions")
	degraded := false
	for _, q := range pickQuestioners(e.rng, d.seated) {
		r, ok := pickResponder(e.rng, d.seated, q)
		if !ok {
			continue
		}
		vars := map[string]any{
			"questioner": q.name(),
			"responder":  r.name(),
			"ticker":     d.ticker,
			"transcript": d.transcript.String(),
		}
		fallback := fmt.Sprintf("%s, could you elaborate on your thesis for %s? "+
			"I'm particularly interested in your assumptions about growth and valuation.", r.name(), d.ticker)
		question, ok, bad := e.say(ctx, "question", "", vars, fallback)
		degraded = degraded || bad
		if !ok {
			d.transcript.Append(fmt.Sprintf("%s: %s", q.name(), fallback))
			d.transcript.Append(fmt.Sprintf("%s: My analysis of %s is based on careful consideration of "+
				"the fundamentals and market conditions.", r.name(), d.ticker))
			continue
		}
		question = withSpeaker(q.name(), question)
		d.transcript.Append(question)

		vars["question"] = question
		vars["transcript"] = d.transcript.String()
		fallback = fmt.Sprintf("Based on my analysis of %s, I believe my position is justified by "+
			"the fundamentals and market conditions.", d.ticker)
		answer, ok, bad := e.say(ctx, "answer", "", vars, fallback)
		degraded = degraded || bad
		if !ok {
			answer = fallback
		}
		d.transcript.Append(withSpeaker(r.name(), answer))
	}
	metrics.RecordPhase(consts.Phase_Questioning, degraded)
}

func (e *Engine) topicDebate(ctx context.Context, d *discussion) {
	e.status(d.ticker, "Identifying key debate topics")
	vars := map[string]any{"ticker": d.ticker, "transcript": d.transcript.String()}
	reply, _, degraded := e.say(ctx, "topics", "", vars, "")
	topics := ParseTopics(reply)
	if len(topics) == 0 {
		topics = DefaultTopics
		degraded = true
	}

	d.transcript.Append(fmt.Sprintf("Moderator: Now let's dig deeper into some key areas of disagreement. "+
		"Let's start by discussing %s.", topics[0]))

	if len(d.primary) >= 2 {
		bull, bear := d.primary[0], d.primary[1]
		for _, topic := range topics[:min(debateTopics, len(topics))] {
			e.status(d.ticker, "Debating "+topic)
			vars := map[string]any{
				"debater":    bull.name(),
				"ticker":     d.ticker,
				"topic":      topic,
				"transcript": d.transcript.String(),
			}
			fallback := fmt.Sprintf("Regarding %s, I see strong potential for %s based on the fundamentals "+
				"and market trends.", topic, d.ticker)
			argument, ok, bad := e.say(ctx, "bullish", "", vars, fallback)
			degraded = degraded || bad
			if !ok {
				argument = fallback
			}
			argument = withSpeaker(bull.name(), argument)
			d.transcript.Append(argument)

			vars = map[string]any{
				"debater":  bear.name(),
				"ticker":   d.ticker,
				"topic":    topic,
				"argument": argument,
			}
			fallback = fmt.Sprintf("I disagree with the bullish view on %s. The evidence actually suggests "+
				"caution for %s.", topic, d.ticker)
			counter, ok, bad := e.say(ctx, "bearish", "", vars, fallback)
			degraded = degraded || bad
			if !ok {
				counter = fallback
			}
			d.transcript.Append(withSpeaker(bear.name(), counter))
		}
	}
	metrics.RecordPhase(consts.Phase_TopicDebate, degraded)
}

func (e *Engine) synthesis(ctx context.Context, d *discussion) {
	e.status(d.ticker, "Final round: Synthesis")
	d.transcript.Append("Moderator: We've had a thorough debate. Now I'd like each of you to briefly share " +
		"your final position. Has anyone's view changed based on our discussion?")

	degraded := false
	for _, p := range d.primary[:min(synthesisSeats, len(d.primary))] {
		vars := map[string]any{
			"name":       p.name(),
			"ticker":     d.ticker,
			"transcript": d.transcript.String(),
		}
		fallback := fmt.Sprintf("After considering all perspectives, I maintain my position on %s.", d.ticker)
		text, ok, bad := e.say(ctx, "synthesis", "", vars, fallback)
		degraded = degraded || bad
		if !ok {
			text = fallback
		}
		d.transcript.Append(withSpeaker(p.name(), text))
	}
	metrics.RecordPhase(consts.Phase_Synthesis, degraded)
}

func (e *Engine) conclusion(ctx context.Context, d *discussion) {
	vars := map[string]any{"ticker": d.ticker, "transcript": d.transcript.String()}
	fallback := fmt.Sprintf("Thank you all for your thoughtful analysis of %s. We've heard a range of "+
		"perspectives today, from bullish to bearish, each supported by different analytical approaches.", d.ticker)
	text, ok, degraded := e.say(ctx, "conclusion", "", vars, fallback)
	if !ok {
		text = fmt.Sprintf("Thank you all for your insights on %s. This concludes our discussion.", d.ticker)
	}
	d.transcript.Append(withSpeaker("Moderator", text))
	metrics.RecordPhase(consts.Phase_ModeratorConclusion, degraded)
}

// finalVerdict asks for the structured verdict, waiting out rate limits
// with exponential backoff. Any other failure, or a reply that cannot be
// read at all, yields the vote of the opening signals.
func (e *Engine) finalVerdict(ctx context.Context, d *discussion) models.RoundTableOutput {
	fallback := VoteFallback(d.votes())
	vars := map[string]any{"ticker": d.ticker, "transcript": d.transcript.String()}
	msgs, err := utils.RenderPrompt(ctx, "roundtable/verdict_system", "roundtable/verdict", vars)
	if err != nil {
		e.log.Errorw("render verdict prompt", "error", err)
		metrics.RecordPhase(consts.Phase_FinalVerdict, true)
		return fallback
	}

	var reply string
	attempt := 0
	cfg := &utils.RetryConfig{
		MaxRetries: verdictRetries,
		BaseDelay:  verdictBaseDelay,
		MaxDelay:   verdictMaxDelay,
		Multiplier: 2,
		Retryable:  llm.IsRateLimit,
		Sleep:      e.sleep,
	}
	err = utils.WithRetry(ctx, cfg, func() error {
		attempt++
		e.status(d.ticker, fmt.Sprintf("Generating final analysis (attempt %d/%d)", attempt, verdictRetries+1))
		start := time.Now()
		text, err := llm.Text(ctx, e.model, msgs)
		switch {
		case err == nil:
			metrics.RecordLLMCall(consts.RoundTable, "success", time.Since(start))
			reply = text
		case llm.IsRateLimit(err):
			metrics.RecordLLMCall(consts.RoundTable, "rate_limited", time.Since(start))
			e.log.Warnw("verdict rate limited", "ticker", d.ticker, "attempt", attempt)
		default:
			metrics.RecordLLMCall(consts.RoundTable, "error", time.Since(start))
		}
		return err
	})
	if err != nil {
		e.log.Warnw("verdict generation failed, using signal vote", "ticker", d.ticker, "error", err)
		metrics.RecordPhase(consts.Phase_FinalVerdict, true)
		return fallback
	}

	out, parsed := ParseVerdict(reply, fallback)
	if !parsed {
		e.log.Warnw("verdict reply unreadable, using signal vote", "ticker", d.ticker)
	}
	metrics.RecordPhase(consts.Phase_FinalVerdict, !parsed)
	return out
}
