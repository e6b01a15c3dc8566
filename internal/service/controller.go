package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"phonefinder/internal/metrics"
	"phonefinder/internal/model"

	"github.com/rs/zerolog"
)

// Fixed replies
const (
	GreetingText    = "Hello! I'm your Phone Advisor. Tell me what kind of phone you are looking for, for example: 'a phone under ₹20000 with a good camera'."
	helpText        = "I can help you find phones based on your preferences. Ask for a phone 'under ₹25000', with '8GB RAM', for 'gaming', with a 'good camera', or from a brand like 'Samsung'."
	thanksText      = "You're most welcome! Is there anything else you'd like to refine or search for?"
	resetText       = "Okay, let's start over. What kind of phone are you looking for?"
	needCriteria    = "I need at least one preference (like price, RAM or use case) before I can search. What are you looking for?"
	unavailableText = "Sorry, the phone search is unavailable right now. Your preferences are saved, please try again in a moment."
)

var (
	shortNumberRe = regexp.MustCompile(`^(₹|rs\.?|inr|\$)?\s*(\d[\d,]*(?:\.\d+)?)\s*(k|lakhs?|lacs?)?\s*(gb|tb|mah|rupees?|rs\.?|inr|/-)?$`)
	yesRe         = regexp.MustCompile(`^(?:yes|yeah|yep|yup|sure|ok|okay|go\s+ahead)(?:\s+please)?$`)
	noRe          = regexp.MustCompile(`^(?:no|nope|nah|skip|any|anything|no\s+budget|doesn'?t\s+matter|does\s+not\s+matter|whatever|no\s+preference|not\s+really)$`)
	resetRe       = regexp.MustCompile(`\b(?:start\s+over|reset)\b|^clear(?:\s+(?:all|filters))?$`)
	greetingRe    = regexp.MustCompile(`^(?:hi+|hello|hey|hola|holla|good\s+(?:morning|afternoon|evening))\b`)
	thanksRe      = regexp.MustCompile(`\b(?:thanks|thank\s+you|thx)\b`)
	helpRe        = regexp.MustCompile(`\b(?:help|what\s+can\s+you\s+do)\b`)
)

// Searcher runs a finalized filter against the catalog
type Searcher interface {
	Run(ctx context.Context, filter model.Filter, limit int, mode string) ([]model.PhoneResult, int, error)
}

// Controller drives one conversation turn at a time. It holds no
// per-session data; every call receives the caller-owned State.
type Controller struct {
	extractor         *Extractor
	merger            *Merger
	searcher          Searcher
	maxClarifications int
	limit             int
	metrics           *metrics.Metrics
	log               zerolog.Logger
}

// NewController creates a conversation controller
func NewController(
	extractor *Extractor,
	merger *Merger,
	searcher Searcher,
	maxClarifications, limit int,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Controller {
	if maxClarifications < 1 {
		maxClarifications = 2
	}
	return &Controller{
		extractor:         extractor,
		merger:            merger,
		searcher:          searcher,
		maxClarifications: maxClarifications,
		limit:             limit,
		metrics:           m,
		log:               log,
	}
}

// Greeting is the first reply of every conversation
func (c *Controller) Greeting(state *model.State) model.Reply {
	return model.Reply{Kind: model.ReplyMessage, Message: GreetingText, Filter: state.Filter, Turn: state.Turn}
}

// Handle processes one user utterance and returns the next action. It
// never fails: collaborator problems surface as an unavailable reply.
func (c *Controller) Handle(ctx context.Context, state *model.State, text string) model.Reply {
	state.Turn++
	state.UpdatedAt = time.Now()

	reply := c.turn(ctx, state, text)
	reply.Turn = state.Turn
	state.Phase = model.PhaseAwaitingInput

	c.metrics.RecordTurn(string(reply.Kind))
	c.log.Debug().
		Str("conversation_id", state.ID).
		Int("turn", state.Turn).
		Str("reply", string(reply.Kind)).
		Str("signal", string(reply.Signal)).
		Bool("forced", reply.Forced).
		Msg("turn handled")
	return reply
}

// Reset clears the conversation back to an empty filter
func (c *Controller) Reset(state *model.State) model.Reply {
	state.Reset()
	state.UpdatedAt = time.Now()
	return c.message(state, resetText)
}

func (c *Controller) turn(ctx context.Context, state *model.State, text string) model.Reply {
	msg := normalizeReply(text)

	if resetRe.MatchString(msg) {
		return c.Reset(state)
	}

	state.Phase = model.PhaseExtracting
	var ex model.Extraction
	answered := false

	if state.Pending != nil {
		switch {
		case yesRe.MatchString(msg):
			if state.Filter.IsEmpty() {
				return c.message(state, needCriteria)
			}
			return c.search(ctx, state, !IsComplete(state.Filter))
		case noRe.MatchString(msg):
			c.decline(state, state.Pending.Signal)
			answered = true
		default:
			ex, answered = shortAnswer(msg, state.Pending.Signal)
		}
	}
	if !answered {
		ex = c.extractor.Extract(text)
		if ex.IsEmpty() && !ex.SearchCommand {
			if reply, ok := c.smallTalk(state, msg); ok {
				return reply
			}
		}
	}

	state.Phase = model.PhaseMerging
	merged := c.merger.Merge(state.Filter, ex)
	changed := !merged.Equal(state.Filter)
	state.Filter = merged

	state.Phase = model.PhaseEvaluating
	if ex.SearchCommand {
		if state.Filter.IsEmpty() {
			return c.message(state, needCriteria)
		}
		return c.search(ctx, state, !IsComplete(state.Filter))
	}
	if IsComplete(state.Filter) {
		return c.search(ctx, state, false)
	}

	sig := MissingSignal(state.Filter, state.Declined...)
	if sig == model.SignalNone {
		return c.search(ctx, state, true)
	}
	if !changed && state.Asked[sig] >= c.maxClarifications {
		c.log.Info().Str("conversation_id", state.ID).Str("signal", string(sig)).Msg("clarification exhausted, searching with partial filter")
		return c.search(ctx, state, true)
	}
	return c.ask(state, sig)
}

func (c *Controller) ask(state *model.State, sig model.Signal) model.Reply {
	state.Phase = model.PhaseAskingClarification
	if state.Asked == nil {
		state.Asked = make(map[model.Signal]int)
	}
	state.Asked[sig]++
	q := &model.Question{Signal: sig, Text: QuestionFor(sig)}
	state.Pending = q
	c.metrics.RecordClarification(string(sig))

	return model.Reply{Kind: model.ReplyQuestion, Message: q.Text, Signal: sig, Filter: state.Filter.Clone()}
}

func (c *Controller) search(ctx context.Context, state *model.State, forced bool) model.Reply {
	state.Phase = model.PhaseReadyToSearch
	state.Pending = nil

	results, total, err := c.searcher.Run(ctx, state.Filter, c.limit, metrics.ModeConversation)
	if err != nil {
		c.log.Warn().Err(err).Str("conversation_id", state.ID).Msg("search failed")
		return model.Reply{Kind: model.ReplyUnavailable, Message: unavailableText, Filter: state.Filter.Clone()}
	}
	state.Asked = nil

	desc := Describe(state.Filter)
	var message string
	switch {
	case total == 0 && desc != "":
		message = fmt.Sprintf("I couldn't find any phones %s. Try relaxing one of your preferences.", strings.TrimPrefix(desc, "a "))
	case total == 0:
		message = "I couldn't find any matching phones."
	case desc != "":
		message = fmt.Sprintf("Understood! Here are %d phones matching %s.", total, desc)
	default:
		message = fmt.Sprintf("Here are %d phones based on what we've discussed.", total)
	}

	return model.Reply{
		Kind:    model.ReplyResults,
		Message: message,
		Filter:  state.Filter.Clone(),
		Results: results,
		Total:   total,
		Forced:  forced,
	}
}

func (c *Controller) message(state *model.State, text string) model.Reply {
	return model.Reply{Kind: model.ReplyMessage, Message: text, Filter: state.Filter.Clone()}
}

func (c *Controller) smallTalk(state *model.State, msg string) (model.Reply, bool) {
	switch {
	case greetingRe.MatchString(msg):
		return c.message(state, GreetingText), true
	case thanksRe.MatchString(msg):
		return c.message(state, thanksText), true
	case helpRe.MatchString(msg):
		return c.message(state, helpText), true
	}
	return model.Reply{}, false
}

func (c *Controller) decline(state *model.State, sig model.Signal) {
	if !state.HasDeclined(sig) {
		state.Declined = append(state.Declined, sig)
	}
	state.Pending = nil
}

// shortAnswer reads a bare number as the answer to the pending question
func shortAnswer(msg string, sig model.Signal) (model.Extraction, bool) {
	var ex model.Extraction
	m := shortNumberRe.FindStringSubmatch(msg)
	if m == nil {
		return ex, false
	}
	marker, suffix, unit := m[1], m[3], m[4]
	v, ok := parseAmount(m[2], suffix)
	if !ok || v <= 0 {
		return ex, false
	}

	isMoney := marker != "" || suffix != "" || (unit != "" && unit != "gb" && unit != "tb" && unit != "mah")
	switch {
	case isMoney:
		ex.PriceMax = model.Explicit(v)
	case unit == "tb":
		ex.StorageMinGB = model.Explicit(v * 1024)
	case unit == "mah":
		ex.BatteryMinMAh = model.Explicit(v)
	case unit == "gb":
		if v <= 24 {
			ex.RAMMinGB = model.Explicit(v)
		} else {
			ex.StorageMinGB = model.Explicit(v)
		}
	case sig == model.SignalPrice:
		ex.PriceMax = model.Explicit(v)
	case v <= 24:
		ex.RAMMinGB = model.Explicit(v)
	case v < 2000:
		ex.StorageMinGB = model.Explicit(v)
	default:
		ex.BatteryMinMAh = model.Explicit(v)
	}
	return ex, true
}

// normalizeReply lowercases and trims surrounding punctuation
func normalizeReply(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, " .!?,")
	return strings.Join(strings.Fields(s), " ")
}
