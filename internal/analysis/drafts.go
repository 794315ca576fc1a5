package analysis

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
)

// channelStyle is the tone and length guidance for one outreach channel
type channelStyle struct {
	Tone     string
	MaxChars int
	Subject  bool
}

var channelStyles = map[model.Channel]channelStyle{
	model.ChannelEmail:    {Tone: "professional and specific, one clear ask", MaxChars: 900, Subject: true},
	model.ChannelLinkedIn: {Tone: "warm and personal, connection-note length", MaxChars: 300},
	model.ChannelTwitter:  {Tone: "casual and brief, fits one DM", MaxChars: 280},
	model.ChannelTelegram: {Tone: "direct and friendly, no formalities", MaxChars: 400},
}

func styleFor(ch model.Channel) channelStyle {
	if s, ok := channelStyles[ch]; ok {
		return s
	}
	return channelStyles[model.ChannelEmail]
}

// Sequence shape
const (
	DefaultSequenceTouches = 4
	MaxSequenceTouches     = 8
)

// dayGaps[i] is the wait before touch i+1
var dayGaps = []int{0, 3, 4, 5, 7, 7, 10, 14}

var objectiveVocab = []string{
	"introduce and open the conversation",
	"share a concrete idea for their product",
	"offer social proof from a similar team",
	"ask for a short call",
	"close the loop politely",
}

func clampTouches(n int) int {
	if n <= 0 {
		return DefaultSequenceTouches
	}
	if n > MaxSequenceTouches {
		return MaxSequenceTouches
	}
	return n
}

func angleOf(a model.AnalysisResult, seed uint64, salt int) string {
	if len(a.BDAngles) > 0 {
		return a.BDAngles[index(seed, salt, len(a.BDAngles))]
	}
	return pick(seed, salt, angleVocab)
}

func mockOutreach(projectURL string, a model.AnalysisResult, ch model.Channel, positioning string) model.OutreachMessage {
	seed := seedOf(projectURL+"|outreach|"+string(ch), a.Summary)
	name := ProjectName(projectURL)
	angle := angleOf(a, seed, 1)
	us := positioning
	if us == "" {
		us = "our team"
	}

	var body string
	switch ch {
	case model.ChannelEmail:
		body = fmt.Sprintf("Hi %s team,\n\nI came across %s and %s. "+
			"At %s we work with projects at the %s stage, and I think there is a fit around %s.\n\n"+
			"Would you be open to a 20-minute call next week?\n\nBest,",
			name, name, lowerFirst(strings.TrimSuffix(a.Summary, ".")), us, orDefault(a.Stage, "early"), angle)
	case model.ChannelLinkedIn:
		body = fmt.Sprintf("Hi! Been following %s. We at %s help teams with %s. Would love to connect and compare notes on %s.",
			name, us, orDefault(a.PainPoints, "growth"), angle)
	case model.ChannelTwitter:
		body = fmt.Sprintf("Hey %s, love what you're building. Quick idea: %s. Open to a chat?", name, angle)
	default:
		body = fmt.Sprintf("Hi, reaching out from %s. Saw %s and have an idea around %s. Worth a quick call this week?",
			us, name, angle)
	}

	msg := model.OutreachMessage{Channel: ch, Body: extract.Truncate(body, styleFor(ch).MaxChars)}
	if ch == model.ChannelEmail {
		msg.Subject = fmt.Sprintf("%s x %s: %s", name, us, angle)
	}
	return msg
}

func mockSequence(projectURL string, a model.AnalysisResult, n int) []model.SequenceTouch {
	n = clampTouches(n)
	seed := seedOf(projectURL+"|sequence", a.Summary)
	name := ProjectName(projectURL)

	touches := make([]model.SequenceTouch, 0, n)
	offset := 0
	for i := 0; i < n; i++ {
		offset += dayGaps[i]
		ch := model.Channels[i%len(model.Channels)]
		objective := objectiveVocab[i%len(objectiveVocab)]
		if i == n-1 && n > 1 {
			objective = objectiveVocab[len(objectiveVocab)-1]
		}
		content := fmt.Sprintf("%s: %s. Angle: %s.", name, objective, angleOf(a, seed, i))
		touches = append(touches, model.SequenceTouch{
			StepNumber: i + 1,
			Channel:    ch,
			DayOffset:  offset,
			Objective:  objective,
			Content:    extract.Truncate(content, styleFor(ch).MaxChars),
		})
	}
	return touches
}

func mockAccountPlaybook(projectURL string, a model.AnalysisResult) model.AccountPlaybook {
	seed := seedOf(projectURL+"|playbook", a.Summary)
	personas := []string{"Founder / CEO", "Head of Growth"}
	switch {
	case containsFold(a.CategoryTags, "Infrastructure"), containsFold(a.CategoryTags, "Security"):
		personas = append(personas, "CTO / Lead Engineer")
	case containsFold(a.CategoryTags, "DeFi"):
		personas = append(personas, "Head of BD / Partnerships")
	default:
		personas = append(personas, "Community Lead")
	}

	angles := append([]string{}, a.BDAngles...)
	for _, extra := range pickN(seed, 1, 2, angleVocab) {
		angles = appendUnique(angles, extra)
	}
	return model.AccountPlaybook{Personas: personas, Angles: angles}
}

func mockExplanation(projectURL string, leadScore int, reasons []string) string {
	name := ProjectName(projectURL)
	if len(reasons) == 0 {
		return fmt.Sprintf("%s scored %d/100 with no matching signals.", name, leadScore)
	}
	return fmt.Sprintf("%s scored %d/100. Drivers: %s.", name, leadScore, strings.Join(reasons, "; "))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func lowerFirst(s string) string {
	if s == "" {
		return "like what you are building"
	}
	return mapFirstRune(s, unicode.ToLower)
}

// mapFirstRune applies f to the first rune only, keeping multi-byte text valid
func mapFirstRune(s string, f func(rune) rune) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(f(r)) + s[size:]
}
