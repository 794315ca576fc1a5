package model

// CandidateURL is a normalized absolute http(s) URL produced during one discovery run.
// Never a known social/media host.
type CandidateURL = string

// AnalysisResult is the structured qualification analysis of a single project page
type AnalysisResult struct {
	Summary      string   `json:"summary"`
	CategoryTags []string `json:"category_tags"`
	Stage        string   `json:"stage"`
	TargetUsers  string   `json:"target_users"`
	PainPoints   string   `json:"pain_points"`
	BDAngles     []string `json:"bd_angles"`
	MQAScore     *int     `json:"mqa_score,omitempty"`   // 0-100 when present
	MQAReasons   []string `json:"mqa_reasons,omitempty"` // Why the MQA score landed where it did
}

// IcpProfile describes the user's ideal customer
type IcpProfile struct {
	Industries []string `json:"industries"`
	PainPoints []string `json:"pain_points"`
	Filters    []string `json:"filters,omitempty"`
}

// HasIndustries reports whether the profile carries at least one non-empty industry keyword
func (p *IcpProfile) HasIndustries() bool {
	if p == nil {
		return false
	}
	for _, kw := range p.Industries {
		if kw != "" {
			return true
		}
	}
	return false
}

// Playbook is a user-authored boost/penalty keyword list applied during scoring
type Playbook struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Boosts    []string `json:"boosts"`
	Penalties []string `json:"penalties"`
}

// Channel is an outreach channel
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
	ChannelTwitter  Channel = "twitter"
	ChannelTelegram Channel = "telegram"
)

// Channels lists all supported outreach channels in rotation order
var Channels = []Channel{ChannelEmail, ChannelLinkedIn, ChannelTwitter, ChannelTelegram}

// ParseChannel returns the channel for a name, or false if unknown
func ParseChannel(s string) (Channel, bool) {
	for _, c := range Channels {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// OutreachMessage is a generated first-touch message for a single channel
type OutreachMessage struct {
	Channel Channel `json:"channel"`
	Subject string  `json:"subject,omitempty"` // email only
	Body    string  `json:"body"`
}

// SequenceTouch is one generated touch of an outreach sequence
type SequenceTouch struct {
	StepNumber int     `json:"step_number"`
	Channel    Channel `json:"channel"`
	DayOffset  int     `json:"day_offset"`
	Objective  string  `json:"objective"`
	Content    string  `json:"content"`
}

// AccountPlaybook is a drafted account plan: who to talk to and what to say
type AccountPlaybook struct {
	Personas []string `json:"personas"`
	Angles   []string `json:"angles"`
}
