package analysis

import (
	"fmt"
	"strings"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
)

// promptContentLimit bounds page content embedded in a prompt
const promptContentLimit = 6000

const systemPrompt = `You are a business-development analyst qualifying projects as sales leads.
Be concrete and brief. Never invent facts that are not supported by the provided content.
Always reply with a single JSON object matching the requested schema.`

func analysisPrompt(positioning, projectURL, content string, icp *model.IcpProfile) string {
	var b strings.Builder
	writePositioning(&b, positioning)
	writeICP(&b, icp)

	fmt.Fprintf(&b, "Project URL: %s\n\nPage content:\n%s\n\n", projectURL, clip(content))
	b.WriteString(`Return JSON with these fields:
{
  "summary": "one or two sentences on what the project does",
  "category_tags": ["short category", "..."],
  "stage": "idea | pre-seed | seed | growth | scale",
  "target_users": "who uses it",
  "pain_points": "problems they likely have that we can help with",
  "bd_angles": ["specific partnership or sales angle", "..."],
  "mqa_score": 0-100 integer fit confidence,
  "mqa_reasons": ["why the score landed there", "..."]
}`)
	return b.String()
}

func outreachPrompt(positioning, projectURL string, a model.AnalysisResult, ch model.Channel) string {
	style := styleFor(ch)

	var b strings.Builder
	writePositioning(&b, positioning)
	writeAnalysis(&b, projectURL, a)

	fmt.Fprintf(&b, "Write a first-touch %s message. Tone: %s. Maximum %d characters.\n", ch, style.Tone, style.MaxChars)
	if style.Subject {
		b.WriteString(`Return JSON: {"subject": "...", "body": "..."}`)
	} else {
		b.WriteString(`Return JSON: {"body": "..."}`)
	}
	return b.String()
}

func sequencePrompt(positioning, projectURL string, a model.AnalysisResult, n int) string {
	var b strings.Builder
	writePositioning(&b, positioning)
	writeAnalysis(&b, projectURL, a)

	fmt.Fprintf(&b, "Plan an outreach sequence of exactly %d touches. Vary the channel (email, linkedin, twitter, telegram) ", n)
	b.WriteString("and the objective of each touch. The first touch is day 0 and day offsets never decrease.\n")
	for _, ch := range model.Channels {
		style := styleFor(ch)
		fmt.Fprintf(&b, "- %s: %s, max %d characters\n", ch, style.Tone, style.MaxChars)
	}
	b.WriteString(`Return JSON: {"touches": [{"channel": "email", "day_offset": 0, "objective": "...", "content": "..."}]}`)
	return b.String()
}

func accountPlaybookPrompt(positioning, projectURL string, a model.AnalysisResult) string {
	var b strings.Builder
	writePositioning(&b, positioning)
	writeAnalysis(&b, projectURL, a)
	b.WriteString("Draft an account playbook: which personas to contact and which angles to use.\n")
	b.WriteString(`Return JSON: {"personas": ["role", "..."], "angles": ["angle", "..."]}`)
	return b.String()
}

func explainPrompt(projectURL string, leadScore int, reasons []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project URL: %s\nLead score: %d/100\nScoring reasons:\n", projectURL, leadScore)
	for _, r := range reasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("Explain in two or three sentences why this lead ranked where it did, for a sales rep.\n")
	b.WriteString(`Return JSON: {"explanation": "..."}`)
	return b.String()
}

func writePositioning(b *strings.Builder, positioning string) {
	if positioning == "" {
		return
	}
	fmt.Fprintf(b, "We are: %s\n\n", positioning)
}

func writeICP(b *strings.Builder, icp *model.IcpProfile) {
	if icp == nil {
		return
	}
	b.WriteString("Our ideal customer profile:\n")
	if len(icp.Industries) > 0 {
		fmt.Fprintf(b, "- Industries: %s\n", strings.Join(icp.Industries, ", "))
	}
	if len(icp.PainPoints) > 0 {
		fmt.Fprintf(b, "- Pain points: %s\n", strings.Join(icp.PainPoints, ", "))
	}
	if len(icp.Filters) > 0 {
		fmt.Fprintf(b, "- Filters: %s\n", strings.Join(icp.Filters, ", "))
	}
	b.WriteString("\n")
}

func writeAnalysis(b *strings.Builder, projectURL string, a model.AnalysisResult) {
	fmt.Fprintf(b, "Project URL: %s\n", projectURL)
	fmt.Fprintf(b, "Summary: %s\n", a.Summary)
	if len(a.CategoryTags) > 0 {
		fmt.Fprintf(b, "Categories: %s\n", strings.Join(a.CategoryTags, ", "))
	}
	if a.Stage != "" {
		fmt.Fprintf(b, "Stage: %s\n", a.Stage)
	}
	if a.TargetUsers != "" {
		fmt.Fprintf(b, "Target users: %s\n", a.TargetUsers)
	}
	if a.PainPoints != "" {
		fmt.Fprintf(b, "Pain points: %s\n", a.PainPoints)
	}
	if len(a.BDAngles) > 0 {
		fmt.Fprintf(b, "BD angles: %s\n", strings.Join(a.BDAngles, "; "))
	}
	b.WriteString("\n")
}

func clip(content string) string {
	if len(content) <= promptContentLimit {
		return content
	}
	return extract.Truncate(content, promptContentLimit) + "\n[truncated]"
}
