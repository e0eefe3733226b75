package notify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderDigestHTML converts a markdown digest into an HTML fragment. Raw HTML
// in the source is omitted, so user text cannot inject markup.
func RenderDigestHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// MarkdownRenderer builds the weekly digests as markdown and renders them to HTML.
type MarkdownRenderer struct{}

func (MarkdownRenderer) RenderWeeklyReport(r *domain.WeeklyReport) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly report: %s\n\n", escape(r.UserName))
	fmt.Fprintf(&b, "_%s to %s_\n\n", r.Period.StartDate, r.Period.EndDate)
	writeAggregates(&b, r.Aggregates)
	fmt.Fprintf(&b, "Current streak: **%d** days (longest %d)\n\n", r.Streaks.CurrentStreak, r.Streaks.MaxStreak)
	writeRanking(&b, "Top tags", r.TopTags)

	if len(r.Logs) > 0 {
		b.WriteString("## Logs\n\n")
		for _, l := range r.Logs {
			line := fmt.Sprintf("- %s: %d min, mood %s", l.Date.Format(domain.DateLayout), l.TotalMinutes(), l.Mood.Emoji)
			if l.Summary != "" {
				line += " - " + escape(l.Summary)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	return RenderDigestHTML(b.String())
}

func (MarkdownRenderer) RenderTeamDigest(stats []*domain.TeamStats) (string, error) {
	var b strings.Builder

	b.WriteString("# Team weekly digest\n\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "## %s (%d members)\n\n", escape(s.TeamName), s.MemberCount)
		fmt.Fprintf(&b, "_%s to %s_\n\n", s.Period.StartDate, s.Period.EndDate)
		writeAggregates(&b, s.Aggregates)
		writeRanking(&b, "Top blockers", s.TopBlockers)
		writeRanking(&b, "Top tags", s.TopTags)
	}

	return RenderDigestHTML(b.String())
}

func writeAggregates(b *strings.Builder, a analytics.AggregateStats) {
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Logs | %d |\n", a.TotalLogs)
	fmt.Fprintf(b, "| Completion rate | %.1f%% |\n", a.CompletionRate)
	fmt.Fprintf(b, "| Average mood | %.2f |\n", a.AverageMood)
	fmt.Fprintf(b, "| Time logged | %dh %02dm |\n", a.TotalMinutes/60, a.TotalMinutes%60)
	fmt.Fprintf(b, "| Days with blockers | %d |\n\n", a.BlockerDays)
}

func writeRanking(b *strings.Builder, title string, ranking analytics.FrequencyRanking) {
	if len(ranking) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, kc := range ranking {
		fmt.Fprintf(b, "- %s (%d)\n", escape(kc.Key), kc.Count)
	}
	b.WriteString("\n")
}

var mdEscaper = strings.NewReplacer(
	"\\", "\\\\", "*", "\\*", "_", "\\_", "`", "\\`",
	"[", "\\[", "]", "\\]", "#", "\\#", "|", "\\|", "<", "&lt;", ">", "&gt;",
	"\n", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
