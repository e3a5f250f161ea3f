package ui

import (
	"fmt"
	"strings"

	"github.com/lukaszraczylo/lando-hosts/internal/hosts"
	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

// RenderReport renders the per-target results of a sync or clean run.
func RenderReport(r hosts.Report) string {
	var b strings.Builder

	title := r.Identifier
	if len(r.Entries) > 0 {
		title = fmt.Sprintf("%s (%d hostnames)", r.Identifier, len(r.Entries))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if len(r.Results) == 0 {
		b.WriteString(mutedStyle.Render("  nothing to do"))
		b.WriteString("\n")
		return b.String()
	}

	for _, res := range r.Results {
		fmt.Fprintf(&b, "  %s %s %s", Indicator(res.Outcome), res.Target.Path, OutcomeText(res.Outcome))
		if res.Err != nil {
			b.WriteString(mutedStyle.Render(": " + res.Err.Error()))
		}
		b.WriteString("\n")
	}

	b.WriteString(summary(r))
	b.WriteString("\n")

	if r.Count(hosts.OutcomeSkippedNoPrivilege) > 0 {
		b.WriteString(warningMsgStyle.Render("hint: " + hosts.ElevationRemediation))
		b.WriteString("\n")
	}

	return b.String()
}

func summary(r hosts.Report) string {
	parts := []string{
		fmt.Sprintf("%d updated", r.Count(hosts.OutcomeWritten)),
		fmt.Sprintf("%d up to date", r.Count(hosts.OutcomeSkippedNoChange)),
	}
	if n := r.Count(hosts.OutcomeSkippedNoPrivilege); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := r.Count(hosts.OutcomeFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}

	line := strings.Join(parts, ", ")
	if r.HasProblems() {
		return errorMsgStyle.Render(line)
	}
	return successMsgStyle.Render(line)
}

// RenderTargets renders the located hosts files and, when known, the host
// facts they were derived from.
func RenderTargets(targets []hosts.Target, facts *platform.HostFacts) string {
	var b strings.Builder

	if facts != nil {
		b.WriteString(titleStyle.Render("Host"))
		b.WriteString("\n")
		writeField(&b, "hostname", facts.Hostname)
		writeField(&b, "os", facts.OS)
		writeField(&b, "platform", strings.TrimSpace(facts.Platform+" "+facts.PlatformVersion))
		writeField(&b, "kernel", facts.KernelVersion)
		if facts.WSLKernel {
			writeField(&b, "wsl", "yes")
		}
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Hosts files"))
	b.WriteString("\n")
	if len(targets) == 0 {
		b.WriteString(mutedStyle.Render("  none on this platform"))
		b.WriteString("\n")
		return b.String()
	}

	for _, t := range targets {
		fmt.Fprintf(&b, "  %s %s", labelStyle.Render(string(t.Kind)), t.Path)
		if t.WindowsPath != "" && t.WindowsPath != t.Path {
			b.WriteString(mutedStyle.Render(" (" + t.WindowsPath + ")"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render(name+":"), value)
}

// RenderPlan renders a dry run as one unified diff per changed target.
func RenderPlan(changes []hosts.Change) (string, error) {
	var b strings.Builder

	if len(changes) == 0 {
		b.WriteString(mutedStyle.Render("nothing to change"))
		b.WriteString("\n")
		return b.String(), nil
	}

	for _, c := range changes {
		switch {
		case c.Err != nil:
			fmt.Fprintf(&b, "%s %s %s\n", Indicator(hosts.OutcomeFailed), c.Target.Path, mutedStyle.Render(c.Err.Error()))
		case !c.Changed():
			fmt.Fprintf(&b, "%s %s %s\n", Indicator(hosts.OutcomeSkippedNoChange), c.Target.Path, OutcomeText(hosts.OutcomeSkippedNoChange))
		default:
			diff, err := hosts.Diff(c.Target.Path, c.Target.Contents, c.Candidate)
			if err != nil {
				return "", fmt.Errorf("failed to diff %s: %w", c.Target.Path, err)
			}
			b.WriteString(colorDiff(diff))
		}
	}

	return b.String(), nil
}

func colorDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(titleStyle.Render(body))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(diffHunkStyle.Render(body))
		case strings.HasPrefix(line, "+"):
			b.WriteString(diffAddStyle.Render(body))
		case strings.HasPrefix(line, "-"):
			b.WriteString(diffRemoveStyle.Render(body))
		default:
			b.WriteString(body)
		}
		b.WriteString("\n")
	}
	return b.String()
}
