package companion

import (
	"regexp"
	"strings"
)

const resourcesIntro = "Here are some helpful resources:"

var (
	introPattern   = regexp.MustCompile(`(?i)Here are some[^:]*:`)
	closingPattern = regexp.MustCompile(`(?i)(If you need.*|Feel free.*|Remember.*|Take care.*|Let me know.*)$`)
	bulletPattern  = regexp.MustCompile(`•\s*`)
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldLabel      = regexp.MustCompile(`\*\*[^*]+\*\*:\s*`)

	labeledLink  = regexp.MustCompile(`(?s)Link:\s*(https?://[^\s)]+).*$`)
	markdownLink = regexp.MustCompile(`(?s)\[([^\]]+)\]\((https?://[^)]+)\).*$`)
	bareLink     = regexp.MustCompile(`(?s)(https?://[^\s)]+).*$`)

	whitespace      = regexp.MustCompile(`\s+`)
	trailingPeriod  = regexp.MustCompile(`\.\s*$`)
	leftoverMDLinks = regexp.MustCompile(`Link:\s*\[.*?\]\(.*?\).*$`)
)

type resource struct {
	name        string
	description string
	link        string
}

// HasResourceList reports whether a reply looks like it carries a bulleted
// resource list: a bullet marker plus a "Link:" label or a URL.
func HasResourceList(reply string) bool {
	hasBullet := strings.Contains(reply, "•") || strings.Contains(reply, "*")
	hasLink := strings.Contains(reply, "Link:") || strings.Contains(reply, "http")
	return hasBullet && hasLink
}

// FormatResources rewrites a bulleted resource list into the canonical
// display layout. Replies without a resource list are returned unchanged.
// Bullets that yield no name or no description are dropped.
func FormatResources(reply string) string {
	if !HasResourceList(reply) {
		return reply
	}

	intro := ""
	section := reply
	if loc := introPattern.FindStringIndex(reply); loc != nil {
		intro = reply[:loc[0]] + resourcesIntro
		section = reply[loc[1]:]
	}

	closing := ""
	if m := closingPattern.FindStringSubmatch(reply); m != nil {
		closing = strings.TrimSpace(m[1])
	}
	section = closingPattern.ReplaceAllString(section, "")

	var resources []resource
	for i, chunk := range bulletPattern.Split(section, -1) {
		if i == 0 {
			continue
		}
		if r, ok := parseResource(strings.TrimSpace(chunk)); ok {
			resources = append(resources, r)
		}
	}

	if len(resources) == 0 {
		return reply
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(intro))
	for _, r := range resources {
		b.WriteString("\n\n• **")
		b.WriteString(r.name)
		b.WriteString("**: ")
		b.WriteString(r.description)
		if r.link != "" {
			b.WriteString("\n  Link: ")
			b.WriteString(r.link)
		}
	}
	if closing != "" {
		b.WriteString("\n\n")
		b.WriteString(closing)
	}
	return strings.TrimSpace(b.String())
}

func parseResource(text string) (resource, bool) {
	if text == "" {
		return resource{}, false
	}

	var r resource
	if m := boldPattern.FindStringSubmatch(text); m != nil {
		r.name = strings.TrimSpace(m[1])
		r.description = strings.TrimSpace(replaceFirst(boldLabel, text, ""))
	} else if idx := strings.Index(text, ":"); idx >= 0 {
		r.name = strings.TrimSpace(text[:idx])
		r.description = strings.TrimSpace(text[idx+1:])
	} else {
		r.name = "Resource"
		r.description = text
	}

	for _, p := range []struct {
		re    *regexp.Regexp
		group int
	}{{labeledLink, 1}, {markdownLink, 2}, {bareLink, 1}} {
		if m := p.re.FindStringSubmatchIndex(r.description); m != nil {
			r.link = r.description[m[2*p.group]:m[2*p.group+1]]
			r.description = strings.TrimSpace(r.description[:m[0]])
			break
		}
	}

	r.description = strings.TrimSpace(whitespace.ReplaceAllString(r.description, " "))
	r.description = trailingPeriod.ReplaceAllString(r.description, "")
	r.description = strings.TrimSpace(leftoverMDLinks.ReplaceAllString(r.description, ""))

	if r.name == "" || r.description == "" {
		return resource{}, false
	}
	return r, true
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
