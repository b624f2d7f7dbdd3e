package scoring

import (
	"fmt"
	"strings"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
)

// Tips picks up to MaxTips improvement tips, each naming a gap skill.
// Suggested tips that mention a gap come first; every gap skill not covered
// yet gets a generated tip, Missing skills before Partial ones.
func Tips(matches []analysis.SkillMatch, suggested []string) []string {
	gaps := gapSkills(matches)
	if len(gaps) == 0 {
		return nil
	}

	tips := make([]string, 0, MaxTips)
	covered := make(map[string]bool, len(gaps))
	seen := make(map[string]bool)

	for _, tip := range suggested {
		if len(tips) == MaxTips {
			return tips
		}
		tip = strings.TrimSpace(tip)
		if tip == "" || seen[strings.ToLower(tip)] {
			continue
		}
		named := mentioned(tip, gaps)
		if len(named) == 0 {
			continue
		}
		seen[strings.ToLower(tip)] = true
		tips = append(tips, tip)
		for _, key := range named {
			covered[key] = true
		}
	}

	for _, gap := range gaps {
		if len(tips) == MaxTips {
			break
		}
		if covered[gap.Skill.Key()] {
			continue
		}
		tips = append(tips, generatedTip(gap))
		covered[gap.Skill.Key()] = true
	}

	return tips
}

// gapSkills lists Missing skills, then Partial ones, each in input order.
func gapSkills(matches []analysis.SkillMatch) []analysis.SkillMatch {
	var missing, partial []analysis.SkillMatch
	for _, m := range matches {
		switch m.Status {
		case analysis.StatusMissing:
			missing = append(missing, m)
		case analysis.StatusPartial:
			partial = append(partial, m)
		case analysis.StatusMatched:
		}
	}
	return append(missing, partial...)
}

// mentioned returns the keys of the gap skills tip names as whole words.
func mentioned(tip string, gaps []analysis.SkillMatch) []string {
	var keys []string
	for _, gap := range gaps {
		if document.Mentions(tip, string(gap.Skill)) {
			keys = append(keys, gap.Skill.Key())
		}
	}
	return keys
}

func generatedTip(m analysis.SkillMatch) string {
	switch m.Status {
	case analysis.StatusPartial:
		return fmt.Sprintf("Make your %s experience explicit: the resume only shows related work, so describe a project where you used %s directly and what it achieved.", m.Skill, m.Skill)
	case analysis.StatusMissing:
		return fmt.Sprintf("Close the %s gap: build hands-on experience (a side project, course or certification) and add it to the resume, since the role asks for %s and nothing in the resume shows it.", m.Skill, m.Skill)
	case analysis.StatusMatched:
		return ""
	default:
		return ""
	}
}
