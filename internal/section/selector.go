package section

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// sectionSeparator joins rendered sections in the assembled excerpt.
const sectionSeparator = "\n\n"

// Select packs sections into a byte-bounded excerpt. Sections are
// ranked by score (ties broken by document order), then appended
// greedily: a section that would overflow the budget is skipped whole,
// and lower-ranked sections are still probed for the remaining space.
// If not even the top-ranked section fits, its rendered form is
// hard-truncated to exactly maxBytes and the result is flagged
// Truncated. maxBytes must be positive.
func Select(sections []domain.Section, maxBytes int) (*domain.SelectionResult, error) {
	if maxBytes <= 0 {
		return nil, domain.NewValidationError("max_bytes", fmt.Sprintf("must be positive, got %d", maxBytes))
	}

	ranked := make([]domain.Section, len(sections))
	copy(ranked, sections)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].OrderIndex < ranked[j].OrderIndex
	})

	var (
		picked  []domain.Section
		entries []string
		total   int
	)
	for _, s := range ranked {
		entry := renderSection(s)
		cost := len(entry)
		if len(entries) > 0 {
			cost += len(sectionSeparator)
		}
		if total+cost > maxBytes {
			continue
		}
		total += cost
		entries = append(entries, entry)
		picked = append(picked, s)
	}

	if len(picked) == 0 {
		if len(ranked) == 0 {
			return &domain.SelectionResult{Sections: []domain.Section{}}, nil
		}
		return truncateTop(ranked[0], maxBytes), nil
	}

	text := strings.Join(entries, sectionSeparator)
	return &domain.SelectionResult{
		Sections:   picked,
		Text:       text,
		TotalBytes: len(text),
	}, nil
}

// truncateTop hard-cuts the top-ranked section at the byte budget so a
// caller never gets an empty result just because every section is big.
func truncateTop(top domain.Section, maxBytes int) *domain.SelectionResult {
	text := renderSection(top)
	if len(text) > maxBytes {
		text = text[:maxBytes]
	}
	return &domain.SelectionResult{
		Sections:   []domain.Section{top},
		Text:       text,
		TotalBytes: len(text),
		Truncated:  true,
	}
}

// renderSection produces a section's excerpt form: a title marker line,
// a blank line, then the trimmed body. Untitled sections render as bare
// body.
func renderSection(s domain.Section) string {
	body := strings.TrimSpace(s.Body)
	if s.Title == "" {
		return body
	}
	if body == "" {
		return "# " + s.Title
	}
	return "# " + s.Title + "\n\n" + body
}
