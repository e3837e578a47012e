package reasoning

import "strings"

// Dedup returns the non-empty items of seq in first-occurrence order with
// duplicates removed, capped at max entries. The result is never nil.
func Dedup(seq []string, max int) []string {
	out := make([]string, 0, len(seq))
	if max <= 0 {
		return out
	}
	seen := make(map[string]struct{}, len(seq))
	for _, s := range seq {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out
}

// orDefault returns items, or defaults when items is empty.
func orDefault(items []string, defaults ...string) []string {
	if len(items) > 0 {
		return items
	}
	return append([]string{}, defaults...)
}

// containsAny reports whether text contains any of the keywords.
func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// keywords returns a predicate matching any of kws in lower-cased text.
func keywords(kws ...string) func(string) bool {
	return func(text string) bool { return containsAny(text, kws...) }
}

func all(preds ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, p := range preds {
			if !p(text) {
				return false
			}
		}
		return true
	}
}

func not(pred func(string) bool) func(string) bool {
	return func(text string) bool { return !pred(text) }
}
