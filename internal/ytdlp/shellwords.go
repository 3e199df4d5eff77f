package ytdlp

import "strings"

// SplitArgs splits a raw custom-argument string into tokens using shell word
// rules: whitespace separates tokens, single and double quotes group, and a
// backslash escapes the next character outside single quotes. An unbalanced
// quote is a ValidationError so it is caught before launch.
func SplitArgs(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inTok   bool
		quote   rune // 0, '\'' or '"'
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			inTok = true
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			inTok = true
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			if inTok {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			inTok = true
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, &ValidationError{Field: "extra arguments", Value: s, Reason: "unbalanced quote"}
	}
	if escaped {
		return nil, &ValidationError{Field: "extra arguments", Value: s, Reason: "trailing backslash"}
	}
	if inTok {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
