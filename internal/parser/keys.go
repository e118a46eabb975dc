package parser

// quoteKeys wraps bare identifier object keys in double quotes so the
// result is valid JWCC (JSON with comments and trailing commas). Strings
// and comments are copied through untouched. Malformed input is copied as
// well and left for the JWCC parser to report.
func quoteKeys(src []byte) []byte {
	out := make([]byte, 0, len(src)+16)
	var last byte // last significant byte outside strings and comments

	for i := 0; i < len(src); {
		c := src[i]

		switch {
		case c == '"':
			end := skipString(src, i)
			out = append(out, src[i:end]...)
			last = c
			i = end
			continue

		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			end := skipComment(src, i)
			out = append(out, src[i:end]...)
			i = end
			continue

		case isSpace(c):
			out = append(out, c)
			i++
			continue

		case isIdentStart(c) && (last == '{' || last == ','):
			end := i + 1
			for end < len(src) && isIdentPart(src[end]) {
				end++
			}
			next := skipTrivia(src, end)
			if next < len(src) && src[next] == ':' {
				out = append(out, '"')
				out = append(out, src[i:end]...)
				out = append(out, '"')
			} else {
				out = append(out, src[i:end]...)
			}
			last = src[end-1]
			i = end
			continue
		}

		out = append(out, c)
		last = c
		i++
	}

	return out
}

// skipString returns the index just past the string starting at i.
func skipString(src []byte, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(src)
}

// skipComment returns the index just past the comment starting at i.
func skipComment(src []byte, i int) int {
	if src[i+1] == '/' {
		for j := i + 2; j < len(src); j++ {
			if src[j] == '\n' {
				return j
			}
		}
		return len(src)
	}
	for j := i + 2; j+1 < len(src); j++ {
		if src[j] == '*' && src[j+1] == '/' {
			return j + 2
		}
	}
	return len(src)
}

// skipTrivia returns the index of the next byte that is neither whitespace
// nor part of a comment.
func skipTrivia(src []byte, i int) int {
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case src[i] == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			i = skipComment(src, i)
		default:
			return i
		}
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
