// Package docblock turns raw PHP documentation comments into annotation
// lines and reads the type expressions of @var, @param and @return tags.
package docblock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed annotation")

// MalformedError reports a tag that must be unique but appears more than once.
type MalformedError struct {
	Tag   string
	Count int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("docblock: expected at most one @%s annotation, found %d", e.Tag, e.Count)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// Sanitize strips the comment delimiters and the per-line "*" decoration
// from raw and returns the non-empty content lines. Line endings are
// normalized first. An empty comment yields an empty, non-nil slice.
func Sanitize(raw string) []string {
	lines := []string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return lines
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Tag is one "@name value" annotation line.
type Tag struct {
	Name  string
	Value string
}

func (t Tag) String() string {
	if t.Value == "" {
		return "@" + t.Name
	}
	return "@" + t.Name + " " + t.Value
}

// ParseTag splits an annotation line. ok is false for lines that do not
// start with "@".
func ParseTag(line string) (Tag, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@") {
		return Tag{}, false
	}
	rest := line[1:]
	name, value := rest, ""
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		name, value = rest[:i], rest[i+1:]
	}
	if name == "" {
		return Tag{}, false
	}
	return Tag{Name: name, Value: strings.TrimSpace(value)}, true
}

// Block is a sanitized doc comment.
type Block struct {
	Lines []string
}

// Parse sanitizes raw into a Block.
func Parse(raw string) Block {
	return Block{Lines: Sanitize(raw)}
}

// Empty reports whether the block has no content.
func (b Block) Empty() bool { return len(b.Lines) == 0 }

// Summary returns the description lines before the first tag, joined by a
// single space.
func (b Block) Summary() string {
	var parts []string
	for _, line := range b.Lines {
		if strings.HasPrefix(line, "@") {
			break
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// Tags returns every tag called name, in order.
func (b Block) Tags(name string) []Tag {
	var tags []Tag
	for _, line := range b.Lines {
		if t, ok := ParseTag(line); ok && t.Name == name {
			tags = append(tags, t)
		}
	}
	return tags
}

// Unique returns the single tag called name. found is false when the tag is
// absent; more than one occurrence is a *MalformedError.
func (b Block) Unique(name string) (tag Tag, found bool, err error) {
	tags := b.Tags(name)
	switch len(tags) {
	case 0:
		return Tag{}, false, nil
	case 1:
		return tags[0], true, nil
	default:
		return Tag{}, false, &MalformedError{Tag: name, Count: len(tags)}
	}
}

// Mentioning returns the lines that contain the variable $name as a whole
// word.
func (b Block) Mentioning(name string) []string {
	variable := "$" + strings.TrimPrefix(name, "$")
	lines := []string{}
	for _, line := range b.Lines {
		if containsVariable(line, variable) {
			lines = append(lines, line)
		}
	}
	return lines
}

func containsVariable(line, variable string) bool {
	for i := 0; ; {
		j := strings.Index(line[i:], variable)
		if j < 0 {
			return false
		}
		end := i + j + len(variable)
		if end == len(line) || !isIdentByte(line[end]) {
			return true
		}
		i = end
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}
