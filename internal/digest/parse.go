package digest

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a digest markdown file split into YAML frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Parse splits a markdown document into frontmatter and body. Frontmatter
// sits at the top between two lines containing only "---"; without it the
// whole input is the body.
func Parse(data []byte) (Document, error) {
	doc := Document{Frontmatter: map[string]any{}}
	s := string(data)

	nl := strings.IndexByte(s, '\n')
	if nl < 0 || strings.TrimSpace(s[:nl]) != "---" {
		doc.Body = s
		return doc, nil
	}

	rest := s[nl+1:]
	fm := rest // unterminated frontmatter swallows the remainder
	body := ""
	for off := 0; ; {
		end := strings.IndexByte(rest[off:], '\n')
		if end < 0 {
			if strings.TrimSpace(rest[off:]) == "---" {
				fm = rest[:off]
			}
			break
		}
		line := rest[off : off+end]
		if strings.TrimSpace(line) == "---" {
			fm = rest[:off]
			body = rest[off+end+1:]
			break
		}
		off += end + 1
	}

	if err := yaml.Unmarshal([]byte(fm), &doc.Frontmatter); err != nil {
		return Document{}, err
	}
	if doc.Frontmatter == nil {
		doc.Frontmatter = map[string]any{}
	}
	doc.Body = body
	return doc, nil
}

// ParseFile reads a digest markdown file from disk.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(data)
}
