// Package resume extracts contact details and skills from uploaded resumes.
package resume

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
	"github.com/okian/talentflow/pkg/logger"
)

// maxText bounds how much extracted text is kept on Parsed.
const maxText = 64 << 10

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	yearsRe = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)`)
)

// DefaultSkills is the keyword list matched when no other list is configured.
var DefaultSkills = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript",
	"React", "Vue", "Angular", "Node.js", "Docker", "Kubernetes",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "AWS", "Azure", "GCP",
	"GraphQL", "REST", "Microservices", "Git", "CI/CD", "Kafka",
	"Terraform", "Linux", "SQL",
}

// Parsed is the best-effort result of reading a resume.
// Degraded is set when text could not be extracted; other fields are then empty.
type Parsed struct {
	Name            string
	Email           string
	Phone           string
	Skills          []string
	ExperienceYears int
	Text            string
	Degraded        bool
	Reason          string
}

// Parser reads resumes.
type Parser struct {
	skills []string
	log    logger.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithSkills replaces the keyword list.
func WithSkills(skills ...string) Option {
	return func(p *Parser) {
		if len(skills) > 0 {
			p.skills = skills
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{skills: DefaultSkills, log: logger.Named("resume")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts fields from the document in r. It does not fail: unsupported
// or unreadable documents yield a Degraded result.
func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) Parsed {
	text, err := extract(filename, r)
	if err != nil {
		p.log.Warn(ctx, "resume parse degraded",
			logger.String("file", filename),
			logger.Error(err),
		)
		return Parsed{Degraded: true, Reason: err.Error()}
	}
	return p.Fields(text)
}

// Fields runs the heuristics over already extracted text.
func (p *Parser) Fields(text string) Parsed {
	if len(text) > maxText {
		text = text[:maxText]
	}
	out := Parsed{Text: text}
	if strings.TrimSpace(text) == "" {
		out.Degraded = true
		out.Reason = "no text extracted"
		return out
	}

	out.Email = emailRe.FindString(text)
	out.Phone = strings.TrimSpace(phoneRe.FindString(text))
	out.Name = firstLine(text)
	out.Skills = p.matchSkills(text)
	for _, m := range yearsRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > out.ExperienceYears {
			out.ExperienceYears = n
		}
	}
	return out
}

func extract(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md":
		b, err := io.ReadAll(io.LimitReader(r, maxText))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf", ".doc", ".docx", ".odt", ".rtf":
		res, err := docconv.Convert(r, docconv.MimeTypeByExtension(filename), false)
		if err != nil {
			return "", err
		}
		return res.Body, nil
	default:
		return "", &UnsupportedError{Ext: ext}
	}
}

// UnsupportedError reports a file type the parser cannot read.
type UnsupportedError struct{ Ext string }

func (e *UnsupportedError) Error() string {
	if e.Ext == "" {
		return "unsupported file type: no extension"
	}
	return "unsupported file type: " + e.Ext
}

// firstLine returns the first non-empty line that is not an email or phone.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || emailRe.MatchString(line) || phoneRe.MatchString(line) {
			continue
		}
		if len(line) > 80 {
			return ""
		}
		return line
	}
	return ""
}

func (p *Parser) matchSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var out []string
	for _, s := range p.skills {
		key := strings.ToLower(s)
		if seen[key] || !containsWord(lower, key) {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// containsWord matches kw only at word boundaries so "go" does not hit "good".
func containsWord(text, kw string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(kw)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		i = start + 1
	}
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
}
