package ouro

import (
	"os"
	"strings"

	"github.com/novidanca/go-ouro/internal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DocumentMeta is the optional YAML frontmatter of a markup document
type DocumentMeta struct {
	Name        string             `yaml:"name,omitempty" json:"name,omitempty"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Completion  *CompletionOptions `yaml:"completion,omitempty" json:"completion,omitempty"`
}

// DocumentSource is a markup document split into frontmatter and parsed body
type DocumentSource struct {
	Meta     *DocumentMeta
	Body     string
	Elements []Element
}

// ParseElements converts raw markup into an ordered element sequence.
// It is pure: no prompt grafting happens here.
func ParseElements(raw string) ([]Element, error) {
	return parseElements(raw, nil)
}

func parseElements(raw string, logger *zap.Logger) ([]Element, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := internal.NewLexer(raw, logger).Tokenize()
	if err != nil {
		return nil, NewMalformedMarkupError(err)
	}
	root, err := internal.NewParser(tokens, logger).Parse()
	if err != nil {
		return nil, NewMalformedMarkupError(err)
	}

	elements := make([]Element, 0, len(root.Children))
	seenPrompt := false
	for _, node := range root.Children {
		switch n := node.(type) {
		case *internal.TextNode:
			if strings.TrimSpace(n.Content) == "" {
				continue
			}
			elements = append(elements, NewTextElement(n.Content))

		case *internal.TagNode:
			logUnknownAttributes(logger, n)
			id, _ := n.Attributes.Get(AttrID)

			switch n.Name {
			case internal.TagNameText:
				el := NewTextElement(n.Body)
				el.ID = id
				elements = append(elements, el)

			case internal.TagNamePrompt:
				if seenPrompt {
					pos := n.Pos()
					return nil, NewDuplicatePromptError(Position{Offset: pos.Offset, Line: pos.Line, Column: pos.Column})
				}
				seenPrompt = true
				el := NewPromptElement(n.Body)
				el.ID = id
				elements = append(elements, el)

			case internal.TagNameResolve:
				override, _ := n.Attributes.Get(AttrPrompt)
				el := NewResolveElement(override, n.Body)
				el.ID = id
				elements = append(elements, el)
			}
		}
	}

	logger.Debug(LogMsgDocumentParsed, zap.Int(LogFieldElements, len(elements)))
	return elements, nil
}

func logUnknownAttributes(logger *zap.Logger, n *internal.TagNode) {
	for _, key := range n.Attributes.Keys() {
		if key == AttrID || (key == AttrPrompt && n.Name == internal.TagNameResolve) {
			continue
		}
		logger.Debug(LogMsgUnknownAttribute,
			zap.String(LogFieldTag, n.Name),
			zap.String(LogFieldAttribute, key))
	}
}

// ParseDocumentSource splits optional YAML frontmatter from the markup body
// and parses the body into elements. Documents without frontmatter get an
// empty DocumentMeta.
func ParseDocumentSource(data []byte) (*DocumentSource, error) {
	return parseDocumentSource(data, nil)
}

func parseDocumentSource(data []byte, logger *zap.Logger) (*DocumentSource, error) {
	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}

	meta := &DocumentMeta{}
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), meta); err != nil {
			return nil, NewFrontmatterError(ErrMsgFrontmatterParse, err)
		}
	}

	elements, err := parseElements(body, logger)
	if err != nil {
		return nil, err
	}

	return &DocumentSource{Meta: meta, Body: body, Elements: elements}, nil
}

// ParseDocumentFile reads and parses a markup file
func ParseDocumentFile(path string) (*DocumentSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewReadDocumentError(path, err)
	}
	return ParseDocumentSource(data)
}

// EscapeMarkup makes s safe to embed as literal text in a markup document
func EscapeMarkup(s string) string {
	return strings.ReplaceAll(s, internal.StrOpenDelim, internal.StrEscapeOpen)
}

// splitFrontmatter returns the YAML block (without delimiters) and the body.
// A document that does not open with the delimiter has no frontmatter.
func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimPrefix(content, "\xef\xbb\xbf")
	if !strings.HasPrefix(content, YAMLFrontmatterDelimiter) {
		return "", content, nil
	}

	afterOpening := trimLeadingNewline(content[len(YAMLFrontmatterDelimiter):])

	closeIdx := strings.Index(afterOpening, LineFeed+YAMLFrontmatterDelimiter)
	if closeIdx == -1 {
		return "", "", NewFrontmatterError(ErrMsgFrontmatterUnclosed, nil)
	}

	fm := afterOpening[:closeIdx]
	if len(fm) > DefaultMaxFrontmatterSize {
		return "", "", NewFrontmatterError(ErrMsgFrontmatterTooLarge, nil)
	}

	body := trimLeadingNewline(afterOpening[closeIdx+len(LineFeed+YAMLFrontmatterDelimiter):])
	return fm, body, nil
}

func trimLeadingNewline(s string) string {
	if strings.HasPrefix(s, CarriageReturn+LineFeed) {
		return s[2:]
	}
	return strings.TrimPrefix(s, LineFeed)
}
