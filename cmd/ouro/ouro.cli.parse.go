package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/novidanca/go-ouro"
)

// parseConfig holds parsed parse command configuration
type parseConfig struct {
	templatePath string
	format       string
	graft        bool
}

// elementOutput is the serialized view of one element
type elementOutput struct {
	Kind      string `json:"kind" yaml:"kind"`
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Content   string `json:"content" yaml:"content"`
	Prompt    string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Generated bool   `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// parseOutput is the serialized view of a parsed document
type parseOutput struct {
	Meta     *ouro.DocumentMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
	Elements []elementOutput    `json:"elements" yaml:"elements"`
}

func runParse(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseParseFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	src, err := ouro.ParseDocumentSource(source)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidDocument, err)
		return ExitCodeValidationError
	}

	elements := src.Elements
	if cfg.graft {
		elements, err = ouro.EnsurePrompt(elements)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidDocument, err)
			return ExitCodeValidationError
		}
	}

	out := parseOutput{Elements: toElementOutputs(elements)}
	if src.Meta.Name != "" || src.Meta.Description != "" || src.Meta.Completion != nil {
		out.Meta = src.Meta
	}

	if cfg.format == OutputFormatText {
		writeParseText(out, stdout)
		return ExitCodeSuccess
	}
	if err := writeStructured(cfg.format, out, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMarshalFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseParseFlags(args []string) (*parseConfig, error) {
	fs := flag.NewFlagSet(CmdNameParse, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &parseConfig{}
	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.graft, FlagGraft, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	switch cfg.format {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
	default:
		return nil, errors.New(ErrMsgInvalidFormat)
	}
	return cfg, nil
}

func toElementOutputs(elements []ouro.Element) []elementOutput {
	out := make([]elementOutput, 0, len(elements))
	for _, el := range elements {
		base := el.Base()
		eo := elementOutput{
			Kind:      string(el.Kind()),
			ID:        base.ID,
			Content:   base.Content,
			Generated: base.IsGenerated,
		}
		if r, ok := el.(*ouro.ResolveElement); ok {
			eo.Prompt = r.OverridePrompt
		}
		out = append(out, eo)
	}
	return out
}

func writeParseText(out parseOutput, w io.Writer) {
	if out.Meta != nil {
		if out.Meta.Name != "" {
			fmt.Fprintf(w, ParseTextMetaName+FmtNewline, out.Meta.Name)
		}
		if out.Meta.Description != "" {
			fmt.Fprintf(w, ParseTextMetaDesc+FmtNewline, out.Meta.Description)
		}
	}
	for i, el := range out.Elements {
		fmt.Fprintf(w, ParseTextElement, i, el.Kind)
		if el.ID != "" {
			fmt.Fprintf(w, ParseTextElementID, el.ID)
		}
		if el.Prompt != "" {
			fmt.Fprintf(w, ParseTextElementPrompt, el.Prompt)
		}
		fmt.Fprint(w, FmtNewline)
		fmt.Fprintf(w, ParseTextContent+FmtNewline, el.Content)
	}
}
