package main

// Command names
const (
	CmdNameResolve = "resolve"
	CmdNameParse   = "parse"
	CmdNameVersion = "version"
	CmdNameHelp    = "help"
)

// Flag names - long form
const (
	FlagTemplate    = "template"
	FlagOutput      = "output"
	FlagFormat      = "format"
	FlagNext        = "next"
	FlagFold        = "fold"
	FlagSubmit      = "submit"
	FlagName        = "name"
	FlagEndpoint    = "endpoint"
	FlagModel       = "model"
	FlagAPIKey      = "api-key"
	FlagConcurrency = "concurrency"
	FlagVerbose     = "verbose"
	FlagGraft       = "graft"
	FlagCache       = "cache"
)

// Flag names - short form
const (
	FlagTemplateShort    = "t"
	FlagOutputShort      = "o"
	FlagFormatShort      = "F"
	FlagNameShort        = "n"
	FlagConcurrencyShort = "c"
	FlagVerboseShort     = "v"
)

// Flag default values
const (
	FlagDefaultOutput      = "-" // stdout
	FlagDefaultFormat      = "text"
	FlagDefaultConcurrency = 1
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand     = "unknown command"
	ErrMsgMissingTemplate    = "document source required"
	ErrMsgInvalidFlags       = "invalid flags"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgInvalidDocument    = "invalid document"
	ErrMsgResolveFailed      = "resolution failed"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgInvalidConcurrency = "concurrency must be at least 1"
	ErrMsgMarshalFailed      = "failed to marshal output"
)

// Help text templates
const (
	HelpMainUsage = `go-ouro - Layered prompt resolution CLI

Usage:
    ouro <command> [options]

Commands:
    resolve     Resolve every <Resolve> directive of a document
    parse       Parse a document and print its elements
    version     Show version information
    help        Show help for a command

Use "ouro help <command>" for more information about a command.`

	HelpResolveUsage = `Resolve every <Resolve> directive of a document

Usage:
    ouro resolve [options]

Options:
    -t, --template <file>     Document file (use "-" for stdin)
    -o, --output <file>       Output file (default: stdout)
    --next                    Resolve only the first pending directive
    --fold                    Fold resolved directives into plain text
    --submit                  Submit the resolved document and append the answer
    -n, --name <label>        Label for the appended answer (with --submit)
    -c, --concurrency <n>     Resolve up to n sibling directives at once (default: 1)
    --endpoint <url>          OpenAI-compatible base URL (env: OURO_ENDPOINT)
    --model <name>            Model name (env: OURO_MODEL)
    --api-key <key>           API key (env: OURO_API_KEY)
    --cache                   Reuse answers for identical sub-documents
    -v, --verbose             Log resolution steps to stderr

Examples:
    ouro resolve -t story.ouro
    ouro resolve -t story.ouro --submit -n answer -o out.txt
    cat story.ouro | ouro resolve -t - --next`

	HelpParseUsage = `Parse a document and print its elements

Usage:
    ouro parse [options]

Options:
    -t, --template <file>   Document file (use "-" for stdin)
    -F, --format <format>   Output format: text, json, yaml (default: text)
    --graft                 Graft a prompt from the first line when none exists

Examples:
    ouro parse -t story.ouro
    ouro parse -t story.ouro -F json`

	HelpVersionUsage = `Show version information

Usage:
    ouro version [options]

Options:
    -F, --format <format>   Output format: text, json, yaml (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    ouro help [command]

Commands:
    resolve     Show help for resolve command
    parse       Show help for parse command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-ouro version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFileName    = "versions.yaml"

	BuildInfoDevelVersion = "(devel)"
	BuildSettingRevision  = "vcs.revision"
	BuildSettingTime      = "vcs.time"
	BuildSettingModified  = "vcs.modified"
)

// Parse output format templates
const (
	ParseTextMetaName      = "name: %s"
	ParseTextMetaDesc      = "description: %s"
	ParseTextElement       = "[%d] %s"
	ParseTextElementID     = " id=%q"
	ParseTextElementPrompt = " prompt=%q"
	ParseTextContent       = "    %q"
)

// CLI metadata
const (
	CLIName = "ouro"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
