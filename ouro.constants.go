package ouro

import "time"

// Attribute name constants
const (
	AttrID     = "id"
	AttrPrompt = "prompt"
)

// YAML frontmatter constants
const (
	YAMLFrontmatterDelimiter  = "---"
	DefaultMaxFrontmatterSize = 64 * 1024
)

// Line handling constants
const (
	LineFeed       = "\n"
	CarriageReturn = "\r"
)

// Resolution defaults
const (
	DefaultConcurrency = 1
)

// ResolveState string values
const (
	ResolveStateNameUnresolved = "unresolved"
	ResolveStateNameResolving  = "resolving"
	ResolveStateNameResolved   = "resolved"
)

// Summarize prompt parts (Client.Summarize)
const (
	SummarizeInstructionFormat = "This is a Harvard business professor who summarizes the provided text into at most %d sentences, " +
		"solving any spelling and grammatical issues. She preserves the original author's intent and does not censor criticism or add any new meaning. " +
		"If the text involves details that might be attributable to the author, the professor will remove those to protect the author. " +
		"The result is professional and succinct, and cannot be traced to the original author in any way."
	SummarizeTextLabel    = "Text: "
	SummarizeSummaryLabel = "Summary:"
	SummarizeElementName  = "summary"
)

// OpenAI-compatible completion adapter constants
const (
	OpenAIDefaultBaseURL      = "https://api.openai.com/v1"
	OpenAIDefaultModel        = "gpt-4o-mini"
	OpenAIChatCompletionsPath = "/chat/completions"
	OpenAIDefaultTimeout      = 120 * time.Second
	OpenAIRoleUser            = "user"
	OpenAIHeaderAuthorization = "Authorization"
	OpenAIHeaderContentType   = "Content-Type"
	OpenAIBearerPrefix        = "Bearer "
	OpenAIContentTypeJSON     = "application/json"
	OpenAIMaxErrorBodyBytes   = 4096
	OpenAIAPIKeyEnvVar        = "OURO_API_KEY"
	OpenAIEndpointEnvVar      = "OURO_ENDPOINT"
	OpenAIModelEnvVar         = "OURO_MODEL"
	CompletionProviderOpenAI  = "openai"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// Filesystem storage constants
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
	FilesystemVersionPrefix   = "v"
	FilesystemVersionSuffix   = ".json"
	DocumentIDPrefix          = "doc_"
	DocumentIDRandomBytes     = 12
)

// PostgreSQL storage constants
const (
	PostgresTablePrefix            = "ouro_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
	PostgresDriverName             = "postgres"
)

// Cache defaults
const (
	DefaultCompletionCacheTTL           = 5 * time.Minute
	DefaultCompletionCacheMaxEntries    = 1000
	DefaultCompletionCacheMaxResultSize = 1 << 20
	DefaultStorageCacheTTL              = 5 * time.Minute
	DefaultStorageCacheMaxEntries       = 1000
	DefaultStorageCacheNegativeTTL      = 30 * time.Second
)

// Log message constants
const (
	LogMsgClientCreated      = "client created"
	LogMsgDocumentParsed     = "document parsed"
	LogMsgPromptGrafted      = "prompt grafted from leading text"
	LogMsgResolveStart       = "starting resolution pass"
	LogMsgResolveEnd         = "resolution pass complete"
	LogMsgElementResolving   = "resolving element"
	LogMsgElementResolved    = "element resolved"
	LogMsgResolveHalted      = "halting after first completed element"
	LogMsgSubFragmentBuilt   = "sub-fragment built"
	LogMsgSubmitStart        = "submitting document for completion"
	LogMsgSubmitEnd          = "completion appended"
	LogMsgFolded             = "resolved elements folded into text"
	LogMsgUnknownAttribute   = "ignoring unknown attribute"
	LogMsgCompletionRequest  = "sending completion request"
	LogMsgCompletionResponse = "completion response received"
	LogMsgStoredResolved     = "stored document resolved"
	LogMsgCompletionCacheHit = "completion served from cache"
	LogMsgHookStep           = "lifecycle step"
)

// Log field constants
const (
	LogFieldElements     = "element_count"
	LogFieldPending      = "pending_count"
	LogFieldIndex        = "index"
	LogFieldElementID    = "element_id"
	LogFieldDepth        = "depth"
	LogFieldLength       = "length"
	LogFieldTag          = "tag"
	LogFieldAttribute    = "attribute"
	LogFieldModel        = "model"
	LogFieldStatus       = "status"
	LogFieldConcurrency  = "concurrency"
	LogFieldName         = "name"
	LogFieldVersion      = "version"
	LogFieldFolded       = "folded_count"
	LogFieldHasCompleter = "has_completion_service"
	LogFieldHasStorage   = "has_storage"
	LogFieldHookPoint    = "hook_point"
)
