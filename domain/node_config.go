package domain

import "time"

// CommonFields are the retry/timeout fields shared by every node's static
// specification (spec.md §4.7 "Retries, timeouts and errors follow each
// node's static specification fields").
type CommonFields struct {
	TimeoutS   float64
	Retryable  bool
	MaxRetries int
}

// MaxIterationScope controls whether PersonJobNode.MaxIteration counts
// resets across loop-back epochs or accumulates across the whole execution.
type MaxIterationScope string

const (
	// ScopeCumulative counts executions across all epochs. This is the
	// default per spec.md §9 Open Questions.
	ScopeCumulative MaxIterationScope = "cumulative"
	// ScopePerEpoch resets the counter whenever the epoch advances.
	ScopePerEpoch MaxIterationScope = "per_epoch"
)

// ToolSelection restricts which tools a PersonJobNode's LLM call may use.
type ToolSelection string

const (
	ToolNone      ToolSelection = "none"
	ToolImage     ToolSelection = "image"
	ToolWebsearch ToolSelection = "websearch"
)

// StartConfig is StartNode's static configuration.
type StartConfig struct {
	CommonFields
	CustomData map[string]any
}

// EndpointConfig is EndpointNode's static configuration.
type EndpointConfig struct {
	CommonFields
	SaveToFile bool
	FilePath   string
}

// ConditionKind selects which evaluation strategy a ConditionNode uses.
type ConditionKind string

const (
	ConditionDetectMaxIterations ConditionKind = "detect_max_iterations"
	ConditionCheckNodesExecuted  ConditionKind = "check_nodes_executed"
	ConditionCustomExpression    ConditionKind = "custom_expression"
	ConditionLLMDecision         ConditionKind = "llm_decision"
)

// ConditionConfig is ConditionNode's static configuration.
type ConditionConfig struct {
	CommonFields
	Kind            ConditionKind
	Expression      string   // for ConditionCustomExpression
	TargetNodeIDs   []NodeID // for ConditionCheckNodesExecuted
	TargetPersonID  PersonID // for ConditionLLMDecision
	Skippable       bool
}

// PersonJobConfig is PersonJobNode's static configuration.
type PersonJobConfig struct {
	CommonFields
	PersonID          PersonID
	FirstOnlyPrompt   string
	DefaultPrompt     string
	MaxIteration      int
	MaxIterationScope MaxIterationScope
	MemorizeTo        string // "GOLDFISH" or a natural-language criterion
	AtMost            *int
	IgnorePersons     []PersonID
	Tools             ToolSelection
	StructuredSchema  map[string]any
}

// CodeLanguage enumerates CodeJobNode's supported executors.
type CodeLanguage string

const (
	LangPython     CodeLanguage = "python"
	LangTypescript CodeLanguage = "typescript"
	LangBash       CodeLanguage = "bash"
	LangShell      CodeLanguage = "shell"
)

// CodeJobConfig is CodeJobNode's static configuration.
type CodeJobConfig struct {
	CommonFields
	Language CodeLanguage
	Code     string
}

// ApiJobConfig is ApiJobNode's / IntegratedApiNode's static configuration.
type ApiJobConfig struct {
	CommonFields
	Method  string
	URL     string
	Headers map[string]string
}

// DbOperation enumerates DbNode's supported operations.
type DbOperation string

const (
	DbRead   DbOperation = "read"
	DbWrite  DbOperation = "write"
	DbAppend DbOperation = "append"
	DbUpdate DbOperation = "update"
)

// DbConfig is DbNode's static configuration.
type DbConfig struct {
	CommonFields
	Operation      DbOperation
	Path           string
	Keys           []string // dot-path selection for JSON payloads
	SerializeJSON  bool
}

// TemplateFormat selects TemplateJobNode's rendering mode.
type TemplateFormat string

const (
	TemplateText     TemplateFormat = "text"
	TemplateMarkdown TemplateFormat = "markdown"
)

// TemplateJobConfig is TemplateJobNode's static configuration.
type TemplateJobConfig struct {
	CommonFields
	Template string
	Format   TemplateFormat
}

// JsonSchemaValidatorConfig is JsonSchemaValidatorNode's static configuration.
type JsonSchemaValidatorConfig struct {
	CommonFields
	Schema map[string]any
}

// HookConfig is HookNode's static configuration.
type HookConfig struct {
	CommonFields
	Name string
	Args map[string]any
}

// SubDiagramOutputMode selects how SubDiagramNode packages batch results.
type SubDiagramOutputMode string

const (
	OutputPureList   SubDiagramOutputMode = "pure_list"
	OutputRichObject SubDiagramOutputMode = "rich_object"
)

// SubDiagramConfig is SubDiagramNode's static configuration.
type SubDiagramConfig struct {
	CommonFields
	Child          *ExecutableDiagram
	Batch          bool
	BatchInputKey  string
	OutputMode     SubDiagramOutputMode
	ResultKey      string
	MaxConcurrent  int
}

// UserResponseConfig is UserResponseNode's static configuration.
type UserResponseConfig struct {
	CommonFields
	Prompt string
}

// DiffPatchMode selects how DiffPatchNode applies a unified diff.
type DiffPatchMode string

const (
	DiffNormal  DiffPatchMode = "normal"
	DiffForce   DiffPatchMode = "force"
	DiffDryRun  DiffPatchMode = "dry_run"
	DiffReverse DiffPatchMode = "reverse"
)

// DiffPatchConfig is DiffPatchNode's static configuration.
type DiffPatchConfig struct {
	CommonFields
	Path string
	Mode DiffPatchMode
}

// IrBuilderConfig is IrBuilderNode's static configuration.
type IrBuilderConfig struct {
	CommonFields
	TargetFormat string
}

// TypescriptAstConfig is TypescriptAstNode's static configuration.
type TypescriptAstConfig struct {
	CommonFields
	IncludePositions bool
}

// RetryBackoff computes the exponential-backoff-with-cap delay for a
// retry attempt (0-indexed), base 1s cap 30s, per spec.md §4.5.
func RetryBackoff(attempt int) time.Duration {
	base := time.Second
	cap := 30 * time.Second
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
