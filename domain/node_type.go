package domain

// NodeType identifies which ExecutableNode variant a node is and which
// handler the registry dispatches to.
type NodeType string

const (
	NodeTypeStart               NodeType = "start"
	NodeTypeEndpoint            NodeType = "endpoint"
	NodeTypeCondition           NodeType = "condition"
	NodeTypePersonJob           NodeType = "person_job"
	NodeTypeCodeJob             NodeType = "code_job"
	NodeTypeApiJob              NodeType = "api_job"
	NodeTypeDb                  NodeType = "db"
	NodeTypeTemplateJob         NodeType = "template_job"
	NodeTypeJsonSchemaValidator NodeType = "json_schema_validator"
	NodeTypeHook                NodeType = "hook"
	NodeTypeSubDiagram          NodeType = "sub_diagram"
	NodeTypeUserResponse        NodeType = "user_response"
	NodeTypeIntegratedApi       NodeType = "integrated_api"
	NodeTypeDiffPatch           NodeType = "diff_patch"
	NodeTypeIrBuilder           NodeType = "ir_builder"
	NodeTypeTypescriptAst       NodeType = "typescript_ast"
)

// Direction is the orientation of a handle.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// HandleLabel names a node's input or output attachment point; arriving
// envelopes are bound to the variable named by this label.
type HandleLabel string

const (
	HandleDefault    HandleLabel = "default"
	HandleFirst      HandleLabel = "first"
	HandleCondTrue   HandleLabel = "condtrue"
	HandleCondFalse  HandleLabel = "condfalse"
	HandleResults    HandleLabel = "results"
	HandleError      HandleLabel = "error"
)

// PortSpec describes one declared input or output port on a node type.
type PortSpec struct {
	Label       HandleLabel
	ContentType ContentType
	Required    bool
	// Default, when non-nil, is the envelope body substituted when a
	// required port has no bound value (input resolver §4.6 step 4).
	Default any
}

// HandleSpec is the static per-node-type specification of allowed
// input/output labels and connection cardinalities, consulted by the
// compiler's validation and connection-resolution phases.
type HandleSpec struct {
	Inputs  []PortSpec
	Outputs []PortSpec
	// SingleUnnamedInput, when true, allows an unlabelled edge to target
	// the node's sole input port.
	SingleUnnamedInput bool
}

// ContentType mirrors envelope.ContentType without importing the
// envelope package (which itself imports domain), avoiding a cycle.
type ContentType string

const (
	ContentRawText           ContentType = "raw_text"
	ContentObject            ContentType = "object"
	ContentConversationState ContentType = "conversation_state"
	ContentBinary            ContentType = "binary"
	ContentError             ContentType = "error"
)

// HANDLE_SPECS is the frozen registry of per-node-type port specifications
// consulted during compilation. It starts with the built-in node types;
// RegisterHandleSpec may add or override entries at process start, and
// it is never mutated afterward (spec.md §9: "no runtime
// monkey-patching").
var handleSpecs = map[NodeType]HandleSpec{
	NodeTypeStart: {
		Outputs: []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
	},
	NodeTypeEndpoint: {
		Inputs: []PortSpec{{Label: HandleDefault, ContentType: ContentObject, Required: false}},
	},
	NodeTypeCondition: {
		Inputs:  []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs: []PortSpec{
			{Label: HandleCondTrue, ContentType: ContentObject},
			{Label: HandleCondFalse, ContentType: ContentObject},
		},
	},
	NodeTypePersonJob: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeCodeJob: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeApiJob: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}, {Label: HandleError, ContentType: ContentError}},
		SingleUnnamedInput: true,
	},
	NodeTypeIntegratedApi: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}, {Label: HandleError, ContentType: ContentError}},
		SingleUnnamedInput: true,
	},
	NodeTypeDb: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeTemplateJob: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentRawText}},
		SingleUnnamedInput: true,
	},
	NodeTypeJsonSchemaValidator: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}, {Label: HandleError, ContentType: ContentError}},
		SingleUnnamedInput: true,
	},
	NodeTypeHook: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeSubDiagram: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleResults, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeUserResponse: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeDiffPatch: {
		Inputs:  []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs: []PortSpec{{Label: HandleDefault, ContentType: ContentObject}, {Label: HandleError, ContentType: ContentError}},
	},
	NodeTypeIrBuilder: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
	NodeTypeTypescriptAst: {
		Inputs:             []PortSpec{{Label: HandleDefault, ContentType: ContentRawText}},
		Outputs:            []PortSpec{{Label: HandleDefault, ContentType: ContentObject}},
		SingleUnnamedInput: true,
	},
}

// HandleSpecFor returns the registered HandleSpec for a node type.
func HandleSpecFor(t NodeType) (HandleSpec, bool) {
	spec, ok := handleSpecs[t]
	return spec, ok
}

// RegisterHandleSpec adds or overrides a node type's handle spec. Intended
// for use at process start only (consumers registering additional node
// types per spec.md §6); the map is otherwise treated as frozen.
func RegisterHandleSpec(t NodeType, spec HandleSpec) {
	handleSpecs[t] = spec
}

// KnownNodeTypes returns every node type currently registered.
func KnownNodeTypes() []NodeType {
	types := make([]NodeType, 0, len(handleSpecs))
	for t := range handleSpecs {
		types = append(types, t)
	}
	return types
}
