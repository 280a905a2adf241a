package domain

// ExecutableNode is one compiled node: a type tag plus exactly one
// populated config field. The compiler's node-transformation phase fills
// in whichever field matches Type; every other field stays nil.
//
// A tagged struct rather than an interface keeps the zero value usable in
// tests and avoids a type-switch at every call site that only needs Type
// or CommonFields-shaped data.
type ExecutableNode struct {
	ID   NodeID
	Type NodeType

	Start               *StartConfig
	Endpoint            *EndpointConfig
	Condition           *ConditionConfig
	PersonJob           *PersonJobConfig
	CodeJob             *CodeJobConfig
	ApiJob              *ApiJobConfig
	Db                  *DbConfig
	TemplateJob         *TemplateJobConfig
	JsonSchemaValidator *JsonSchemaValidatorConfig
	Hook                *HookConfig
	SubDiagram          *SubDiagramConfig
	UserResponse        *UserResponseConfig
	IntegratedApi       *ApiJobConfig
	DiffPatch           *DiffPatchConfig
	IrBuilder           *IrBuilderConfig
	TypescriptAst       *TypescriptAstConfig
}

// Common returns the CommonFields embedded in whichever config variant is
// populated. Panics if no variant is set, which indicates a compiler bug.
func (n ExecutableNode) Common() CommonFields {
	switch n.Type {
	case NodeTypeStart:
		return n.Start.CommonFields
	case NodeTypeEndpoint:
		return n.Endpoint.CommonFields
	case NodeTypeCondition:
		return n.Condition.CommonFields
	case NodeTypePersonJob:
		return n.PersonJob.CommonFields
	case NodeTypeCodeJob:
		return n.CodeJob.CommonFields
	case NodeTypeApiJob:
		return n.ApiJob.CommonFields
	case NodeTypeDb:
		return n.Db.CommonFields
	case NodeTypeTemplateJob:
		return n.TemplateJob.CommonFields
	case NodeTypeJsonSchemaValidator:
		return n.JsonSchemaValidator.CommonFields
	case NodeTypeHook:
		return n.Hook.CommonFields
	case NodeTypeSubDiagram:
		return n.SubDiagram.CommonFields
	case NodeTypeUserResponse:
		return n.UserResponse.CommonFields
	case NodeTypeIntegratedApi:
		return n.IntegratedApi.CommonFields
	case NodeTypeDiffPatch:
		return n.DiffPatch.CommonFields
	case NodeTypeIrBuilder:
		return n.IrBuilder.CommonFields
	case NodeTypeTypescriptAst:
		return n.TypescriptAst.CommonFields
	default:
		panic("domain: ExecutableNode has no populated config for type " + string(n.Type))
	}
}

// JoinPolicy names the readiness rule the scheduler applies when a node
// has more than one incoming edge.
type JoinPolicy string

const (
	// JoinAll requires every incoming edge to be satisfied or filtered out.
	JoinAll JoinPolicy = "all"
	// JoinAny fires as soon as a single incoming edge is satisfied.
	JoinAny JoinPolicy = "any"
	// JoinKOfN fires once K of the N incoming edges are satisfied.
	JoinKOfN JoinPolicy = "k_of_n"
)

// TransformKind names a single step of an edge's transform pipeline
// (resolver §4.6 "transforms").
type TransformKind string

const (
	TransformExtract  TransformKind = "extract"
	TransformWrap     TransformKind = "wrap"
	TransformMap      TransformKind = "map"
	TransformTemplate TransformKind = "template"
)

// TransformRule is one step of an edge's content coercion pipeline.
type TransformRule struct {
	Kind     TransformKind
	Path     string // for extract
	Key      string // for wrap
	Mapping  map[string]string // for map
	Template string // for template
}

// ExecutableEdge is one compiled connection between two nodes, resolved
// down to concrete node IDs and handle labels.
type ExecutableEdge struct {
	ID              EdgeID
	Source          NodeID
	SourceLabel     HandleLabel
	Target          NodeID
	TargetLabel     HandleLabel
	ContentType     ContentType
	Transforms      []TransformRule
	// Skippable marks conditional-branch edges whose absence of a token
	// does not by itself block the target node, per the "skippable
	// conditional edges" rule — unless every incoming edge to the target
	// is skippable, in which case the rule is waived for that target
	// (scheduler §4.4 "skippable-becomes-required").
	Skippable bool
}

// DependencyIndex is the compiler's precomputed view of a diagram's edge
// topology, built once during the optimization phase and never mutated
// afterward.
type DependencyIndex struct {
	// InEdges maps a node to its incoming edges, grouped by target label.
	InEdges map[NodeID]map[HandleLabel][]EdgeID
	// OutEdges maps a node to its outgoing edges, grouped by source label.
	OutEdges map[NodeID]map[HandleLabel][]EdgeID
	// JoinPolicies maps a node to the join rule applied to its inbound edges.
	JoinPolicies map[NodeID]JoinPolicy
	// KOfN holds the K value for nodes whose JoinPolicies entry is JoinKOfN.
	KOfN map[NodeID]int
	// Cycles lists the node sets forming a strongly connected component of
	// size > 1, or a single node with a self-loop edge, found by the
	// optimization phase's cycle detection.
	Cycles [][]NodeID
	// TopoHint is a topological ordering usable when the diagram is
	// acyclic; nil when Cycles is non-empty.
	TopoHint []NodeID
}

// ExecutableDiagram is the compiler's output: a validated, immutable
// diagram ready for scheduling. No component may mutate it after
// compilation; a new run recompiles or reuses the same value.
type ExecutableDiagram struct {
	Nodes           map[NodeID]ExecutableNode
	Edges           map[EdgeID]ExecutableEdge
	DependencyIndex DependencyIndex
	StartNodes      []NodeID
	PersonIndex     map[PersonID]DomainPerson
	MaxConcurrent   int
}

// NewExecutableDiagram returns an empty, ready-to-populate ExecutableDiagram.
func NewExecutableDiagram() *ExecutableDiagram {
	return &ExecutableDiagram{
		Nodes:       make(map[NodeID]ExecutableNode),
		Edges:       make(map[EdgeID]ExecutableEdge),
		PersonIndex: make(map[PersonID]DomainPerson),
		DependencyIndex: DependencyIndex{
			InEdges:      make(map[NodeID]map[HandleLabel][]EdgeID),
			OutEdges:     make(map[NodeID]map[HandleLabel][]EdgeID),
			JoinPolicies: make(map[NodeID]JoinPolicy),
			KOfN:         make(map[NodeID]int),
		},
	}
}
