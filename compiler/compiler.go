// Package compiler turns a DomainDiagram (an externally-authored,
// untyped diagram description) into an ExecutableDiagram (a validated,
// immutable structure the scheduler can run directly).
//
// Compilation runs in six phases, each depending on the last: validation,
// node transformation, connection resolution, edge building,
// optimization, assembly. The first phase that reports an error ends
// compilation: later phases do not run, and the result carries that
// phase's errors and no Diagram.
package compiler

import (
	"github.com/dipeo/dipeo-core/domain"
)

type resolvedConnection struct {
	arrow       domain.Arrow
	sourceNode  domain.NodeID
	sourceLabel domain.HandleLabel
	targetNode  domain.NodeID
	targetLabel domain.HandleLabel
}

// Compile runs all six phases against d and returns the result. Check
// result.OK() before using result.Diagram.
func Compile(d *domain.DomainDiagram) *CompilationResult {
	result := &CompilationResult{}

	if !phaseValidate(d, result) {
		return result
	}

	nodes := phaseTransformNodes(d, result)
	if !result.OK() {
		return result
	}

	connections := phaseResolveConnections(d, nodes, result)
	if !result.OK() {
		return result
	}

	edges := phaseBuildEdges(connections, nodes, result)
	if !result.OK() {
		return result
	}

	depIndex := phaseOptimize(nodes, edges)

	diagram := phaseAssemble(d, nodes, edges, depIndex, result)
	if !result.OK() {
		return result
	}

	result.Diagram = diagram
	return result
}

// phaseValidate checks structural soundness of the raw diagram: every
// arrow's handles exist, every handle's owning node exists, every
// person referenced by a person_job node is declared.
func phaseValidate(d *domain.DomainDiagram, result *CompilationResult) bool {
	start := len(result.Errors)

	for id, node := range d.Nodes {
		if _, ok := domain.HandleSpecFor(node.Type); !ok {
			result.addf("validation", string(id), "unknown node type %q", node.Type)
		}
	}

	for _, h := range d.Handles {
		if _, ok := d.Nodes[h.NodeID]; !ok {
			result.addf("validation", string(h.NodeID), "handle references unknown node")
		}
	}

	for _, a := range d.Arrows {
		srcHandle, ok := d.Handles[a.Source]
		if !ok {
			result.addf("validation", "", "arrow %s: source handle %s not found", a.ID, a.Source)
			continue
		}
		dstHandle, ok := d.Handles[a.Target]
		if !ok {
			result.addf("validation", "", "arrow %s: target handle %s not found", a.ID, a.Target)
			continue
		}
		if srcHandle.Direction != domain.DirectionOutput {
			result.addf("validation", "", "arrow %s: source handle is not an output", a.ID)
		}
		if dstHandle.Direction != domain.DirectionInput {
			result.addf("validation", "", "arrow %s: target handle is not an input", a.ID)
		}
	}

	for id, node := range d.Nodes {
		if node.Type != domain.NodeTypePersonJob {
			continue
		}
		personID := domain.PersonID(getString(node.Data, "person_id", ""))
		if personID == "" {
			result.addf("validation", string(id), "person_job node has no person_id")
			continue
		}
		if _, ok := d.Persons[personID]; !ok {
			result.addf("validation", string(id), "person_job node references unknown person %q", personID)
		}
	}

	return len(result.Errors) == start
}

// phaseTransformNodes converts each DomainNode into its ExecutableNode
// variant, extracting the node-type-specific config fields out of the
// untyped Data map.
func phaseTransformNodes(d *domain.DomainDiagram, result *CompilationResult) map[domain.NodeID]domain.ExecutableNode {
	nodes := make(map[domain.NodeID]domain.ExecutableNode, len(d.Nodes))

	for id, dn := range d.Nodes {
		en := domain.ExecutableNode{ID: id, Type: dn.Type}
		data := dn.Data
		common := commonFields(data)

		switch dn.Type {
		case domain.NodeTypeStart:
			en.Start = &domain.StartConfig{CommonFields: common, CustomData: getObjectMap(data, "custom_data")}
		case domain.NodeTypeEndpoint:
			en.Endpoint = &domain.EndpointConfig{
				CommonFields: common,
				SaveToFile:   getBool(data, "save_to_file", false),
				FilePath:     getString(data, "file_path", ""),
			}
		case domain.NodeTypeCondition:
			en.Condition = &domain.ConditionConfig{
				CommonFields:   common,
				Kind:           domain.ConditionKind(getString(data, "condition_kind", string(domain.ConditionCustomExpression))),
				Expression:     getString(data, "expression", ""),
				TargetNodeIDs:  toNodeIDs(getStringSlice(data, "target_node_ids")),
				TargetPersonID: domain.PersonID(getString(data, "target_person_id", "")),
				Skippable:      getBool(data, "skippable", true),
			}
		case domain.NodeTypePersonJob:
			var atMost *int
			if v, ok := data["at_most"]; ok {
				if n, ok := v.(float64); ok {
					i := int(n)
					atMost = &i
				}
			}
			en.PersonJob = &domain.PersonJobConfig{
				CommonFields:      common,
				PersonID:          domain.PersonID(getString(data, "person_id", "")),
				FirstOnlyPrompt:   getString(data, "first_only_prompt", ""),
				DefaultPrompt:     getString(data, "default_prompt", ""),
				MaxIteration:      getInt(data, "max_iteration", 1),
				MaxIterationScope: domain.MaxIterationScope(getString(data, "max_iteration_scope", string(domain.ScopeCumulative))),
				MemorizeTo:        getString(data, "memorize_to", ""),
				AtMost:            atMost,
				IgnorePersons:     toPersonIDs(getStringSlice(data, "ignore_person")),
				Tools:             domain.ToolSelection(getString(data, "tools", string(domain.ToolNone))),
				StructuredSchema:  getObjectMap(data, "structured_schema"),
			}
		case domain.NodeTypeCodeJob:
			en.CodeJob = &domain.CodeJobConfig{
				CommonFields: common,
				Language:     domain.CodeLanguage(getString(data, "language", string(domain.LangPython))),
				Code:         getString(data, "code", ""),
			}
		case domain.NodeTypeApiJob:
			en.ApiJob = &domain.ApiJobConfig{
				CommonFields: common,
				Method:       getString(data, "method", "GET"),
				URL:          getString(data, "url", ""),
				Headers:      getStringMap(data, "headers"),
			}
		case domain.NodeTypeIntegratedApi:
			en.IntegratedApi = &domain.ApiJobConfig{
				CommonFields: common,
				Method:       getString(data, "method", "GET"),
				URL:          getString(data, "url", ""),
				Headers:      getStringMap(data, "headers"),
			}
		case domain.NodeTypeDb:
			en.Db = &domain.DbConfig{
				CommonFields:  common,
				Operation:     domain.DbOperation(getString(data, "operation", string(domain.DbRead))),
				Path:          getString(data, "path", ""),
				Keys:          getStringSlice(data, "keys"),
				SerializeJSON: getBool(data, "serialize_json", true),
			}
		case domain.NodeTypeTemplateJob:
			en.TemplateJob = &domain.TemplateJobConfig{
				CommonFields: common,
				Template:     getString(data, "template", ""),
				Format:       domain.TemplateFormat(getString(data, "format", string(domain.TemplateText))),
			}
		case domain.NodeTypeJsonSchemaValidator:
			en.JsonSchemaValidator = &domain.JsonSchemaValidatorConfig{
				CommonFields: common,
				Schema:       getObjectMap(data, "schema"),
			}
		case domain.NodeTypeHook:
			en.Hook = &domain.HookConfig{
				CommonFields: common,
				Name:         getString(data, "name", ""),
				Args:         getObjectMap(data, "args"),
			}
		case domain.NodeTypeSubDiagram:
			en.SubDiagram = &domain.SubDiagramConfig{
				CommonFields:  common,
				Batch:         getBool(data, "batch", false),
				BatchInputKey: getString(data, "batch_input_key", ""),
				OutputMode:    domain.SubDiagramOutputMode(getString(data, "output_mode", string(domain.OutputPureList))),
				ResultKey:     getString(data, "result_key", ""),
				MaxConcurrent: getInt(data, "max_concurrent", 1),
			}
		case domain.NodeTypeUserResponse:
			en.UserResponse = &domain.UserResponseConfig{CommonFields: common, Prompt: getString(data, "prompt", "")}
		case domain.NodeTypeDiffPatch:
			en.DiffPatch = &domain.DiffPatchConfig{
				CommonFields: common,
				Path:         getString(data, "path", ""),
				Mode:         domain.DiffPatchMode(getString(data, "mode", string(domain.DiffNormal))),
			}
		case domain.NodeTypeIrBuilder:
			en.IrBuilder = &domain.IrBuilderConfig{CommonFields: common, TargetFormat: getString(data, "target_format", "")}
		case domain.NodeTypeTypescriptAst:
			en.TypescriptAst = &domain.TypescriptAstConfig{CommonFields: common, IncludePositions: getBool(data, "include_positions", false)}
		default:
			result.addf("node_transformation", string(id), "no transform rule for node type %q", dn.Type)
			continue
		}

		nodes[id] = en
	}

	return nodes
}

// phaseResolveConnections maps each arrow's handle pair down to concrete
// (node, label) pairs, which is all the edge-building phase needs.
func phaseResolveConnections(d *domain.DomainDiagram, nodes map[domain.NodeID]domain.ExecutableNode, result *CompilationResult) []resolvedConnection {
	out := make([]resolvedConnection, 0, len(d.Arrows))

	for _, a := range d.Arrows {
		srcHandle := d.Handles[a.Source]
		dstHandle := d.Handles[a.Target]

		if _, ok := nodes[srcHandle.NodeID]; !ok {
			result.addf("connection_resolution", "", "arrow %s: source node %s not compiled", a.ID, srcHandle.NodeID)
			continue
		}
		if _, ok := nodes[dstHandle.NodeID]; !ok {
			result.addf("connection_resolution", "", "arrow %s: target node %s not compiled", a.ID, dstHandle.NodeID)
			continue
		}

		out = append(out, resolvedConnection{
			arrow:       a,
			sourceNode:  srcHandle.NodeID,
			sourceLabel: srcHandle.Label,
			targetNode:  dstHandle.NodeID,
			targetLabel: dstHandle.Label,
		})
	}

	return out
}

// phaseBuildEdges resolves each connection's content type (inferring
// from the producing port when the arrow didn't declare one) and carries
// forward any transform rules the arrow declared, plus whether the edge
// is a skippable conditional branch.
func phaseBuildEdges(connections []resolvedConnection, nodes map[domain.NodeID]domain.ExecutableNode, result *CompilationResult) map[domain.EdgeID]domain.ExecutableEdge {
	edges := make(map[domain.EdgeID]domain.ExecutableEdge, len(connections))

	for _, c := range connections {
		ct := c.arrow.ContentType
		if ct == "" {
			ct = outputContentType(nodes[c.sourceNode], c.sourceLabel)
		}

		skippable := false
		if srcNode := nodes[c.sourceNode]; srcNode.Type == domain.NodeTypeCondition &&
			(c.sourceLabel == domain.HandleCondTrue || c.sourceLabel == domain.HandleCondFalse) {
			skippable = srcNode.Condition.Skippable
		}

		edges[c.arrow.ID] = domain.ExecutableEdge{
			ID:          c.arrow.ID,
			Source:      c.sourceNode,
			SourceLabel: c.sourceLabel,
			Target:      c.targetNode,
			TargetLabel: c.targetLabel,
			ContentType: ct,
			Transforms:  parseTransforms(c.arrow.Data),
			Skippable:   skippable,
		}
	}

	return edges
}

func outputContentType(n domain.ExecutableNode, label domain.HandleLabel) domain.ContentType {
	spec, ok := domain.HandleSpecFor(n.Type)
	if !ok {
		return domain.ContentObject
	}
	for _, p := range spec.Outputs {
		if p.Label == label {
			return p.ContentType
		}
	}
	return domain.ContentObject
}

func parseTransforms(data map[string]any) []domain.TransformRule {
	raw, ok := data["transform_rules"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var rules []domain.TransformRule
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rule := domain.TransformRule{
			Kind:     domain.TransformKind(getString(m, "kind", "")),
			Path:     getString(m, "path", ""),
			Key:      getString(m, "key", ""),
			Template: getString(m, "template", ""),
		}
		if mapping := getStringMap(m, "mapping"); len(mapping) > 0 {
			rule.Mapping = mapping
		}
		rules = append(rules, rule)
	}
	return rules
}

// phaseOptimize builds the dependency index: grouped in/out edges per
// node and label, join policies, cycle detection via Tarjan's SCC
// algorithm, and a topological hint when the diagram has no cycles.
func phaseOptimize(nodes map[domain.NodeID]domain.ExecutableNode, edges map[domain.EdgeID]domain.ExecutableEdge) domain.DependencyIndex {
	idx := domain.DependencyIndex{
		InEdges:      make(map[domain.NodeID]map[domain.HandleLabel][]domain.EdgeID),
		OutEdges:     make(map[domain.NodeID]map[domain.HandleLabel][]domain.EdgeID),
		JoinPolicies: make(map[domain.NodeID]domain.JoinPolicy),
		KOfN:         make(map[domain.NodeID]int),
	}

	for id := range nodes {
		idx.JoinPolicies[id] = domain.JoinAll
	}

	for eid, e := range edges {
		if idx.InEdges[e.Target] == nil {
			idx.InEdges[e.Target] = make(map[domain.HandleLabel][]domain.EdgeID)
		}
		idx.InEdges[e.Target][e.TargetLabel] = append(idx.InEdges[e.Target][e.TargetLabel], eid)

		if idx.OutEdges[e.Source] == nil {
			idx.OutEdges[e.Source] = make(map[domain.HandleLabel][]domain.EdgeID)
		}
		idx.OutEdges[e.Source][e.SourceLabel] = append(idx.OutEdges[e.Source][e.SourceLabel], eid)
	}

	idx.Cycles = findSCCs(nodes, edges)
	if len(idx.Cycles) == 0 {
		idx.TopoHint = topoSort(nodes, edges)
	}

	return idx
}

// phaseAssemble produces the final ExecutableDiagram, deriving start
// nodes (those with no incoming edges at all) and copying the person map.
func phaseAssemble(d *domain.DomainDiagram, nodes map[domain.NodeID]domain.ExecutableNode, edges map[domain.EdgeID]domain.ExecutableEdge, idx domain.DependencyIndex, result *CompilationResult) *domain.ExecutableDiagram {
	diagram := domain.NewExecutableDiagram()
	diagram.Nodes = nodes
	diagram.Edges = edges
	diagram.DependencyIndex = idx
	diagram.MaxConcurrent = 0 // 0 means "unbounded"; caller sets an explicit cap

	for id := range nodes {
		if len(idx.InEdges[id]) == 0 {
			diagram.StartNodes = append(diagram.StartNodes, id)
		}
	}
	if len(diagram.StartNodes) == 0 {
		result.addf("assembly", "", "diagram has no start node (every node has an incoming edge)")
	}

	for pid, p := range d.Persons {
		diagram.PersonIndex[pid] = p
	}

	return diagram
}

func toNodeIDs(ss []string) []domain.NodeID {
	out := make([]domain.NodeID, len(ss))
	for i, s := range ss {
		out[i] = domain.NodeID(s)
	}
	return out
}

func toPersonIDs(ss []string) []domain.PersonID {
	out := make([]domain.PersonID, len(ss))
	for i, s := range ss {
		out[i] = domain.PersonID(s)
	}
	return out
}
