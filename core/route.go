package core

// RouteDecision is the ephemeral classification of one input line. It is
// never persisted; creation of a goal consumes it into the goal's task.
type RouteDecision struct {
	Kind    BackendKind
	Agent   AgentID
	Command string
	Args    string
}

// Task converts the decision into the task descriptor stored on the goal.
func (d RouteDecision) Task() TaskDescriptor {
	return TaskDescriptor{
		Kind:    d.Kind,
		Agent:   d.Agent,
		Command: d.Command,
		Args:    d.Args,
	}
}
