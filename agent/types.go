package agent

// Source tags every answer produced by the agent.
const Source = "AI Schoolmate Agent"

// State is a step of the orchestration state machine.
type State int

// Orchestration states.
const (
	StateStart State = iota
	StateResolvingIntent
	StateNoToolPath
	StateReconcilingArgs
	StateDispatching
	StateSynthesizing
	StateDone
	StateClarificationNeeded
	StateFailed
)

var stateNames = [...]string{
	StateStart:               "start",
	StateResolvingIntent:     "resolving_intent",
	StateNoToolPath:          "no_tool_path",
	StateReconcilingArgs:     "reconciling_args",
	StateDispatching:         "dispatching",
	StateSynthesizing:        "synthesizing",
	StateDone:                "done",
	StateClarificationNeeded: "clarification_needed",
	StateFailed:              "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateClarificationNeeded || s == StateFailed
}

// OrchestrationRequest is one caller query. SubjectID is trusted.
type OrchestrationRequest struct {
	Query     string
	SubjectID string
}

// InvocationRequest asks for one capability to run with the given arguments.
type InvocationRequest struct {
	ID         string         // engine call id, may be empty
	Capability string         // capability name
	Arguments  map[string]any // decoded JSON object
}

// InvocationOutcome is the result of one invocation.
type InvocationOutcome struct {
	Capability string
	Succeeded  bool
	Summary    string // rendered result when Succeeded
	Error      string // error text otherwise
	Err        error
}

// AgentResponse is the terminal artifact of a run.
type AgentResponse struct {
	Text   string `json:"message"`
	Source string `json:"source"`
	State  State  `json:"-"`
	RunID  string `json:"-"`
}
