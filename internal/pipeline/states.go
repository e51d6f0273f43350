package pipeline

// State is a step of the orchestration state machine.
type State string

const (
	StateIdle                 State = "idle"
	StatePreparingInput       State = "preparing_input"
	StateExtractingFacts      State = "extracting_facts"
	StateScoringMatch         State = "scoring_match"
	StateRewritingDocs        State = "rewriting_docs"
	StateValidatingRewrite    State = "validating_rewrite"
	StateCorrectingRewrite    State = "correcting_rewrite"
	StateValidatingCorrection State = "validating_correction"
	StateAssemblingResult     State = "assembling_result"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Progress event categories
const (
	CategoryInput     = "input"
	CategoryStage     = "stage"
	CategoryGuardrail = "guardrail"
	CategoryOutput    = "output"
)

var stateCategory = map[State]string{
	StateIdle:                 CategoryInput,
	StatePreparingInput:       CategoryInput,
	StateExtractingFacts:      CategoryStage,
	StateScoringMatch:         CategoryStage,
	StateRewritingDocs:        CategoryStage,
	StateValidatingRewrite:    CategoryGuardrail,
	StateCorrectingRewrite:    CategoryGuardrail,
	StateValidatingCorrection: CategoryGuardrail,
	StateAssemblingResult:     CategoryOutput,
	StateDone:                 CategoryOutput,
	StateFailed:               CategoryOutput,
}

// transitions lists the states reachable from each state. Failed is reachable from every
// non-terminal state and is not listed.
var transitions = map[State][]State{
	StateIdle:                 {StatePreparingInput},
	StatePreparingInput:       {StateExtractingFacts, StateDone},
	StateExtractingFacts:      {StateScoringMatch},
	StateScoringMatch:         {StateRewritingDocs},
	StateRewritingDocs:        {StateValidatingRewrite},
	StateValidatingRewrite:    {StateCorrectingRewrite, StateAssemblingResult},
	StateCorrectingRewrite:    {StateValidatingCorrection},
	StateValidatingCorrection: {StateAssemblingResult},
	StateAssemblingResult:     {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
