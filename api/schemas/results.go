package schemas

// SkillResult is the two-tier outcome of an executed action. Summary is a
// short sentence suitable for an agent transcript; Detailed adds diagnostic
// context such as the target's outer HTML and per-strategy failure notes.
// Interaction failures are reported here rather than as Go errors.
type SkillResult struct {
	Summary  string `json:"summary_message"`
	Detailed string `json:"detailed_message"`
	Success  bool   `json:"success"`
}

// DropDownOption is a single option read from a <select> element.
type DropDownOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}
