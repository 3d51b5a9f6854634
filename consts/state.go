package consts

// Progress statuses shown per agent and ticker.
const (
	State_Pending = "pending"
	State_Done    = "Done"
	State_Failed  = "Failed"
)

// Round table phases, in execution order.
const (
	Phase_Init                = "init"
	Phase_OpeningPositions    = "opening_positions"
	Phase_Questioning         = "questioning"
	Phase_TopicDebate         = "topic_debate"
	Phase_Synthesis           = "synthesis"
	Phase_ModeratorConclusion = "moderator_conclusion"
	Phase_FinalVerdict        = "final_verdict"
	Phase_Done                = "done"
)
