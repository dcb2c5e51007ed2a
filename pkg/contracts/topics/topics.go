package topics

const (
	// Apostas
	BetsSubmitted = "bets_submitted"

	// Fases
	PhaseSettled = "phase_settled"

	// DLQs
	BetsSubmittedDLQ = "bets_submitted_dlq"
)
