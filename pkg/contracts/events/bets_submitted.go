package events

// Motivos de alteração do quadro de exposição de uma fase
const (
	ReasonSubmit      = "submit"
	ReasonVoid        = "void"
	ReasonUpdate      = "update"
	ReasonClearExcess = "clear_excess"
)

// Evento publicado no tópico "bets_submitted" sempre que as apostas de uma fase mudam.
// O exposure-worker recalcula o quadro da fase a partir do Postgres ao consumir.
type BetsSubmitted struct {
	PhaseID  string `json:"phase_id"`
	UserID   string `json:"user_id"`
	Count    int    `json:"count"`
	Volume   string `json:"volume"` // decimal em texto, ex: "1500.00"
	Reason   string `json:"reason"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
