package events

// Evento emitido pelo lottery-service ao fechar uma fase.
// Valores monetários seguem como decimal em texto.
type PhaseSettled struct {
	PhaseID       string `json:"phase_id"`
	WinningNumber string `json:"winning_number,omitempty"`
	TotalIn       string `json:"total_in"`
	TotalOut      string `json:"total_out"`
	Profit        string `json:"profit"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
