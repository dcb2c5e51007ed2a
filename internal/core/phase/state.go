package phase

// State do ciclo de vida de uma fase:
// DRAFT (sem apostas) -> ACTIVE (aceitando apostas) -> SETTLED (fechada, imutável).
// INACTIVE é uma fase desativada por outra ativação, ainda não fechada.
type State string

const (
	Draft    State = "DRAFT"
	Active   State = "ACTIVE"
	Inactive State = "INACTIVE"
	Settled  State = "SETTLED"
)

// StateOf deriva o estado a partir das colunas persistidas
func StateOf(active bool, totalBets int, settled bool) State {
	switch {
	case settled:
		return Settled
	case active && totalBets == 0:
		return Draft
	case active:
		return Active
	default:
		return Inactive
	}
}

// CanAcceptBets: só fase ativa e não fechada recebe apostas
func (s State) CanAcceptBets() bool { return s == Draft || s == Active }

// CanMutate vale para estorno, edição de valor e limpeza de excesso
func (s State) CanMutate() bool { return s != Settled }

// CanActivate: fase fechada não volta a ficar ativa
func (s State) CanActivate() bool { return s != Settled }
