package dto

import (
	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/notation"
	"github.com/radieske/ova-3d-platform/internal/core/phase"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
)

// Phase acrescenta o estado derivado à linha da fase
type Phase struct {
	repo.Phase
	State phase.State `json:"state"`
}

func NewPhase(p repo.Phase) Phase { return Phase{Phase: p, State: p.State()} }

func NewPhases(ps []repo.Phase) []Phase {
	out := make([]Phase, len(ps))
	for i, p := range ps {
		out[i] = NewPhase(p)
	}
	return out
}

type ParseResponse struct {
	Entries []notation.Entry `json:"entries"`
	Total   string           `json:"total"`
}

type TextBetResponse struct {
	Entries []notation.Entry `json:"entries"`
	Bets    []repo.Bet       `json:"bets"`
}

type ClearExcessResponse struct {
	Cleared        bool           `json:"cleared"`
	Message        string         `json:"message,omitempty"`
	Corrections    []exposure.Bet `json:"corrections"`
	TotalReduction string         `json:"totalReduction"`
}
