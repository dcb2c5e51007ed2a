package slot

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

// Space é o tamanho fixo do espaço de números (000-999)
const Space = 1000

const (
	codeAdjustment = "ADJ"
	codeExcess     = "EXC"
)

// ErrInvalid indica um número que não é "000".."999" nem um código reservado
var ErrInvalid = errors.New("slot: invalid number")

// Kind diferencia número direto dos dois códigos reservados de ajuste manual
type Kind uint8

const (
	KindDirect Kind = iota + 1
	KindAdjustment
	KindExcess
)

// Slot é o "number" de uma aposta: um número direto 000-999 ou um dos códigos
// reservados ADJ (ajuste de volume) e EXC (ajuste de excesso).
// O valor zero não é válido.
type Slot struct {
	kind Kind
	n    uint16
}

// Direct retorna o slot do número n (0..999)
func Direct(n int) (Slot, error) {
	if n < 0 || n >= Space {
		return Slot{}, fmt.Errorf("%w: %d", ErrInvalid, n)
	}
	return Slot{kind: KindDirect, n: uint16(n)}, nil
}

// MustDirect é Direct para números já validados; entra em pânico fora do intervalo.
func MustDirect(n int) Slot {
	s, err := Direct(n)
	if err != nil {
		panic(err)
	}
	return s
}

func Adjustment() Slot { return Slot{kind: KindAdjustment} }
func Excess() Slot     { return Slot{kind: KindExcess} }

// Parse aceita exatamente 3 dígitos ou os códigos ADJ/EXC.
func Parse(s string) (Slot, error) {
	switch s {
	case codeAdjustment:
		return Adjustment(), nil
	case codeExcess:
		return Excess(), nil
	}
	if len(s) != 3 || !allDigits(s) {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	n, _ := strconv.Atoi(s)
	return Direct(n)
}

// Normalize completa com zeros à esquerda números de 1 ou 2 dígitos vindos da
// camada de submissão ("7" -> "007") e então faz o Parse.
func Normalize(s string) (Slot, error) {
	if s == codeAdjustment || s == codeExcess {
		return Parse(s)
	}
	if len(s) == 0 || len(s) > 3 || !allDigits(s) {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	for len(s) < 3 {
		s = "0" + s
	}
	return Parse(s)
}

func (s Slot) Kind() Kind     { return s.kind }
func (s Slot) Valid() bool    { return s.kind != 0 }
func (s Slot) IsDirect() bool { return s.kind == KindDirect }

// Index retorna a posição do número no tabuleiro; ok=false para ADJ/EXC.
func (s Slot) Index() (int, bool) {
	if s.kind != KindDirect {
		return 0, false
	}
	return int(s.n), true
}

func (s Slot) String() string {
	switch s.kind {
	case KindDirect:
		return fmt.Sprintf("%03d", s.n)
	case KindAdjustment:
		return codeAdjustment
	case KindExcess:
		return codeExcess
	}
	return ""
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalid
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	v, err := Normalize(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value grava o slot como VARCHAR(3)
func (s Slot) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, ErrInvalid
	}
	return s.String(), nil
}

func (s *Slot) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalid, src)
	}
	// linhas antigas podem ter 2 dígitos
	v, err := Normalize(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
