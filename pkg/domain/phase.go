package domain

// Phase is one of the four ordered design phases.
type Phase string

const (
	PhaseDiscover Phase = "DISCOVER"
	PhaseDefine   Phase = "DEFINE"
	PhaseDevelop  Phase = "DEVELOP"
	PhaseVerify   Phase = "VERIFY"
)

var phaseOrder = [...]Phase{PhaseDiscover, PhaseDefine, PhaseDevelop, PhaseVerify}

// Checkpoint labels the checkpoint shown at the end of a phase.
type Checkpoint string

const (
	CheckpointCP1 Checkpoint = "CP1"
	CheckpointCP2 Checkpoint = "CP2"
	CheckpointCP3 Checkpoint = "CP3"
	CheckpointCP4 Checkpoint = "CP4"
)

var checkpointOrder = [...]Checkpoint{CheckpointCP1, CheckpointCP2, CheckpointCP3, CheckpointCP4}

// DesignMode selects how deep a design session goes.
type DesignMode string

const (
	DesignSpeed DesignMode = "SPEED"
	DesignFull  DesignMode = "FULL"
)

// Valid reports whether d is a known design mode.
func (d DesignMode) Valid() bool {
	return d == DesignSpeed || d == DesignFull
}

// Phases returns the canonical phase order.
func Phases() []Phase {
	return phaseOrder[:]
}

// Index returns the position of p in the canonical order, or -1.
func (p Phase) Index() int {
	for i, known := range phaseOrder {
		if p == known {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the canonical phases.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Next returns the phase after p. It reports false at VERIFY or for an unknown phase.
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i == len(phaseOrder)-1 {
		return "", false
	}
	return phaseOrder[i+1], true
}

// Prev returns the phase before p. It reports false at DISCOVER or for an unknown phase.
func (p Phase) Prev() (Phase, bool) {
	i := p.Index()
	if i <= 0 {
		return "", false
	}
	return phaseOrder[i-1], true
}

// Checkpoint returns the checkpoint label that closes p.
func (p Phase) Checkpoint() Checkpoint {
	i := p.Index()
	if i < 0 {
		return ""
	}
	return checkpointOrder[i]
}
