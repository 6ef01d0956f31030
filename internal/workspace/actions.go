package workspace

import (
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/transport"
)

// Action is the closed set of workspace transitions.
type Action interface {
	isAction()
}

type SelectPreset struct {
	Preset    contract.PresetDefinition
	Overrides contract.Overrides
}

type UpdateOverrides struct {
	Patch OverridePatch
}

type ResetOverrides struct {
	Preset    contract.PresetDefinition
	Overrides contract.Overrides
}

type RunStart struct {
	RunID string
	Spec  contract.ChartSpec
	Hash  string
}

type RunSuccess struct {
	RunID       string
	Result      contract.ChartResult
	Spec        contract.ChartSpec
	Hash        string
	Diagnostics []contract.Diagnostic
}

type RunFailure struct {
	RunID    string
	Message  string
	Category transport.Category
}

type RunCancelled struct {
	RunID string
}

type SetMode struct {
	Mode transport.Mode
}

func (SelectPreset) isAction()    {}
func (UpdateOverrides) isAction() {}
func (ResetOverrides) isAction()  {}
func (RunStart) isAction()        {}
func (RunSuccess) isAction()      {}
func (RunFailure) isAction()      {}
func (RunCancelled) isAction()    {}
func (SetMode) isAction()         {}
