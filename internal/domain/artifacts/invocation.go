package artifacts

import "slices"

// InvocationSpec is everything needed to start the delegate once.
// It is immutable: accessors return copies.
type InvocationSpec struct {
	executable    string
	args          []string
	workingDir    string
	telemetryFile string
	languageFile  string
}

// NewInvocationSpec builds a spec. telemetryFile and languageFile may be empty.
func NewInvocationSpec(executable string, args []string, workingDir, telemetryFile, languageFile string) InvocationSpec {
	return InvocationSpec{
		executable:    executable,
		args:          slices.Clone(args),
		workingDir:    workingDir,
		telemetryFile: telemetryFile,
		languageFile:  languageFile,
	}
}

// Executable is the program to start (node).
func (s InvocationSpec) Executable() string { return s.executable }

// Args returns a copy of the ordered argument list, entry point first.
func (s InvocationSpec) Args() []string { return slices.Clone(s.args) }

// WorkingDir is the directory the delegate starts in.
func (s InvocationSpec) WorkingDir() string { return s.workingDir }

// TelemetryFile is the path the delegate may write telemetry to, or "".
func (s InvocationSpec) TelemetryFile() string { return s.telemetryFile }

// LanguageFile is the serialized localized messages file, or "".
func (s InvocationSpec) LanguageFile() string { return s.languageFile }

// TelemetryRecord holds the fields read back from a telemetry file.
// A nil field was absent or not a string.
type TelemetryRecord struct {
	AcquiredArtifacts  *string
	ActivatedArtifacts *string
}
