package archivefs

import "fmt"

// ArchiveInspection says whether archive files found while listing are
// opened and listed like directories.
type ArchiveInspection int

const (
	// InspectNever lists archive files as plain files.
	InspectNever ArchiveInspection = iota

	// InspectAlways lists the contents of every archive file whose
	// extension has a registered reader.
	InspectAlways
)

// InspectionFromFlag returns the inspection mode for an on/off flag.
func InspectionFromFlag(inspect bool) ArchiveInspection {
	if inspect {
		return InspectAlways
	}
	return InspectNever
}

// Inspects reports whether the file at path should be opened as an
// archive under this mode.
func (ai ArchiveInspection) Inspects(path string) bool {
	if ai != InspectAlways {
		return false
	}
	_, err := Identify(path)
	return err == nil
}

func (ai ArchiveInspection) String() string {
	switch ai {
	case InspectNever:
		return "never"
	case InspectAlways:
		return "always"
	}
	return fmt.Sprintf("ArchiveInspection(%d)", int(ai))
}
