package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// чтение файлов форм
	ReadInfo                Code = 1000
	ReadIO                  Code = 1001
	ReadBadFormat           Code = 1002
	ReadMissingField        Code = 1003
	ReadUnknownIntegralType Code = 1004
	ReadExprSyntax          Code = 1005
	ReadBadMarkerArity      Code = 1006

	// coordinate derivative pass
	MarkInfo              Code = 2000
	MarkNotOutermost      Code = 2001
	MarkChainMismatch     Code = 2002
	MarkInvalidTarget     Code = 2003
	MarkRoundTripMismatch Code = 2004
	MarkChainCount        Code = 2005 // informational: chain length per form

	// snapshots
	SnapInfo           Code = 3000
	SnapSchemaMismatch Code = 3001
	SnapDigestMismatch Code = 3002
	SnapNotFound       Code = 3003
	SnapIO             Code = 3004

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	ReadInfo:                "Form file information",
	ReadIO:                  "Cannot read form file",
	ReadBadFormat:           "Malformed form file",
	ReadMissingField:        "Missing required field",
	ReadUnknownIntegralType: "Unknown integral type",
	ReadExprSyntax:          "Invalid integrand expression",
	ReadBadMarkerArity:      "coordinate_derivative takes an expression and three parameters",
	MarkInfo:                "Coordinate derivative information",
	MarkNotOutermost:        "Coordinate derivative must be outermost",
	MarkChainMismatch:       "Integrals carry different coordinate derivatives",
	MarkInvalidTarget:       "Invalid strip/attach target",
	MarkRoundTripMismatch:   "Strip and attach did not reproduce the form",
	MarkChainCount:          "Coordinate derivative chain",
	SnapInfo:                "Snapshot information",
	SnapSchemaMismatch:      "Snapshot schema mismatch",
	SnapDigestMismatch:      "Snapshot content digest mismatch",
	SnapNotFound:            "Snapshot not found",
	SnapIO:                  "Cannot read or write snapshot",
	ObsInfo:                 "Observability information",
	ObsTimings:              "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CD%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SN%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
