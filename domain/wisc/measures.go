// Package wisc lists the WISC-V measures available as prediction targets.
package wisc

import (
	"fmt"
	"strings"

	"crosspred/domain/core"
)

// ScaledSubtests are the ten WISC-V scaled subtests
var ScaledSubtests = []string{
	"WISC_BD_Scaled",
	"WISC_Similarities_Scaled",
	"WISC_MR_Scaled",
	"WISC_DS_Scaled",
	"WISC_Coding_Scaled",
	"WISC_Vocab_Scaled",
	"WISC_FW_Scaled",
	"WISC_VP_Scaled",
	"WISC_PS_Scaled",
	"WISC_SS_Scaled",
}

// RawSubtests mirror ScaledSubtests with raw scores
var RawSubtests = func() []string {
	raw := make([]string, len(ScaledSubtests))
	for i, s := range ScaledSubtests {
		raw[i] = strings.Replace(s, "Scaled", "Raw", 1)
	}
	return raw
}()

// FSIQ is the full-scale IQ
var FSIQ = []string{"WISC_FSIQ"}

// PrimaryIndices are the five WISC-V primary indices
var PrimaryIndices = []string{
	"WISC_VSI",
	"WISC_VCI",
	"WISC_FRI",
	"WISC_WMI",
	"WISC_PSI",
}

// DefaultLevel is full-scale IQ plus the primary indices
const DefaultLevel = 5

// Level returns the measures for a granularity level (0-5)
func Level(level int) ([]string, error) {
	var parts [][]string
	switch level {
	case 0:
		parts = [][]string{FSIQ, PrimaryIndices, ScaledSubtests}
	case 1:
		parts = [][]string{FSIQ}
	case 2:
		parts = [][]string{PrimaryIndices}
	case 3:
		parts = [][]string{ScaledSubtests}
	case 4:
		parts = [][]string{RawSubtests}
	case 5:
		parts = [][]string{FSIQ, PrimaryIndices}
	default:
		return nil, fmt.Errorf("%w: %d", core.ErrUnknownLevel, level)
	}

	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
