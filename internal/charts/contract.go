// Package charts resolves the dashboard's embedded numeric series and hands
// each one to a chart renderer. Every chart is described by a Contract that
// names the page elements and data sources it depends on, so the loader never
// reaches for ambient page state directly.
package charts

import (
	"errors"
	"fmt"
)

// Kind selects the chart type drawn for a series.
type Kind string

const (
	KindPie Kind = "pie"
	KindBar Kind = "bar"
)

// Valid reports whether k is a known chart type.
func (k Kind) Valid() bool {
	return k == KindPie || k == KindBar
}

// Well-known page identifiers for the two dashboard charts.
const (
	ProgressSourceID       = "progressDistributionData"
	ProgressMountID        = "progressDistributionChart"
	ProgressErrorElementID = "progress-chart-error"
	ProgressDataAttribute  = "data-progress-distribution"
	ProgressDebugElementID = "debug-progress-distribution"

	LessonSourceID       = "lessonFrequencyData"
	LessonMountID        = "lessonFrequencyChart"
	LessonErrorElementID = "lesson-chart-error"
	LessonDataAttribute  = "data-lesson-frequency"
	LessonDebugElementID = "debug-lesson-frequency"
)

// Contract ties one chart to the page elements it reads from and writes to.
type Contract struct {
	SourceID       string `yaml:"source_id" json:"source_id"`
	MountID        string `yaml:"mount_id" json:"mount_id"`
	ErrorElementID string `yaml:"error_element_id" json:"error_element_id"`
	DataAttribute  string `yaml:"data_attribute" json:"data_attribute"`
	DebugElementID string `yaml:"debug_element_id" json:"debug_element_id"`
	Kind           Kind   `yaml:"kind" json:"kind"`
}

// ProgressContract is the progress distribution pie chart.
func ProgressContract() Contract {
	return Contract{
		SourceID:       ProgressSourceID,
		MountID:        ProgressMountID,
		ErrorElementID: ProgressErrorElementID,
		DataAttribute:  ProgressDataAttribute,
		DebugElementID: ProgressDebugElementID,
		Kind:           KindPie,
	}
}

// LessonContract is the lesson frequency bar chart.
func LessonContract() Contract {
	return Contract{
		SourceID:       LessonSourceID,
		MountID:        LessonMountID,
		ErrorElementID: LessonErrorElementID,
		DataAttribute:  LessonDataAttribute,
		DebugElementID: LessonDebugElementID,
		Kind:           KindBar,
	}
}

// DefaultContracts returns the dashboard's two charts in render order.
func DefaultContracts() []Contract {
	return []Contract{ProgressContract(), LessonContract()}
}

// Validate checks that the contract names everything the loader needs.
func (c Contract) Validate() error {
	var errs []error
	if c.SourceID == "" {
		errs = append(errs, errors.New("source_id is required"))
	}
	if c.MountID == "" {
		errs = append(errs, errors.New("mount_id is required"))
	}
	if c.ErrorElementID == "" {
		errs = append(errs, errors.New("error_element_id is required"))
	}
	if !c.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown chart kind %q", c.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("contract %q: %w", c.SourceID, errors.Join(errs...))
	}
	return nil
}
