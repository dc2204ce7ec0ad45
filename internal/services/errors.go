package services

import (
  "errors"
  "fmt"
)

var (
  // ErrNoContent means the scope matched zero indexed chunks. Distinct from
  // generation failures so callers can tell "nothing indexed" apart from
  // "model pipeline broke".
  ErrNoContent = errors.New("no content found for the requested material")

  // ErrAllUnitsFailed means every per-chapter generation attempt failed.
  ErrAllUnitsFailed = errors.New("generation failed for every chapter")

  // ErrRollupFailed means the final synthesis pass over section summaries
  // failed. Unlike per-chapter quiz units, the roll-up cannot be skipped.
  ErrRollupFailed = errors.New("summary roll-up synthesis failed")

  // ErrArtifactNotFound means the referenced artifact does not exist.
  ErrArtifactNotFound = errors.New("artifact not found")

  // ErrIndexOutOfRange means a progress operation referenced an item index
  // outside the artifact's item range.
  ErrIndexOutOfRange = errors.New("item index out of range")
)

// UnitError wraps a failure of a single generation unit. These are contained:
// sibling units keep going and only the aggregate decides the outcome.
type UnitError struct {
  Unit  int
  Title string
  Err   error
}

func (e *UnitError) Error() string {
  return fmt.Sprintf("generation unit %d (%s) failed: %v", e.Unit, e.Title, e.Err)
}

func (e *UnitError) Unwrap() error {
  return e.Err
}
