package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	storePathFieldNameConstant        = "store_path"
	requiredValueMessageConstant      = "value required"
	unknownSlugTemplateConstant       = "no migration record found for slug %s"
	storeReadOperationNameConstant    = "read"
	storeWriteOperationNameConstant   = "write"
	storeReplaceOperationNameConstant = "replace"
	storeAccessErrorTemplateConstant  = "progress store %s failed for %s: %s"
	temporaryFilePatternConstant      = ".progress-*.tmp"
	lineSeparatorConstant             = "\n"
	temporaryFileModeConstant         = os.FileMode(0o644)
	headerLineCountConstant           = 1
	invalidInputErrorTemplateConstant = "%s: %s"
)

// InvalidInputError surfaces store construction validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// StoreAccessError reports the backing medium failing to read or atomically replace.
type StoreAccessError struct {
	Operation string
	Path      string
	Cause     error
}

// Error describes the access failure.
func (accessError StoreAccessError) Error() string {
	return fmt.Sprintf(storeAccessErrorTemplateConstant, accessError.Operation, accessError.Path, accessError.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (accessError StoreAccessError) Unwrap() error {
	return accessError.Cause
}

// UnknownSlugError indicates a slug without a backing store row.
type UnknownSlugError struct {
	Slug string
}

// Error describes the missing record.
func (unknownError UnknownSlugError) Error() string {
	return fmt.Sprintf(unknownSlugTemplateConstant, unknownError.Slug)
}

// Store durably maps repository slugs to ordered sets of completed step names,
// backed by a comma-delimited record file whose first row is a header.
type Store struct {
	filePath string
}

// NewStore constructs a Store over the provided backing file path.
func NewStore(filePath string) (*Store, error) {
	trimmedFilePath := strings.TrimSpace(filePath)
	if len(trimmedFilePath) == 0 {
		return nil, InvalidInputError{FieldName: storePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return &Store{filePath: trimmedFilePath}, nil
}

// Path returns the backing file path.
func (store *Store) Path() string {
	return store.filePath
}

// LoadRecords reads every data row in file order. The header row is never
// returned as data; malformed rows come back with whatever fields they carry
// so callers can skip them explicitly.
func (store *Store) LoadRecords() ([]Record, error) {
	dataLines, _, readError := store.readLines()
	if readError != nil {
		return nil, readError
	}

	loadedRecords := make([]Record, 0, len(dataLines))
	for _, dataLine := range dataLines {
		if len(strings.TrimSpace(dataLine)) == 0 {
			continue
		}
		loadedRecords = append(loadedRecords, parseRecordLine(dataLine))
	}
	return loadedRecords, nil
}

// FindRecord reads the current record for the slug. The boolean reports presence.
func (store *Store) FindRecord(slug string) (Record, bool, error) {
	loadedRecords, loadError := store.LoadRecords()
	if loadError != nil {
		return Record{}, false, loadError
	}

	for _, loadedRecord := range loadedRecords {
		if loadedRecord.Slug == slug {
			return loadedRecord, true, nil
		}
	}
	return Record{}, false, nil
}

// NextPendingStep re-reads the record for the slug and returns the first step
// in sequence order not yet completed. The boolean is false once all steps are done.
func (store *Store) NextPendingStep(slug string) (Step, bool, error) {
	currentRecord, recordExists, findError := store.FindRecord(slug)
	if findError != nil {
		return Step(emptyStepsSerializedValue), false, findError
	}
	if !recordExists {
		return Step(emptyStepsSerializedValue), false, UnknownSlugError{Slug: slug}
	}

	pendingStep, stepRemaining := currentRecord.NextPendingStep()
	return pendingStep, stepRemaining, nil
}

// MarkStepComplete idempotently appends the step to the slug's completed set.
// The updated store content is written to a temporary file and atomically
// renamed over the prior version; every other row, including the header, is
// copied through byte-identical.
func (store *Store) MarkStepComplete(slug string, step Step) error {
	dataLines, headerLines, readError := store.readLines()
	if readError != nil {
		return readError
	}

	slugFound := false
	updatedLines := make([]string, 0, len(headerLines)+len(dataLines))
	updatedLines = append(updatedLines, headerLines...)

	for _, dataLine := range dataLines {
		if len(strings.TrimSpace(dataLine)) == 0 {
			updatedLines = append(updatedLines, dataLine)
			continue
		}

		currentRecord := parseRecordLine(dataLine)
		if currentRecord.Slug != slug {
			updatedLines = append(updatedLines, dataLine)
			continue
		}

		slugFound = true
		if currentRecord.HasCompletedStep(step) {
			updatedLines = append(updatedLines, dataLine)
			continue
		}
		updatedLines = append(updatedLines, formatRecordLine(currentRecord.WithCompletedStep(step)))
	}

	if !slugFound {
		return UnknownSlugError{Slug: slug}
	}

	return store.replaceContent(strings.Join(updatedLines, lineSeparatorConstant))
}

// readLines splits the store into header lines and data lines, preserving the
// raw text of each line for byte-identical pass-through on rewrite.
func (store *Store) readLines() ([]string, []string, error) {
	storeContent, readError := os.ReadFile(store.filePath)
	if readError != nil {
		return nil, nil, StoreAccessError{Operation: storeReadOperationNameConstant, Path: store.filePath, Cause: readError}
	}

	allLines := strings.Split(string(storeContent), lineSeparatorConstant)
	if len(allLines) <= headerLineCountConstant {
		return nil, allLines, nil
	}
	return allLines[headerLineCountConstant:], allLines[:headerLineCountConstant], nil
}

func (store *Store) replaceContent(updatedContent string) error {
	storeDirectory := filepath.Dir(store.filePath)

	temporaryFile, createError := os.CreateTemp(storeDirectory, temporaryFilePatternConstant)
	if createError != nil {
		return StoreAccessError{Operation: storeWriteOperationNameConstant, Path: store.filePath, Cause: createError}
	}
	temporaryFilePath := temporaryFile.Name()

	if _, writeError := temporaryFile.WriteString(updatedContent); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryFilePath)
		return StoreAccessError{Operation: storeWriteOperationNameConstant, Path: store.filePath, Cause: writeError}
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryFilePath)
		return StoreAccessError{Operation: storeWriteOperationNameConstant, Path: store.filePath, Cause: closeError}
	}
	if chmodError := os.Chmod(temporaryFilePath, temporaryFileModeConstant); chmodError != nil {
		os.Remove(temporaryFilePath)
		return StoreAccessError{Operation: storeWriteOperationNameConstant, Path: store.filePath, Cause: chmodError}
	}

	if renameError := os.Rename(temporaryFilePath, store.filePath); renameError != nil {
		os.Remove(temporaryFilePath)
		return StoreAccessError{Operation: storeReplaceOperationNameConstant, Path: store.filePath, Cause: renameError}
	}
	return nil
}
