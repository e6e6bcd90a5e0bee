package migration

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	reportFileModeConstant            = os.FileMode(0o644)
	reportPathFieldNameConstant       = "report_path"
	reportEncodeErrorTemplateConstant = "unable to encode summary report: %w"
	reportWriteErrorTemplateConstant  = "unable to write summary report: %w"
)

// WriteSummaryReport serializes the batch summary as YAML at the provided path.
func WriteSummaryReport(reportPath string, summary Summary) error {
	trimmedReportPath := strings.TrimSpace(reportPath)
	if len(trimmedReportPath) == 0 {
		return InvalidInputError{FieldName: reportPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	encodedSummary, encodeError := yaml.Marshal(summary)
	if encodeError != nil {
		return fmt.Errorf(reportEncodeErrorTemplateConstant, encodeError)
	}

	if writeError := os.WriteFile(trimmedReportPath, encodedSummary, reportFileModeConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, writeError)
	}
	return nil
}
