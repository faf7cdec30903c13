package model

// Severity represents how much an artifact finding could expose.
type Severity int

const (
	// SeverityInfo indicates informational findings such as the producing
	// software.
	SeverityInfo Severity = iota

	// SeverityLow indicates metadata that is rarely useful on its own.
	SeverityLow

	// SeverityMedium indicates metadata naming people or internal systems.
	SeverityMedium

	// SeverityHigh indicates metadata that pins down a location or device.
	SeverityHigh

	// SeverityCritical is reserved for findings that must block
	// distribution. No built-in finding uses it.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
var findingInfoMapping = map[string]FindingInfo{
	"text_private_key": {
		Severity:       SeverityCritical,
		Impact:         "The report body contains private key material that every recipient can read.",
		Recommendation: "Remove the key from the survey data and rotate it.",
	},
	"text_api_key": {
		Severity:       SeverityHigh,
		Impact:         "The report body contains what looks like an API token.",
		Recommendation: "Remove the token from the survey data and revoke it.",
	},
	"text_email": {
		Severity:       SeverityLow,
		Impact:         "The report body quotes an email address from the survey data.",
		Recommendation: "Check that the respondent agreed to be named.",
	},
	"exif_gps": {
		Severity:       SeverityHigh,
		Impact:         "An embedded image carries GPS coordinates that reveal where it was taken.",
		Recommendation: "Strip EXIF data from the logo before publishing it.",
	},
	"exif_camera": {
		Severity:       SeverityMedium,
		Impact:         "An embedded image names the camera or phone model that produced it.",
		Recommendation: "Strip EXIF data from the logo before publishing it.",
	},
	"pdf_author": {
		Severity:       SeverityMedium,
		Impact:         "The PDF names its author, which is sent to every recipient.",
		Recommendation: "Clear the author field in the converter profile.",
	},
	"docx_creator": {
		Severity:       SeverityMedium,
		Impact:         "The Word document records who created it.",
		Recommendation: "Leave the creator empty or set it to the organisation name.",
	},
	"docx_last_modified_by": {
		Severity:       SeverityMedium,
		Impact:         "The Word document records who last modified it.",
		Recommendation: "Leave the field empty or set it to the organisation name.",
	},
	"exif_software": {
		Severity:       SeverityLow,
		Impact:         "An embedded image names the software used to edit it.",
		Recommendation: "Strip EXIF data from the logo before publishing it.",
	},
	"exif_datetime": {
		Severity:       SeverityLow,
		Impact:         "An embedded image carries its original capture time.",
		Recommendation: "Strip EXIF data from the logo before publishing it.",
	},
	"exif_metadata": {
		Severity:       SeverityLow,
		Impact:         "An embedded image carries EXIF metadata.",
		Recommendation: "Strip EXIF data from the logo before publishing it.",
	},
	"pdf_document_id": {
		Severity:       SeverityLow,
		Impact:         "The PDF carries a document identifier that links copies of the same file.",
		Recommendation: "No action needed unless copies must not be linkable.",
	},
	"pdf_creator": {
		Severity:       SeverityInfo,
		Impact:         "The PDF names the application that created the source document.",
		Recommendation: "No action needed.",
	},
	"pdf_producer": {
		Severity:       SeverityInfo,
		Impact:         "The PDF names the converter that produced it.",
		Recommendation: "No action needed.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Inspect the artifact before distributing it.",
	}
}
