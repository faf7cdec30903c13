package audit

import (
	exif "github.com/dsoprea/go-exif/v3"

	"github.com/dcxsea/fieldreport/internal/model"
)

// exifFindings reports EXIF tags found anywhere in data. Data without an
// EXIF block yields no findings.
func exifFindings(data []byte, location string) []model.Finding {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	findings := make([]model.Finding, 0)
	other := 0
	for _, entry := range entries {
		value := entry.TagName + ": " + entry.Formatted

		switch entry.TagName {
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			findings = append(findings, model.NewFinding("exif_gps", "GPS Coordinates in Image EXIF", value, location))
		case "Make", "Model", "SerialNumber", "BodySerialNumber", "LensSerialNumber":
			findings = append(findings, model.NewFinding("exif_camera", "Camera Information in Image EXIF", value, location))
		case "Software", "ProcessingSoftware", "HostComputer":
			findings = append(findings, model.NewFinding("exif_software", "Software Information in Image EXIF", value, location))
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			findings = append(findings, model.NewFinding("exif_datetime", "Timestamp in Image EXIF", value, location))
		default:
			other++
		}
	}

	// Tags without a specific finding are summarised once.
	if len(findings) == 0 && other > 0 {
		findings = append(findings, model.NewFinding("exif_metadata", "Image Carries EXIF Metadata", "EXIF tags present", location))
	}
	return findings
}
