package document

import (
	"context"
	"time"
)

// Page geometry in points. A4 with equal margins on every side.
const (
	PageWidth  = 595.0
	PageHeight = 842.0
	PageMargin = 56.7
)

// Cover font sizes in points.
const (
	CompanyNameSize = 24.0
	HeadingSize     = 20.0
	SubtitleSize    = 24.0
	PreparedSize    = 14.0
	DateStampSize   = 14.0
)

// LogoWidth is the rendered width of the cover logo in points. The height
// follows the image's aspect ratio.
const LogoWidth = 150.0

// DateLayout formats the cover footer date, e.g. "January 02, 2006".
const DateLayout = "January 02, 2006"

// CoverText is the fixed wording of the cover page.
type CoverText struct {
	LogoURL     string `yaml:"logoURL"`
	CompanyName string `yaml:"companyName"`
	Heading     string `yaml:"heading"`
	Subtitle    string `yaml:"subtitle"`
	PreparedFor string `yaml:"preparedFor"`
	PreparedBy  string `yaml:"preparedBy"`
}

// DefaultCoverText returns the standard cover wording.
func DefaultCoverText() CoverText {
	return CoverText{
		LogoURL:     "https://dcxsea.com/asset/images/logo/LOGO_DCX.png",
		CompanyName: "DCx Co., Ltd.",
		Heading:     "Report",
		Subtitle:    "Indigenous Agriculture Adaptation",
		PreparedFor: "Jack Jasmin",
		PreparedBy:  "Black Eye Team",
	}
}

// Image is a decoded-and-reencoded PNG image with its pixel dimensions.
type Image struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// LogoSource retrieves the cover logo.
type LogoSource interface {
	Logo(ctx context.Context, url string) (*Image, error)
}

// Cover is the first page of every document.
type Cover struct {
	CoverText

	// Logo is nil when the logo could not be retrieved.
	Logo *Image `json:"logo,omitempty"`

	// Date is stamped in the footer.
	Date time.Time `json:"date"`
}

// DateStamp returns the footer text.
func (c Cover) DateStamp() string {
	return "Date: " + c.Date.Format(DateLayout)
}

// PreparedForLine returns the "Prepared for" line.
func (c Cover) PreparedForLine() string {
	return "Prepared for: " + c.PreparedFor
}

// PreparedByLine returns the "Prepared by" line.
func (c Cover) PreparedByLine() string {
	return "Prepared by: " + c.PreparedBy
}

// LogoHeight returns the rendered logo height in points, or zero without
// a logo.
func (c Cover) LogoHeight() float64 {
	if c.Logo == nil || c.Logo.Width == 0 {
		return 0
	}
	return LogoWidth * float64(c.Logo.Height) / float64(c.Logo.Width)
}
