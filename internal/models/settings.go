package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SettingsID is the fixed key of the singleton settings instance
const SettingsID = "default"

// WatermarkField is a viewer attribute that can be stamped on delivered documents
type WatermarkField string

const (
	WatermarkName   WatermarkField = "NAME"
	WatermarkMobile WatermarkField = "MOBILE"
	WatermarkClass  WatermarkField = "CLASS"
)

// Valid reports whether f is a known watermark field
func (f WatermarkField) Valid() bool {
	return f == WatermarkName || f == WatermarkMobile || f == WatermarkClass
}

// LogoPlacement is where the institution logo is rendered
type LogoPlacement string

const (
	LogoHeader LogoPlacement = "HEADER"
	LogoFooter LogoPlacement = "FOOTER"
	LogoBoth   LogoPlacement = "BOTH"
)

// Valid reports whether p is a known logo placement
func (p LogoPlacement) Valid() bool {
	return p == LogoHeader || p == LogoFooter || p == LogoBoth
}

// Settings is the singleton portal configuration
type Settings struct {
	ID               string           `json:"id"`
	InstitutionName  string           `json:"institutionName"`
	LogoURL          string           `json:"logoUrl"`
	ShowLogo         bool             `json:"showLogo"`
	LogoPlacement    LogoPlacement    `json:"logoPlacement"`
	AdminAddress     string           `json:"adminAddress"`
	ShowAdminAddress bool             `json:"showAdminAddress"`
	AdminMobile      string           `json:"adminMobile"`
	ShowAdminMobile  bool             `json:"showAdminMobile"`
	EnableWatermark  bool             `json:"enableWatermark"`
	WatermarkFields  []WatermarkField `json:"watermarkFields"`
	EnableAds        bool             `json:"enableAds"`
	AdMobCode        string           `json:"adMobCode"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// DefaultSettings returns the settings used when none are stored yet
func DefaultSettings() Settings {
	return Settings{
		ID:               SettingsID,
		InstitutionName:  "Grow-up Coaching Center",
		ShowLogo:         true,
		LogoPlacement:    LogoHeader,
		AdminAddress:     "123 Education Lane, Knowledge City",
		ShowAdminAddress: true,
		AdminMobile:      "9876543210",
		ShowAdminMobile:  true,
		EnableWatermark:  true,
		WatermarkFields:  []WatermarkField{WatermarkName, WatermarkMobile},
		EnableAds:        true,
	}
}

// FillDefaults completes a stored value that predates newer fields
func (s *Settings) FillDefaults() {
	def := DefaultSettings()
	s.ID = SettingsID
	if s.InstitutionName == "" {
		s.InstitutionName = def.InstitutionName
	}
	if !s.LogoPlacement.Valid() {
		s.LogoPlacement = def.LogoPlacement
	}
	if s.WatermarkFields == nil {
		s.WatermarkFields = []WatermarkField{}
	}
}

// PublicView hides contact details whose show flags are off
func (s Settings) PublicView() Settings {
	if !s.ShowAdminAddress {
		s.AdminAddress = ""
	}
	if !s.ShowAdminMobile {
		s.AdminMobile = ""
	}
	if !s.ShowLogo {
		s.LogoURL = ""
	}
	s.WatermarkFields = slices.Clone(s.WatermarkFields)
	return s
}

// SettingsPatch is a partial update of the settings. It never changes the instance id.
type SettingsPatch struct {
	InstitutionName  *string           `json:"institutionName,omitempty"`
	LogoURL          *string           `json:"logoUrl,omitempty"`
	ShowLogo         *bool             `json:"showLogo,omitempty"`
	LogoPlacement    *LogoPlacement    `json:"logoPlacement,omitempty"`
	AdminAddress     *string           `json:"adminAddress,omitempty"`
	ShowAdminAddress *bool             `json:"showAdminAddress,omitempty"`
	AdminMobile      *string           `json:"adminMobile,omitempty"`
	ShowAdminMobile  *bool             `json:"showAdminMobile,omitempty"`
	EnableWatermark  *bool             `json:"enableWatermark,omitempty"`
	WatermarkFields  *[]WatermarkField `json:"watermarkFields,omitempty"`
	EnableAds        *bool             `json:"enableAds,omitempty"`
	AdMobCode        *string           `json:"adMobCode,omitempty"`
}

// Validate checks enumerated values without touching any settings
func (p *SettingsPatch) Validate() error {
	if p.InstitutionName != nil && *p.InstitutionName == "" {
		return fmt.Errorf("%w: institution name cannot be empty", ErrValidation)
	}
	if p.LogoPlacement != nil && !p.LogoPlacement.Valid() {
		return fmt.Errorf("%w: invalid logo placement %q", ErrValidation, *p.LogoPlacement)
	}
	if p.WatermarkFields != nil {
		seen := map[WatermarkField]bool{}
		for _, f := range *p.WatermarkFields {
			if !f.Valid() {
				return fmt.Errorf("%w: invalid watermark field %q", ErrValidation, f)
			}
			if seen[f] {
				return fmt.Errorf("%w: duplicate watermark field %q", ErrValidation, f)
			}
			seen[f] = true
		}
	}
	return nil
}

// Apply merges the patch into s
func (p *SettingsPatch) Apply(s *Settings) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.InstitutionName != nil {
		s.InstitutionName = *p.InstitutionName
	}
	if p.LogoURL != nil {
		s.LogoURL = *p.LogoURL
	}
	if p.ShowLogo != nil {
		s.ShowLogo = *p.ShowLogo
	}
	if p.LogoPlacement != nil {
		s.LogoPlacement = *p.LogoPlacement
	}
	if p.AdminAddress != nil {
		s.AdminAddress = *p.AdminAddress
	}
	if p.ShowAdminAddress != nil {
		s.ShowAdminAddress = *p.ShowAdminAddress
	}
	if p.AdminMobile != nil {
		s.AdminMobile = *p.AdminMobile
	}
	if p.ShowAdminMobile != nil {
		s.ShowAdminMobile = *p.ShowAdminMobile
	}
	if p.EnableWatermark != nil {
		s.EnableWatermark = *p.EnableWatermark
	}
	if p.WatermarkFields != nil {
		s.WatermarkFields = slices.Clone(*p.WatermarkFields)
	}
	if p.EnableAds != nil {
		s.EnableAds = *p.EnableAds
	}
	if p.AdMobCode != nil {
		s.AdMobCode = *p.AdMobCode
	}
	s.FillDefaults()
	return nil
}

// AuditDetails lists the changed fields
func (p *SettingsPatch) AuditDetails() string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.InstitutionName != nil, "institutionName")
	add(p.LogoURL != nil, "logoUrl")
	add(p.ShowLogo != nil, "showLogo")
	add(p.LogoPlacement != nil, "logoPlacement")
	add(p.AdminAddress != nil, "adminAddress")
	add(p.ShowAdminAddress != nil, "showAdminAddress")
	add(p.AdminMobile != nil, "adminMobile")
	add(p.ShowAdminMobile != nil, "showAdminMobile")
	add(p.EnableWatermark != nil, "enableWatermark")
	add(p.WatermarkFields != nil, "watermarkFields")
	add(p.EnableAds != nil, "enableAds")
	add(p.AdMobCode != nil, "adMobCode")
	return strings.Join(fields, ", ")
}
