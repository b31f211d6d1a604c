package dxapi

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// TestTypeTBI is the traumatic brain injury cartridge.
	TestTypeTBI   = "TBI"
	TestTypeCOVID = "COVID"

	electronicQCTest = "ElectronicQC"
)

// NewRecordID routes detail screens to an empty form.
const NewRecordID = "00000000-0000-0000-0000-000000000000"

// PatientTest mirrors a row of PatientTest.
type PatientTest struct {
	PatientTestID        string `json:"patientTestID"`
	PatientName          string `json:"patientName"`
	FacilityPatientKey   string `json:"facilityPatientKey"`
	TestType             string `json:"testType"`
	TestTypeDisplayText  string `json:"testTypeDisplayText"`
	CartridgeID          string `json:"cartridgeID"`
	Outcome              string `json:"outcome"`
	HandheldSerialNumber string `json:"handheldSerialNumber"`
	AnalyzerSerialNumber string `json:"analyzerSerialNumber"`
	FacilityName         string `json:"facilityName"`
	DeviceUserKey        string `json:"deviceUserKey"`
	DeviceKey            string `json:"deviceKey"`
	AnalysisStartTime    string `json:"analysisStartTime"`
	PatientScanTime      string `json:"patientScanTime"`
}

// ParsedTime prefers the patient scan time, which is what the handheld shows
// on its final result screen.
func (p PatientTest) ParsedTime() time.Time {
	if p.PatientScanTime != "" {
		if t := parseTime(p.PatientScanTime); !t.IsZero() {
			return t
		}
	}
	return parseTime(p.AnalysisStartTime)
}

// FacilityID and PatientID split FacilityPatientKey ("facility_patient").
func (p PatientTest) FacilityID() string {
	facility, _, _ := strings.Cut(p.FacilityPatientKey, "_")
	return facility
}

// PatientID returns the patient half of FacilityPatientKey.
func (p PatientTest) PatientID() string {
	_, patient, _ := strings.Cut(p.FacilityPatientKey, "_")
	return patient
}

// OutcomeLabel renders the outcome the way operators read it. TBI results are
// expressed as a CT scan recommendation.
func (p PatientTest) OutcomeLabel() string {
	return OutcomeLabel(p.TestType, p.Outcome)
}

// OutcomeLabel maps a raw outcome for testType to its display text.
func OutcomeLabel(testType, outcome string) string {
	if strings.EqualFold(testType, TestTypeCOVID) {
		return outcome
	}
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "positive":
		return "CT Scan"
	case "negative":
		return "No CT Scan"
	default:
		return outcome
	}
}

// QCTest mirrors a row of qc.
type QCTest struct {
	QCTestID            string `json:"qcTestID"`
	QCTestType          string `json:"qcTestType"`
	TestType            string `json:"testType"`
	TestTypeDisplayText string `json:"testTypeDisplayText"`
	CartridgeID         string `json:"cartridgeID"`
	CartridgePackageID  string `json:"cartridgePackageID"`
	Concentration       string `json:"concentration"`
	ResultPassFail      string `json:"resultPassFail"`
	FacilityName        string `json:"facilityName"`
	DeviceUserKey       string `json:"deviceUserKey"`
	DeviceKey           string `json:"deviceKey"`
	AnalysisStartTime   string `json:"analysisStartTime"`
	CartridgeScanTime   string `json:"cartridgeScanTime"`
}

// ParsedTime falls back to the cartridge scan time.
func (q QCTest) ParsedTime() time.Time {
	if t := parseTime(q.AnalysisStartTime); !t.IsZero() {
		return t
	}
	return parseTime(q.CartridgeScanTime)
}

// Cartridge returns the cartridge or, for packaged QC, the package id.
func (q QCTest) Cartridge() string {
	if q.CartridgeID != "" {
		return q.CartridgeID
	}
	return q.CartridgePackageID
}

// IsElectronic reports an electronic QC, which has no concentration level.
func (q QCTest) IsElectronic() bool {
	return strings.EqualFold(q.QCTestType, electronicQCTest)
}

// Device mirrors a row of device.
type Device struct {
	DeviceID          string `json:"deviceID"`
	DeviceName        string `json:"deviceName"`
	DeviceKey         string `json:"deviceKey"`
	SerialNumber      string `json:"serialNumber"`
	DeviceType        string `json:"deviceType"`
	Model             string `json:"model"`
	SoftwareVersion   string `json:"softwareVersion"`
	FirmwareVersion   string `json:"firmwareVersion"`
	FacilityID        string `json:"facilityID"`
	FacilityName      string `json:"facilityName"`
	Department        string `json:"department"`
	Notes             string `json:"notes"`
	Status            string `json:"status"`
	UnreadNoticeCount int    `json:"unreadNoticeCount"`
	InstallDate       string `json:"installDate"`
}

// ParsedInstallDate returns the zero time when the device was never installed.
func (d Device) ParsedInstallDate() time.Time {
	return parseTime(d.InstallDate)
}

// Facility mirrors a location.
type Facility struct {
	FacilityID   string   `json:"facilityID"`
	FacilityKey  string   `json:"facilityKey"`
	FacilityName string   `json:"facilityName" validate:"required"`
	Description  string   `json:"description"`
	Address1     string   `json:"address1" validate:"required"`
	Address2     string   `json:"address2"`
	City         string   `json:"city" validate:"required"`
	State        string   `json:"state" validate:"required"`
	Zip          string   `json:"zip" validate:"required"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
}

// IsNew reports whether the facility has not been saved yet.
func (f Facility) IsNew() bool {
	return f.FacilityID == "" || f.FacilityID == NewRecordID
}

// User mirrors a row of user.
type User struct {
	UserID             string `json:"userId"`
	ID                 string `json:"id"`
	Firstname          string `json:"firstname"`
	Lastname           string `json:"lastname"`
	Email              string `json:"email"`
	PortalRole         string `json:"portalRole"`
	Department         string `json:"department"`
	Status             string `json:"status"`
	FacilitiesCSV      string `json:"facilitiesCsv"`
	DateTrained        string `json:"dateTrained"`
	TrainingExpiration string `json:"trainingExpiration"`
}

// DisplayName is "Last, First".
func (u User) DisplayName() string {
	switch {
	case u.Lastname == "":
		return u.Firstname
	case u.Firstname == "":
		return u.Lastname
	}
	return u.Lastname + ", " + u.Firstname
}

// Notice mirrors a device notice.
type Notice struct {
	NoticeID    string `json:"noticeID"`
	CreatedTime string `json:"createdTime"`
	Message     string `json:"message"`
	Detail      string `json:"detail"`
	IsRead      bool   `json:"isRead"`
}

// ParsedCreatedTime returns the time the notice was sent.
func (n Notice) ParsedCreatedTime() time.Time {
	return parseTime(n.CreatedTime)
}

// AuditEvent mirrors a row of Activity/user-activity.
type AuditEvent struct {
	ActivityTime string          `json:"activityTime"`
	MessageType  string          `json:"messageType"`
	Description  string          `json:"description"`
	Details      json.RawMessage `json:"details,omitempty"`
}

// ParsedActivityTime returns when the activity happened.
func (a AuditEvent) ParsedActivityTime() time.Time {
	return parseTime(a.ActivityTime)
}

// TestSummary mirrors a row of patienttest/summary, which mixes patient and
// QC tests.
type TestSummary struct {
	PatientQCTest        string          `json:"patientQCTest"`
	TestType             string          `json:"testType"`
	TestTypeDisplayText  string          `json:"testTypeDisplayText"`
	CartridgeID          string          `json:"cartridgeID"`
	TestResult           string          `json:"testResult"`
	Analytes             json.RawMessage `json:"analytes"`
	FacilityName         string          `json:"facilityName"`
	PatientName          string          `json:"patientName"`
	FacilityPatientKey   string          `json:"facilityPatientKey"`
	AnalyzerSerialNumber string          `json:"analyzerSerialNumber"`
	DeviceKey            string          `json:"deviceKey"`
	AnalysisStartTime    string          `json:"analysisStartTime"`
	PatientScanTime      string          `json:"patientScanTime"`
	CartridgeScanTime    string          `json:"cartridgeScanTime"`
}

// IsPatient reports a patient row as opposed to a QC row.
func (s TestSummary) IsPatient() bool {
	return strings.EqualFold(s.PatientQCTest, "patient")
}

// ParsedTime picks the timestamp the same way the list screens do for the
// row's kind.
func (s TestSummary) ParsedTime() time.Time {
	candidates := []string{s.AnalysisStartTime, s.CartridgeScanTime}
	if s.IsPatient() {
		candidates = []string{s.PatientScanTime, s.AnalysisStartTime}
	}
	for _, c := range candidates {
		if t := parseTime(c); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// ResultLabel returns "-" for rows without a result.
func (s TestSummary) ResultLabel() string {
	if s.TestResult == "" {
		return "-"
	}
	return s.TestResult
}

// AnalytesText flattens the analytes payload into "name: value" pairs.
func (s TestSummary) AnalytesText() string {
	if len(s.Analytes) == 0 || string(s.Analytes) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(s.Analytes, &str); err == nil {
		return str
	}
	var obj map[string]any
	if err := json.Unmarshal(s.Analytes, &obj); err != nil {
		return string(s.Analytes)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fmt.Sprint(obj[k]))
	}
	return strings.Join(parts, ", ")
}

// LocationSummary mirrors a row of facility/summary.
type LocationSummary struct {
	FacilityName      string `json:"facilityName"`
	UserCount         int    `json:"userCount"`
	DeviceCount       int    `json:"deviceCount"`
	TestCount         int    `json:"testCount"`
	FailedTestCount   int    `json:"failedTestCount"`
	PassedQCTestCount int    `json:"passedQCTestCount"`
	FailedQCTestCount int    `json:"failedQCTestCount"`
}

// QCTestCount is passed plus failed QC tests.
func (l LocationSummary) QCTestCount() int {
	return l.PassedQCTestCount + l.FailedQCTestCount
}

// SystemSummary mirrors a row of device/summary.
type SystemSummary struct {
	DeviceType        string `json:"deviceType"`
	DeviceKey         string `json:"deviceKey"`
	UserCount         int    `json:"userCount"`
	TestCount         int    `json:"testCount"`
	FailedTestCount   int    `json:"failedTestCount"`
	PassedQCTestCount int    `json:"passedQCTestCount"`
	FailedQCTestCount int    `json:"failedQCTestCount"`
}

// QCTestCount is passed plus failed QC tests.
func (s SystemSummary) QCTestCount() int {
	return s.PassedQCTestCount + s.FailedQCTestCount
}

// UserSummary mirrors a row of user/summary.
type UserSummary struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	TestCount       int    `json:"testCount"`
	FailedTestCount int    `json:"failedTestCount"`
	DeviceCount     int    `json:"deviceCount"`
}

// Name is "First Last".
func (u UserSummary) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// AccountSettings mirrors account/settings.
type AccountSettings struct {
	LoginTimeout string `json:"loginTimeout" validate:"required"`
	DateFormatID string `json:"dateFormatID" validate:"required"`
	TimeFormatID string `json:"timeFormatID" validate:"required"`
	TimeZone     string `json:"timeZone" validate:"required,timezone"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// DeviceUpdate carries the editable fields of a device.
type DeviceUpdate struct {
	FacilityID string `json:"facilityID" validate:"required"`
	Department string `json:"department"`
	Notes      string `json:"notes"`
	DeviceName string `json:"deviceName"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts the ISO variants the API emits. Offset-less values are
// treated as UTC.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseTime is parseTime for callers outside the package.
func ParseTime(value string) time.Time {
	return parseTime(value)
}
