package dxapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// APIDateLayout is the YYYYMMDD form the API expects in query strings.
const APIDateLayout = "20060102"

// Endpoint paths, relative to /api/.
const (
	PatientTestsPath = "PatientTest"
	QCTestsPath      = "qc"
	DevicesPath      = "device"
	FacilitiesPath   = "facility"
	UsersPath        = "user"
	AccountPath      = "account/settings"
)

func apiDate(t time.Time) string {
	return t.Format(APIDateLayout)
}

// PatientTests lists patient tests in the inclusive range.
func PatientTests(start, end time.Time) string {
	return fmt.Sprintf("%s?startDate=%s&endDate=%s", PatientTestsPath, apiDate(start), apiDate(end))
}

// QCTests lists QC tests in the inclusive range.
func QCTests(start, end time.Time) string {
	return fmt.Sprintf("%s?startDate=%s&endDate=%s", QCTestsPath, apiDate(start), apiDate(end))
}

// NoticeFilter narrows notices by read state.
type NoticeFilter string

const (
	NoticesAll    NoticeFilter = "all"
	NoticesRead   NoticeFilter = "read"
	NoticesUnread NoticeFilter = "unread"
)

// Next cycles unread, read, all.
func (f NoticeFilter) Next() NoticeFilter {
	switch f {
	case NoticesUnread:
		return NoticesRead
	case NoticesRead:
		return NoticesAll
	default:
		return NoticesUnread
	}
}

// DeviceNotices lists notices of one device.
func DeviceNotices(deviceID string, start, end time.Time, filter NoticeFilter) string {
	path := fmt.Sprintf("notice/device/%s?startdate=%s&enddate=%s",
		url.PathEscape(deviceID), apiDate(start), apiDate(end))
	switch filter {
	case NoticesRead:
		path += "&isRead=true"
	case NoticesUnread:
		path += "&isRead=false"
	}
	return path
}

// UserActivity lists a user's audit trail.
func UserActivity(userID string, start, end time.Time) string {
	return fmt.Sprintf("Activity/user-activity?StartDate=%s&EndDate=%s&UserID=%s",
		apiDate(start), apiDate(end), url.QueryEscape(userID))
}

// Summary report endpoints.
func TestsSummary(start, end time.Time) string {
	return summary("patienttest", start, end)
}

func LocationsSummary(start, end time.Time) string {
	return summary("facility", start, end)
}

func SystemsSummary(start, end time.Time) string {
	return summary("device", start, end)
}

func UsersSummary(start, end time.Time) string {
	return summary("user", start, end)
}

func summary(resource string, start, end time.Time) string {
	return fmt.Sprintf("%s/summary?startdate=%s&enddate=%s", resource, apiDate(start), apiDate(end))
}

// Detail returns "{resource}/{id}".
func Detail(resource, id string) string {
	return resource + "/" + url.PathEscape(id)
}

func noticeStatus(ids []string) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	return "notice/" + strings.Join(escaped, ",")
}
