package pages

import (
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Tests lists patient tests in the selected date range.
func Tests(f *state.Formatter) Page[dxapi.PatientTest] {
	type row = dxapi.PatientTest

	full := []grid.Column[row]{
		instant(f, "analysisStartTime", hDateTime, row.ParsedTime),
		text(hPatientInfo, hPatientInfo, 24, func(p row) string { return join(p.PatientName, p.PatientID()) }),
		text(hTestInfo, hTestInfo, 24, func(p row) string { return join(p.TestTypeDisplayText, p.CartridgeID) }),
		text("outcome", hResults, 12, row.OutcomeLabel),
		text(hDeviceInfo, hDeviceInfo, 22, func(p row) string { return join(p.HandheldSerialNumber, p.AnalyzerSerialNumber) }),
		field[row]("facilityName", hLocation, 18),
		field[row]("deviceUserKey", hUserID, 12),
		more[row]("patientTestID"),
	}

	exports := []grid.Column[row]{
		instant(f, "time", hDateTime, row.ParsedTime),
		field[row]("patientName", "Patient Name", 0),
		text("patientID", "Patient ID", 0, row.PatientID),
		text("testType", "Test Type", 0, func(p row) string { return p.TestTypeDisplayText }),
		field[row]("cartridgeID", "Cartridge ID", 0),
		text("outcome", "Test Results", 0, row.OutcomeLabel),
		field[row]("handheldSerialNumber", "Handheld Serial Number", 0),
		field[row]("analyzerSerialNumber", "Analyzer Serial Number", 0),
		field[row]("facilityName", hLocation, 0),
		field[row]("deviceUserKey", "User", 0),
	}

	return Page[row]{
		info: Info{
			Name:           "tests",
			Title:          "Patient Tests",
			Control:        state.ControlTests,
			Placeholder:    "Search for tests",
			DetailResource: dxapi.PatientTestsPath,
			DateRange:      true,
			EditGated:      true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.PatientTests(p.Range.Start, p.Range.End))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "analysisStartTime", hPatientInfo, hTestInfo, grid.RowActionsColumnID),
			grid.MD: pick(full, "analysisStartTime", hPatientInfo, hTestInfo, "outcome", grid.RowActionsColumnID),
			grid.LG: full,
		},
		initialSort: grid.SortBy{ColumnID: "analysisStartTime", Desc: true},
		rowKey:      func(p row) string { return p.PatientTestID },
		exports:     exports,
		meta:        staticMeta("Patient Test", "patient test list", "patienttest"),
	}
}

// QC lists quality-control tests in the selected date range.
func QC(f *state.Formatter) Page[dxapi.QCTest] {
	type row = dxapi.QCTest

	testInfo := func(q row) string {
		if q.IsElectronic() {
			return join(q.TestTypeDisplayText, q.Cartridge())
		}
		return join(q.TestTypeDisplayText, q.Cartridge(), q.Concentration)
	}

	full := []grid.Column[row]{
		instant(f, "analysisStartTime", hDateTime, row.ParsedTime),
		text(hTestInfo, hTestInfo, 28, testInfo),
		field[row]("resultPassFail", hResults, 10),
		field[row]("facilityName", hLocation, 18),
		field[row]("deviceUserKey", hUserID, 12),
		more[row]("qcTestID"),
	}

	exports := []grid.Column[row]{
		instant(f, "time", hDateTime, row.ParsedTime),
		text("testType", "Test Type", 0, func(q row) string { return q.TestTypeDisplayText }),
		text("cartridge", "Cartridge ID", 0, row.Cartridge),
		field[row]("concentration", "Concentration", 0),
		field[row]("resultPassFail", "Test Results", 0),
		field[row]("facilityName", hLocation, 0),
		field[row]("deviceUserKey", "User", 0),
	}

	return Page[row]{
		info: Info{
			Name:           "qc",
			Title:          "QC Tests",
			Control:        state.ControlQC,
			Placeholder:    "Search for tests",
			DetailResource: dxapi.QCTestsPath,
			DateRange:      true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.QCTests(p.Range.Start, p.Range.End))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "analysisStartTime", hTestInfo, "resultPassFail", grid.RowActionsColumnID),
			grid.LG: full,
		},
		initialSort: grid.SortBy{ColumnID: "analysisStartTime", Desc: true},
		rowKey:      func(q row) string { return q.QCTestID },
		exports:     exports,
		meta:        staticMeta("qctests", "qc tests list", "qc tests"),
	}
}

// TestsSummary is the all-tests report, mixing patient and QC rows.
func TestsSummary(f *state.Formatter) Page[dxapi.TestSummary] {
	type row = dxapi.TestSummary

	full := []grid.Column[row]{
		instant(f, "date", hDateTime, row.ParsedTime),
		text(hTestInfo, hTestInfo, 24, func(s row) string { return join(s.PatientQCTest, s.TestTypeDisplayText, s.CartridgeID) }),
		text("testResult", hTestResult, 12, row.ResultLabel),
		text("analytes", hAnalytes, 24, row.AnalytesText),
		field[row]("facilityName", hLocation, 18),
		text(hPatientInfo, hPatientInfo, 22, func(s row) string { return join(s.PatientName, s.FacilityPatientKey) }),
		text(hDeviceInfo, hDeviceInfo, 22, func(s row) string { return join(s.AnalyzerSerialNumber, s.DeviceKey) }),
	}

	return Page[row]{
		info: Info{
			Name:        "tests-summary",
			Title:       "All Tests Report",
			Control:     state.ControlReports,
			Placeholder: "Search for tests",
			DateRange:   true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.TestsSummary(p.Range.Start, p.Range.End))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "date", hTestInfo, "testResult"),
			grid.MD: pick(full, "date", hTestInfo, "testResult", "analytes"),
			grid.XL: full,
		},
		initialSort: grid.SortBy{ColumnID: "date", Desc: true},
		meta:        staticMeta("alltests", "all tests reports list", "all tests reports"),
	}
}
