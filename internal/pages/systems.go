package pages

import (
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Systems lists the devices of the distributor.
func Systems(f *state.Formatter) Page[dxapi.Device] {
	type row = dxapi.Device

	full := []grid.Column[row]{
		text(hDeviceInfo, hDeviceInfo, 26, func(d row) string {
			return join(d.DeviceType, d.Model, d.SoftwareVersion, d.FirmwareVersion)
		}),
		text(hNameSerial, hNameSerial, 26, func(d row) string { return join(d.DeviceName, d.DeviceKey, d.SerialNumber) }),
		field[row]("facilityName", hLocation, 18),
		field[row]("status", hStatus, 10),
		count("unreadNoticeCount", hNotices, func(d row) int { return d.UnreadNoticeCount }),
		day(f, "installDate", hInstalled, row.ParsedInstallDate),
		more[row]("deviceID"),
	}

	return Page[row]{
		info: Info{
			Name:           "systems",
			Title:          "Systems",
			Control:        state.ControlSystems,
			Placeholder:    "Search for systems",
			DetailResource: dxapi.DevicesPath,
		},
		key: func(Params) datacache.Key { return datacache.NewKey(dxapi.DevicesPath) },
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, hNameSerial, "status", "unreadNoticeCount", grid.RowActionsColumnID),
			grid.MD: pick(full, hNameSerial, "facilityName", "status", "unreadNoticeCount", grid.RowActionsColumnID),
			grid.LG: full,
		},
		rowKey: func(d row) string { return d.DeviceID },
		meta:   staticMeta("systems", "systems list", "systems"),
	}
}

// Notices lists the notices of one device, filtered by read state.
func Notices(f *state.Formatter) Page[dxapi.Notice] {
	type row = dxapi.Notice

	full := []grid.Column[row]{
		instant(f, "createdTime", "Time Sent", row.ParsedCreatedTime),
		field[row]("message", "Message", 30),
		field[row]("detail", "Details", 0),
		text("read", hStatus, 8, func(n row) string {
			if n.IsRead {
				return "read"
			}
			return "unread"
		}),
	}

	return Page[row]{
		info: Info{
			Name:        "notices",
			Title:       "Notices",
			Control:     state.ControlSystems,
			Placeholder: "Search for notices",
			Parent:      "systems",
			NeedsID:     true,
			DateRange:   true,
			BulkNotices: true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.DeviceNotices(p.ID, p.Range.Start, p.Range.End, p.Notices))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "createdTime", "message", "read"),
			grid.MD: full,
		},
		initialSort: grid.SortBy{ColumnID: "createdTime", Desc: true},
		rowKey:      func(n row) string { return n.NoticeID },
	}
}

// SystemsSummary is the per-device report.
func SystemsSummary() Page[dxapi.SystemSummary] {
	type row = dxapi.SystemSummary

	full := []grid.Column[row]{
		field[row]("deviceType", "Device Type", 14),
		field[row]("deviceKey", hNameSerial, 18),
		count("userCount", "Users allocated", func(s row) int { return s.UserCount }),
		count("testCount", "Total Patient Tests", func(s row) int { return s.TestCount }),
		count("failedTestCount", "Failed Patient Tests", func(s row) int { return s.FailedTestCount }),
		count("qcTestCount", "Total QC tests", row.QCTestCount),
		count("failedQCTestCount", "Failed QC tests", func(s row) int { return s.FailedQCTestCount }),
	}

	return Page[row]{
		info: Info{
			Name:        "systems-summary",
			Title:       "Systems Report",
			Control:     state.ControlReports,
			Placeholder: "Search for systems",
			DateRange:   true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.SystemsSummary(p.Range.Start, p.Range.End))
		},
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "deviceKey", "testCount", "qcTestCount"),
			grid.LG: full,
		},
		initialSort: grid.SortBy{ColumnID: "deviceKey"},
		meta:        staticMeta("systemreports", "system reports list", "system reports"),
	}
}
