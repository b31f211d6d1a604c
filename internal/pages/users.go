package pages

import (
	"strings"
	"time"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/state"
)

// Users lists portal and device users.
func Users(f *state.Formatter) Page[dxapi.User] {
	type row = dxapi.User

	full := []grid.Column[row]{
		text("name", hName, 22, row.DisplayName),
		field[row]("id", hID, 10),
		text(hUserInfo, hUserInfo, 24, func(u row) string { return join(u.Email, u.PortalRole) }),
		field[row]("department", hDepartment, 14),
		field[row]("status", hStatus, 10),
		field[row]("facilitiesCsv", hLocation, 18),
		field[row]("portalRole", hRole, 12),
		day(f, "dateTrained", hDateTrained, func(u row) time.Time { return dxapi.ParseTime(u.DateTrained) }),
		day(f, "trainingExpiration", hDateExpires, func(u row) time.Time { return dxapi.ParseTime(u.TrainingExpiration) }),
		more[row]("userId"),
	}

	return Page[row]{
		info: Info{
			Name:           "users",
			Title:          "Users",
			Control:        state.ControlUsers,
			Placeholder:    "Search for users",
			DetailResource: dxapi.UsersPath,
		},
		key: func(Params) datacache.Key { return datacache.NewKey(dxapi.UsersPath) },
		columns: grid.ColumnSets[row]{
			grid.SM: pick(full, "name", "status", grid.RowActionsColumnID),
			grid.MD: pick(full, "name", "id", "department", "status", grid.RowActionsColumnID),
			grid.LG: pick(full, "name", "id", hUserInfo, "department", "status", "facilitiesCsv", grid.RowActionsColumnID),
			grid.XL: full,
		},
		initialSort: grid.SortBy{ColumnID: "name"},
		rowKey:      func(u row) string { return u.UserID },
		meta:        staticMeta("users", "users list", "users"),
	}
}

// AuditTrail lists one user's activity. Rows stay generic maps since the
// activity payload varies by message type.
func AuditTrail(f *state.Formatter) Page[map[string]any] {
	type row = map[string]any

	activityTime := func(r row) time.Time {
		s, _ := r["activityTime"].(string)
		return dxapi.ParseTime(s)
	}

	full := []grid.Column[row]{
		instant(f, "activityTime", hTime, activityTime),
		field[row]("messageType", hTag, 16),
		field[row]("description", hInfo, 0),
	}

	return Page[row]{
		info: Info{
			Name:        "audit-trail",
			Title:       "Audit Trail",
			Control:     state.ControlUsers,
			Placeholder: "Search for users activity",
			Parent:      "users",
			NeedsID:     true,
			DateRange:   true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.UserActivity(p.ID, p.Range.Start, p.Range.End))
		},
		columns:     grid.ColumnSets[row]{grid.SM: full},
		initialSort: grid.SortBy{ColumnID: "activityTime", Desc: true},
		meta: func(p Params) export.Meta {
			name := strings.TrimSpace("audittrail - " + p.Name)
			return export.Meta{Filename: name, Header: "audit trail", Sheetname: "audittrail"}
		},
	}
}

// UsersSummary is the per-user report.
func UsersSummary() Page[dxapi.UserSummary] {
	type row = dxapi.UserSummary

	full := []grid.Column[row]{
		text("name", hName, 22, row.Name),
		count("testCount", "Tests completed", func(u row) int { return u.TestCount }),
		count("failedTestCount", "Failed Patient Tests", func(u row) int { return u.FailedTestCount }),
		count("deviceCount", "Systems allocated", func(u row) int { return u.DeviceCount }),
	}

	return Page[row]{
		info: Info{
			Name:        "users-summary",
			Title:       "Users Report",
			Control:     state.ControlReports,
			Placeholder: "Search for users",
			DateRange:   true,
		},
		key: func(p Params) datacache.Key {
			return datacache.NewKey(dxapi.UsersSummary(p.Range.Start, p.Range.End))
		},
		columns:     grid.ColumnSets[row]{grid.SM: full},
		initialSort: grid.SortBy{ColumnID: "name"},
		meta:        staticMeta("userreports", "user reports list", "users"),
	}
}
