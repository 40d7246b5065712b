package models

// Overview is the admin dashboard summary
type Overview struct {
	// Revenue is the sum of successful payment amounts
	Revenue        int64           `json:"revenue"`
	ActiveStudents int             `json:"activeStudents"`
	TotalUsers     int             `json:"totalUsers"`
	ContentCount   int             `json:"contentCount"`
	RecentActivity []AuditLogEntry `json:"recentActivity"`
}

// OverviewActivityLimit is the number of audit entries shown on the dashboard
const OverviewActivityLimit = 5
