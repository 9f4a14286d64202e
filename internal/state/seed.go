package state

import "clinic/internal/core"

// Empty returns a snapshot with four empty, non-nil collections.
func Empty() Snapshot {
	return Snapshot{
		Clients:  []core.Client{},
		Staff:    []core.Staff{},
		Sessions: []core.Session{},
		Payments: []core.Payment{},
	}
}

// Demo returns the demonstration dataset used when no data has been stored yet.
func Demo() Snapshot {
	return Snapshot{
		Clients: []core.Client{
			{ID: "c1", Name: "John Smith", Email: "john.smith@email.com", Phone: "+91 98765 43210", Balance: core.Units(200), CreatedAt: core.NewDate(2024, 1, 15), TotalSessions: 12},
			{ID: "c2", Name: "Emily Johnson", Email: "emily.j@email.com", Phone: "+91 87654 32109", Balance: core.Units(150), CreatedAt: core.NewDate(2024, 2, 20), TotalSessions: 8},
			{ID: "c3", Name: "Michael Davis", Email: "michael.davis@email.com", Phone: "+91 76543 21098", Balance: core.Units(0), CreatedAt: core.NewDate(2024, 3, 10), TotalSessions: 15},
			{ID: "c4", Name: "Sarah Wilson", Email: "sarah.w@email.com", Phone: "+91 65432 10987", Balance: core.Units(320), CreatedAt: core.NewDate(2024, 1, 8), TotalSessions: 20},
			{ID: "c5", Name: "David Brown", Email: "david.brown@email.com", Phone: "+91 54321 09876", Balance: core.Units(80), CreatedAt: core.NewDate(2024, 4, 5), TotalSessions: 6},
		},
		Staff: []core.Staff{
			{ID: "s1", Name: "Dr. Brown", Email: "dr.brown@clinic.com", Phone: "+91 99888 77766", CompensationRate: 70, CompensationType: core.CompensationPercentage, TotalEarnings: core.Units(12500), SessionsCount: 45},
			{ID: "s2", Name: "Dr. Smith", Email: "dr.smith@clinic.com", Phone: "+91 88777 66655", CompensationRate: 500, CompensationType: core.CompensationFixed, TotalEarnings: core.Units(8500), SessionsCount: 32},
			{ID: "s3", Name: "Therapist Angela", Email: "angela@clinic.com", Phone: "+91 77666 55544", CompensationRate: 60, CompensationType: core.CompensationPercentage, TotalEarnings: core.Units(6800), SessionsCount: 28},
		},
		Sessions: []core.Session{
			{ID: "sess1", ClientID: "c1", StaffID: "s1", Date: core.NewDate(2024, 9, 29), StartTime: "09:00", Duration: 60, Type: core.SessionOffline, Fee: core.Units(100), Status: core.StatusScheduled, Notes: "Regular session"},
			{ID: "sess2", ClientID: "c2", StaffID: "s2", Date: core.NewDate(2024, 9, 29), StartTime: "10:30", Duration: 40, Type: core.SessionOnline, Fee: core.Units(80), Status: core.StatusCompleted, MarkedBy: "s2", Notes: "Video consultation completed"},
			{ID: "sess3", ClientID: "c4", StaffID: "s1", Date: core.NewDate(2024, 9, 29), StartTime: "14:00", Duration: 60, Type: core.SessionOffline, Fee: core.Units(120), Status: core.StatusPending, Notes: "Follow-up session"},
			{ID: "sess4", ClientID: "c1", StaffID: "s1", Date: core.NewDate(2024, 9, 30), StartTime: "11:00", Duration: 60, Type: core.SessionOnline, Fee: core.Units(100), Status: core.StatusScheduled, Notes: "Online therapy session"},
			{ID: "sess5", ClientID: "c3", StaffID: "s3", Date: core.NewDate(2024, 9, 30), StartTime: "15:30", Duration: 40, Type: core.SessionOffline, Fee: core.Units(90), Status: core.StatusScheduled, Notes: "Regular check-up"},
		},
		Payments: []core.Payment{
			{ID: "pay1", ClientID: "c3", Amount: core.Units(300), Date: core.NewDate(2024, 9, 25), Method: core.MethodUPI, SessionIDs: []string{"sess_old1", "sess_old2", "sess_old3"}, Notes: "Payment for 3 sessions"},
			{ID: "pay2", ClientID: "c2", Amount: core.Units(160), Date: core.NewDate(2024, 9, 20), Method: core.MethodCash, SessionIDs: []string{"sess_old4", "sess_old5"}, Notes: "Cash payment for 2 sessions"},
		},
	}
}
