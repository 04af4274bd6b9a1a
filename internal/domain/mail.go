package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeShiftAutoClosed = "shift_auto_closed"

type ShiftAutoClosedMailData struct {
	FullName  string `json:"fullName"`
	ShiftID   int64  `json:"shiftID"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
}
